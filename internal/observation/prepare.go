package observation

import (
	"log/slog"
	"regexp"
	"strings"

	"creators/internal/corrections"
	"creators/internal/logging"
	"creators/internal/orcid"
	"creators/internal/textutil"
)

// Report counts what each preprocessing step did.
type Report struct {
	Input         int
	Duplicates    int
	Skipped       int
	InitialsFixed int
	Corrected     int
	Stipulated    int
	Overridden    int
	Tagged        int
	Output        int
}

// LogValue renders the report as a slog group.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("input", r.Input),
		slog.Int("duplicates", r.Duplicates),
		slog.Int("skipped", r.Skipped),
		slog.Int("initials_fixed", r.InitialsFixed),
		slog.Int("corrected", r.Corrected),
		slog.Int("stipulated", r.Stipulated),
		slog.Int("overridden", r.Overridden),
		slog.Int("tagged", r.Tagged),
		slog.Int("output", r.Output),
	)
}

var (
	skipGivenPatterns   = []string{"National%", "(%", "Center%", "%Manager%"}
	skipSurnamePatterns = []string{"%Manager%", "%LTER%", "%USDA%"}

	misplacedInitial = regexp.MustCompile(`(?i)^[a-z]\.\s[a-z]+\s*`)

	surnameSuffixes = []string{" (In Memorium)", " (deceased)"}
)

// Prepare returns the working set derived from raw observations. The input
// slice is not modified. refs may be nil, in which case the reference-data
// steps are no-ops.
func Prepare(raw []Observation, refs *corrections.Set, logger *slog.Logger) ([]Observation, Report) {
	logger = logging.NewComponentLogger(logger, "prepare")
	report := Report{Input: len(raw)}

	out := make([]Observation, 0, len(raw))
	seen := make(map[dedupeKey]struct{}, len(raw))
	for _, o := range raw {
		key := dedupeKey{pid: o.Package, role: o.Role, surname: o.Surname, given: o.GivenName}
		if _, dup := seen[key]; dup {
			report.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		if skipped(o) {
			report.Skipped++
			continue
		}
		o = o.Clone()
		o.Correction = CodeNone
		if fixMisplacedInitial(&o) {
			report.InitialsFixed++
		}
		clean(&o)
		o.UniqueID = orcid.Trim(o.UniqueID)
		out = append(out, o)
	}

	if refs != nil {
		for _, c := range refs.Identifiers {
			for i := range out {
				if !c.Matches(out[i].Surname, out[i].GivenName) {
					continue
				}
				switch c.Kind {
				case corrections.KindCorrection:
					if out[i].UniqueID != c.Identifier {
						out[i].UniqueID = c.Identifier
						out[i].Correction = CodeCorrected
						report.Corrected++
					}
				case corrections.KindStipulation:
					if out[i].UniqueID == "" {
						out[i].UniqueID = c.Identifier
						out[i].Correction = CodeStipulated
						report.Stipulated++
					}
				}
			}
		}

		for _, ov := range refs.Overrides {
			for i := range out {
				if !ov.Matches(out[i].Scope(), out[i].Surname, out[i].GivenName) {
					continue
				}
				logger.Debug("override applied",
					logging.String(logging.FieldPackageID, out[i].Package.String()),
					logging.String("from", out[i].Name()),
					logging.String("to", ov.CorrectedName()),
				)
				out[i].Surname = ov.Surname
				out[i].GivenName = ov.GivenName
				report.Overridden++
			}
		}

		for i := range out {
			if !out[i].IsCreator() {
				continue
			}
			for _, org := range refs.Organizations {
				if org.Matches(out[i].Organization, out[i].Address, out[i].Emails, out[i].URLs) {
					out[i].Keywords = appendUnique(out[i].Keywords, org.Keyword)
				}
			}
			if len(out[i].Keywords) > 0 {
				report.Tagged++
			}
		}
	}

	report.Output = len(out)
	logger.Info("observations prepared", slog.Any("report", report))
	return out, report
}

type dedupeKey struct {
	pid     PackageID
	role    string
	surname string
	given   string
}

func skipped(o Observation) bool {
	if o.GivenName == "" || o.Surname == "Lead PI" {
		return true
	}
	for _, p := range skipGivenPatterns {
		if textutil.Like(p, o.GivenName) {
			return true
		}
	}
	for _, p := range skipSurnamePatterns {
		if textutil.Like(p, o.Surname) {
			return true
		}
	}
	return false
}

// fixMisplacedInitial moves a leading "X. " from the surname to the end of
// the given name: ("J. Smith", "Anna") becomes ("Smith", "Anna J.").
func fixMisplacedInitial(o *Observation) bool {
	if !misplacedInitial.MatchString(o.Surname) {
		return false
	}
	fields := strings.Fields(o.Surname)
	if len(fields) < 2 {
		return false
	}
	o.GivenName = strings.TrimSpace(o.GivenName + " " + fields[0])
	o.Surname = strings.Join(fields[1:], " ")
	return true
}

func clean(o *Observation) {
	o.SurnameRaw = o.Surname
	o.GivenName = textutil.CollapseSpace(textutil.StripDiacritics(strings.ReplaceAll(o.GivenName, ".", "")))
	surname := strings.ReplaceAll(o.Surname, ".", "")
	for _, suffix := range surnameSuffixes {
		surname = strings.TrimSuffix(surname, suffix)
	}
	o.Surname = textutil.CollapseSpace(textutil.StripDiacritics(surname))

	o.Organization = textutil.CleanDataField(o.Organization)
	o.Position = textutil.CleanDataField(o.Position)
	o.Address = textutil.CleanDataField(o.Address)
	if o.Address == "," {
		o.Address = ""
	}
	o.City = textutil.CollapseSpace(o.City)
	o.Country = textutil.CollapseSpace(o.Country)
	o.Emails = splitLower(o.Emails)
	o.URLs = splitLower(o.URLs)
}

// splitLower breaks space-separated multi-value fields apart and lowercases
// each entry.
func splitLower(values []string) []string {
	var out []string
	for _, v := range values {
		for _, f := range strings.Fields(v) {
			out = appendUnique(out, strings.ToLower(f))
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"creators/internal/config"
	"creators/internal/corrections"
	"creators/internal/observation"
)

// Reference data written by WriteCorrections unless replaced.
const (
	NicknamesXML = `<nicknames>
  <nickname><name1>bob</name1><name2>robert</name2></nickname>
  <nickname><name1>steve</name1><name2>stephen</name2></nickname>
</nicknames>`
	PersonVariantsXML = `<person_variants></person_variants>`
	OverridesXML      = `<overrides></overrides>`
	IdentifiersXML    = `<orcids></orcids>`
	OrganizationsXML  = `<organizations></organizations>`
)

// CorrectionFiles returns the absolute reference data paths of cfg.
func CorrectionFiles(cfg *config.Config) corrections.Files {
	return corrections.Files{
		Nicknames:      cfg.CorrectionsFile(cfg.Corrections.Nicknames),
		PersonVariants: cfg.CorrectionsFile(cfg.Corrections.PersonVariants),
		Overrides:      cfg.CorrectionsFile(cfg.Corrections.Overrides),
		Identifiers:    cfg.CorrectionsFile(cfg.Corrections.IdentifierCorrections),
		Organizations:  cfg.CorrectionsFile(cfg.Corrections.Organizations),
	}
}

// WriteCorrections writes all five reference files into the corrections
// directory. bodies is keyed by the configured file name; an entry of "-"
// leaves that file out.
func WriteCorrections(t testing.TB, cfg *config.Config, bodies map[string]string) {
	t.Helper()

	defaults := map[string]string{
		cfg.Corrections.Nicknames:             NicknamesXML,
		cfg.Corrections.PersonVariants:        PersonVariantsXML,
		cfg.Corrections.Overrides:             OverridesXML,
		cfg.Corrections.IdentifierCorrections: IdentifiersXML,
		cfg.Corrections.Organizations:         OrganizationsXML,
	}
	for name, body := range defaults {
		if override, ok := bodies[name]; ok {
			body = override
		}
		path := cfg.CorrectionsFile(name)
		if body == "-" {
			_ = os.Remove(path)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// Creator is one creator entry of a generated EML document.
type Creator struct {
	Given, Surname string
	Organization   string
	Email          string
	ORCID          string
}

// EML renders a minimal EML document crediting the given creators.
func EML(creators ...Creator) string {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<eml:eml xmlns:eml="https://eml.ecoinformatics.org/eml-2.2.0"><dataset>`
	for _, c := range creators {
		doc += "<creator><individualName>"
		if c.Given != "" {
			doc += "<givenName>" + c.Given + "</givenName>"
		}
		doc += "<surName>" + c.Surname + "</surName></individualName>"
		if c.Organization != "" {
			doc += "<organizationName>" + c.Organization + "</organizationName>"
		}
		if c.Email != "" {
			doc += "<electronicMailAddress>" + c.Email + "</electronicMailAddress>"
		}
		if c.ORCID != "" {
			doc += `<userId directory="https://orcid.org">` + c.ORCID + "</userId>"
		}
		doc += "</creator>"
	}
	return doc + "</dataset></eml:eml>"
}

// WriteEML stores an EML document in the archive directory of cfg under
// the name the archive expects for pid.
func WriteEML(t testing.TB, cfg *config.Config, pid observation.PackageID, body string) string {
	t.Helper()
	path := filepath.Join(cfg.Paths.EMLDir, pid.String()+".xml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir eml dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write eml %s: %v", path, err)
	}
	return path
}

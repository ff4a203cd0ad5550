package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that do not decompose into a base letter plus combining mark.
var letterFolds = strings.NewReplacer(
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "Th",
	"æ", "ae", "Æ", "Ae",
	"œ", "oe", "Œ", "Oe",
	"ß", "ss",
	"ı", "i",
)

var quoteFolds = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'", "′", "'", "`", "'",
	"“", `"`, "”", `"`, "„", `"`, "″", `"`,
)

// StripDiacritics removes combining marks and transliterates the handful of
// Latin letters that carry no decomposition.
func StripDiacritics(s string) string {
	if s == "" {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return letterFolds.Replace(out)
}

// CollapseSpace trims s and replaces every run of whitespace (newlines
// included) with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Casefold applies Unicode full case folding.
func Casefold(s string) string {
	return cases.Fold().String(s)
}

// NormalizeText is the comparison form of a name: quotes unified, diacritics
// stripped, casefolded, periods removed and whitespace collapsed.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = quoteFolds.Replace(norm.NFC.String(s))
	s = Casefold(StripDiacritics(s))
	s = strings.ReplaceAll(s, ".", "")
	return CollapseSpace(s)
}

// FoldKey is the casefold-only key that orders surname buckets.
func FoldKey(s string) string {
	return Casefold(s)
}

// SortKey orders canonical names so accented names sort with their unaccented
// spellings instead of after every ASCII name.
func SortKey(s string) string {
	return StripDiacritics(Casefold(s))
}

var dataFieldFixes = strings.NewReplacer(
	"¡", "",
	"!", "",
	"•", "-",
	"/", "-",
	"­", "-",
	"–", "-",
	"‐", "-",
	"+", "",
	"?", "",
	">", "",
)

// CleanDataField normalizes free text such as organizations, positions and
// addresses: whitespace collapsed, diacritics stripped, stray punctuation
// dropped or turned into hyphens.
func CleanDataField(s string) string {
	if s == "" {
		return s
	}
	s = quoteFolds.Replace(norm.NFC.String(s))
	s = StripDiacritics(s)
	s = dataFieldFixes.Replace(s)
	return CollapseSpace(s)
}

package corrections

import "creators/internal/textutil"

// CorrectionKind distinguishes the two identifier correction flavours.
type CorrectionKind string

const (
	// KindCorrection overwrites whatever identifier an observation carries.
	KindCorrection CorrectionKind = "correction"
	// KindStipulation only fills observations that have no identifier.
	KindStipulation CorrectionKind = "stipulation"
)

// IdentifierCorrection assigns an authoritative ORCID iD to a name.
type IdentifierCorrection struct {
	Kind       CorrectionKind
	Surname    string
	GivenName  string
	Identifier string
}

// Matches compares the surname exactly and the given name as a LIKE pattern.
func (c IdentifierCorrection) Matches(surname, givenName string) bool {
	return surname == c.Surname && textutil.Like(c.GivenName, givenName)
}

package corrections

import (
	"creators/internal/textutil"
)

// Override rewrites a misspelled name recorded in one scope.
type Override struct {
	OriginalSurname    string
	OriginalGivenName  string
	OriginalSurnameRaw string
	Surname            string
	GivenName          string
	Scope              string
}

// Matches reports whether an observation spelled surname/givenName in scope
// is covered. A % in the original surname turns it into a LIKE pattern; the
// given name and scope always compare exactly.
func (o Override) Matches(scope, surname, givenName string) bool {
	if scope != o.Scope || givenName != o.OriginalGivenName {
		return false
	}
	if textutil.HasWildcard(o.OriginalSurname) {
		return textutil.Like(o.OriginalSurname, surname)
	}
	return surname == o.OriginalSurname
}

// CorrectedName is the "surname, givenname" form the override produces.
func (o Override) CorrectedName() string {
	return o.Surname + ", " + o.GivenName
}

// Alias is the uncorrected spelling kept searchable under the corrected
// canonical name. The raw surname, when recorded, is preferred because the
// original surname may be a pattern.
func (o Override) Alias() string {
	surname := o.OriginalSurname
	if o.OriginalSurnameRaw != "" {
		surname = o.OriginalSurnameRaw
	}
	return surname + ", " + o.OriginalGivenName
}

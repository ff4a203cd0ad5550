// Package orcid extracts ORCID iDs from the free text recorded in EML userId
// elements.
package orcid

import (
	"regexp"
	"strings"
)

var pattern = regexp.MustCompile(`\d{4}-\d{4}-\d{4}-(\d{3}X|\d{4})`)

// Trim returns the first ORCID iD found in raw, uppercased, or "" when raw
// holds no recognizable identifier. Inputs look like
// "https://orcid.org/0000-0002-9312-7910", "orcid.org/0000-0001-8592-1316",
// "egoldstein http://orcid.org/0000-0001-9358-1016" or a bare user name.
func Trim(raw string) string {
	return pattern.FindString(strings.ToUpper(raw))
}

// Valid reports whether id is exactly one normalized ORCID iD.
func Valid(id string) bool {
	return id != "" && Trim(id) == id
}

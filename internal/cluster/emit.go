package cluster

import (
	"strings"
	"unicode/utf8"

	"creators/internal/observation"
)

// Emission is the canonical name produced for one creator cluster.
type Emission struct {
	// Surname is the first surname spelling in sort order.
	Surname string
	// Display is "surname, givenname" using the longest given name.
	Display string
	// Line is the full emitted form, with the alternatives after an arrow
	// when the cluster has several given names.
	Line        string
	GivenNames  []string
	Variants    []string
	Identifiers []string
	Scopes      []string
}

// VariantSeparator joins the display name and its alternatives in Line.
const VariantSeparator = "  -->  "

// Emit returns one emission per cluster that includes a creator and has a
// surname. A line identical to the previous one in the same surname bucket
// is suppressed.
func (s *Session) Emit() []Emission {
	var out []Emission
	for _, key := range s.keys {
		prev := ""
		for _, c := range s.buckets[key] {
			e, ok := emission(c)
			if !ok || e.Line == prev {
				continue
			}
			prev = e.Line
			out = append(out, e)
		}
	}
	return out
}

func emission(c *PersonCluster) (Emission, bool) {
	if !c.Has(AttrRole, observation.RoleCreator) {
		return Emission{}, false
	}
	surnames := c.Values(AttrSurname)
	if len(surnames) == 0 {
		return Emission{}, false
	}
	givenNames := c.Values(AttrGivenName)
	longest := ""
	for _, g := range givenNames {
		if utf8.RuneCountInString(g) > utf8.RuneCountInString(longest) {
			longest = g
		}
	}
	e := Emission{
		Surname:     surnames[0],
		Display:     surnames[0] + ", " + longest,
		GivenNames:  givenNames,
		Variants:    c.NameVariants(),
		Identifiers: c.Values(AttrIdentifier),
		Scopes:      c.Values(AttrScope),
	}
	e.Line = e.Display
	if len(givenNames) > 1 {
		e.Line += VariantSeparator + strings.Join(givenNames, " | ")
	}
	return e, true
}

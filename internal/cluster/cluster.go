package cluster

import (
	"cmp"
	"strings"

	"creators/internal/corrections"
	"creators/internal/observation"
)

// Attr names one string-valued attribute a cluster accumulates.
type Attr int

const (
	AttrSurname Attr = iota
	AttrGivenName
	AttrScope
	AttrPackage
	AttrRole
	AttrOrganization
	AttrPosition
	AttrAddress
	AttrCity
	AttrCountry
	AttrEmail
	AttrURL
	AttrIdentifier
	AttrKeyword
	numAttrs
)

var attrNames = [numAttrs]string{
	"surname", "givenname", "scope", "package", "role", "organization",
	"position", "address", "city", "country", "email", "url", "identifier",
	"keyword",
}

func (a Attr) String() string {
	if a < 0 || a >= numAttrs {
		return "unknown"
	}
	return attrNames[a]
}

// PersonCluster is the belief that a set of observations denote one person.
// Every attribute is a set; Merge unions all of them.
type PersonCluster struct {
	sources  Set[int64]
	variants Set[corrections.VariantKey]
	attrs    [numAttrs]Set[string]
}

func newCluster() *PersonCluster {
	c := &PersonCluster{
		sources:  NewSet[int64](),
		variants: NewSet[corrections.VariantKey](),
	}
	for i := range c.attrs {
		c.attrs[i] = NewSet[string]()
	}
	return c
}

// FromObservation returns a singleton cluster.
func FromObservation(o observation.Observation) *PersonCluster {
	c := newCluster()
	c.add(o)
	return c
}

func (c *PersonCluster) add(o observation.Observation) {
	c.sources.Add(o.SourceID)
	c.variants.Add(corrections.VariantKey{Surname: o.Surname, GivenName: o.GivenName, Scope: o.Scope()})
	addNonEmpty := func(a Attr, values ...string) {
		for _, v := range values {
			if v != "" {
				c.attrs[a].Add(v)
			}
		}
	}
	addNonEmpty(AttrSurname, o.Surname)
	addNonEmpty(AttrGivenName, o.GivenName)
	addNonEmpty(AttrScope, o.Scope())
	addNonEmpty(AttrPackage, o.Package.String())
	addNonEmpty(AttrRole, o.Role)
	addNonEmpty(AttrOrganization, o.Organization)
	addNonEmpty(AttrPosition, o.Position)
	addNonEmpty(AttrAddress, o.Address)
	addNonEmpty(AttrCity, o.City)
	addNonEmpty(AttrCountry, o.Country)
	addNonEmpty(AttrEmail, o.Emails...)
	addNonEmpty(AttrURL, o.URLs...)
	addNonEmpty(AttrIdentifier, o.UniqueID)
	addNonEmpty(AttrKeyword, o.Keywords...)
}

// Merge returns a new cluster whose every field is the union of a and b.
// Neither input is modified.
func Merge(a, b *PersonCluster) *PersonCluster {
	out := &PersonCluster{
		sources:  a.sources.Union(b.sources),
		variants: a.variants.Union(b.variants),
	}
	for i := range out.attrs {
		out.attrs[i] = a.attrs[i].Union(b.attrs[i])
	}
	return out
}

// Values returns the sorted members of one attribute.
func (c *PersonCluster) Values(a Attr) []string {
	return Sorted(c.attrs[a])
}

// Has reports whether attribute a contains v.
func (c *PersonCluster) Has(a Attr, v string) bool {
	return c.attrs[a].Has(v)
}

// Count returns the number of distinct values of attribute a.
func (c *PersonCluster) Count(a Attr) int {
	return len(c.attrs[a])
}

// SourceIDs returns the member observation ids in ascending order.
func (c *PersonCluster) SourceIDs() []int64 {
	return Sorted(c.sources)
}

// Size returns the number of member observations.
func (c *PersonCluster) Size() int {
	return len(c.sources)
}

// NameVariantKeys returns the (surname, givenname, scope) spellings of the
// members, ordered by surname, given name, then scope.
func (c *PersonCluster) NameVariantKeys() []corrections.VariantKey {
	return SortedFunc(c.variants, func(x, y corrections.VariantKey) int {
		return cmp.Or(
			strings.Compare(x.Surname, y.Surname),
			strings.Compare(x.GivenName, y.GivenName),
			strings.Compare(x.Scope, y.Scope),
		)
	})
}

// NameVariants returns the distinct "surname, givenname" spellings, sorted.
func (c *PersonCluster) NameVariants() []string {
	names := NewSet[string]()
	for k := range c.variants {
		names.Add(k.Surname + ", " + k.GivenName)
	}
	return Sorted(names)
}

// Anomalous reports whether the members disagree on their identifier.
func (c *PersonCluster) Anomalous() bool {
	return c.Count(AttrIdentifier) > 1
}

// Identifier returns the single identifier the cluster agrees on.
func (c *PersonCluster) Identifier() (string, bool) {
	if c.Count(AttrIdentifier) != 1 {
		return "", false
	}
	for id := range c.attrs[AttrIdentifier] {
		return id, true
	}
	return "", false
}

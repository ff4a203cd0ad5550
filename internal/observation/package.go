package observation

import (
	"fmt"
	"strconv"
	"strings"
)

// PackageID identifies one revision of a data package, rendered
// scope.identifier.revision.
type PackageID struct {
	Scope      string
	Identifier int
	Revision   int
}

// ParsePackageID parses "scope.identifier.revision". Scopes may not contain
// dots; identifier and revision must be non-negative integers.
func ParsePackageID(s string) (PackageID, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")
	if len(parts) != 3 || parts[0] == "" {
		return PackageID{}, fmt.Errorf("package id %q: want scope.identifier.revision", s)
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil || id < 0 {
		return PackageID{}, fmt.Errorf("package id %q: bad identifier", s)
	}
	rev, err := strconv.Atoi(parts[2])
	if err != nil || rev < 0 {
		return PackageID{}, fmt.Errorf("package id %q: bad revision", s)
	}
	return PackageID{Scope: parts[0], Identifier: id, Revision: rev}, nil
}

// String renders the id in its canonical form.
func (p PackageID) String() string {
	return p.Scope + "." + strconv.Itoa(p.Identifier) + "." + strconv.Itoa(p.Revision)
}

// Series is the revision-independent part, scope.identifier.
func (p PackageID) Series() string {
	return p.Scope + "." + strconv.Itoa(p.Identifier)
}

// IsZero reports whether p is the zero value.
func (p PackageID) IsZero() bool {
	return p == PackageID{}
}

// Compare orders ids by scope, identifier, then revision.
func (p PackageID) Compare(o PackageID) int {
	if c := strings.Compare(p.Scope, o.Scope); c != 0 {
		return c
	}
	if p.Identifier != o.Identifier {
		if p.Identifier < o.Identifier {
			return -1
		}
		return 1
	}
	switch {
	case p.Revision < o.Revision:
		return -1
	case p.Revision > o.Revision:
		return 1
	}
	return 0
}

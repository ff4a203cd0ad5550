package corrections

// VariantKey is one (surname, givenname, scope) spelling as recorded in a
// document. Keys compare exactly; no normalization is applied.
type VariantKey struct {
	Surname   string
	GivenName string
	Scope     string
}

// PersonGroup lists spellings that editors have confirmed belong to one
// person.
type PersonGroup struct {
	Variants []VariantKey
	Comment  string
}

// PersonVariants indexes person groups by spelling.
type PersonVariants struct {
	groups []PersonGroup
	index  map[VariantKey]int
}

// NewPersonVariants builds the lookup. When a spelling appears in several
// groups the last group wins.
func NewPersonVariants(groups []PersonGroup) *PersonVariants {
	pv := &PersonVariants{groups: groups, index: make(map[VariantKey]int)}
	for i, g := range groups {
		for _, v := range g.Variants {
			pv.index[v] = i
		}
	}
	return pv
}

// Len returns the number of groups.
func (p *PersonVariants) Len() int {
	if p == nil {
		return 0
	}
	return len(p.groups)
}

// Group returns the index of the group containing key.
func (p *PersonVariants) Group(key VariantKey) (int, bool) {
	if p == nil {
		return 0, false
	}
	idx, ok := p.index[key]
	return idx, ok
}

// Groups returns the curated groups in file order.
func (p *PersonVariants) Groups() []PersonGroup {
	if p == nil {
		return nil
	}
	return p.groups
}

package canonical

import (
	"cmp"
	"slices"
	"strings"

	"creators/internal/cluster"
	"creators/internal/corrections"
	"creators/internal/services"
	"creators/internal/textutil"
)

// Entry is one canonical name and its variants.
type Entry struct {
	Name     string   `json:"name"`
	Variants []string `json:"variants"`
}

// Table maps canonical names to the spellings that resolve to them.
type Table struct {
	variants map[string][]string
	reverse  map[string][]string
	names    []string
}

// Build assembles the table from cluster emissions. Emissions sharing a
// display name pool their variants. The uncorrected spelling of every
// override is added to each name whose variants include the corrected
// spelling, so searches for the original spelling still resolve.
func Build(emissions []cluster.Emission, overrides []corrections.Override) *Table {
	pooled := make(map[string][]string)
	for _, e := range emissions {
		pooled[e.Display] = append(pooled[e.Display], e.Variants...)
	}

	aliases := make(map[string][]string)
	for _, ov := range overrides {
		corrected := ov.CorrectedName()
		aliases[corrected] = append(aliases[corrected], ov.Alias())
	}

	entries := make([]Entry, 0, len(pooled))
	for name, variants := range pooled {
		withAliases := slices.Clone(variants)
		for _, v := range variants {
			withAliases = append(withAliases, aliases[v]...)
		}
		entries = append(entries, Entry{Name: name, Variants: withAliases})
	}
	return FromEntries(entries)
}

// FromEntries builds a table from stored entries. Variant lists are sorted
// and deduplicated.
func FromEntries(entries []Entry) *Table {
	t := &Table{
		variants: make(map[string][]string, len(entries)),
		reverse:  make(map[string][]string),
	}
	for _, e := range entries {
		merged := append(t.variants[e.Name], e.Variants...)
		slices.Sort(merged)
		t.variants[e.Name] = slices.Compact(merged)
	}
	for name, variants := range t.variants {
		t.names = append(t.names, name)
		for _, v := range variants {
			t.reverse[v] = append(t.reverse[v], name)
		}
	}
	sortNames(t.names)
	for v := range t.reverse {
		sortNames(t.reverse[v])
	}
	return t
}

// sortNames orders names as if they were unaccented and lowercased, falling
// back to byte order for names with the same key.
func sortNames(names []string) {
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(strings.Compare(textutil.SortKey(a), textutil.SortKey(b)), strings.Compare(a, b))
	})
}

// Len returns the number of canonical names.
func (t *Table) Len() int {
	return len(t.names)
}

// Names returns every canonical name in display order.
func (t *Table) Names() []string {
	return slices.Clone(t.names)
}

// Variants returns the spellings that resolve to name.
func (t *Table) Variants(name string) ([]string, error) {
	variants, ok := t.variants[name]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "canonical", "variants", "name \""+name+"\" not found", nil)
	}
	return slices.Clone(variants), nil
}

// CanonicalFor returns the canonical names a variant resolves to. There is
// usually one; a spelling shared by two people yields both.
func (t *Table) CanonicalFor(variant string) []string {
	return slices.Clone(t.reverse[variant])
}

// NamesForScope maps the "surname, givenname" spellings credited in one
// scope to canonical names. Spellings with no canonical name are ignored.
func (t *Table) NamesForScope(scopeNames []string) []string {
	found := make(map[string]struct{})
	for _, n := range scopeNames {
		for _, canonical := range t.reverse[n] {
			found[canonical] = struct{}{}
		}
	}
	out := make([]string, 0, len(found))
	for n := range found {
		out = append(out, n)
	}
	sortNames(out)
	return out
}

// Entries returns the table in display order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.names))
	for _, n := range t.names {
		out = append(out, Entry{Name: n, Variants: slices.Clone(t.variants[n])})
	}
	return out
}

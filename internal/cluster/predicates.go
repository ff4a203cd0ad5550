package cluster

import (
	"strings"

	"creators/internal/corrections"
	"creators/internal/textutil"
)

// SameName reports whether a and b are equal after normalization. Empty
// names never match.
func SameName(a, b string) bool {
	na, nb := textutil.NormalizeText(a), textutil.NormalizeText(b)
	return na != "" && na == nb
}

// SimilarNames reports whether a and b could be spellings of one name: a
// nickname pair, or token lists that agree by prefix. The first tokens must
// be prefix compatible and every further token of the shorter name must be
// prefix compatible with a later token of the longer one, in order. Names
// with the same token count are therefore compared position by position;
// "James T Kirk" and "J Kirk" are similar, "James Kirk" and "James Spock"
// are not. A nil nicknames table disables nickname matching.
func SimilarNames(a, b string, nicknames *corrections.Nicknames) bool {
	na, nb := textutil.NormalizeText(a), textutil.NormalizeText(b)
	if na == "" || nb == "" {
		return false
	}
	if nicknames.Match(na, nb) {
		return true
	}
	return tokensCompatible(strings.Fields(na), strings.Fields(nb))
}

func tokensCompatible(short, long []string) bool {
	if len(short) > len(long) {
		short, long = long, short
	}
	if !prefixCompatible(short[0], long[0]) {
		return false
	}
	j := 1
	for _, tok := range short[1:] {
		for j < len(long) && !prefixCompatible(tok, long[j]) {
			j++
		}
		if j == len(long) {
			return false
		}
		j++
	}
	return true
}

func prefixCompatible(x, y string) bool {
	return strings.HasPrefix(x, y) || strings.HasPrefix(y, x)
}

// SameNameSets reports whether some surname pair and some given-name pair
// are equal after normalization.
func SameNameSets(a, b *PersonCluster) bool {
	return sharedSurname(a, b) && anyPair(a.attrs[AttrGivenName], b.attrs[AttrGivenName], SameName)
}

// SimilarNameSets is SameNameSets with given names compared by
// SimilarNames.
func SimilarNameSets(a, b *PersonCluster, nicknames *corrections.Nicknames) bool {
	if !sharedSurname(a, b) {
		return false
	}
	return anyPair(a.attrs[AttrGivenName], b.attrs[AttrGivenName], func(x, y string) bool {
		return SimilarNames(x, y, nicknames)
	})
}

func sharedSurname(a, b *PersonCluster) bool {
	return anyPair(a.attrs[AttrSurname], b.attrs[AttrSurname], SameName)
}

func anyPair(xs, ys Set[string], match func(x, y string) bool) bool {
	for x := range xs {
		for y := range ys {
			if match(x, y) {
				return true
			}
		}
	}
	return false
}

var evidenceAttrs = []Attr{
	AttrIdentifier, AttrOrganization, AttrPosition, AttrAddress, AttrCity, AttrEmail, AttrURL,
}

// HasEvidence reports whether the clusters share an identifier, an
// organization, position, address, city, email or URL, or a word of their
// organization keywords. Country is too coarse to count.
func HasEvidence(a, b *PersonCluster) bool {
	for _, attr := range evidenceAttrs {
		if a.attrs[attr].Intersects(b.attrs[attr]) {
			return true
		}
	}
	return keywordTokens(a).Intersects(keywordTokens(b))
}

func keywordTokens(c *PersonCluster) Set[string] {
	tokens := NewSet[string]()
	for k := range c.attrs[AttrKeyword] {
		for _, t := range strings.Fields(k) {
			tokens.Add(t)
		}
	}
	return tokens
}

// SharesVariantGroup reports whether a spelling of a and a spelling of b
// belong to the same curated person group.
func SharesVariantGroup(a, b *PersonCluster, variants *corrections.PersonVariants) bool {
	if variants.Len() == 0 {
		return false
	}
	groups := NewSet[int]()
	for k := range a.variants {
		if g, ok := variants.Group(k); ok {
			groups.Add(g)
		}
	}
	if len(groups) == 0 {
		return false
	}
	for k := range b.variants {
		if g, ok := variants.Group(k); ok && groups.Has(g) {
			return true
		}
	}
	return false
}

// SharedIdentifiers reports whether both clusters carry the same non-empty
// identifier set.
func SharedIdentifiers(a, b *PersonCluster) bool {
	ia, ib := a.attrs[AttrIdentifier], b.attrs[AttrIdentifier]
	return len(ia) > 0 && ia.Equal(ib)
}

// Vetoed reports whether both clusters carry identifiers and none is shared.
func Vetoed(a, b *PersonCluster) bool {
	ia, ib := a.attrs[AttrIdentifier], b.attrs[AttrIdentifier]
	return len(ia) > 0 && len(ib) > 0 && !ia.Intersects(ib)
}

package corrections

import (
	"strings"

	"creators/internal/textutil"
)

// NicknamePair is an unordered pair of given-name forms treated as the same
// name, such as "jim" and "james". Both members are stored normalized.
type NicknamePair struct {
	A string
	B string
}

// Nicknames answers nickname equivalence questions.
type Nicknames struct {
	pairs []NicknamePair
}

// NewNicknames normalizes the pairs and drops incomplete ones.
func NewNicknames(pairs ...NicknamePair) *Nicknames {
	n := &Nicknames{pairs: make([]NicknamePair, 0, len(pairs))}
	for _, p := range pairs {
		a := textutil.NormalizeText(p.A)
		b := textutil.NormalizeText(p.B)
		if a == "" || b == "" {
			continue
		}
		n.pairs = append(n.pairs, NicknamePair{A: a, B: b})
	}
	return n
}

// Len returns the number of pairs.
func (n *Nicknames) Len() int {
	if n == nil {
		return 0
	}
	return len(n.pairs)
}

// Match reports whether one member of some pair is a prefix of a and the other
// a prefix of b, in either order. Both arguments must already be normalized.
// Prefix matching means only the leading token of a given name is consulted.
func (n *Nicknames) Match(a, b string) bool {
	if n == nil || a == "" || b == "" {
		return false
	}
	for _, p := range n.pairs {
		if strings.HasPrefix(a, p.A) && strings.HasPrefix(b, p.B) {
			return true
		}
		if strings.HasPrefix(a, p.B) && strings.HasPrefix(b, p.A) {
			return true
		}
	}
	return false
}

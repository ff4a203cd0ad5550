package textutil

import "strings"

// Like reports whether s matches pattern with SQL LIKE semantics: % matches
// any run of characters (including none) and _ matches exactly one. Matching
// is case sensitive and there is no escape character.
func Like(pattern, s string) bool {
	p := []rune(pattern)
	r := []rune(s)
	pi, si := 0, 0
	star, mark := -1, 0
	for si < len(r) {
		switch {
		case pi < len(p) && (p[pi] == '_' || p[pi] == r[si]) && p[pi] != '%':
			pi++
			si++
		case pi < len(p) && p[pi] == '%':
			star = pi
			mark = si
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '%' {
		pi++
	}
	return pi == len(p)
}

// HasWildcard reports whether pattern contains a % wildcard. Curated
// corrections only switch to pattern matching on %.
func HasWildcard(pattern string) bool {
	return strings.Contains(pattern, "%")
}

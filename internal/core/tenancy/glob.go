package tenancy

// globMatch reports whether s matches pattern, where '*' matches any
// sequence of characters (including none) and every other byte matches
// itself.
//
// Patterns arrive from callers of InvalidatePattern, so this is a dedicated
// bounded matcher rather than a compiled regular expression: the iterative
// single-star backtracking below runs in O(len(pattern)*len(s)) worst case
// and allocates nothing, regardless of how hostile the pattern is.
func globMatch(pattern, s string) bool {
	pi, si := 0, 0
	star, mark := -1, 0

	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			star = pi
			mark = si
			pi++
		case star >= 0:
			// Mismatch after a star: let the star absorb one more byte.
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}

	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}

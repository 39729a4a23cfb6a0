package slicesutil

// EqualUnsorted reports whether two slices contain the same elements,
// regardless of order. Duplicates are accounted for: [1, 1, 2] is not
// equal to [1, 2, 2]. Returns true if both slices are empty.
func EqualUnsorted[S ~[]E, E comparable](s1, s2 S) bool {
	return EqualUnsortedFunc(s1, s2, func(a, b E) bool { return a == b })
}

// EqualUnsortedFunc is like EqualUnsorted but uses eq to compare elements.
func EqualUnsortedFunc[S ~[]E, E any](s1, s2 S, eq func(a, b E) bool) bool {
	if len(s1) != len(s2) {
		return false
	}

	matched := make([]bool, len(s2))

outer:
	for _, a := range s1 {
		for i, b := range s2 {
			if !matched[i] && eq(a, b) {
				matched[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}

package stringutil

// EqualStringsASCIIIgnoreCase performs case-insensitive comparison of two strings
// containing ASCII characters. Non letter bytes must match exactly.
// Used for hostname and scheme matching where registered values follow LDH standard.
func EqualStringsASCIIIgnoreCase(s1, s2 string) bool {
	// Easy case.
	if len(s1) != len(s2) {
		return false
	}
	for i := 0; i < len(s1); i++ {
		if ToLowerASCII(s1[i]) != ToLowerASCII(s2[i]) {
			return false
		}
	}
	return true
}

// ToLowerASCII converts an ASCII uppercase letter (A-Z) to lowercase (a-z).
// All other bytes are returned unchanged.
func ToLowerASCII(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

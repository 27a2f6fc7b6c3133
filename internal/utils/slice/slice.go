// Package slice holds the one generic string-slice helper the rest of
// the codebase shares, rather than duplicating a "does this slice
// contain X" loop in each caller.
package slice

// Contains reports whether str is present in slice.
func Contains(slice []string, str string) bool {
	for _, item := range slice {
		if item == str {
			return true
		}
	}
	return false
}

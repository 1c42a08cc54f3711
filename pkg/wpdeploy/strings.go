package wpdeploy

import "strings"

// Cut slices s around the first instance of sep. When sep does not occur,
// before is s and after is empty.
func Cut(s, sep string) (before, after string) {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):]
	}
	return s, ""
}

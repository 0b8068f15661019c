package utils

import "unicode/utf8"

// TruncateBytes cuts s to at most max bytes without splitting a multi-byte
// rune, backing off to the previous rune boundary when the cut lands inside
// one.
func TruncateBytes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

package tools

import "unicode/utf8"

const maxOutputBytes = 10_000

// truncate caps tool output so a single call cannot flood the model context.
// The cut never splits a UTF-8 sequence.
func truncate(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	cut := maxOutputBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (truncated)"
}

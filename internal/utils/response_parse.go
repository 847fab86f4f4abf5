package utils

import "strings"

// ExtractJSONObject returns the first balanced {...} span in raw. Braces inside
// JSON strings are ignored. If no balanced span exists the trimmed input is
// returned unchanged so the decoder reports the real problem.
func ExtractJSONObject(raw string) string {
	clean := strings.TrimSpace(raw)
	start := strings.IndexByte(clean, '{')
	if start < 0 {
		return clean
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(clean); i++ {
		c := clean[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return clean[start : i+1]
			}
		}
	}
	return clean
}

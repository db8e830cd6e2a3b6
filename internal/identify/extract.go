package identify

import "encoding/json"

// ExtractJSON returns the first balanced {...} span in text that is a valid
// JSON object. Braces inside JSON strings are ignored. Surrounding prose and
// markdown fences are tolerated.
func ExtractJSON(text string) (string, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end, ok := matchBrace(text, start)
		if !ok {
			continue
		}
		if span := text[start : end+1]; json.Valid([]byte(span)) {
			return span, true
		}
	}
	return "", false
}

// matchBrace returns the index of the brace closing the one at start.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
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
				return i, true
			}
		}
	}
	return 0, false
}

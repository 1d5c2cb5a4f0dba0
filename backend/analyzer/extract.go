package analyzer

import (
	"strings"
	"unicode"
)

// stripCodeFence trims whitespace and a markdown fence wrapped around the payload,
// e.g. "```json\n{...}\n```".
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && isFenceTag(s[:nl]) {
			s = s[nl+1:]
		} else {
			s = strings.TrimLeftFunc(s, unicode.IsLetter)
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// isFenceTag reports whether the text after an opening fence is a language tag.
func isFenceTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// extractObject scans s for balanced {...} substrings in order of appearance
// and returns the first one that decodes as an analysis object.
func extractObject(s string) (map[string]any, bool) {
	return scanObjects(s, nil)
}

// scanObjects walks the {...} candidates of s. When repair is set it is applied
// to each candidate on its own, so string state inside the repair starts at the
// candidate's opening brace rather than at the start of the reply.
func scanObjects(s string, repair func(string) string) (map[string]any, bool) {
	start := 0
	for start < len(s) {
		i := strings.IndexByte(s[start:], '{')
		if i < 0 {
			return nil, false
		}
		i += start

		end, ok := matchBrace(s, i)
		if !ok {
			// Unclosed: a later brace may still open a complete object.
			start = i + 1
			continue
		}

		candidate := s[i : end+1]
		if repair != nil {
			candidate = repair(candidate)
		}
		obj, decoded := decodeObject(candidate)
		switch {
		case decoded && hasSchemaKey(obj):
			return obj, true
		case decoded:
			// A wrapper such as {"analysis": {...}}; look inside it.
			start = i + 1
		default:
			start = end + 1
		}
	}
	return nil, false
}

// matchBrace returns the index of the '}' closing the '{' at open.
// Braces inside JSON strings are ignored.
func matchBrace(s string, open int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := open; i < len(s); i++ {
		c := s[i]
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

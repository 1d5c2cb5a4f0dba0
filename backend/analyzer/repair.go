package analyzer

import "strings"

// removeTrailingCommas drops a comma that is followed (after whitespace) by '}' or ']'.
// Commas inside strings are kept.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
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
			b.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			inString = true
		case ',':
			if next := nextNonSpace(s, i+1); next == '}' || next == ']' {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// escapeInnerQuotes is a best-effort repair for string values that contain bare
// double quotes or raw newlines. A quote inside a string closes it only when the
// next non-space byte is a JSON delimiter; otherwise it is escaped.
// Valid JSON whose string values are followed by unusual tokens can be damaged,
// so it runs only after the safer strategies declined.
func escapeInnerQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}

		switch c {
		case '\\':
			b.WriteByte(c)
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '"':
			switch nextNonSpace(s, i+1) {
			case ',', '}', ']', ':', 0:
				inString = false
				b.WriteByte(c)
			default:
				b.WriteString(`\"`)
			}
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// nextNonSpace returns the first non-whitespace byte at or after i, or 0 at end of input.
func nextNonSpace(s string, i int) byte {
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return s[i]
	}
	return 0
}

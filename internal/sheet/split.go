package sheet

import "strings"

// Fields is one split line. At tolerates short rows.
type Fields []string

// At returns the trimmed field at i, or "" when the row is shorter or i < 0.
func (f Fields) At(i int) string {
	if i < 0 || i >= len(f) {
		return ""
	}
	return f[i]
}

// SplitLine splits a delimited line into trimmed fields. The delimiter is
// ignored inside double quotes, and "" inside a quoted span is a literal quote.
func SplitLine(line string, delim rune) Fields {
	var (
		fields   Fields
		current  strings.Builder
		inQuotes bool
	)
	sep := string(delim)
	// walk bytes so malformed UTF-8 passes through untouched; '"' is ASCII
	// and a multi-byte delimiter is matched as a whole
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case !inQuotes && strings.HasPrefix(line[i:], sep):
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
			i += len(sep) - 1
		default:
			current.WriteByte(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

package pgsql

import "strings"

// rewriteParams converts %s placeholders in sql to the $1, $2, ... form the
// server understands and returns the rewritten SQL with the number of
// placeholders found. %% escapes a literal percent sign. Placeholders inside
// string literals, quoted identifiers, dollar-quoted strings, and comments
// are left alone. A percent sign followed by anything else (e.g. the modulo
// operator) passes through unchanged.
func rewriteParams(sql string) (string, int) {
	var sb strings.Builder
	sb.Grow(len(sql))

	n := 0
	for i := 0; i < len(sql); {
		c := sql[i]
		switch c {
		case '%':
			if i+1 < len(sql) {
				switch sql[i+1] {
				case 's':
					n++
					sb.WriteByte('$')
					sb.WriteString(itoa(n))
					i += 2
					continue
				case '%':
					sb.WriteByte('%')
					i += 2
					continue
				}
			}
			sb.WriteByte('%')
			i++
		case '\'':
			i = copyStringLiteral(&sb, sql, i)
		case 'e', 'E':
			if i+1 < len(sql) && sql[i+1] == '\'' {
				sb.WriteByte(c)
				i = copyEscapeStringLiteral(&sb, sql, i+1)
			} else {
				sb.WriteByte(c)
				i++
			}
		case '"':
			i = copyQuotedIdentifier(&sb, sql, i)
		case '$':
			if tag, ok := dollarQuoteTag(sql[i:]); ok {
				i = copyDollarQuoted(&sb, sql, i, tag)
			} else {
				sb.WriteByte('$')
				i++
			}
		case '-':
			if i+1 < len(sql) && sql[i+1] == '-' {
				i = copyLineComment(&sb, sql, i)
			} else {
				sb.WriteByte('-')
				i++
			}
		case '/':
			if i+1 < len(sql) && sql[i+1] == '*' {
				i = copyBlockComment(&sb, sql, i)
			} else {
				sb.WriteByte('/')
				i++
			}
		default:
			sb.WriteByte(c)
			i++
		}
	}

	return sb.String(), n
}

func itoa(n int) string {
	if n < 10 {
		return string([]byte{byte('0' + n)})
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// copyStringLiteral copies a standard single-quoted literal starting at
// sql[start] == '\''. A doubled quote is an escaped quote, not a
// terminator.
func copyStringLiteral(sb *strings.Builder, sql string, start int) int {
	sb.WriteByte('\'')
	i := start + 1
	for i < len(sql) {
		sb.WriteByte(sql[i])
		if sql[i] == '\'' {
			if i+1 < len(sql) && sql[i+1] == '\'' {
				sb.WriteByte('\'')
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

// copyEscapeStringLiteral copies an E'...' literal body starting at
// sql[start] == '\''. Backslash escapes the next character, including a
// quote.
func copyEscapeStringLiteral(sb *strings.Builder, sql string, start int) int {
	sb.WriteByte('\'')
	i := start + 1
	for i < len(sql) {
		switch sql[i] {
		case '\\':
			sb.WriteByte(sql[i])
			if i+1 < len(sql) {
				sb.WriteByte(sql[i+1])
			}
			i += 2
		case '\'':
			sb.WriteByte('\'')
			if i+1 < len(sql) && sql[i+1] == '\'' {
				sb.WriteByte('\'')
				i += 2
				continue
			}
			return i + 1
		default:
			sb.WriteByte(sql[i])
			i++
		}
	}
	return i
}

func copyQuotedIdentifier(sb *strings.Builder, sql string, start int) int {
	sb.WriteByte('"')
	i := start + 1
	for i < len(sql) {
		sb.WriteByte(sql[i])
		if sql[i] == '"' {
			if i+1 < len(sql) && sql[i+1] == '"' {
				sb.WriteByte('"')
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

// dollarQuoteTag reports whether s begins a dollar-quoted string and returns
// the full opening tag including both dollar signs (e.g. "$$" or "$tag$").
func dollarQuoteTag(s string) (string, bool) {
	if len(s) < 2 || s[0] != '$' {
		return "", false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c == '$' {
			return s[:i+1], true
		}
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 1 && c >= '0' && c <= '9')) {
			return "", false
		}
	}
	return "", false
}

func copyDollarQuoted(sb *strings.Builder, sql string, start int, tag string) int {
	sb.WriteString(tag)
	i := start + len(tag)
	end := strings.Index(sql[i:], tag)
	if end == -1 {
		sb.WriteString(sql[i:])
		return len(sql)
	}
	sb.WriteString(sql[i : i+end+len(tag)])
	return i + end + len(tag)
}

func copyLineComment(sb *strings.Builder, sql string, start int) int {
	i := start
	for i < len(sql) && sql[i] != '\n' {
		sb.WriteByte(sql[i])
		i++
	}
	return i
}

// copyBlockComment copies a /* ... */ comment, honoring nesting as the
// server does.
func copyBlockComment(sb *strings.Builder, sql string, start int) int {
	depth := 0
	i := start
	for i < len(sql) {
		if i+1 < len(sql) && sql[i] == '/' && sql[i+1] == '*' {
			sb.WriteString("/*")
			depth++
			i += 2
			continue
		}
		if i+1 < len(sql) && sql[i] == '*' && sql[i+1] == '/' {
			sb.WriteString("*/")
			depth--
			i += 2
			if depth == 0 {
				return i
			}
			continue
		}
		sb.WriteByte(sql[i])
		i++
	}
	return i
}

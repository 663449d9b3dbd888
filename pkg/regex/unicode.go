package regex

import "strings"

// Unicode category sets for the Perl shorthand classes. regexp2's RE2 mode
// restricts \d, \w and \s to ASCII; the pattern language treats them as
// Unicode-aware.
const (
	digitSet = `\p{Nd}`
	wordSet  = `\p{L}\p{M}\p{Nd}\p{Pc}`
	spaceSet = `\t\n\x0B\f\r\x85\p{Z}`
)

// unicodeClasses rewrites \d, \D, \w, \W, \s and \S in expr into explicit
// Unicode category sets. Inside a bracket expression only the forms that
// stay expressible as a union are rewritten; \W and \S are left as is.
func unicodeClasses(expr string) string {
	if !strings.Contains(expr, `\`) {
		return expr
	}

	var b strings.Builder
	b.Grow(len(expr) + 32)

	inClass := false
	for i := 0; i < len(expr); i++ {
		c := expr[i]

		if c == '[' {
			if inClass {
				// POSIX class such as [:alpha:]
				if end := strings.Index(expr[i:], ":]"); i+1 < len(expr) && expr[i+1] == ':' && end > 0 {
					b.WriteString(expr[i : i+end+2])
					i += end + 1
					continue
				}
				b.WriteByte(c)
				continue
			}
			inClass = true
			b.WriteByte(c)
			// A leading ']' (after an optional '^') is a literal.
			if i+1 < len(expr) && expr[i+1] == '^' {
				b.WriteByte('^')
				i++
			}
			if i+1 < len(expr) && expr[i+1] == ']' {
				b.WriteByte(']')
				i++
			}
			continue
		}
		if c == ']' && inClass {
			inClass = false
			b.WriteByte(c)
			continue
		}
		if c != '\\' || i+1 >= len(expr) {
			b.WriteByte(c)
			continue
		}

		next := expr[i+1]
		i++
		if inClass {
			switch next {
			case 'd':
				b.WriteString(digitSet)
			case 'D':
				b.WriteString(`\P{Nd}`)
			case 'w':
				b.WriteString(wordSet)
			case 's':
				b.WriteString(spaceSet)
			default:
				b.WriteByte('\\')
				b.WriteByte(next)
			}
			continue
		}

		switch next {
		case 'd':
			b.WriteString(digitSet)
		case 'D':
			b.WriteString(`\P{Nd}`)
		case 'w':
			b.WriteString("[" + wordSet + "]")
		case 'W':
			b.WriteString("[^" + wordSet + "]")
		case 's':
			b.WriteString("[" + spaceSet + "]")
		case 'S':
			b.WriteString("[^" + spaceSet + "]")
		default:
			b.WriteByte('\\')
			b.WriteByte(next)
		}
	}
	return b.String()
}

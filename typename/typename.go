// Package typename adds __typename to GraphQL documents so every object in a
// response carries the type information cache keys are derived from.
//
// Insert is a lexical pass, not a parser: it tracks braces, parentheses,
// strings and comments and adds the field to every selection set except the
// root selection set of an operation (the root type is known from the
// operation kind). Fragment definitions are treated as nested selections.
package typename

import "strings"

const field = "__typename"

// Insert returns query with __typename added to each nested selection set.
// Selection sets that already start with __typename are left alone, so
// Insert(Insert(q)) == Insert(q).
func Insert(query string) string {
	var (
		b         strings.Builder
		depth     int  // brace depth
		parens    int  // argument/variable list depth; braces inside are input objects
		fragment  bool // current top-level definition is a fragment
		wordStart = -1
	)
	b.Grow(len(query) + 16)

	for i := 0; i < len(query); i++ {
		c := query[i]

		// first word of a top-level definition decides fragment vs operation
		if depth == 0 && parens == 0 {
			if isNameByte(c) {
				if wordStart < 0 {
					wordStart = i
				}
			} else if wordStart >= 0 {
				if word := query[wordStart:i]; word == "fragment" {
					fragment = true
				} else if word == "query" || word == "mutation" || word == "subscription" {
					fragment = false
				}
				wordStart = -1
			}
		}

		switch {
		case c == '#':
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				end = len(query) - i
			}
			b.WriteString(query[i : i+end])
			i += end - 1
			continue
		case c == '"':
			n := stringLen(query[i:])
			b.WriteString(query[i : i+n])
			i += n - 1
			continue
		case c == '(':
			parens++
		case c == ')':
			if parens > 0 {
				parens--
			}
		case c == '{' && parens == 0:
			b.WriteByte(c)
			nested := depth > 0 || fragment
			depth++
			if nested && !startsWithTypename(query[i+1:]) {
				b.WriteString(" " + field + " ")
			}
			continue
		case c == '}' && parens == 0:
			if depth > 0 {
				depth--
			}
			if depth == 0 {
				fragment = false
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// stringLen returns the length of the string literal (regular or block) at
// the start of s, closing quote(s) included. Unterminated strings run to the
// end of s.
func stringLen(s string) int {
	if strings.HasPrefix(s, `"""`) {
		end := strings.Index(s[3:], `"""`)
		if end < 0 {
			return len(s)
		}
		return 3 + end + 3
	}
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(s)
}

func startsWithTypename(s string) bool {
	s = strings.TrimLeft(s, " \t\r\n,")
	if !strings.HasPrefix(s, field) {
		return false
	}
	rest := s[len(field):]
	return rest == "" || !isNameByte(rest[0])
}

func isNameByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

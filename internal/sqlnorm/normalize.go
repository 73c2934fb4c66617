// Package sqlnorm normalizes SQL text so that two executions of the same
// view configuration compare equal regardless of runtime parameters,
// literal values, casing or whitespace.
package sqlnorm

import (
	"fmt"
	"strings"
	"unicode"
)

// Normalize rewrites sql into a canonical form:
//
//   - keywords and identifiers are lowercased (string literal contents are
//     preserved, then replaced anyway, see below)
//   - runs of whitespace collapse to a single space
//   - string and numeric literals become the placeholder "?"
//   - named parameters such as @P1 become "?" so parameter numbering order
//     does not matter
//   - a leading "top N" clause is dropped, since it is a runtime paging
//     parameter and not part of the view configuration
//
// An unterminated string literal is a malformed input and yields an error.
func Normalize(sql string) (string, error) {
	var out strings.Builder
	out.Grow(len(sql))

	runes := []rune(sql)
	i := 0
	lastSpace := true // swallow leading whitespace

	writeToken := func(tok string) {
		out.WriteString(tok)
		lastSpace = false
	}

	for i < len(runes) {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				out.WriteRune(' ')
				lastSpace = true
			}
			i++

		case r == '\'':
			// Scan the literal, honoring '' escapes, then emit a placeholder.
			j := i + 1
			for {
				if j >= len(runes) {
					return "", fmt.Errorf("unterminated string literal at offset %d", i)
				}
				if runes[j] == '\'' {
					if j+1 < len(runes) && runes[j+1] == '\'' {
						j += 2
						continue
					}
					break
				}
				j++
			}
			writeToken("?")
			i = j + 1

		case unicode.IsDigit(r):
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			writeToken("?")
			i = j

		case r == '@':
			// Named parameter, e.g. @P1. Replace the whole name.
			j := i + 1
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			writeToken("?")
			i = j

		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_' || runes[j] == '.') {
				j++
			}
			writeToken(strings.ToLower(string(runes[i:j])))
			i = j

		default:
			writeToken(string(r))
			i++
		}
	}

	normalized := strings.TrimSpace(out.String())
	normalized = stripTop(normalized)
	return normalized, nil
}

// stripTop removes a "select top ? ..." clause.
func stripTop(sql string) string {
	const selectTop = "select top ? "
	if strings.HasPrefix(sql, selectTop) {
		return "select " + sql[len(selectTop):]
	}
	return sql
}

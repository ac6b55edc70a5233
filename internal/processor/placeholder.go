package processor

import "strings"

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Token is one placeholder occurrence in template text.
type Token struct {
	Name   string `json:"name"`
	Start  int    `json:"start_pos"` // byte offset of the opening "{{"
	End    int    `json:"end_pos"`   // byte offset just past the closing "}}"
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Placeholder renders the token text for a field name.
func Placeholder(name string) string {
	return openDelim + name + closeDelim
}

// ScanPlaceholders returns every placeholder in text, left to right.
//
// A placeholder is "{{", the shortest run of characters up to the next "}}",
// then "}}". The name may not span a line break; when it would, the "{{" at
// that position is treated as literal text and scanning resumes one byte
// later. Braces do not nest, so "{{{A}}}" yields the name "{A", and "{{}}"
// yields the empty name.
func ScanPlaceholders(text string) []Token {
	var tokens []Token
	pos := 0

	for pos < len(text) {
		startIndex := strings.Index(text[pos:], openDelim)
		if startIndex == -1 {
			break
		}
		startIndex += pos

		nameStart := startIndex + len(openDelim)
		endIndex := strings.Index(text[nameStart:], closeDelim)
		if endIndex == -1 {
			break
		}
		endIndex += nameStart

		name := text[nameStart:endIndex]
		if strings.Contains(name, "\n") {
			pos = startIndex + 1
			continue
		}

		end := endIndex + len(closeDelim)
		line, column := calculateLineColumn(text, startIndex)
		tokens = append(tokens, Token{
			Name:   name,
			Start:  startIndex,
			End:    end,
			Line:   line,
			Column: column,
		})
		pos = end
	}

	return tokens
}

// ExtractFields returns the unique placeholder names in text in order of
// first appearance.
func ExtractFields(text string) []string {
	fields := []string{}
	seen := make(map[string]bool)

	for _, tok := range ScanPlaceholders(text) {
		if !seen[tok.Name] {
			fields = append(fields, tok.Name)
			seen[tok.Name] = true
		}
	}

	return fields
}

// SameFields reports whether a and b list the same fields in the same order.
func SameFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

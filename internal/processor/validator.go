package processor

import (
	"encoding/json"
	"errors"
)

// ValidateTemplate checks that text is a well-formed JSON document. It returns
// nil or a *TemplateParseError locating the first syntax problem.
func ValidateTemplate(text string) error {
	var doc any
	err := json.Unmarshal([]byte(text), &doc)
	if err == nil {
		return nil
	}
	return newTemplateParseError(text, err)
}

func newTemplateParseError(text string, err error) *TemplateParseError {
	var offset int64
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		offset = syntaxErr.Offset
	}

	// SyntaxError.Offset counts bytes read, so the offending byte is the one before it
	pos := int(offset) - 1
	if pos < 0 {
		pos = 0
	}
	line, column := calculateLineColumn(text, pos)

	return &TemplateParseError{
		Offset:  offset,
		Line:    line,
		Column:  column,
		Message: err.Error(),
	}
}

func calculateLineColumn(text string, pos int) (int, int) {
	line := 1
	column := 1

	for i := 0; i < pos && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}

	return line, column
}

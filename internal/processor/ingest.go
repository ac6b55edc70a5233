package processor

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// DetectDelimiter picks a tab when raw contains one anywhere, a comma
// otherwise.
func DetectDelimiter(raw string) rune {
	if strings.ContainsRune(raw, '\t') {
		return '\t'
	}
	return ','
}

// Ingest parses pasted delimited text into a new dataset over fields. There is
// no header row: values are assigned to fields by position. Short records are
// padded with empty strings and columns beyond len(fields) are ignored. Blank
// lines are skipped.
//
// A quote inside an unquoted value is kept as literal text. A quoted value
// that is never closed is a parse failure.
//
// Ingest is all-or-nothing: any parse failure returns an *IngestParseError and
// no dataset.
func Ingest(raw string, fields []string) (*Dataset, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &IngestParseError{Err: ErrEmptyPaste}
	}

	comma := DetectDelimiter(raw)
	if line := unclosedQuoteLine(raw, comma); line > 0 {
		return nil, &IngestParseError{Line: line, Err: csv.ErrQuote}
	}

	reader := csv.NewReader(strings.NewReader(raw))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	dataset := NewDataset(fields)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &IngestParseError{Line: parseErr.StartLine, Err: parseErr.Err}
			}
			return nil, &IngestParseError{Err: err}
		}

		row := make(Row, len(fields))
		for i, field := range fields {
			if i < len(record) {
				row[field] = record[i]
			} else {
				row[field] = ""
			}
		}
		dataset.rows = append(dataset.rows, row)
	}

	if dataset.Len() == 0 {
		return nil, &IngestParseError{Err: ErrEmptyPaste}
	}
	return dataset, nil
}

// unclosedQuoteLine returns the 1-based line on which a quoted value opens
// without ever being closed, or 0. The csv reader in lazy mode would
// otherwise swallow the rest of the input into that value.
func unclosedQuoteLine(raw string, comma rune) int {
	line, openLine := 1, 0
	fieldStart, quoted := true, false

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if quoted {
			switch c {
			case '"':
				if i+1 < len(raw) && raw[i+1] == '"' {
					i++
					continue
				}
				// a quote closes the value only before a delimiter or line end
				if i+1 == len(raw) || raw[i+1] == '\n' || raw[i+1] == '\r' || rune(raw[i+1]) == comma {
					quoted = false
				}
			case '\n':
				line++
			}
			continue
		}

		switch {
		case c == '\n':
			line++
			fieldStart = true
		case rune(c) == comma:
			fieldStart = true
		case c == '"' && fieldStart:
			quoted, openLine = true, line
			fieldStart = false
		default:
			fieldStart = false
		}
	}

	if quoted {
		return openLine
	}
	return 0
}

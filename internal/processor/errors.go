package processor

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPaste   = errors.New("no data to parse")
	ErrUnknownField = errors.New("unknown field")
	ErrRowIndex     = errors.New("row index out of range")
)

// TemplateParseError reports a template that is not valid JSON. It is fatal
// to the current pass.
type TemplateParseError struct {
	Offset  int64  `json:"offset"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (e *TemplateParseError) Error() string {
	return fmt.Sprintf("invalid template JSON: %s (line %d, column %d)", e.Message, e.Line, e.Column)
}

// RowMergeError reports one row whose merged text is not valid JSON. Index is
// the row's position in the dataset.
type RowMergeError struct {
	Index int
	Err   error
}

func (e *RowMergeError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *RowMergeError) Unwrap() error {
	return e.Err
}

// IngestParseError reports pasted text that could not be parsed. The dataset
// it was meant for must be left untouched.
type IngestParseError struct {
	Line int
	Err  error
}

func (e *IngestParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("error parsing data on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("error parsing data: %v", e.Err)
}

func (e *IngestParseError) Unwrap() error {
	return e.Err
}

package processor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MergedDocument is the parsed result of merging one row into a template.
type MergedDocument = json.RawMessage

type MergeOptions struct {
	// EscapeValues JSON-escapes values before substitution. Off by default:
	// values are inserted verbatim, so a value holding a bare quote makes its
	// row fail instead of changing the output of existing templates.
	EscapeValues bool
}

// MergeResult is the outcome of merging a whole dataset. Documents keeps row
// order with failed rows left out; Errors holds one entry per failed row.
type MergeResult struct {
	Documents []MergedDocument
	Errors    []*RowMergeError
}

// OK reports whether every row merged.
func (r MergeResult) OK() bool {
	return len(r.Errors) == 0
}

// Substitute replaces every {{field}} token in template with the row value.
// Fields are applied in the order given.
func Substitute(template string, fields []string, row Row, opts MergeOptions) string {
	merged := template
	for _, field := range fields {
		value := row[field]
		if opts.EscapeValues {
			value = escapeJSONString(value)
		}
		merged = strings.ReplaceAll(merged, Placeholder(field), value)
	}
	return merged
}

// MergeRow substitutes row into template and parses the result. index is the
// row position reported in a *RowMergeError.
func MergeRow(template string, fields []string, row Row, index int, opts MergeOptions) (MergedDocument, error) {
	merged := Substitute(template, fields, row, opts)

	// Compact validates and keeps the template's key order
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(merged)); err != nil {
		return nil, &RowMergeError{Index: index, Err: err}
	}
	return MergedDocument(compact.Bytes()), nil
}

// MergeDataset merges every row independently; a failing row never stops
// the others.
func MergeDataset(template string, dataset *Dataset, opts MergeOptions) MergeResult {
	result := MergeResult{Documents: []MergedDocument{}}
	if dataset == nil {
		return result
	}

	for i, row := range dataset.rows {
		doc, err := MergeRow(template, dataset.fields, row, i, opts)
		if err != nil {
			result.Errors = append(result.Errors, err.(*RowMergeError))
			continue
		}
		result.Documents = append(result.Documents, doc)
	}
	return result
}

// ExportJSON renders documents as an indented JSON array.
func ExportJSON(documents []MergedDocument) ([]byte, error) {
	if documents == nil {
		documents = []MergedDocument{}
	}
	data, err := json.MarshalIndent(documents, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}

// Stringify converts a decoded cell value to the text substituted into a
// template. nil becomes the empty string.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func escapeJSONString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	quoted := strings.TrimSuffix(buf.String(), "\n")
	return quoted[1 : len(quoted)-1]
}

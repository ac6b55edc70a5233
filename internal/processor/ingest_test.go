package processor

import (
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, '\t', DetectDelimiter("a\tb"))
	assert.Equal(t, '\t', DetectDelimiter("a,b\nc\td"))
	assert.Equal(t, ',', DetectDelimiter("a,b"))
	assert.Equal(t, ',', DetectDelimiter("single"))
}

func TestIngest(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		fields []string
		want   []Row
	}{
		{
			name:   "tab delimited",
			raw:    "Goblin\tEvil",
			fields: []string{"Name", "Alignment"},
			want:   []Row{{"Name": "Goblin", "Alignment": "Evil"}},
		},
		{
			name:   "comma delimited with several lines",
			raw:    "Goblin,Evil\nPaladin,Good\n",
			fields: []string{"Name", "Alignment"},
			want: []Row{
				{"Name": "Goblin", "Alignment": "Evil"},
				{"Name": "Paladin", "Alignment": "Good"},
			},
		},
		{
			name:   "tab present keeps commas inside values",
			raw:    "Goblin, the small\tEvil",
			fields: []string{"Name", "Alignment"},
			want:   []Row{{"Name": "Goblin, the small", "Alignment": "Evil"}},
		},
		{
			name:   "short rows are padded",
			raw:    "Goblin\nOrc,Evil",
			fields: []string{"Name", "Alignment"},
			want: []Row{
				{"Name": "Goblin", "Alignment": ""},
				{"Name": "Orc", "Alignment": "Evil"},
			},
		},
		{
			name:   "extra columns are ignored",
			raw:    "Goblin,Evil,ignored,also ignored",
			fields: []string{"Name", "Alignment"},
			want:   []Row{{"Name": "Goblin", "Alignment": "Evil"}},
		},
		{
			name:   "quoted values",
			raw:    `"Goblin, Jr.","Says ""hi"""`,
			fields: []string{"Name", "Quote"},
			want:   []Row{{"Name": "Goblin, Jr.", "Quote": `Says "hi"`}},
		},
		{
			name:   "stray quotes in unquoted values are literal",
			raw:    "Longsword\t4\" blade\nDagger\ta \"huge\" thing",
			fields: []string{"Name", "Desc"},
			want: []Row{
				{"Name": "Longsword", "Desc": `4" blade`},
				{"Name": "Dagger", "Desc": `a "huge" thing`},
			},
		},
		{
			name:   "quoted value may span lines",
			raw:    "\"two\nlines\",x",
			fields: []string{"A", "B"},
			want:   []Row{{"A": "two\nlines", "B": "x"}},
		},
		{
			name:   "blank lines skipped",
			raw:    "a,b\n\n\nc,d",
			fields: []string{"X", "Y"},
			want: []Row{
				{"X": "a", "Y": "b"},
				{"X": "c", "Y": "d"},
			},
		},
		{
			name:   "no fields yields empty rows",
			raw:    "a,b",
			fields: []string{},
			want:   []Row{{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Ingest(tt.raw, tt.fields)
			require.NoError(t, err)
			assert.Equal(t, tt.fields, ds.Fields())
			assert.Equal(t, tt.want, ds.Rows())
		})
	}
}

func TestIngestErrors(t *testing.T) {
	fields := []string{"Name", "Alignment"}

	_, err := Ingest("", fields)
	assert.True(t, errors.Is(err, ErrEmptyPaste))

	_, err = Ingest("  \n \n", fields)
	assert.True(t, errors.Is(err, ErrEmptyPaste))

	ds, err := Ingest("ok,row\n\"unclosed,here", fields)
	assert.Nil(t, ds)
	var ingestErr *IngestParseError
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, 2, ingestErr.Line)
	assert.True(t, errors.Is(err, csv.ErrQuote))
	assert.Contains(t, ingestErr.Error(), "line 2")

	_, err = Ingest("a\tb\n\"spans\nlines\tc", fields)
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, 2, ingestErr.Line)
}

func TestUnclosedQuoteLine(t *testing.T) {
	assert.Equal(t, 0, unclosedQuoteLine(`"a","b ""c"""`, ','))
	assert.Equal(t, 0, unclosedQuoteLine(`4" blade,x`, ','))
	assert.Equal(t, 0, unclosedQuoteLine("\"a\" b\",c", ','))
	assert.Equal(t, 1, unclosedQuoteLine(`"abc`, ','))
	assert.Equal(t, 3, unclosedQuoteLine("a\nb\n\"c\td", '\t'))
}

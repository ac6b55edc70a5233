package processor

import "fmt"

// Row maps each field of its dataset to a string value.
type Row map[string]string

// Clone returns an independent copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered table of rows sharing one field list. Every row holds
// exactly the dataset's fields; the methods below keep it that way.
type Dataset struct {
	fields []string
	rows   []Row
}

func NewDataset(fields []string) *Dataset {
	return &Dataset{
		fields: append([]string{}, fields...),
		rows:   []Row{},
	}
}

func (d *Dataset) Fields() []string {
	return append([]string{}, d.fields...)
}

func (d *Dataset) Len() int {
	return len(d.rows)
}

// Rows returns a deep copy of the rows in order.
func (d *Dataset) Rows() []Row {
	out := make([]Row, len(d.rows))
	for i, row := range d.rows {
		out[i] = row.Clone()
	}
	return out
}

func (d *Dataset) Row(i int) (Row, error) {
	if i < 0 || i >= len(d.rows) {
		return nil, fmt.Errorf("%w: %d", ErrRowIndex, i)
	}
	return d.rows[i].Clone(), nil
}

// Values returns row i as a slice ordered like Fields.
func (d *Dataset) Values(i int) ([]string, error) {
	if i < 0 || i >= len(d.rows) {
		return nil, fmt.Errorf("%w: %d", ErrRowIndex, i)
	}
	values := make([]string, len(d.fields))
	for j, field := range d.fields {
		values[j] = d.rows[i][field]
	}
	return values, nil
}

// AppendRow adds a row built from values. Fields missing from values are set
// to the empty string; keys that are not fields are rejected.
func (d *Dataset) AppendRow(values map[string]string) error {
	row, err := d.buildRow(values, nil)
	if err != nil {
		return err
	}
	d.rows = append(d.rows, row)
	return nil
}

// UpdateRow overwrites the given cells of row i.
func (d *Dataset) UpdateRow(i int, values map[string]string) error {
	if i < 0 || i >= len(d.rows) {
		return fmt.Errorf("%w: %d", ErrRowIndex, i)
	}
	row, err := d.buildRow(values, d.rows[i])
	if err != nil {
		return err
	}
	d.rows[i] = row
	return nil
}

func (d *Dataset) SetCell(i int, field, value string) error {
	return d.UpdateRow(i, map[string]string{field: value})
}

func (d *Dataset) DeleteRow(i int) error {
	if i < 0 || i >= len(d.rows) {
		return fmt.Errorf("%w: %d", ErrRowIndex, i)
	}
	d.rows = append(d.rows[:i], d.rows[i+1:]...)
	return nil
}

func (d *Dataset) buildRow(values map[string]string, base Row) (Row, error) {
	row := make(Row, len(d.fields))
	for _, field := range d.fields {
		row[field] = base[field]
	}
	for key, value := range values {
		if _, ok := row[key]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		row[key] = value
	}
	return row, nil
}

// Equal reports whether both datasets have the same fields and rows.
func (d *Dataset) Equal(other *Dataset) bool {
	if d == nil || other == nil {
		return d == other
	}
	if !SameFields(d.fields, other.fields) || len(d.rows) != len(other.rows) {
		return false
	}
	for i := range d.rows {
		for _, field := range d.fields {
			if d.rows[i][field] != other.rows[i][field] {
				return false
			}
		}
	}
	return true
}

// Sync is shorthand for SyncDataset(d, fields).
func (d *Dataset) Sync(fields []string) *Dataset {
	return SyncDataset(d, fields)
}

// SyncDataset migrates old to a new field list. Values of fields present in
// both lists are kept, new fields start empty and removed fields are dropped.
// Row order and count are preserved. The old dataset is not modified.
func SyncDataset(old *Dataset, fields []string) *Dataset {
	next := NewDataset(fields)
	if old == nil || len(old.rows) == 0 {
		return next
	}

	next.rows = make([]Row, len(old.rows))
	for i, oldRow := range old.rows {
		row := make(Row, len(fields))
		for _, field := range fields {
			// missing keys read as "" which is the value a new field starts with
			row[field] = oldRow[field]
		}
		next.rows[i] = row
	}
	return next
}

// Package table is the in-memory record batch and its CSV encoding.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// NullToken is the canonical string of a null value. It is what the CSV
// writer emits for a missing cell, so a null key hashes the same before
// writing and after reading the shard back. pdpart hashes nulls as "nan"
// instead, so null keys are the one case where its layout is not matched.
const NullToken = ""

var (
	// ErrNoColumn indicates a batch has no column with the requested name.
	ErrNoColumn = errors.New("table: no such column")

	// ErrDuplicateColumn indicates a column name occurs more than once.
	ErrDuplicateColumn = errors.New("table: duplicate column")

	// ErrRaggedRow indicates a row whose width differs from the header.
	ErrRaggedRow = errors.New("table: row width does not match header")

	// ErrCarriageReturn indicates a cell containing '\r'. CSV readers
	// turn a quoted "\r\n" into "\n", so such a cell cannot be stored
	// and read back unchanged.
	ErrCarriageReturn = errors.New("table: cell contains carriage return")

	// ErrUnsupportedValue indicates a value with no canonical string form.
	ErrUnsupportedValue = errors.New("table: unsupported value")
)

// Batch is a set of rows sharing one header. Cells hold canonical
// strings, so a Batch can be written without further conversion.
type Batch struct {
	Columns []string
	Rows    [][]string
}

// New returns a batch with the given header and rows.
func New(columns []string, rows ...[]string) Batch {
	return Batch{Columns: columns, Rows: rows}
}

// FromRecords converts typed records into a batch, canonicalizing every
// value with Canonical.
func FromRecords(columns []string, records [][]any) (Batch, error) {
	b := Batch{Columns: columns, Rows: make([][]string, len(records))}
	for i, rec := range records {
		if len(rec) != len(columns) {
			return Batch{}, fmt.Errorf("%w: record %d has %d values, header has %d", ErrRaggedRow, i, len(rec), len(columns))
		}
		row := make([]string, len(rec))
		for j, v := range rec {
			s, err := Canonical(v)
			if err != nil {
				return Batch{}, fmt.Errorf("record %d column %q: %w", i, columns[j], err)
			}
			row[j] = s
		}
		b.Rows[i] = row
	}
	return b, nil
}

// Len returns the number of rows.
func (b Batch) Len() int {
	return len(b.Rows)
}

// Validate checks that column names are unique, every row has one cell
// per column and no cell or name contains a carriage return.
func (b Batch) Validate() error {
	seen := make(map[string]struct{}, len(b.Columns))
	for _, c := range b.Columns {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		seen[c] = struct{}{}
		if strings.ContainsRune(c, '\r') {
			return fmt.Errorf("%w: column %q", ErrCarriageReturn, c)
		}
	}
	for i, row := range b.Rows {
		if len(row) != len(b.Columns) {
			return fmt.Errorf("%w: row %d has %d cells, header has %d", ErrRaggedRow, i, len(row), len(b.Columns))
		}
		for j, cell := range row {
			if strings.ContainsRune(cell, '\r') {
				return fmt.Errorf("%w: row %d column %q", ErrCarriageReturn, i, b.Columns[j])
			}
		}
	}
	return nil
}

// ColumnIndex returns the position of the named column.
func (b Batch) ColumnIndex(name string) (int, error) {
	idx := -1
	for i, c := range b.Columns {
		if c != name {
			continue
		}
		if idx >= 0 {
			return 0, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		idx = i
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	return idx, nil
}

// Column returns the values of the named column, one per row.
func (b Batch) Column(name string) ([]string, error) {
	idx, err := b.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(b.Rows))
	for i, row := range b.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Select returns a batch holding the rows at the given indexes, in that
// order. Rows are shared, not copied.
func (b Batch) Select(indexes []int) Batch {
	rows := make([][]string, len(indexes))
	for i, idx := range indexes {
		rows[i] = b.Rows[idx]
	}
	return Batch{Columns: b.Columns, Rows: rows}
}

// SameColumns reports whether two headers are identical.
func SameColumns(a, b []string) bool {
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

// Concat joins batches that share a header.
func Concat(batches ...Batch) (Batch, error) {
	if len(batches) == 0 {
		return Batch{}, nil
	}
	out := Batch{Columns: batches[0].Columns}
	for i, b := range batches {
		if !SameColumns(b.Columns, out.Columns) {
			return Batch{}, fmt.Errorf("batch %d header %v differs from %v", i, b.Columns, out.Columns)
		}
		out.Rows = append(out.Rows, b.Rows...)
	}
	return out, nil
}

// Canonical returns the string a value is written as, which is also the
// string its partition key is computed from. Integers are base 10, floats
// use the shortest representation that round-trips, booleans are
// true/false and times are RFC 3339 with nanoseconds. Nil and NaN map to
// NullToken.
func Canonical(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return NullToken, nil
	case string:
		return x, nil
	case float64:
		if math.IsNaN(x) {
			return NullToken, nil
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		if math.IsNaN(float64(x)) {
			return NullToken, nil
		}
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case *time.Time:
		if x == nil {
			return NullToken, nil
		}
		return x.Format(time.RFC3339Nano), nil
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return s, nil
}

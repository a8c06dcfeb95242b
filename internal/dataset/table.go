package dataset

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "tmdbcli/internal/errors"
)

// Cell is a single field of a table row
type Cell struct {
	Value string
	Null  bool
}

// Text creates a non-null cell
func Text(value string) Cell {
	return Cell{Value: value}
}

// NullCell creates a missing cell
func NullCell() Cell {
	return Cell{Null: true}
}

// Row is an ordered list of cells aligned with the table columns
type Row []Cell

// Table is an immutable in-memory table of string cells.
// Every operation returns a new Table and leaves the receiver untouched.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// NewTable creates a table from a header and rows. Rows are copied.
func NewTable(columns []string, rows []Row) (Table, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, dup := index[col]; dup {
			return Table{}, apperrors.NewSchemaError(col, "duplicate column name")
		}
		index[col] = i
	}

	copied := make([]Row, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return Table{}, apperrors.NewSchemaError("", fmt.Sprintf("row %d has %d fields, header has %d", i+1, len(row), len(columns))).
				WithContext(apperrors.ContextRow, i+1)
		}
		copied[i] = append(Row(nil), row...)
	}

	return Table{
		columns: append([]string(nil), columns...),
		index:   index,
		rows:    copied,
	}, nil
}

// MustTable is like NewTable but panics on error. Intended for fixtures.
func MustTable(columns []string, rows ...[]string) Table {
	converted := make([]Row, len(rows))
	for i, values := range rows {
		row := make(Row, len(values))
		for j, v := range values {
			row[j] = ParseCell(v)
		}
		converted[i] = row
	}
	t, err := NewTable(columns, converted)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns a copy of the column names
func (t Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows
func (t Table) Len() int {
	return len(t.rows)
}

// Width returns the number of columns
func (t Table) Width() int {
	return len(t.columns)
}

// Row returns a copy of the i-th row
func (t Table) Row(i int) Row {
	return append(Row(nil), t.rows[i]...)
}

// Has reports whether the column exists
func (t Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// ColumnIndex returns the position of a column or a schema error
func (t Table) ColumnIndex(column string) (int, error) {
	idx, ok := t.index[column]
	if !ok {
		return -1, apperrors.NewSchemaError(column, fmt.Sprintf("column %q not found", column))
	}
	return idx, nil
}

// Cell returns the cell at row i of the named column
func (t Table) Cell(i int, column string) (Cell, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return Cell{}, err
	}
	return t.rows[i][idx], nil
}

// Values returns the raw values of a column; null cells yield ""
func (t Table) Values(column string) ([]string, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[idx].Value
	}
	return values, nil
}

// Records renders the rows as string slices; null cells become ""
func (t Table) Records() [][]string {
	records := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rec := make([]string, len(row))
		for j, cell := range row {
			rec[j] = cell.Value
		}
		records[i] = rec
	}
	return records
}

// Clone returns a deep copy of the table
func (t Table) Clone() Table {
	clone, _ := NewTable(t.columns, t.rows)
	return clone
}

// Drop removes the named columns; every column must exist
func (t Table) Drop(columns ...string) (Table, error) {
	drop := make(map[string]bool, len(columns))
	for _, col := range columns {
		if !t.Has(col) {
			return Table{}, apperrors.NewSchemaError(col, fmt.Sprintf("cannot drop missing column %q", col))
		}
		drop[col] = true
	}

	keep := make([]string, 0, len(t.columns))
	for _, col := range t.columns {
		if !drop[col] {
			keep = append(keep, col)
		}
	}
	return t.Select(keep...)
}

// Select projects the table onto the named columns in the given order
func (t Table) Select(columns ...string) (Table, error) {
	positions := make([]int, len(columns))
	for i, col := range columns {
		idx, err := t.ColumnIndex(col)
		if err != nil {
			return Table{}, err
		}
		positions[i] = idx
	}

	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		projected := make(Row, len(positions))
		for j, idx := range positions {
			projected[j] = row[idx]
		}
		rows[i] = projected
	}
	return NewTable(columns, rows)
}

// Filter keeps the rows for which keep returns true, preserving order
func (t Table) Filter(keep func(Row) bool) Table {
	rows := make([]Row, 0, len(t.rows))
	for _, row := range t.rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	out, _ := NewTable(t.columns, rows)
	return out
}

// MapColumn replaces every cell of a column with fn(cell)
func (t Table) MapColumn(column string, fn func(Cell) (Cell, error)) (Table, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return Table{}, err
	}

	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		mapped := append(Row(nil), row...)
		cell, err := fn(row[idx])
		if err != nil {
			return Table{}, annotateRow(err, column, i)
		}
		mapped[idx] = cell
		rows[i] = mapped
	}
	return NewTable(t.columns, rows)
}

// WithColumn appends a column computed from each row, or replaces it if it already exists
func (t Table) WithColumn(column string, fn func(i int, row Row) (Cell, error)) (Table, error) {
	columns := t.Columns()
	idx, exists := t.index[column]
	if !exists {
		columns = append(columns, column)
	}

	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		cell, err := fn(i, row)
		if err != nil {
			return Table{}, annotateRow(err, column, i)
		}
		extended := append(Row(nil), row...)
		if exists {
			extended[idx] = cell
		} else {
			extended = append(extended, cell)
		}
		rows[i] = extended
	}
	return NewTable(columns, rows)
}

// Equal reports whether two tables have identical columns and cells
func (t Table) Equal(other Table) bool {
	if len(t.columns) != len(other.columns) || len(t.rows) != len(other.rows) {
		return false
	}
	for i, col := range t.columns {
		if other.columns[i] != col {
			return false
		}
	}
	for i, row := range t.rows {
		if !row.Equal(other.rows[i]) {
			return false
		}
	}
	return true
}

// Equal reports full-row equality; two null cells are equal
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i, c := range r {
		if c != other[i] {
			return false
		}
	}
	return true
}

// HasNull reports whether any cell of the row is missing
func (r Row) HasNull() bool {
	for _, c := range r {
		if c.Null {
			return true
		}
	}
	return false
}

// Key returns a string identifying the row contents, used for duplicate
// detection. Values are length-prefixed, so distinct rows never share a key.
func (r Row) Key() string {
	var b strings.Builder
	for _, c := range r {
		if c.Null {
			b.WriteByte('N')
			continue
		}
		b.WriteByte('V')
		b.WriteString(strconv.Itoa(len(c.Value)))
		b.WriteByte(':')
		b.WriteString(c.Value)
	}
	return b.String()
}

func annotateRow(err error, column string, i int) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		if _, set := appErr.Context[apperrors.ContextColumn]; !set || appErr.Context[apperrors.ContextColumn] == "" {
			appErr.WithContext(apperrors.ContextColumn, column)
		}
		if _, set := appErr.Context[apperrors.ContextRow]; !set {
			appErr.WithContext(apperrors.ContextRow, i+1)
		}
		return appErr
	}
	return apperrors.NewSchemaError(column, err.Error()).WithContext(apperrors.ContextRow, i+1)
}

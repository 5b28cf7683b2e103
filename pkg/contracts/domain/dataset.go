package domain

import (
	"fmt"
	"math"
	"strconv"
)

// ColumnKind classifies the values held by a column
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
)

// Value is a single dataset cell. Num is used by numeric columns, Str by
// text columns. Null marks a missing entry for either kind.
type Value struct {
	Num  float64
	Str  string
	Null bool
}

// Number returns a present numeric cell
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Missing()
	}
	return Value{Num: f}
}

// Text returns a present text cell
func Text(s string) Value {
	return Value{Str: s}
}

// Missing returns a missing cell
func Missing() Value {
	return Value{Null: true}
}

// Format renders the cell the way exports and previews show it.
// Missing cells render as the empty string.
func (v Value) Format(kind ColumnKind) string {
	if v.Null {
		return ""
	}
	if kind == KindNumeric {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Str
}

// Column is a named, typed sequence of cells
type Column struct {
	Name   string     `json:"name"`
	Kind   ColumnKind `json:"kind"`
	Values []Value    `json:"-"`
}

// NumericColumn builds a numeric column from cells
func NumericColumn(name string, values ...Value) Column {
	return Column{Name: name, Kind: KindNumeric, Values: values}
}

// TextColumn builds a text column from cells
func TextColumn(name string, values ...Value) Column {
	return Column{Name: name, Kind: KindText, Values: values}
}

// Len returns the number of cells in the column
func (c Column) Len() int {
	return len(c.Values)
}

// MissingCount returns the number of missing cells
func (c Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.Null {
			n++
		}
	}
	return n
}

// Present returns the non-missing numeric values in row order.
// It returns nil for text columns.
func (c Column) Present() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.Null {
			out = append(out, v.Num)
		}
	}
	return out
}

func (c Column) clone() Column {
	values := make([]Value, len(c.Values))
	copy(values, c.Values)
	return Column{Name: c.Name, Kind: c.Kind, Values: values}
}

// Dataset is an ordered set of equally long, uniquely named columns.
// Datasets are values: operations return new datasets and never modify
// the receiver.
type Dataset struct {
	columns []Column
	rows    int
}

// NewDataset validates the columns and builds a dataset from them. The
// columns are copied.
func NewDataset(columns ...Column) (Dataset, error) {
	seen := make(map[string]struct{}, len(columns))
	rows := 0
	for i, col := range columns {
		if _, dup := seen[col.Name]; dup {
			return Dataset{}, fmt.Errorf("duplicate column name %q", col.Name)
		}
		seen[col.Name] = struct{}{}

		if col.Kind != KindNumeric && col.Kind != KindText {
			return Dataset{}, fmt.Errorf("column %q has unknown kind %q", col.Name, col.Kind)
		}
		if i == 0 {
			rows = col.Len()
		} else if col.Len() != rows {
			return Dataset{}, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), rows)
		}
	}

	cols := make([]Column, len(columns))
	for i, col := range columns {
		cols[i] = col.clone()
	}
	return Dataset{columns: cols, rows: rows}, nil
}

// MustDataset is NewDataset for fixtures and tests; it panics on invalid input
func MustDataset(columns ...Column) Dataset {
	ds, err := NewDataset(columns...)
	if err != nil {
		panic(err)
	}
	return ds
}

// Rows returns the shared row count
func (d Dataset) Rows() int {
	return d.rows
}

// Width returns the number of columns
func (d Dataset) Width() int {
	return len(d.columns)
}

// Names returns the column names in order
func (d Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, col := range d.columns {
		names[i] = col.Name
	}
	return names
}

// Columns returns copies of all columns in order
func (d Dataset) Columns() []Column {
	cols := make([]Column, len(d.columns))
	for i, col := range d.columns {
		cols[i] = col.clone()
	}
	return cols
}

// Column returns a copy of the named column
func (d Dataset) Column(name string) (Column, bool) {
	for _, col := range d.columns {
		if col.Name == name {
			return col.clone(), true
		}
	}
	return Column{}, false
}

// NumericColumns returns copies of the numeric columns in order
func (d Dataset) NumericColumns() []Column {
	var cols []Column
	for _, col := range d.columns {
		if col.Kind == KindNumeric {
			cols = append(cols, col.clone())
		}
	}
	return cols
}

// Row returns the cells of row i in column order
func (d Dataset) Row(i int) []Value {
	row := make([]Value, len(d.columns))
	for j, col := range d.columns {
		row[j] = col.Values[i]
	}
	return row
}

// Record returns row i formatted as strings
func (d Dataset) Record(i int) []string {
	rec := make([]string, len(d.columns))
	for j, col := range d.columns {
		rec[j] = col.Values[i].Format(col.Kind)
	}
	return rec
}

// Head returns up to n leading rows formatted as strings
func (d Dataset) Head(n int) [][]string {
	if n > d.rows {
		n = d.rows
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = d.Record(i)
	}
	return out
}

// Clone returns a deep copy
func (d Dataset) Clone() Dataset {
	return Dataset{columns: d.Columns(), rows: d.rows}
}

// SelectRows returns a dataset holding the given rows in the given order
func (d Dataset) SelectRows(rows []int) Dataset {
	cols := make([]Column, len(d.columns))
	for j, col := range d.columns {
		values := make([]Value, len(rows))
		for k, i := range rows {
			values[k] = col.Values[i]
		}
		cols[j] = Column{Name: col.Name, Kind: col.Kind, Values: values}
	}
	return Dataset{columns: cols, rows: len(rows)}
}

// MapColumns returns a dataset where each column is replaced by fn's result.
// fn receives a private copy and must keep the row count.
func (d Dataset) MapColumns(fn func(Column) Column) Dataset {
	cols := make([]Column, len(d.columns))
	for j, col := range d.columns {
		mapped := fn(col.clone())
		if mapped.Len() != d.rows {
			panic(fmt.Sprintf("column %q changed length from %d to %d", col.Name, d.rows, mapped.Len()))
		}
		cols[j] = mapped
	}
	return Dataset{columns: cols, rows: d.rows}
}

// WithColumn returns a dataset with col appended, or replacing the column
// of the same name in place.
func (d Dataset) WithColumn(col Column) (Dataset, error) {
	if col.Len() != d.rows && len(d.columns) > 0 {
		return Dataset{}, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), d.rows)
	}
	cols := d.Columns()
	replaced := false
	for i := range cols {
		if cols[i].Name == col.Name {
			cols[i] = col.clone()
			replaced = true
		}
	}
	if !replaced {
		cols = append(cols, col.clone())
	}
	return Dataset{columns: cols, rows: col.Len()}, nil
}

// MissingCount returns the number of missing cells across all columns
func (d Dataset) MissingCount() int {
	n := 0
	for _, col := range d.columns {
		n += col.MissingCount()
	}
	return n
}

package models

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the type of a single table cell
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
)

// String returns the SQLite column affinity used for the kind
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	case KindText:
		return "TEXT"
	default:
		return "NULL"
	}
}

// Cell holds one value of a table row
type Cell struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
}

// Null returns an empty cell
func Null() Cell { return Cell{Kind: KindNull} }

// IntCell returns an integer cell
func IntCell(v int64) Cell { return Cell{Kind: KindInt, Int: v} }

// FloatCell returns a floating point cell. NaN is stored as Null.
func FloatCell(v float64) Cell {
	if math.IsNaN(v) {
		return Null()
	}
	return Cell{Kind: KindFloat, Float: v}
}

// TextCell returns a text cell
func TextCell(v string) Cell { return Cell{Kind: KindText, Text: v} }

// IsNull reports whether the cell is empty
func (c Cell) IsNull() bool { return c.Kind == KindNull }

// Number returns the numeric value of the cell, if any
func (c Cell) Number() (float64, bool) {
	switch c.Kind {
	case KindInt:
		return float64(c.Int), true
	case KindFloat:
		return c.Float, true
	default:
		return 0, false
	}
}

// Key returns a canonical representation used for equality, joins and
// duplicate detection. Integral floats compare equal to integers.
func (c Cell) Key() string {
	switch c.Kind {
	case KindInt:
		return "n:" + strconv.FormatInt(c.Int, 10)
	case KindFloat:
		if c.Float == math.Trunc(c.Float) && math.Abs(c.Float) < 1<<53 {
			return "n:" + strconv.FormatInt(int64(c.Float), 10)
		}
		return "n:" + strconv.FormatFloat(c.Float, 'g', -1, 64)
	case KindText:
		return "s:" + c.Text
	default:
		return "\x00"
	}
}

// Equal reports whether two cells hold the same value
func (c Cell) Equal(o Cell) bool { return c.Key() == o.Key() }

// Value converts the cell into a database/sql argument
func (c Cell) Value() any {
	switch c.Kind {
	case KindInt:
		return c.Int
	case KindFloat:
		return c.Float
	case KindText:
		return c.Text
	default:
		return nil
	}
}

func (c Cell) String() string {
	switch c.Kind {
	case KindInt:
		return strconv.FormatInt(c.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case KindText:
		return c.Text
	default:
		return ""
	}
}

// Row is an ordered list of cells matching Table.Columns
type Row []Cell

// Key returns the canonical representation of the whole row. Each cell key
// is length-prefixed so text containing separator bytes cannot make two
// different rows share a key.
func (r Row) Key() string {
	var b strings.Builder
	for _, c := range r {
		k := c.Key()
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

// Table is an in-memory tabular dataset with named columns
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given columns
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of a column or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Append adds a row. The row must have one cell per column.
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// Column returns every cell of the named column
func (t *Table) Column(name string) ([]Cell, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]Cell, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, true
}

// ColumnKind returns the widest kind found in a column, ignoring nulls.
// Int widens to Float; any text makes the column Text.
func (t *Table) ColumnKind(idx int) Kind {
	kind := KindNull
	for _, r := range t.Rows {
		switch c := r[idx]; {
		case c.Kind == KindText:
			return KindText
		case c.Kind == KindFloat:
			kind = KindFloat
		case c.Kind == KindInt && kind == KindNull:
			kind = KindInt
		}
	}
	return kind
}

package cleaner

import (
	"fmt"
	"strconv"
	"strings"

	"data-pipeline/internal/models"
)

// Options controls how the category column is reshaped and filtered
type Options struct {
	CategoryColumn string
	Delimiter      string
	SentinelColumn string
	SentinelValue  int64
}

// DefaultOptions returns the settings used for the disaster response dataset
func DefaultOptions() Options {
	return Options{
		CategoryColumn: "categories",
		Delimiter:      ";",
		SentinelColumn: "related",
		SentinelValue:  2,
	}
}

// Report summarises what Clean did to a table
type Report struct {
	InputRows         int
	DuplicatesRemoved int
	SentinelRemoved   int
	OutputRows        int
	Categories        []string
	NonBinaryValues   int
}

// Clean splits the category column, removes duplicate rows and drops rows
// carrying the sentinel value.
func Clean(t *models.Table, opts Options) (*models.Table, Report, error) {
	report := Report{InputRows: t.Len()}

	split, categories, err := SplitCategories(t, opts)
	if err != nil {
		return nil, report, err
	}
	report.Categories = categories

	deduped := DropDuplicates(split)
	report.DuplicatesRemoved = split.Len() - deduped.Len()

	filtered, err := DropSentinel(deduped, opts.SentinelColumn, models.IntCell(opts.SentinelValue))
	if err != nil {
		return nil, report, err
	}
	report.SentinelRemoved = deduped.Len() - filtered.Len()
	report.OutputRows = filtered.Len()
	report.NonBinaryValues = CountNonBinary(filtered, categories)

	return filtered, report, nil
}

// SplitCategories replaces the delimited category column with one numeric
// column per category. Names come from the first row with the two-character
// value suffix stripped; values are the last character of each token.
func SplitCategories(t *models.Table, opts Options) (*models.Table, []string, error) {
	idx := t.ColumnIndex(opts.CategoryColumn)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%q: %w", opts.CategoryColumn, models.ErrMissingColumn)
	}
	if t.Len() == 0 {
		return nil, nil, fmt.Errorf("split %q: %w", opts.CategoryColumn, models.ErrEmptyTable)
	}

	tokens := make([][]string, t.Len())
	width := 0
	for i, r := range t.Rows {
		c := r[idx]
		if c.IsNull() {
			continue
		}
		tokens[i] = strings.Split(c.String(), opts.Delimiter)
		if len(tokens[i]) > width {
			width = len(tokens[i])
		}
	}

	if t.Rows[0][idx].IsNull() {
		return nil, nil, fmt.Errorf("first row has no %q value to name columns from", opts.CategoryColumn)
	}
	first := tokens[0]

	names := make([]string, width)
	taken := make(map[string]bool, len(t.Columns)+width)
	for i, c := range t.Columns {
		if i != idx {
			taken[c] = true
		}
	}
	for i := range names {
		if i >= len(first) {
			return nil, nil, fmt.Errorf("first row has %d categories, other rows have up to %d", len(first), width)
		}
		name, err := CategoryName(first[i])
		if err != nil {
			return nil, nil, fmt.Errorf("row 1: %w", err)
		}
		if taken[name] {
			return nil, nil, fmt.Errorf("category %q collides with an existing column", name)
		}
		taken[name] = true
		names[i] = name
	}

	columns := make([]string, 0, len(t.Columns)-1+width)
	columns = append(columns, t.Columns[:idx]...)
	columns = append(columns, t.Columns[idx+1:]...)
	columns = append(columns, names...)

	out := models.NewTable(columns...)
	for i, r := range t.Rows {
		row := make(models.Row, 0, len(columns))
		row = append(row, r[:idx]...)
		row = append(row, r[idx+1:]...)
		for j := 0; j < width; j++ {
			if j >= len(tokens[i]) {
				row = append(row, models.Null())
				continue
			}
			v, err := CategoryValue(tokens[i][j])
			if err != nil {
				return nil, nil, fmt.Errorf("row %d, category %q: %w", i+1, names[j], err)
			}
			row = append(row, v)
		}
		out.Append(row)
	}
	return out, names, nil
}

// CategoryName strips the "-value" suffix from a category token
func CategoryName(token string) (string, error) {
	if len(token) <= 2 {
		return "", fmt.Errorf("category token %q is too short to carry a name", token)
	}
	return token[:len(token)-2], nil
}

// CategoryValue converts the last character of a category token to a number
func CategoryValue(token string) (models.Cell, error) {
	if token == "" {
		return models.Null(), nil
	}
	last := token[len(token)-1:]
	v, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return models.Null(), fmt.Errorf("token %q: value %q is not numeric", token, last)
	}
	return models.IntCell(v), nil
}

// DropDuplicates keeps the first occurrence of every distinct row
func DropDuplicates(t *models.Table) *models.Table {
	out := models.NewTable(t.Columns...)
	seen := make(map[string]struct{}, t.Len())
	for _, r := range t.Rows {
		k := r.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out.Append(r)
	}
	return out
}

// DropSentinel removes rows whose column equals value. Null cells are kept.
func DropSentinel(t *models.Table, column string, value models.Cell) (*models.Table, error) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("%q: %w", column, models.ErrMissingColumn)
	}
	out := models.NewTable(t.Columns...)
	for _, r := range t.Rows {
		if r[idx].Equal(value) {
			continue
		}
		out.Append(r)
	}
	return out, nil
}

// CountNonBinary returns how many non-null cells of the given columns fall
// outside {0, 1}.
func CountNonBinary(t *models.Table, columns []string) int {
	n := 0
	for _, name := range columns {
		cells, ok := t.Column(name)
		if !ok {
			continue
		}
		for _, c := range cells {
			if c.IsNull() {
				continue
			}
			if v, ok := c.Number(); !ok || (v != 0 && v != 1) {
				n++
			}
		}
	}
	return n
}

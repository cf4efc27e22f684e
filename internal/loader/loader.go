package loader

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"data-pipeline/internal/models"
)

// JoinKey is the column shared by the messages and categories files
const JoinKey = "id"

// naValues are the tokens treated as missing, matching the defaults of
// common dataframe CSV readers.
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// Load reads the messages and categories files and left-joins them on id
func Load(messagesPath, categoriesPath string) (*models.Table, error) {
	messages, err := ReadCSV(messagesPath)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	categories, err := ReadCSV(categoriesPath)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	merged, err := LeftJoin(messages, categories, JoinKey)
	if err != nil {
		return nil, fmt.Errorf("merge datasets: %w", err)
	}
	return merged, nil
}

// ReadCSV reads a delimited file with a header row into a table.
// Column types are inferred from the whole column.
func ReadCSV(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads CSV content from r into a table
func Parse(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", models.ErrEmptyTable)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	// Strip a UTF-8 byte order mark left by spreadsheet exports
	if len(header) > 0 && len(header[0]) >= 3 && header[0][:3] == "\xef\xbb\xbf" {
		header[0] = header[0][3:]
	}

	var records [][]string
	rowNum := 1 // header already counted
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowNum, err)
		}
		records = append(records, rec)
	}

	t := models.NewTable(header...)
	t.Rows = make([]models.Row, len(records))
	for i := range records {
		t.Rows[i] = make(models.Row, len(header))
	}
	for col := range header {
		raw := make([]string, len(records))
		for i, rec := range records {
			raw[i] = rec[col]
		}
		for i, c := range InferColumn(raw) {
			t.Rows[i][col] = c
		}
	}
	return t, nil
}

// InferColumn converts raw column values into typed cells. A column is Int
// when every present value is an integer, Float when every present value is
// numeric, and Text otherwise. Missing markers always become Null.
func InferColumn(raw []string) []models.Cell {
	kind := models.KindNull
	for _, s := range raw {
		if isNA(s) {
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			if kind == models.KindNull {
				kind = models.KindInt
			}
			continue
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			kind = models.KindFloat
			continue
		}
		kind = models.KindText
		break
	}

	out := make([]models.Cell, len(raw))
	for i, s := range raw {
		if isNA(s) {
			out[i] = models.Null()
			continue
		}
		switch kind {
		case models.KindInt:
			v, _ := strconv.ParseInt(s, 10, 64)
			out[i] = models.IntCell(v)
		case models.KindFloat:
			v, _ := strconv.ParseFloat(s, 64)
			out[i] = models.FloatCell(v)
		default:
			out[i] = models.TextCell(s)
		}
	}
	return out
}

func isNA(s string) bool {
	_, ok := naValues[s]
	return ok
}

// LeftJoin keeps every row of left in order. Each left row is repeated for
// every matching right row; unmatched rows get Null for the right columns.
// Non-key columns present on both sides are suffixed with _x and _y.
func LeftJoin(left, right *models.Table, key string) (*models.Table, error) {
	li := left.ColumnIndex(key)
	if li < 0 {
		return nil, fmt.Errorf("left table %q: %w", key, models.ErrMissingColumn)
	}
	ri := right.ColumnIndex(key)
	if ri < 0 {
		return nil, fmt.Errorf("right table %q: %w", key, models.ErrMissingColumn)
	}

	shared := make(map[string]bool)
	for _, lc := range left.Columns {
		if lc != key && right.ColumnIndex(lc) >= 0 {
			shared[lc] = true
		}
	}

	columns := make([]string, 0, len(left.Columns)+len(right.Columns)-1)
	for _, c := range left.Columns {
		if shared[c] {
			c += "_x"
		}
		columns = append(columns, c)
	}
	rightCols := make([]int, 0, len(right.Columns)-1)
	for i, c := range right.Columns {
		if i == ri {
			continue
		}
		if shared[c] {
			c += "_y"
		}
		columns = append(columns, c)
		rightCols = append(rightCols, i)
	}

	index := make(map[string][]int, len(right.Rows))
	for i, r := range right.Rows {
		k := r[ri].Key()
		index[k] = append(index[k], i)
	}

	out := models.NewTable(columns...)
	for _, lr := range left.Rows {
		matches := index[lr[li].Key()]
		if len(matches) == 0 {
			row := make(models.Row, 0, len(columns))
			row = append(row, lr...)
			for range rightCols {
				row = append(row, models.Null())
			}
			out.Append(row)
			continue
		}
		for _, m := range matches {
			row := make(models.Row, 0, len(columns))
			row = append(row, lr...)
			for _, c := range rightCols {
				row = append(row, right.Rows[m][c])
			}
			out.Append(row)
		}
	}
	return out, nil
}

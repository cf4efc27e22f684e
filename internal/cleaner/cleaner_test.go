package cleaner

import (
	"testing"

	"data-pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func merged(rows ...models.Row) *models.Table {
	t := models.NewTable("id", "message", "categories")
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func row(id int64, msg string, categories string) models.Row {
	c := models.Null()
	if categories != "" {
		c = models.TextCell(categories)
	}
	return models.Row{models.IntCell(id), models.TextCell(msg), c}
}

func TestSplitCategories(t *testing.T) {
	t.Parallel()

	in := merged(row(1, "a", "related-1;request-0;offer-1"))

	out, names, err := SplitCategories(in, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"related", "request", "offer"}, names)
	assert.Equal(t, []string{"id", "message", "related", "request", "offer"}, out.Columns)
	assert.Equal(t, models.Row{
		models.IntCell(1), models.TextCell("a"),
		models.IntCell(1), models.IntCell(0), models.IntCell(1),
	}, out.Rows[0])
}

func TestSplitCategories_MissingTokensAreNull(t *testing.T) {
	t.Parallel()

	in := merged(
		row(1, "a", "related-1;request-0"),
		row(2, "b", "related-0"),
		row(3, "c", ""),
	)

	out, _, err := SplitCategories(in, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, models.IntCell(0), out.Rows[1][2])
	assert.True(t, out.Rows[1][3].IsNull())
	assert.True(t, out.Rows[2][2].IsNull())
	assert.True(t, out.Rows[2][3].IsNull())
}

func TestSplitCategories_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *models.Table
	}{
		{
			name: "first row has no categories",
			in:   merged(row(1, "a", ""), row(2, "b", "related-1")),
		},
		{
			name: "non numeric value",
			in:   merged(row(1, "a", "related-1"), row(2, "b", "related-x")),
		},
		{
			name: "token too short",
			in:   merged(row(1, "a", "r1")),
		},
		{
			name: "later rows wider than the first",
			in:   merged(row(1, "a", "related-1"), row(2, "b", "related-1;offer-0")),
		},
		{
			name: "category collides with a column",
			in:   merged(row(1, "a", "message-1")),
		},
		{
			name: "empty table",
			in:   merged(),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := SplitCategories(tt.in, DefaultOptions())
			require.Error(t, err)
		})
	}

	_, _, err := SplitCategories(models.NewTable("id"), DefaultOptions())
	require.ErrorIs(t, err, models.ErrMissingColumn)
}

func TestCategoryValue(t *testing.T) {
	t.Parallel()

	v, err := CategoryValue("related-2")
	require.NoError(t, err)
	assert.Equal(t, models.IntCell(2), v)

	v, err = CategoryValue("")
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	_, err = CategoryValue("related-")
	require.Error(t, err)
}

func TestDropDuplicates(t *testing.T) {
	t.Parallel()

	tbl := models.NewTable("id", "message", "original")
	tbl.Append(models.Row{models.IntCell(1), models.TextCell("a"), models.Null()})
	tbl.Append(models.Row{models.IntCell(2), models.TextCell("b"), models.Null()})
	tbl.Append(models.Row{models.IntCell(1), models.TextCell("a"), models.Null()})
	tbl.Append(models.Row{models.IntCell(1), models.TextCell("a"), models.TextCell("x")})

	out := DropDuplicates(tbl)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, models.IntCell(2), out.Rows[1][0])
	assert.Equal(t, models.TextCell("x"), out.Rows[2][2])
}

func TestDropDuplicates_ControlBytesInText(t *testing.T) {
	t.Parallel()

	tbl := models.NewTable("message", "original")
	tbl.Append(models.Row{models.TextCell("a\x1fs:b"), models.TextCell("c")})
	tbl.Append(models.Row{models.TextCell("a"), models.TextCell("b\x1fs:c")})
	tbl.Append(models.Row{models.TextCell("a"), models.TextCell("b\x1fs:c")})

	out := DropDuplicates(tbl)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, models.TextCell("a\x1fs:b"), out.Rows[0][0])
	assert.Equal(t, models.TextCell("a"), out.Rows[1][0])
}

func TestDropSentinel(t *testing.T) {
	t.Parallel()

	tbl := models.NewTable("id", "related")
	tbl.Append(models.Row{models.IntCell(1), models.IntCell(1)})
	tbl.Append(models.Row{models.IntCell(2), models.IntCell(2)})
	tbl.Append(models.Row{models.IntCell(3), models.Null()})
	tbl.Append(models.Row{models.IntCell(4), models.FloatCell(2)})

	out, err := DropSentinel(tbl, "related", models.IntCell(2))
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, models.IntCell(1), out.Rows[0][0])
	assert.Equal(t, models.IntCell(3), out.Rows[1][0])

	_, err = DropSentinel(tbl, "missing", models.IntCell(2))
	require.ErrorIs(t, err, models.ErrMissingColumn)
}

func TestClean(t *testing.T) {
	t.Parallel()

	in := merged(
		row(1, "a", "related-1;request-0;offer-0"),
		row(2, "b", "related-2;request-0;offer-0"),
		row(1, "a", "related-1;request-0;offer-0"),
		row(3, "c", "related-0;request-1;offer-0"),
		row(4, "d", "related-1;request-0;offer-1"),
	)

	out, report, err := Clean(in, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, Report{
		InputRows:         5,
		DuplicatesRemoved: 1,
		SentinelRemoved:   1,
		OutputRows:        3,
		Categories:        []string{"related", "request", "offer"},
	}, report)
	require.Equal(t, 3, out.Len())
	require.LessOrEqual(t, out.Len(), in.Len())

	related := out.ColumnIndex("related")
	for _, r := range out.Rows {
		assert.False(t, r[related].Equal(models.IntCell(2)))
	}
	for _, name := range report.Categories {
		cells, ok := out.Column(name)
		require.True(t, ok)
		for _, c := range cells {
			v, ok := c.Number()
			require.True(t, ok)
			assert.Contains(t, []float64{0, 1}, v)
		}
	}
}

func TestClean_CountsNonBinaryValues(t *testing.T) {
	t.Parallel()

	in := merged(
		row(1, "a", "related-1;request-0"),
		row(2, "b", "related-1;request-5"),
	)

	_, report, err := Clean(in, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, report.NonBinaryValues)
	assert.Equal(t, 2, report.OutputRows)
}

func TestClean_CustomOptions(t *testing.T) {
	t.Parallel()

	tbl := models.NewTable("id", "labels")
	tbl.Append(models.Row{models.IntCell(1), models.TextCell("flood-1|fire-9")})
	tbl.Append(models.Row{models.IntCell(2), models.TextCell("flood-0|fire-0")})

	out, report, err := Clean(tbl, Options{
		CategoryColumn: "labels",
		Delimiter:      "|",
		SentinelColumn: "fire",
		SentinelValue:  9,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "flood", "fire"}, out.Columns)
	assert.Equal(t, 1, report.SentinelRemoved)
	assert.Equal(t, models.IntCell(2), out.Rows[0][0])
}

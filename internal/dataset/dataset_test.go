package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdata/internal/dataset"
)

func TestIsNull(t *testing.T) {
	for _, v := range []string{"", "null", "NULL", "None", "nan", "NaN"} {
		assert.True(t, dataset.IsNull(v), "expected %q to be null", v)
	}
	for _, v := range []string{"0", "none", "Null", " ", "n/a"} {
		assert.False(t, dataset.IsNull(v), "expected %q to be non-null", v)
	}
}

func TestColumnAccess(t *testing.T) {
	ds := &dataset.Dataset{
		Name:    "orders",
		Columns: []string{"id", "amount", "note"},
		Rows: [][]string{
			{"1", "10.5", "ok"},
			{"2", "", "late"},
			{"3", "abc"},
		},
	}

	idx, ok := ds.ColumnIndex("amount")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = ds.ColumnIndex("missing")
	assert.False(t, ok)

	values, ok := ds.Column("note")
	require.True(t, ok)
	assert.Equal(t, []string{"ok", "late", ""}, values)

	assert.Equal(t, []string{"10.5", "abc"}, ds.NonNull("amount"))
	assert.Equal(t, 1, ds.NullCount("amount"))
	assert.Equal(t, 1, ds.NullCount("note"))
	assert.Equal(t, 2, ds.MissingTotal())

	// Non-numeric values are skipped, not zeroed.
	assert.Equal(t, []float64{10.5}, ds.NumericValues("amount"))
}

func TestParseNumeric(t *testing.T) {
	f, ok := dataset.ParseNumeric(" 12.5 ")
	require.True(t, ok)
	assert.InDelta(t, 12.5, f, 1e-9)

	_, ok = dataset.ParseNumeric("12abc")
	assert.False(t, ok)

	_, ok = dataset.ParseNumeric("")
	assert.False(t, ok)

	f, ok = dataset.ParseNumeric("-3")
	require.True(t, ok)
	assert.InDelta(t, -3, f, 1e-9)
}

func TestParseDate(t *testing.T) {
	for _, v := range []string{
		"2023-04-01",
		"2023-04-01 12:30:00",
		"2023/04/01",
		"04/01/2023",
		"Apr 1, 2023",
	} {
		_, ok := dataset.ParseDate(v)
		assert.True(t, ok, "expected %q to parse as a date", v)
	}

	for _, v := range []string{"", "not a date", "123.45"} {
		_, ok := dataset.ParseDate(v)
		assert.False(t, ok, "expected %q to fail", v)
	}

	parsed, ok := dataset.ParseDate("2023-04-01")
	require.True(t, ok)
	assert.Equal(t, 2023, parsed.Year())
	assert.Equal(t, 4, int(parsed.Month()))
}

func TestMemoryEstimate(t *testing.T) {
	small := &dataset.Dataset{Columns: []string{"a"}, Rows: [][]string{{"x"}}}
	large := &dataset.Dataset{Columns: []string{"a"}, Rows: [][]string{{"x"}, {"y"}, {"z"}}}

	assert.Greater(t, small.MemoryBytes(), int64(0))
	assert.Greater(t, large.MemoryBytes(), small.MemoryBytes())
	assert.Greater(t, large.MemoryMB(), 0.0)
}

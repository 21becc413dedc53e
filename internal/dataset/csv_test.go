package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdata/internal/dataset"
)

func TestParseCSV(t *testing.T) {
	data := []byte("name, age ,city\nAlice,30,Berlin\nBob,25,Paris\n")

	ds, err := dataset.ParseCSV("people", data, dataset.ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, "people", ds.Name)
	assert.Equal(t, []string{"name", "age", "city"}, ds.Columns)
	assert.Equal(t, 2, ds.RowCount())
	assert.Equal(t, []string{"Alice", "30", "Berlin"}, ds.Rows[0])
}

func TestParseCSVSemicolonFallback(t *testing.T) {
	data := []byte("name;age;city\nAlice;30;Berlin\n")

	ds, err := dataset.ParseCSV("people", data, dataset.ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age", "city"}, ds.Columns)
	require.Equal(t, 1, ds.RowCount())
	assert.Equal(t, []string{"Alice", "30", "Berlin"}, ds.Rows[0])
}

func TestParseCSVToleratesRaggedRows(t *testing.T) {
	data := []byte("a,b,c\n1,2,3\n4,5\n6,7,8,9\n")

	ds, err := dataset.ParseCSV("x", data, dataset.ImportOptions{})
	require.NoError(t, err)

	// Rows with a different field count than the header are kept as-is.
	assert.Equal(t, 3, ds.RowCount())
	assert.Equal(t, []string{"4", "5"}, ds.Rows[1])
	assert.Equal(t, []string{"6", "7", "8", "9"}, ds.Rows[2])

	// Column access pads the short row with an empty cell.
	values, ok := ds.Column("c")
	require.True(t, ok)
	assert.Equal(t, []string{"3", "", "8"}, values)
}

func TestParseCSVMaxRowsSampling(t *testing.T) {
	data := []byte("n\n0\n1\n2\n3\n4\n5\n6\n7\n8\n9\n")

	ds, err := dataset.ParseCSV("nums", data, dataset.ImportOptions{MaxRows: 3})
	require.NoError(t, err)

	// Every k-th row is kept so the sample spans the whole file.
	assert.Equal(t, 3, ds.RowCount())
	assert.Equal(t, "0", ds.Rows[0][0])
	assert.Equal(t, "3", ds.Rows[1][0])
	assert.Equal(t, "6", ds.Rows[2][0])
}

func TestLoadCSVFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,total\n1,9.99\n"), 0o644))

	ds, err := dataset.LoadCSVFile(path, dataset.ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, "orders", ds.Name)
	assert.Equal(t, path, ds.SourceFile)
	assert.Equal(t, 1, ds.RowCount())

	_, err = dataset.LoadCSVFile(filepath.Join(dir, "missing.csv"), dataset.ImportOptions{})
	assert.Error(t, err)
}

func TestProbeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probe.csv")
	require.NoError(t, os.WriteFile(path, []byte("\"id\",\"name\"\n1,a\n2,b\n3,c\n"), 0o644))

	fs, err := dataset.ProbeFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, fs.Columns)
	assert.Equal(t, int64(3), fs.EstimatedRows)
	assert.Greater(t, fs.SizeBytes, int64(0))

	_, err = dataset.ProbeFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

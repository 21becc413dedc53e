package dataset

import (
	"strconv"
	"strings"
	"time"
)

// Dataset is an ordered, named collection of columns over string cells.
// Cells keep their raw textual form; typed interpretation (numeric, date)
// happens at read time so a reload always reproduces the same values.
type Dataset struct {
	Name       string
	Columns    []string
	Rows       [][]string
	SourceFile string
	LoadedAt   time.Time
}

// Null tokens as they arrive from CSV exports and SQL NULLs.
var nullTokens = map[string]bool{
	"":     true,
	"null": true,
	"NULL": true,
	"None": true,
	"nan":  true,
	"NaN":  true,
}

// IsNull reports whether a raw cell value represents a missing value.
func IsNull(v string) bool {
	return nullTokens[v]
}

// RowCount returns the number of data rows.
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// ColumnCount returns the number of columns.
func (d *Dataset) ColumnCount() int {
	return len(d.Columns)
}

// ColumnIndex returns the position of the named column.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	for i, c := range d.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Column returns all cell values of the named column, including nulls.
// Rows shorter than the header are padded with empty cells.
func (d *Dataset) Column(name string) ([]string, bool) {
	idx, ok := d.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	values := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values, true
}

// NonNull returns the non-null values of the named column in row order.
func (d *Dataset) NonNull(name string) []string {
	values, ok := d.Column(name)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !IsNull(v) {
			out = append(out, v)
		}
	}
	return out
}

// NullCount returns how many cells of the named column are null.
func (d *Dataset) NullCount(name string) int {
	values, ok := d.Column(name)
	if !ok {
		return 0
	}
	n := 0
	for _, v := range values {
		if IsNull(v) {
			n++
		}
	}
	return n
}

// NumericValues parses the non-null values of the named column as floats.
// Values that do not parse are skipped.
func (d *Dataset) NumericValues(name string) []float64 {
	out := make([]float64, 0, len(d.Rows))
	for _, v := range d.NonNull(name) {
		if f, ok := ParseNumeric(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// MemoryBytes estimates the in-memory footprint: cell bytes plus a fixed
// per-cell header. Only the ordering of estimates across datasets matters.
func (d *Dataset) MemoryBytes() int64 {
	var total int64
	for _, row := range d.Rows {
		for _, cell := range row {
			total += int64(len(cell)) + 16
		}
	}
	return total
}

// MemoryMB returns the footprint estimate in megabytes.
func (d *Dataset) MemoryMB() float64 {
	return float64(d.MemoryBytes()) / 1024 / 1024
}

// MissingTotal counts null cells across the whole dataset.
func (d *Dataset) MissingTotal() int {
	n := 0
	for _, col := range d.Columns {
		n += d.NullCount(col)
	}
	return n
}

// ParseNumeric parses a cell as a float after trimming whitespace.
func ParseNumeric(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// ParseDate parses a cell against the known date layouts.
func ParseDate(v string) (time.Time, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

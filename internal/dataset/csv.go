package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ImportOptions controls how much of a file is materialized.
type ImportOptions struct {
	// MaxRows caps the number of rows kept in memory. Beyond the cap the
	// importer switches to systematic sampling (every k-th row) so the
	// sample spans the whole file. Zero means keep everything.
	MaxRows int
}

// ParseCSV parses CSV bytes into a Dataset. Comma is tried first; when the
// header does not parse, or collapses into a single cell containing
// semicolons, the data is re-read with a semicolon delimiter.
func ParseCSV(name string, data []byte, opts ImportOptions) (*Dataset, error) {
	headers, rows, err := readAll(data, ',')
	if err != nil || (len(headers) == 1 && strings.Contains(headers[0], ";")) {
		headers, rows, err = readAll(data, ';')
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
	}
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		rows = sampleRows(rows, opts.MaxRows)
	}
	return &Dataset{
		Name:     name,
		Columns:  headers,
		Rows:     rows,
		LoadedAt: time.Now(),
	}, nil
}

// LoadCSVFile reads a CSV file from disk. The dataset name defaults to the
// file name without its extension.
func LoadCSVFile(path string, opts ImportOptions) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	ds, err := ParseCSV(name, data, opts)
	if err != nil {
		return nil, err
	}
	ds.SourceFile = path
	return ds, nil
}

func readAll(data []byte, comma rune) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // Allow variable fields
	reader.LazyQuotes = true    // Allow bare quotes in non-quoted fields
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read headers: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	rows := [][]string{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip malformed rows rather than failing the whole import
			continue
		}
		rows = append(rows, record)
	}
	return headers, rows, nil
}

// sampleRows keeps every k-th row so the sample covers the full file.
func sampleRows(rows [][]string, max int) [][]string {
	step := len(rows) / max
	if step < 1 {
		step = 1
	}
	sampled := make([][]string, 0, max)
	for i := 0; i < len(rows) && len(sampled) < max; i += step {
		sampled = append(sampled, rows[i])
	}
	return sampled
}

// FileStructure describes a CSV file without loading it fully.
type FileStructure struct {
	Path          string   `json:"path"`
	SizeBytes     int64    `json:"size_bytes"`
	Columns       []string `json:"columns"`
	EstimatedRows int64    `json:"estimated_rows"`
}

// ProbeFile estimates the shape of a CSV file from its first lines. The row
// estimate divides the file size by the mean line length of a bounded
// sample, which is close enough to decide whether sampling is needed.
func ProbeFile(path string) (*FileStructure, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var header string
	var sampleBytes int64
	var sampleLines int64
	for scanner.Scan() && sampleLines < 1000 {
		line := scanner.Text()
		if sampleLines == 0 {
			header = line
		}
		sampleBytes += int64(len(line)) + 1
		sampleLines++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	if sampleLines == 0 {
		return nil, fmt.Errorf("probe %s: empty file", path)
	}

	comma := ","
	if !strings.Contains(header, ",") && strings.Contains(header, ";") {
		comma = ";"
	}
	columns := strings.Split(header, comma)
	for i, c := range columns {
		columns[i] = strings.TrimSpace(strings.Trim(c, `"`))
	}

	estimated := sampleLines - 1
	if sampleLines >= 1000 {
		meanLine := float64(sampleBytes) / float64(sampleLines)
		estimated = int64(float64(info.Size())/meanLine) - 1
	}
	return &FileStructure{
		Path:          path,
		SizeBytes:     info.Size(),
		Columns:       columns,
		EstimatedRows: estimated,
	}, nil
}

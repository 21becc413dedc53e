package multidata

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"askdata/internal/analysis"
	"askdata/internal/dataset"
	"askdata/internal/schema"
)

// DatasetSummary is the per-dataset shape fed to the insight rules and the
// comparison answer.
type DatasetSummary struct {
	Name               string  `json:"name"`
	Rows               int     `json:"rows"`
	Columns            int     `json:"columns"`
	MemoryMB           float64 `json:"memory_mb"`
	MissingValues      int     `json:"missing_values"`
	NumericColumns     int     `json:"numeric_columns"`
	CategoricalColumns int     `json:"categorical_columns"`
	DateColumns        int     `json:"date_columns"`
}

// Comparison is the payload of a cross-dataset comparison answer.
type Comparison struct {
	Datasets []DatasetSummary `json:"datasets"`
	Insights []string         `json:"insights"`
}

// Summarize condenses one dataset and its profile into summary numbers.
func Summarize(name string, ds *dataset.Dataset, prof *analysis.DatasetProfile) DatasetSummary {
	return DatasetSummary{
		Name:               name,
		Rows:               ds.RowCount(),
		Columns:            ds.ColumnCount(),
		MemoryMB:           ds.MemoryMB(),
		MissingValues:      ds.MissingTotal(),
		NumericColumns:     len(prof.NumericColumns()),
		CategoricalColumns: len(prof.CategoricalColumns()),
		DateColumns:        len(prof.DateColumns()),
	}
}

// Insights evaluates the cross-dataset observation rules in a fixed order.
// Summaries must arrive in load order so the listed names are stable.
func Insights(summaries []DatasetSummary, common map[string][]schema.ColumnRef) []string {
	if len(summaries) < 2 {
		return []string{"Load at least 2 datasets to generate cross-dataset insights."}
	}

	insights := []string{}

	// Size imbalance by memory footprint.
	largest, smallest := summaries[0], summaries[0]
	for _, s := range summaries[1:] {
		if s.MemoryMB > largest.MemoryMB {
			largest = s
		}
		if s.MemoryMB < smallest.MemoryMB {
			smallest = s
		}
	}
	ratio := math.Inf(1)
	if smallest.MemoryMB > 0 {
		ratio = largest.MemoryMB / smallest.MemoryMB
	}
	if ratio > 10 {
		insights = append(insights, fmt.Sprintf(
			"📊 Dataset '%s' is %.1fx larger than '%s' - consider data sampling for balanced analysis.",
			largest.Name, ratio, smallest.Name))
	}

	// Shared column vocabulary.
	if len(common) > 0 {
		insights = append(insights, fmt.Sprintf(
			"🔗 Found %d common column patterns across datasets - potential for data integration.",
			len(common)))
		if pattern, refs := widestPattern(common); pattern != "" {
			names := make([]string, len(refs))
			for i, ref := range refs {
				names[i] = ref.Dataset
			}
			insights = append(insights, fmt.Sprintf(
				"📋 Column pattern '%s' appears in %d datasets: %s",
				pattern, len(refs), strings.Join(names, ", ")))
		}
	}

	// Row-count outliers against the mean.
	meanRows := 0.0
	for _, s := range summaries {
		meanRows += float64(s.Rows)
	}
	meanRows /= float64(len(summaries))
	var unusual []string
	for _, s := range summaries {
		if math.Abs(float64(s.Rows)-meanRows) > 0.5*meanRows {
			unusual = append(unusual, s.Name)
		}
	}
	if len(unusual) > 0 {
		insights = append(insights, fmt.Sprintf(
			"📈 Datasets with unusual row counts detected: %s - may need different analysis approaches.",
			strings.Join(unusual, ", ")))
	}

	// Missing data worth flagging, each dataset against its own row count.
	var highMissing []string
	for _, s := range summaries {
		if float64(s.MissingValues) > float64(s.Rows)*0.1 {
			highMissing = append(highMissing, s.Name)
		}
	}
	if len(highMissing) > 0 {
		insights = append(insights, fmt.Sprintf(
			"⚠️ High missing data detected in: %s - consider data quality assessment.",
			strings.Join(highMissing, ", ")))
	}

	// Column-type composition.
	var highlyNumeric, highlyCategorical []string
	for _, s := range summaries {
		if s.Columns == 0 {
			continue
		}
		numericRatio := float64(s.NumericColumns) / float64(s.Columns)
		if numericRatio > 0.7 {
			highlyNumeric = append(highlyNumeric, s.Name)
		}
		if numericRatio < 0.3 {
			highlyCategorical = append(highlyCategorical, s.Name)
		}
	}
	if len(highlyNumeric) > 0 {
		insights = append(insights, fmt.Sprintf(
			"🔢 Highly numeric datasets: %s - good for statistical analysis and correlations.",
			strings.Join(highlyNumeric, ", ")))
	}
	if len(highlyCategorical) > 0 {
		insights = append(insights, fmt.Sprintf(
			"📊 Highly categorical datasets: %s - good for segmentation and classification analysis.",
			strings.Join(highlyCategorical, ", ")))
	}

	return insights
}

// widestPattern picks the common-column group seen in the most places,
// ties broken by sorted key order.
func widestPattern(common map[string][]schema.ColumnRef) (string, []schema.ColumnRef) {
	keys := make([]string, 0, len(common))
	for k := range common {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := ""
	for _, k := range keys {
		if best == "" || len(common[k]) > len(common[best]) {
			best = k
		}
	}
	if best == "" {
		return "", nil
	}
	return best, common[best]
}

package analysis

import (
	"fmt"
	"math"

	"askdata/internal/dataset"
)

// ColumnQuality holds quality metrics for a single column.
type ColumnQuality struct {
	Name            string   `json:"name"`
	Kind            Kind     `json:"kind"`
	TotalRows       int      `json:"total_rows"`
	NonNullRows     int      `json:"non_null_rows"`
	NullRate        float64  `json:"null_rate"`
	DistinctCount   int      `json:"distinct_count"`
	UniquenessRatio float64  `json:"uniqueness_ratio"`
	Entropy         float64  `json:"entropy"`
	IsPrimaryKey    bool     `json:"is_primary_key"`
	QualityScore    float64  `json:"quality_score"` // 0-1
	Issues          []string `json:"issues,omitempty"`
}

// QualityReport aggregates column quality for a dataset.
type QualityReport struct {
	Dataset      string          `json:"dataset"`
	Rows         int             `json:"rows"`
	Columns      []ColumnQuality `json:"columns"`
	OverallScore float64         `json:"overall_score"`
}

// AssessQuality computes quality metrics for every column. Kinds come from
// the supplied profile so classification is not repeated.
func AssessQuality(ds *dataset.Dataset, prof *DatasetProfile) *QualityReport {
	report := &QualityReport{
		Dataset: ds.Name,
		Rows:    ds.RowCount(),
		Columns: make([]ColumnQuality, 0, ds.ColumnCount()),
	}
	var total float64
	for _, col := range ds.Columns {
		kind := KindText
		if cp, ok := prof.Column(col); ok {
			kind = cp.Kind
		}
		cq := assessColumn(ds, col, kind)
		total += cq.QualityScore
		report.Columns = append(report.Columns, cq)
	}
	if len(report.Columns) > 0 {
		report.OverallScore = total / float64(len(report.Columns))
	}
	return report
}

func assessColumn(ds *dataset.Dataset, col string, kind Kind) ColumnQuality {
	values, _ := ds.Column(col)
	counts := map[string]int{}
	nonNull := 0
	for _, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		nonNull++
		counts[v]++
	}

	cq := ColumnQuality{
		Name:          col,
		Kind:          kind,
		TotalRows:     len(values),
		NonNullRows:   nonNull,
		DistinctCount: len(counts),
	}
	if cq.TotalRows > 0 {
		cq.NullRate = float64(cq.TotalRows-nonNull) / float64(cq.TotalRows)
	}
	if nonNull > 0 {
		cq.UniquenessRatio = float64(cq.DistinctCount) / float64(nonNull)
	}
	cq.Entropy = shannonEntropy(counts, nonNull)

	// High uniqueness (>95%) and low null rate (<5%)
	cq.IsPrimaryKey = cq.UniquenessRatio > 0.95 && cq.NullRate < 0.05

	if cq.NullRate > 0.5 {
		cq.Issues = append(cq.Issues, fmt.Sprintf("%.0f%% of values are missing", cq.NullRate*100))
	}
	if cq.DistinctCount <= 1 && cq.TotalRows > 1 {
		cq.Issues = append(cq.Issues, "column is constant")
	}

	cq.QualityScore = qualityScore(cq)
	return cq
}

// shannonEntropy measures value diversity in bits.
func shannonEntropy(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, count := range counts {
		if count > 0 {
			p := float64(count) / float64(total)
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

// qualityScore combines null rate and entropy into a 0-1 score. Moderate
// entropy scores best; columns that are constant or fully random both lose.
func qualityScore(cq ColumnQuality) float64 {
	score := 1.0
	score *= 1.0 - cq.NullRate

	idealEntropy := 4.0
	entropyPenalty := math.Abs(cq.Entropy-idealEntropy) / 10.0
	score *= math.Max(0.5, 1.0-entropyPenalty)

	if cq.DistinctCount <= 1 && cq.TotalRows > 1 {
		score *= 0.5
	}
	return math.Max(0, math.Min(1, score))
}

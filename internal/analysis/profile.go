package analysis

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"askdata/internal/dataset"
)

// Kind is the structural classification of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindDate        Kind = "date"
	KindText        Kind = "text"
)

// SemanticType is the coarse meaning inferred from a column's name, or from
// its data when no name rule matches.
type SemanticType string

const (
	SemanticID       SemanticType = "id"
	SemanticName     SemanticType = "name"
	SemanticDate     SemanticType = "date"
	SemanticAmount   SemanticType = "amount"
	SemanticCount    SemanticType = "count"
	SemanticRate     SemanticType = "rate"
	SemanticStatus   SemanticType = "status"
	SemanticLocation SemanticType = "location"
	SemanticContact  SemanticType = "contact"
	SemanticNumeric  SemanticType = "numeric"
	SemanticCategory SemanticType = "category"
	SemanticText     SemanticType = "text"
)

// Name rules are tested in order; the first match wins.
var semanticRules = []struct {
	sem SemanticType
	re  *regexp.Regexp
}{
	{SemanticID, regexp.MustCompile(`.*id$|.*_id|^id_.*|identifier|key`)},
	{SemanticName, regexp.MustCompile(`name|title|label|description`)},
	{SemanticDate, regexp.MustCompile(`date|time|created|updated|modified|timestamp`)},
	{SemanticAmount, regexp.MustCompile(`amount|value|price|cost|revenue|sales|fee|charge`)},
	{SemanticCount, regexp.MustCompile(`count|quantity|qty|number|num|total`)},
	{SemanticRate, regexp.MustCompile(`rate|ratio|percent|percentage|score`)},
	{SemanticStatus, regexp.MustCompile(`status|state|stage|phase|type|category`)},
	{SemanticLocation, regexp.MustCompile(`location|address|city|state|country|region|zip|postal`)},
	{SemanticContact, regexp.MustCompile(`email|phone|contact|mobile|telephone`)},
}

// dateSampleSize bounds how many non-null values the date check parses.
// Values beyond the sample are never checked.
const dateSampleSize = 100

// NumericStats holds descriptive statistics for a numeric column.
type NumericStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
}

// ColumnProfile is the derived metadata of one column.
type ColumnProfile struct {
	Name          string        `json:"name"`
	Kind          Kind          `json:"kind"`
	Semantic      SemanticType  `json:"semantic_type"`
	NullCount     int           `json:"null_count"`
	DistinctCount int           `json:"distinct_count"`
	SampleValues  []string      `json:"sample_values"`
	Stats         *NumericStats `json:"stats,omitempty"`
}

// DatasetProfile is the full column profile of one dataset.
type DatasetProfile struct {
	Dataset string          `json:"dataset"`
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
}

// ProfileDataset classifies every column into exactly one kind and infers
// its semantic type. It is a pure function of the dataset snapshot and
// never fails: values that do not coerce simply do not qualify.
func ProfileDataset(ds *dataset.Dataset) *DatasetProfile {
	prof := &DatasetProfile{
		Dataset: ds.Name,
		Rows:    ds.RowCount(),
		Columns: make([]ColumnProfile, 0, ds.ColumnCount()),
	}
	for _, col := range ds.Columns {
		prof.Columns = append(prof.Columns, profileColumn(ds, col))
	}
	return prof
}

// Column returns the profile of the named column.
func (p *DatasetProfile) Column(name string) (*ColumnProfile, bool) {
	for i := range p.Columns {
		if p.Columns[i].Name == name {
			return &p.Columns[i], true
		}
	}
	return nil, false
}

// NumericColumns returns the names of numeric columns in profile order.
func (p *DatasetProfile) NumericColumns() []string {
	return p.columnsOfKind(KindNumeric)
}

// CategoricalColumns returns the names of categorical columns.
func (p *DatasetProfile) CategoricalColumns() []string {
	return p.columnsOfKind(KindCategorical)
}

// DateColumns returns the names of date columns.
func (p *DatasetProfile) DateColumns() []string {
	return p.columnsOfKind(KindDate)
}

func (p *DatasetProfile) columnsOfKind(k Kind) []string {
	out := []string{}
	for _, c := range p.Columns {
		if c.Kind == k {
			out = append(out, c.Name)
		}
	}
	return out
}

func profileColumn(ds *dataset.Dataset, col string) ColumnProfile {
	values, _ := ds.Column(col)
	nonNull := make([]string, 0, len(values))
	nullCount := 0
	distinct := map[string]bool{}
	for _, v := range values {
		if dataset.IsNull(v) {
			nullCount++
			continue
		}
		nonNull = append(nonNull, v)
		distinct[v] = true
	}

	profile := ColumnProfile{
		Name:          col,
		NullCount:     nullCount,
		DistinctCount: len(distinct),
		SampleValues:  sampleValues(nonNull, 5),
	}
	profile.Kind = classifyColumn(values, nonNull, len(distinct))
	if profile.Kind == KindNumeric {
		profile.Stats = numericStats(numericValues(nonNull))
	}
	profile.Semantic = inferSemanticType(col, profile.Kind, len(values), len(distinct))
	return profile
}

// classifyColumn applies the classification sieve: numeric, then
// categorical (distinct ratio below 0.5 and not numeric), then date, then
// free text.
func classifyColumn(values, nonNull []string, distinctCount int) Kind {
	if isNumericColumn(nonNull) {
		return KindNumeric
	}
	if len(values) > 0 && float64(distinctCount)/float64(len(values)) < 0.5 {
		return KindCategorical
	}
	if isDateColumn(nonNull) {
		return KindDate
	}
	return KindText
}

// isNumericColumn reports whether every non-null value coerces to a float.
// A column with no non-null values coerces vacuously.
func isNumericColumn(nonNull []string) bool {
	for _, v := range nonNull {
		if _, ok := dataset.ParseNumeric(v); !ok {
			return false
		}
	}
	return true
}

// isDateColumn parses the first dateSampleSize non-null values; a single
// failure anywhere in the sample disqualifies the column.
func isDateColumn(nonNull []string) bool {
	if len(nonNull) == 0 {
		return false
	}
	sample := nonNull
	if len(sample) > dateSampleSize {
		sample = sample[:dateSampleSize]
	}
	for _, v := range sample {
		if _, ok := dataset.ParseDate(v); !ok {
			return false
		}
	}
	return true
}

func inferSemanticType(col string, kind Kind, rowCount, distinctCount int) SemanticType {
	lower := strings.ToLower(col)
	for _, rule := range semanticRules {
		if rule.re.MatchString(lower) {
			return rule.sem
		}
	}
	switch {
	case kind == KindNumeric:
		return SemanticNumeric
	case kind == KindDate:
		return SemanticDate
	case rowCount > 0 && float64(distinctCount)/float64(rowCount) < 0.1:
		return SemanticCategory
	default:
		return SemanticText
	}
}

func sampleValues(nonNull []string, n int) []string {
	if len(nonNull) < n {
		n = len(nonNull)
	}
	out := make([]string, n)
	copy(out, nonNull[:n])
	return out
}

func numericValues(nonNull []string) []float64 {
	out := make([]float64, 0, len(nonNull))
	for _, v := range nonNull {
		if f, ok := dataset.ParseNumeric(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// numericStats computes descriptive statistics with zero-safe defaults for
// empty and single-value inputs.
func numericStats(values []float64) *NumericStats {
	stats := &NumericStats{}
	if len(values) == 0 {
		return stats
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	stats.Mean = sum / float64(len(sorted))
	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]
	stats.Median = quantile(sorted, 0.5)
	stats.Q1 = quantile(sorted, 0.25)
	stats.Q3 = quantile(sorted, 0.75)

	if len(sorted) > 1 {
		var ss float64
		for _, v := range sorted {
			d := v - stats.Mean
			ss += d * d
		}
		stats.Std = math.Sqrt(ss / float64(len(sorted)-1))
	}
	return stats
}

// quantile interpolates linearly between order statistics.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

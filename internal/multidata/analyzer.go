package multidata

import (
	"math"
	"sort"

	"askdata/internal/analysis"
	"askdata/internal/dataset"
	"askdata/internal/query"
	"askdata/internal/schema"
)

// Analyzer runs numeric analysis across several loaded datasets.
type Analyzer struct {
	datasets map[string]*dataset.Dataset
	profiles map[string]*analysis.DatasetProfile
}

// NewAnalyzer wraps the loaded datasets and their profiles.
func NewAnalyzer(datasets map[string]*dataset.Dataset, profiles map[string]*analysis.DatasetProfile) *Analyzer {
	return &Analyzer{datasets: datasets, profiles: profiles}
}

// PairCorrelation is the strongest correlated member pair of one concept.
type PairCorrelation struct {
	Columns     [2]string `json:"columns"`
	Correlation float64   `json:"correlation"`
	Strength    string    `json:"strength"`
}

// ConceptCorrelation correlates every numeric occurrence of one column
// concept across datasets. Member i of Members maps to row/column i of
// Matrix.
type ConceptCorrelation struct {
	Concept       string           `json:"concept"`
	Members       []string         `json:"members"`
	Rows          int              `json:"rows"`
	Matrix        [][]float64      `json:"matrix"`
	StrongestPair *PairCorrelation `json:"strongest_pair,omitempty"`
}

// CrossCorrelations correlates each common-column concept's numeric
// members across datasets. Series are aligned by row position after
// dropping nulls, truncated to the shortest member; rows are NOT matched
// by key, so values at the same position may describe unrelated records.
// Concepts with fewer than two numeric members are skipped.
func (a *Analyzer) CrossCorrelations(groups map[string][]schema.ColumnRef) map[string]*ConceptCorrelation {
	out := map[string]*ConceptCorrelation{}
	for concept, refs := range groups {
		var members []string
		var series [][]float64
		for _, ref := range refs {
			ds := a.datasets[ref.Dataset]
			prof := a.profiles[ref.Dataset]
			if ds == nil || prof == nil {
				continue
			}
			cp, ok := prof.Column(ref.Column)
			if !ok || cp.Kind != analysis.KindNumeric {
				continue
			}
			values := ds.NumericValues(ref.Column)
			if len(values) == 0 {
				continue
			}
			members = append(members, ref.Dataset+"_"+ref.Column)
			series = append(series, values)
		}
		if len(members) < 2 {
			continue
		}

		n := len(series[0])
		for _, s := range series[1:] {
			if len(s) < n {
				n = len(s)
			}
		}
		for i := range series {
			series[i] = series[i][:n]
		}

		matrix := correlationMatrix(series)
		out[concept] = &ConceptCorrelation{
			Concept:       concept,
			Members:       members,
			Rows:          n,
			Matrix:        matrix,
			StrongestPair: strongestPair(members, matrix),
		}
	}
	return out
}

// CorrelationStrength grades a coefficient by magnitude.
func CorrelationStrength(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs > 0.7:
		return "Strong"
	case abs > 0.3:
		return "Moderate"
	default:
		return "Weak"
	}
}

// correlationMatrix builds a symmetric matrix over equally long series.
// Undefined coefficients (constant or too-short series) are stored as 0.
func correlationMatrix(series [][]float64) [][]float64 {
	n := len(series)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r, ok := query.Pearson(series[i], series[j])
			if !ok {
				r = 0
			}
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return matrix
}

// strongestPair picks the largest off-diagonal coefficient by magnitude.
// Returns nil when every coefficient is zero.
func strongestPair(members []string, matrix [][]float64) *PairCorrelation {
	best := 0.0
	var pair *PairCorrelation
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			r := matrix[i][j]
			if math.Abs(r) > best {
				best = math.Abs(r)
				pair = &PairCorrelation{
					Columns:     [2]string{members[i], members[j]},
					Correlation: r,
					Strength:    CorrelationStrength(r),
				}
			}
		}
	}
	return pair
}

// ============================================================================
// Trends
// ============================================================================

// DatasetTrend describes how one concept's daily means move over time in
// one dataset.
type DatasetTrend struct {
	Direction   string  `json:"direction"`
	Slope       float64 `json:"slope"`
	RSquared    float64 `json:"r_squared"`
	Volatility  float64 `json:"volatility"`
	MeanValue   float64 `json:"mean_value"`
	Points      int     `json:"points"`
	Seasonality float64 `json:"seasonality,omitempty"`
	Seasonal    bool    `json:"seasonal,omitempty"`
}

// LeadLag reports the best time offset between two datasets' series.
type LeadLag struct {
	Datasets    [2]string `json:"datasets"`
	Lag         int       `json:"lag"`
	Correlation float64   `json:"correlation"`
}

// ConceptTrends gathers one concept's trends across every dataset that
// carries both the concept and a date column.
type ConceptTrends struct {
	Concept           string                   `json:"concept"`
	Datasets          []string                 `json:"datasets"`
	Trends            map[string]*DatasetTrend `json:"trends"`
	TrendCorrelations [][]float64              `json:"trend_correlations,omitempty"`
	LeadLag           *LeadLag                 `json:"lead_lag,omitempty"`
}

// TrendsAcross analyzes each numeric concept over time. A dataset
// participates when it carries both a member of the concept and a date
// column; values are bucketed by calendar day, averaged, and ordered by
// date. With two or more participating datasets the bucket series are
// additionally correlated against each other.
func (a *Analyzer) TrendsAcross(dateGroups, valueGroups map[string][]schema.ColumnRef) map[string]*ConceptTrends {
	// One date column per dataset: first member of the first concept in
	// sorted order, so repeated calls agree.
	dateByDataset := map[string]string{}
	dateConcepts := make([]string, 0, len(dateGroups))
	for concept := range dateGroups {
		dateConcepts = append(dateConcepts, concept)
	}
	sort.Strings(dateConcepts)
	for _, concept := range dateConcepts {
		for _, ref := range dateGroups[concept] {
			if _, ok := dateByDataset[ref.Dataset]; !ok {
				dateByDataset[ref.Dataset] = ref.Column
			}
		}
	}

	out := map[string]*ConceptTrends{}
	for concept, refs := range valueGroups {
		trends := map[string]*DatasetTrend{}
		var participating []string
		var aligned [][]float64
		for _, ref := range refs {
			dateCol, ok := dateByDataset[ref.Dataset]
			if !ok {
				continue
			}
			ds := a.datasets[ref.Dataset]
			prof := a.profiles[ref.Dataset]
			if ds == nil || prof == nil {
				continue
			}
			cp, okc := prof.Column(ref.Column)
			if !okc || cp.Kind != analysis.KindNumeric {
				continue
			}
			series := bucketDailyMeans(ds, dateCol, ref.Column)
			if len(series) < 2 {
				continue
			}
			trends[ref.Dataset] = analyzeTrend(series)
			participating = append(participating, ref.Dataset)
			aligned = append(aligned, series)
		}
		if len(trends) == 0 {
			continue
		}

		ct := &ConceptTrends{Concept: concept, Datasets: participating, Trends: trends}
		if len(aligned) >= 2 {
			n := len(aligned[0])
			for _, s := range aligned[1:] {
				if len(s) < n {
					n = len(s)
				}
			}
			truncated := make([][]float64, len(aligned))
			for i := range aligned {
				truncated[i] = aligned[i][:n]
			}
			ct.TrendCorrelations = correlationMatrix(truncated)
			ct.LeadLag = bestLeadLag(participating[0], participating[1], truncated[0], truncated[1])
		}
		out[concept] = ct
	}
	return out
}

// bucketDailyMeans pairs date and value cells row by row, averages values
// per calendar day, and returns the means in date order.
func bucketDailyMeans(ds *dataset.Dataset, dateCol, valueCol string) []float64 {
	di, ok1 := ds.ColumnIndex(dateCol)
	vi, ok2 := ds.ColumnIndex(valueCol)
	if !ok1 || !ok2 {
		return nil
	}
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, row := range ds.Rows {
		if di >= len(row) || vi >= len(row) {
			continue
		}
		if dataset.IsNull(row[di]) || dataset.IsNull(row[vi]) {
			continue
		}
		t, ok := dataset.ParseDate(row[di])
		if !ok {
			continue
		}
		v, ok := dataset.ParseNumeric(row[vi])
		if !ok {
			continue
		}
		day := t.Format("2006-01-02")
		sums[day] += v
		counts[day]++
	}
	days := make([]string, 0, len(sums))
	for d := range sums {
		days = append(days, d)
	}
	// ISO day strings sort chronologically.
	sort.Strings(days)
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = sums[d] / float64(counts[d])
	}
	return out
}

func analyzeTrend(series []float64) *DatasetTrend {
	slope, r2 := linearTrend(series)
	direction := "Stable"
	switch {
	case slope > 0:
		direction = "Increasing"
	case slope < 0:
		direction = "Decreasing"
	}
	trend := &DatasetTrend{
		Direction:  direction,
		Slope:      slope,
		RSquared:   r2,
		Volatility: sampleStd(series),
		MeanValue:  meanOf(series),
		Points:     len(series),
	}
	if score := seasonalityScore(series); score > 0 {
		trend.Seasonality = score
		trend.Seasonal = score > 0.5
	}
	return trend
}

// linearTrend fits y = slope*x + b over the series index and reports the
// slope and R².
func linearTrend(values []float64) (slope, rsquared float64) {
	if len(values) < 2 {
		return 0, 0
	}
	n := float64(len(values))
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denominator

	meanY := sumY / n
	intercept := meanY - slope*(sumX/n)
	var ssTotal, ssResidual float64
	for i, y := range values {
		predicted := slope*float64(i) + intercept
		ssTotal += (y - meanY) * (y - meanY)
		ssResidual += (y - predicted) * (y - predicted)
	}
	if ssTotal == 0 {
		return slope, 0
	}
	return slope, 1 - ssResidual/ssTotal
}

// seasonalityScore is the peak autocorrelation over lags 2..min(n/2, 365).
// Short series score 0; lag 1 is excluded since trending series correlate
// trivially with themselves one step apart.
func seasonalityScore(values []float64) float64 {
	if len(values) < 20 {
		return 0
	}
	maxLag := len(values) / 2
	if maxLag > 365 {
		maxLag = 365
	}
	best := 0.0
	for lag := 2; lag <= maxLag; lag++ {
		if r, ok := query.Pearson(values[:len(values)-lag], values[lag:]); ok && r > best {
			best = r
		}
	}
	return best
}

// bestLeadLag shifts two aligned series against each other within a week
// and keeps the offset with the strongest correlation. Positive lag means
// the second series leads.
func bestLeadLag(name1, name2 string, x, y []float64) *LeadLag {
	if len(x) < 10 || len(y) < 10 {
		return nil
	}
	maxLag := 7
	if half := len(x) / 2; half < maxLag {
		maxLag = half
	}
	best := 0.0
	var out *LeadLag
	for lag := -maxLag; lag <= maxLag; lag++ {
		r, ok := correlationAtLag(x, y, lag)
		if ok && math.Abs(r) > best {
			best = math.Abs(r)
			out = &LeadLag{Datasets: [2]string{name1, name2}, Lag: lag, Correlation: r}
		}
	}
	return out
}

func correlationAtLag(x, y []float64, lag int) (float64, bool) {
	var x1, y1 []float64
	if lag >= 0 {
		if lag >= len(y) {
			return 0, false
		}
		x1 = x[:len(x)-lag]
		y1 = y[lag:]
	} else {
		lag = -lag
		if lag >= len(x) {
			return 0, false
		}
		x1 = x[lag:]
		y1 = y[:len(y)-lag]
	}
	n := len(x1)
	if len(y1) < n {
		n = len(y1)
	}
	if n < 3 {
		return 0, false
	}
	return query.Pearson(x1[:n], y1[:n])
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd is the n-1 standard deviation.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := meanOf(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

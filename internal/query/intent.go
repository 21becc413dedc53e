package query

import (
	"regexp"
	"strings"
)

// Intent is the fixed-vocabulary category a question is mapped to.
type Intent string

const (
	IntentCount        Intent = "count"
	IntentSummary      Intent = "summary"
	IntentMissing      Intent = "missing"
	IntentUnique       Intent = "unique"
	IntentAverage      Intent = "average"
	IntentMaximum      Intent = "maximum"
	IntentMinimum      Intent = "minimum"
	IntentCorrelation  Intent = "correlation"
	IntentDistribution Intent = "distribution"
	IntentComparison   Intent = "comparison"
	IntentFilter       Intent = "filter"
	IntentGroupBy      Intent = "groupby"
	IntentTrend        Intent = "trend"
	IntentTop          Intent = "top"
	IntentBottom       Intent = "bottom"
	IntentGeneral      Intent = "general"
)

// The table is scanned in order and the first matching pattern wins. Order
// is load-bearing: "highest" must hit maximum before top, "how many unique"
// must hit count before unique.
var intentRules = []struct {
	intent Intent
	re     *regexp.Regexp
}{
	{IntentCount, regexp.MustCompile(`how many|count|number of|total.*rows|total.*records`)},
	{IntentSummary, regexp.MustCompile(`summary|overview|describe|statistics|stats`)},
	{IntentMissing, regexp.MustCompile(`missing|null|empty|blank|na|nan`)},
	{IntentUnique, regexp.MustCompile(`unique|distinct|different`)},
	{IntentAverage, regexp.MustCompile(`average|mean|avg`)},
	{IntentMaximum, regexp.MustCompile(`maximum|max|highest|largest|biggest`)},
	{IntentMinimum, regexp.MustCompile(`minimum|min|lowest|smallest`)},
	{IntentCorrelation, regexp.MustCompile(`correlat|relationship|related|connect`)},
	{IntentDistribution, regexp.MustCompile(`distribution|spread|range|histogram`)},
	{IntentComparison, regexp.MustCompile(`compare|versus|vs|difference|between`)},
	{IntentFilter, regexp.MustCompile(`where|filter|show.*only|records.*with`)},
	{IntentGroupBy, regexp.MustCompile(`group.*by|by.*group|breakdown|segment`)},
	{IntentTrend, regexp.MustCompile(`trend|over time|timeline|change.*over`)},
	{IntentTop, regexp.MustCompile(`top|best|highest.*value|largest.*value`)},
	{IntentBottom, regexp.MustCompile(`bottom|worst|lowest.*value|smallest.*value`)},
}

// ClassifyIntent maps a free-text question to an intent. The input is
// lower-cased and trimmed before matching; unmatched questions are general.
func ClassifyIntent(question string) Intent {
	q := normalizeQuestion(question)
	for _, rule := range intentRules {
		if rule.re.MatchString(q) {
			return rule.intent
		}
	}
	return IntentGeneral
}

// Entities are the structural fragments extracted from a question.
type Entities struct {
	Columns      []string `json:"columns"`
	Aggregations []string `json:"aggregations"`
	Operators    []string `json:"operators"`
}

var aggregationWords = []string{"sum", "average", "mean", "count", "max", "min", "median"}

var operatorWords = []string{"greater than", "less than", "equal to", "not equal", ">", "<", "=", "!="}

// ExtractEntities scans the question for references to dataset structure.
// Column matching is order-preserving over the dataset's column order: each
// column is tested as its lower-cased name and with underscores or hyphens
// replaced by spaces, and recorded once on the first variant that appears
// in the question.
func ExtractEntities(question string, columns []string) Entities {
	q := normalizeQuestion(question)
	entities := Entities{
		Columns:      []string{},
		Aggregations: []string{},
		Operators:    []string{},
	}

	for _, col := range columns {
		lower := strings.ToLower(col)
		variants := []string{
			lower,
			strings.ReplaceAll(lower, "_", " "),
			strings.ReplaceAll(lower, "-", " "),
		}
		for _, v := range variants {
			if strings.Contains(q, v) {
				entities.Columns = append(entities.Columns, col)
				break
			}
		}
	}

	for _, agg := range aggregationWords {
		if strings.Contains(q, agg) {
			entities.Aggregations = append(entities.Aggregations, agg)
		}
	}
	for _, op := range operatorWords {
		if strings.Contains(q, op) {
			entities.Operators = append(entities.Operators, op)
		}
	}
	return entities
}

func normalizeQuestion(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

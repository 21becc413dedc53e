package multidata

import (
	"fmt"
	"sort"
	"strings"

	"askdata/internal/analysis"
	"askdata/internal/dataset"
	"askdata/internal/query"
	"askdata/internal/schema"
)

// Member is one loaded dataset with its profile, in registry order.
type Member struct {
	Name    string
	Dataset *dataset.Dataset
	Profile *analysis.DatasetProfile
}

// routeKeywords is checked top to bottom; the first kind whose keyword
// appears in the question wins.
var routeKeywords = []struct {
	kind  string
	words []string
}{
	{"comparison", []string{"compare", "versus", "vs", "between", "across"}},
	{"combination", []string{"combine", "merge", "join", "together"}},
	{"trend", []string{"trend", "over time", "timeline", "pattern"}},
	{"correlation", []string{"correlation", "relationship", "related"}},
}

// RouteKind classifies a multi-dataset question into a handler kind.
func RouteKind(question string) string {
	q := strings.ToLower(question)
	for _, route := range routeKeywords {
		for _, word := range route.words {
			if strings.Contains(q, word) {
				return route.kind
			}
		}
	}
	return "general"
}

// Router answers questions that span every loaded dataset.
type Router struct {
	matcher *schema.Matcher
}

// NewRouter builds a router around a column matcher.
func NewRouter(matcher *schema.Matcher) *Router {
	if matcher == nil {
		matcher = schema.NewMatcher(nil, 0)
	}
	return &Router{matcher: matcher}
}

// Answer routes the question to the matching cross-dataset handler.
// Members must arrive in registry order so listings are stable.
func (rt *Router) Answer(question string, members []Member) *query.AnswerResult {
	switch RouteKind(question) {
	case "comparison":
		return rt.answerComparison(members)
	case "combination":
		return rt.answerCombination(members)
	case "trend":
		return rt.answerTrend(members)
	case "correlation":
		return rt.answerCorrelation(members)
	default:
		return rt.answerGeneral(members)
	}
}

// CombinationPayload carries the raw matcher output behind the
// combination answer.
type CombinationPayload struct {
	Common  map[string][]schema.ColumnRef `json:"common"`
	Similar map[string]schema.SimilarPair `json:"similar"`
}

// TrendAvailability lists which datasets offer temporal and numeric
// material for trend analysis.
type TrendAvailability struct {
	TimeColumns   map[string][]string `json:"time_columns"`
	NumericCounts map[string]int      `json:"numeric_counts"`
}

// CorrelationAvailability lists correlatable concepts and the strongest
// result for the first one.
type CorrelationAvailability struct {
	Concepts  map[string][]string `json:"concepts"`
	Strongest *ConceptCorrelation `json:"strongest,omitempty"`
}

// MultiSummaryPayload backs the general multi-dataset answer.
type MultiSummaryPayload struct {
	Datasets int      `json:"datasets"`
	Insights []string `json:"insights"`
}

func (rt *Router) answerComparison(members []Member) *query.AnswerResult {
	summaries := summarizeAll(members)
	insights := Insights(summaries, rt.matcher.CommonColumns(memberColumns(members)))

	var b strings.Builder
	b.WriteString("Dataset Comparison Summary:\n\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "📊 **%s**: %s rows, %d columns, %.1fMB\n",
			s.Name, query.Thousands(s.Rows), s.Columns, s.MemoryMB)
	}
	b.WriteString("\n💡 **Key Insights:**\n")
	shown := insights
	if len(shown) > 3 {
		shown = shown[:3]
	}
	for _, insight := range shown {
		fmt.Fprintf(&b, "• %s\n", insight)
	}
	return &query.AnswerResult{
		Success: true,
		Answer:  b.String(),
		Type:    "comparison",
		Payload: Comparison{Datasets: summaries, Insights: insights},
	}
}

func (rt *Router) answerCombination(members []Member) *query.AnswerResult {
	cols := memberColumns(members)
	common := rt.matcher.CommonColumns(cols)
	similar := rt.matcher.SimilarColumns(cols)

	var b strings.Builder
	b.WriteString("Dataset Combination Analysis:\n\n")

	if len(common) > 0 {
		fmt.Fprintf(&b, "🔗 **Common Columns Found** (%d):\n", len(common))
		for _, pattern := range firstSortedKeys(commonKeys(common), 5) {
			names := make([]string, len(common[pattern]))
			for i, ref := range common[pattern] {
				names[i] = ref.Dataset
			}
			fmt.Fprintf(&b, "• '%s' in: %s\n", pattern, strings.Join(names, ", "))
		}
	}
	if len(similar) > 0 {
		fmt.Fprintf(&b, "\n🔍 **Similar Columns** (%d):\n", len(similar))
		for _, key := range firstSortedKeys(similarKeys(similar), 3) {
			p := similar[key]
			fmt.Fprintf(&b, "• %s.%s ↔ %s.%s (%.1f%% similar)\n",
				p.Dataset1, p.Column1, p.Dataset2, p.Column2, p.Score*100)
		}
	}
	if len(common) == 0 && len(similar) == 0 {
		b.WriteString("⚠️ No obvious column matches found. Manual mapping may be required for combination.")
	}

	return &query.AnswerResult{
		Success: true,
		Answer:  b.String(),
		Type:    "combination",
		Payload: CombinationPayload{Common: common, Similar: similar},
	}
}

func (rt *Router) answerTrend(members []Member) *query.AnswerResult {
	timeColumns := map[string][]string{}
	numericCounts := map[string]int{}
	for _, m := range members {
		if cols := temporalColumns(m.Dataset); len(cols) > 0 {
			timeColumns[m.Name] = cols
		}
		if n := len(m.Profile.NumericColumns()); n > 0 {
			numericCounts[m.Name] = n
		}
	}

	var b strings.Builder
	b.WriteString("Trend Analysis Across Datasets:\n\n")
	if len(timeColumns) > 0 {
		b.WriteString("📅 **Datasets with Time Data**:\n")
		for _, m := range members {
			if cols, ok := timeColumns[m.Name]; ok {
				fmt.Fprintf(&b, "• %s: %s\n", m.Name, strings.Join(cols, ", "))
			}
		}
		b.WriteString("\n📈 **Available for Trend Analysis**:\n")
		for _, m := range members {
			if n, ok := numericCounts[m.Name]; ok {
				fmt.Fprintf(&b, "• %s: %d numeric columns\n", m.Name, n)
			}
		}
	} else {
		b.WriteString("⚠️ No date/time columns detected. Trend analysis requires temporal data.")
	}

	return &query.AnswerResult{
		Success: true,
		Answer:  b.String(),
		Type:    "trend",
		Payload: TrendAvailability{TimeColumns: timeColumns, NumericCounts: numericCounts},
	}
}

func (rt *Router) answerCorrelation(members []Member) *query.AnswerResult {
	common := rt.matcher.CommonColumns(memberColumns(members))
	profiles := map[string]*analysis.DatasetProfile{}
	datasets := map[string]*dataset.Dataset{}
	for _, m := range members {
		profiles[m.Name] = m.Profile
		datasets[m.Name] = m.Dataset
	}

	// Keep concepts with at least two numeric occurrences, members
	// filtered down to the numeric ones.
	numericCommon := map[string][]schema.ColumnRef{}
	conceptNames := map[string][]string{}
	for pattern, refs := range common {
		var numeric []schema.ColumnRef
		var names []string
		for _, ref := range refs {
			prof := profiles[ref.Dataset]
			if prof == nil {
				continue
			}
			if cp, ok := prof.Column(ref.Column); ok && cp.Kind == analysis.KindNumeric {
				numeric = append(numeric, ref)
				names = append(names, ref.Dataset)
			}
		}
		if len(numeric) >= 2 {
			numericCommon[pattern] = numeric
			conceptNames[pattern] = names
		}
	}

	var b strings.Builder
	b.WriteString("Cross-Dataset Correlation Analysis:\n\n")
	payload := CorrelationAvailability{Concepts: conceptNames}
	if len(numericCommon) > 0 {
		fmt.Fprintf(&b, "🔢 **Numeric Columns for Correlation** (%d):\n", len(numericCommon))
		keys := firstSortedKeys(commonKeys(numericCommon), len(numericCommon))
		for _, pattern := range keys {
			fmt.Fprintf(&b, "• '%s' across: %s\n", pattern, strings.Join(conceptNames[pattern], ", "))
		}

		first := keys[0]
		analyzer := NewAnalyzer(datasets, profiles)
		results := analyzer.CrossCorrelations(map[string][]schema.ColumnRef{first: numericCommon[first]})
		if cc := results[first]; cc != nil {
			payload.Strongest = cc
			if sp := cc.StrongestPair; sp != nil {
				fmt.Fprintf(&b, "\n📊 **Strongest Correlation in '%s'**:\n", first)
				fmt.Fprintf(&b, "• %s ↔ %s: %.3f (%s)\n",
					sp.Columns[0], sp.Columns[1], sp.Correlation, sp.Strength)
			}
		}
	} else {
		b.WriteString("⚠️ No common numeric columns found for correlation analysis.")
	}

	return &query.AnswerResult{
		Success: true,
		Answer:  b.String(),
		Type:    "correlation",
		Payload: payload,
	}
}

func (rt *Router) answerGeneral(members []Member) *query.AnswerResult {
	summaries := summarizeAll(members)
	insights := Insights(summaries, rt.matcher.CommonColumns(memberColumns(members)))

	var b strings.Builder
	fmt.Fprintf(&b, "Multi-Dataset Analysis Summary:\n\n📊 **%d datasets loaded**\n\n💡 **Key Insights:**\n", len(members))
	shown := insights
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, insight := range shown {
		fmt.Fprintf(&b, "• %s\n", insight)
	}
	return &query.AnswerResult{
		Success: true,
		Answer:  b.String(),
		Type:    "general",
		Payload: MultiSummaryPayload{Datasets: len(members), Insights: insights},
	}
}

// ============================================================================
// Helpers
// ============================================================================

var temporalNameWords = []string{"date", "time", "created", "updated"}

// temporalColumns returns columns whose name suggests time and whose first
// hundred non-null values all parse as dates.
func temporalColumns(ds *dataset.Dataset) []string {
	var out []string
	for _, col := range ds.Columns {
		lower := strings.ToLower(col)
		named := false
		for _, word := range temporalNameWords {
			if strings.Contains(lower, word) {
				named = true
				break
			}
		}
		if !named {
			continue
		}
		if parsesAsDates(ds, col, 100) {
			out = append(out, col)
		}
	}
	return out
}

func parsesAsDates(ds *dataset.Dataset, col string, sample int) bool {
	idx, ok := ds.ColumnIndex(col)
	if !ok {
		return false
	}
	checked := 0
	for _, row := range ds.Rows {
		if checked >= sample {
			break
		}
		if idx >= len(row) || dataset.IsNull(row[idx]) {
			continue
		}
		if _, ok := dataset.ParseDate(row[idx]); !ok {
			return false
		}
		checked++
	}
	return true
}

func summarizeAll(members []Member) []DatasetSummary {
	out := make([]DatasetSummary, len(members))
	for i, m := range members {
		out[i] = Summarize(m.Name, m.Dataset, m.Profile)
	}
	return out
}

func memberColumns(members []Member) []schema.DatasetColumns {
	out := make([]schema.DatasetColumns, len(members))
	for i, m := range members {
		out[i] = schema.DatasetColumns{Name: m.Name, Columns: m.Dataset.Columns}
	}
	return out
}

func commonKeys(m map[string][]schema.ColumnRef) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func similarKeys(m map[string]schema.SimilarPair) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// firstSortedKeys sorts and truncates, so listings do not shuffle between
// calls.
func firstSortedKeys(keys []string, n int) []string {
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

package query

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"askdata/internal/analysis"
	"askdata/internal/dataset"
)

// AnswerResult is the single tagged result type every executor branch
// returns. Domain failures set Success=false with Error (and optionally
// Suggestion); they are never surfaced as Go errors or panics.
type AnswerResult struct {
	Success     bool     `json:"success"`
	Answer      string   `json:"answer,omitempty"`
	Intent      Intent   `json:"intent,omitempty"`
	Type        string   `json:"type,omitempty"`
	Error       string   `json:"error,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Payload     any      `json:"payload,omitempty"`
}

// Payload shapes, one per answer family.

type CountPayload struct {
	Value  int    `json:"value"`
	Column string `json:"column,omitempty"`
}

type ShapePayload struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

type DatasetSummaryPayload struct {
	Rows               int     `json:"rows"`
	Columns            int     `json:"columns"`
	NumericColumns     int     `json:"numeric_columns"`
	CategoricalColumns int     `json:"categorical_columns"`
	MemoryMB           float64 `json:"memory_mb"`
}

type MissingPayload struct {
	Column     string         `json:"column,omitempty"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage,omitempty"`
	PerColumn  map[string]int `json:"per_column,omitempty"`
}

type AggregatePayload struct {
	Column string  `json:"column"`
	Value  float64 `json:"value"`
}

type CorrelationEntry struct {
	Column1     string  `json:"column1"`
	Column2     string  `json:"column2"`
	Correlation float64 `json:"correlation"`
}

type CorrelationPayload struct {
	Pairs []CorrelationEntry `json:"pairs"`
}

type RankingEntry struct {
	Value string `json:"value"`
	Count int    `json:"count,omitempty"`
}

type RankingPayload struct {
	Column string         `json:"column"`
	N      int            `json:"n"`
	Values []RankingEntry `json:"values"`
}

const fallbackSuggestion = "Try rephrasing your question or ask for help with available commands."

// Engine answers natural-language questions about one dataset. Answers are
// cached by verbatim question text; the dataset is treated as immutable for
// the engine's lifetime (replace the engine when the data is reloaded).
type Engine struct {
	ds   *dataset.Dataset
	prof *analysis.DatasetProfile

	mu    sync.RWMutex
	cache map[string]*AnswerResult
}

// NewEngine builds an engine over an already-profiled dataset.
func NewEngine(ds *dataset.Dataset, prof *analysis.DatasetProfile) *Engine {
	return &Engine{
		ds:    ds,
		prof:  prof,
		cache: make(map[string]*AnswerResult),
	}
}

// Dataset returns the underlying dataset.
func (e *Engine) Dataset() *dataset.Dataset { return e.ds }

// Profile returns the column profiles the engine answers from.
func (e *Engine) Profile() *analysis.DatasetProfile { return e.prof }

// Ask resolves a question to an AnswerResult. The second return value
// reports whether the answer came from the cache. A repeated verbatim
// question always returns the identical cached result.
func (e *Engine) Ask(question string) (*AnswerResult, bool) {
	e.mu.RLock()
	if cached, ok := e.cache[question]; ok {
		e.mu.RUnlock()
		return cached, true
	}
	e.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(question))
	intent := ClassifyIntent(q)
	entities := ExtractEntities(q, e.ds.Columns)
	result := e.execute(intent, entities, q)
	result.Intent = intent

	e.mu.Lock()
	e.cache[question] = result
	e.mu.Unlock()
	return result, false
}

// execute dispatches on intent. Unexpected panics during evaluation are
// converted into a generic failure result at this boundary.
func (e *Engine) execute(intent Intent, entities Entities, q string) (result *AnswerResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &AnswerResult{
				Success:    false,
				Error:      fmt.Sprint(r),
				Suggestion: fallbackSuggestion,
				Type:       "error",
			}
		}
	}()

	switch intent {
	case IntentCount:
		return e.processCount(entities, q)
	case IntentSummary:
		return e.processSummary(entities)
	case IntentMissing:
		return e.processMissing(entities)
	case IntentAverage, IntentMaximum, IntentMinimum:
		return e.processAggregate(intent, entities)
	case IntentCorrelation:
		return e.processCorrelation(entities)
	case IntentTop, IntentBottom:
		return e.processRanking(intent, entities, q)
	default:
		return e.processGeneral()
	}
}

// ============================================================================
// Count
// ============================================================================

func (e *Engine) processCount(entities Entities, q string) *AnswerResult {
	rows := e.ds.RowCount()
	cols := e.ds.ColumnCount()

	switch {
	case strings.Contains(q, "rows") || strings.Contains(q, "records"):
		return &AnswerResult{
			Success: true,
			Answer:  fmt.Sprintf("The dataset contains %s rows.", Thousands(rows)),
			Type:    "count",
			Payload: CountPayload{Value: rows},
		}
	case strings.Contains(q, "columns"):
		return &AnswerResult{
			Success: true,
			Answer:  fmt.Sprintf("The dataset has %d columns.", cols),
			Type:    "count",
			Payload: CountPayload{Value: cols},
		}
	case len(entities.Columns) > 0:
		col := entities.Columns[0]
		count := rows - e.ds.NullCount(col)
		return &AnswerResult{
			Success: true,
			Answer:  fmt.Sprintf("Column '%s' has %s non-null values.", col, Thousands(count)),
			Type:    "count",
			Payload: CountPayload{Value: count, Column: col},
		}
	default:
		return &AnswerResult{
			Success: true,
			Answer:  fmt.Sprintf("Dataset overview: %s rows × %d columns", Thousands(rows), cols),
			Type:    "count",
			Payload: ShapePayload{Rows: rows, Columns: cols},
		}
	}
}

// ============================================================================
// Summary
// ============================================================================

func (e *Engine) processSummary(entities Entities) *AnswerResult {
	if len(entities.Columns) > 0 {
		col := entities.Columns[0]
		cp, ok := e.prof.Column(col)
		if !ok {
			return &AnswerResult{
				Success: false,
				Error:   fmt.Sprintf("Column '%s' is not part of this dataset.", col),
				Type:    "error",
			}
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Column '%s' summary:\n", col)
		fmt.Fprintf(&b, "- Data type: %s\n", cp.Kind)
		fmt.Fprintf(&b, "- Non-null values: %s\n", Thousands(e.ds.RowCount()-cp.NullCount))
		fmt.Fprintf(&b, "- Unique values: %s\n", Thousands(cp.DistinctCount))
		if cp.Kind == analysis.KindNumeric && cp.Stats != nil {
			fmt.Fprintf(&b, "- Mean: %.2f\n", cp.Stats.Mean)
			fmt.Fprintf(&b, "- Range: %.2f to %.2f", cp.Stats.Min, cp.Stats.Max)
		}
		return &AnswerResult{
			Success: true,
			Answer:  b.String(),
			Type:    "summary",
			Payload: *cp,
		}
	}

	numeric := len(e.prof.NumericColumns())
	categorical := len(e.prof.CategoricalColumns())
	var b strings.Builder
	b.WriteString("Dataset Summary:\n")
	fmt.Fprintf(&b, "- Total rows: %s\n", Thousands(e.ds.RowCount()))
	fmt.Fprintf(&b, "- Total columns: %d\n", e.ds.ColumnCount())
	fmt.Fprintf(&b, "- Numeric columns: %d\n", numeric)
	fmt.Fprintf(&b, "- Categorical columns: %d\n", categorical)
	fmt.Fprintf(&b, "- Memory usage: %.1f MB", e.ds.MemoryMB())
	return &AnswerResult{
		Success: true,
		Answer:  b.String(),
		Type:    "summary",
		Payload: DatasetSummaryPayload{
			Rows:               e.ds.RowCount(),
			Columns:            e.ds.ColumnCount(),
			NumericColumns:     numeric,
			CategoricalColumns: categorical,
			MemoryMB:           e.ds.MemoryMB(),
		},
	}
}

// ============================================================================
// Missing values
// ============================================================================

func (e *Engine) processMissing(entities Entities) *AnswerResult {
	rows := e.ds.RowCount()

	if len(entities.Columns) > 0 {
		col := entities.Columns[0]
		missing := e.ds.NullCount(col)
		pct := 0.0
		if rows > 0 {
			pct = float64(missing) / float64(rows) * 100
		}
		return &AnswerResult{
			Success: true,
			Answer:  fmt.Sprintf("Column '%s' has %s missing values (%.1f%%)", col, Thousands(missing), pct),
			Type:    "missing",
			Payload: MissingPayload{Column: col, Count: missing, Percentage: pct},
		}
	}

	type colMissing struct {
		col   string
		count int
	}
	missingCols := []colMissing{}
	perColumn := map[string]int{}
	for _, col := range e.ds.Columns {
		if n := e.ds.NullCount(col); n > 0 {
			missingCols = append(missingCols, colMissing{col, n})
			perColumn[col] = n
		}
	}

	if len(missingCols) == 0 {
		return &AnswerResult{
			Success: true,
			Answer:  "Great news! There are no missing values in the dataset.",
			Type:    "missing",
			Payload: MissingPayload{Count: 0},
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found missing values in %d columns:\n", len(missingCols))
	shown := missingCols
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, mc := range shown {
		pct := 0.0
		if rows > 0 {
			pct = float64(mc.count) / float64(rows) * 100
		}
		fmt.Fprintf(&b, "- %s: %s (%.1f%%)\n", mc.col, Thousands(mc.count), pct)
	}
	if len(missingCols) > 5 {
		fmt.Fprintf(&b, "... and %d more columns", len(missingCols)-5)
	}
	total := 0
	for _, mc := range missingCols {
		total += mc.count
	}
	return &AnswerResult{
		Success: true,
		Answer:  b.String(),
		Type:    "missing",
		Payload: MissingPayload{Count: total, PerColumn: perColumn},
	}
}

// ============================================================================
// Aggregations (average, maximum, minimum)
// ============================================================================

func (e *Engine) processAggregate(intent Intent, entities Entities) *AnswerResult {
	if len(entities.Columns) == 0 {
		return &AnswerResult{
			Success: false,
			Error: fmt.Sprintf("Please specify a column name. Available numeric columns: %s",
				strings.Join(e.prof.NumericColumns(), ", ")),
			Type: "error",
		}
	}

	col := entities.Columns[0]
	cp, ok := e.prof.Column(col)
	if !ok || cp.Kind != analysis.KindNumeric {
		return &AnswerResult{
			Success: false,
			Error:   fmt.Sprintf("Column '%s' is not numeric. Cannot calculate %s.", col, intent),
			Type:    "error",
		}
	}

	values := e.ds.NumericValues(col)
	var value float64
	var answer string
	switch intent {
	case IntentAverage:
		value = mean(values)
		answer = fmt.Sprintf("The average %s is %.2f", col, value)
	case IntentMaximum:
		value = maxOf(values)
		answer = fmt.Sprintf("The maximum %s is %.2f", col, value)
	case IntentMinimum:
		value = minOf(values)
		answer = fmt.Sprintf("The minimum %s is %.2f", col, value)
	}
	return &AnswerResult{
		Success: true,
		Answer:  answer,
		Type:    string(intent),
		Payload: AggregatePayload{Column: col, Value: value},
	}
}

// ============================================================================
// Correlation
// ============================================================================

func (e *Engine) processCorrelation(entities Entities) *AnswerResult {
	numericCols := e.prof.NumericColumns()
	if len(numericCols) < 2 {
		return &AnswerResult{
			Success: false,
			Error:   "Need at least 2 numeric columns to calculate correlations.",
			Type:    "error",
		}
	}

	if len(entities.Columns) >= 2 {
		col1, col2 := entities.Columns[0], entities.Columns[1]
		if containsString(numericCols, col1) && containsString(numericCols, col2) {
			if r, ok := e.pairCorrelation(col1, col2); ok {
				return &AnswerResult{
					Success: true,
					Answer:  fmt.Sprintf("Correlation between %s and %s: %.3f", col1, col2, r),
					Type:    "correlation",
					Payload: CorrelationPayload{Pairs: []CorrelationEntry{{col1, col2, r}}},
				}
			}
		}
	}

	pairs := []CorrelationEntry{}
	for i := 0; i < len(numericCols); i++ {
		for j := i + 1; j < len(numericCols); j++ {
			if r, ok := e.pairCorrelation(numericCols[i], numericCols[j]); ok {
				pairs = append(pairs, CorrelationEntry{numericCols[i], numericCols[j], r})
			}
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(pairs[a].Correlation) > math.Abs(pairs[b].Correlation)
	})

	if len(pairs) == 0 {
		return &AnswerResult{
			Success: true,
			Answer:  "No correlations could be calculated.",
			Type:    "correlation",
			Payload: CorrelationPayload{Pairs: pairs},
		}
	}

	var b strings.Builder
	strongest := pairs[0]
	fmt.Fprintf(&b, "Strongest correlation: %s and %s (%.3f)", strongest.Column1, strongest.Column2, strongest.Correlation)
	if len(pairs) > 1 {
		b.WriteString("\nOther strong correlations:\n")
		for _, p := range pairs[1:minInt(4, len(pairs))] {
			fmt.Fprintf(&b, "- %s & %s: %.3f\n", p.Column1, p.Column2, p.Correlation)
		}
	}
	top := pairs
	if len(top) > 5 {
		top = top[:5]
	}
	return &AnswerResult{
		Success: true,
		Answer:  b.String(),
		Type:    "correlation",
		Payload: CorrelationPayload{Pairs: top},
	}
}

// pairCorrelation computes Pearson's r over rows where both columns hold a
// parseable non-null value. ok is false when fewer than two such pairs
// exist or either side has zero variance.
func (e *Engine) pairCorrelation(col1, col2 string) (float64, bool) {
	i1, ok1 := e.ds.ColumnIndex(col1)
	i2, ok2 := e.ds.ColumnIndex(col2)
	if !ok1 || !ok2 {
		return 0, false
	}
	var xs, ys []float64
	for _, row := range e.ds.Rows {
		if i1 >= len(row) || i2 >= len(row) {
			continue
		}
		x, okx := dataset.ParseNumeric(row[i1])
		y, oky := dataset.ParseNumeric(row[i2])
		if dataset.IsNull(row[i1]) || dataset.IsNull(row[i2]) || !okx || !oky {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return Pearson(xs, ys)
}

// Pearson computes the correlation coefficient of two aligned samples.
func Pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0, false
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	return sxy / math.Sqrt(sxx*syy), true
}

// ============================================================================
// Ranking (top, bottom)
// ============================================================================

var integerLiteral = regexp.MustCompile(`\d+`)

func (e *Engine) processRanking(intent Intent, entities Entities, q string) *AnswerResult {
	if len(entities.Columns) == 0 {
		return &AnswerResult{
			Success: false,
			Error:   "Please specify which column to rank by.",
			Type:    "error",
		}
	}
	col := entities.Columns[0]

	n := 5
	if m := integerLiteral.FindString(q); m != "" {
		if parsed, err := strconv.Atoi(m); err == nil {
			n = parsed
		}
	}
	if n > 20 {
		n = 20
	}

	cp, _ := e.prof.Column(col)
	numeric := cp != nil && cp.Kind == analysis.KindNumeric

	var b strings.Builder
	var ranked []RankingEntry
	if numeric {
		cells := rankNumericCells(e.ds, col, intent == IntentBottom, n)
		if intent == IntentTop {
			fmt.Fprintf(&b, "Top %d values in %s:\n", n, col)
		} else {
			fmt.Fprintf(&b, "Bottom %d values in %s:\n", n, col)
		}
		for i, cell := range cells {
			fmt.Fprintf(&b, "%d. %s\n", i+1, cell)
			ranked = append(ranked, RankingEntry{Value: cell})
		}
	} else {
		counts := valueCounts(e.ds, col)
		if intent == IntentTop {
			fmt.Fprintf(&b, "Top %d most frequent values in %s:\n", n, col)
			if len(counts) > n {
				counts = counts[:n]
			}
		} else {
			fmt.Fprintf(&b, "Bottom %d least frequent values in %s:\n", n, col)
			if len(counts) > n {
				counts = counts[len(counts)-n:]
			}
		}
		for _, vc := range counts {
			fmt.Fprintf(&b, "- %s: %d times\n", vc.Value, vc.Count)
			ranked = append(ranked, vc)
		}
	}

	return &AnswerResult{
		Success: true,
		Answer:  b.String(),
		Type:    string(intent) + "_values",
		Payload: RankingPayload{Column: col, N: n, Values: ranked},
	}
}

// rankNumericCells returns the raw cells of the n largest (or smallest)
// parseable values, duplicates preserved, ties kept in row order.
func rankNumericCells(ds *dataset.Dataset, col string, ascending bool, n int) []string {
	idx, ok := ds.ColumnIndex(col)
	if !ok {
		return nil
	}
	type cellValue struct {
		cell  string
		value float64
	}
	var cells []cellValue
	for _, row := range ds.Rows {
		if idx >= len(row) || dataset.IsNull(row[idx]) {
			continue
		}
		if v, ok := dataset.ParseNumeric(row[idx]); ok {
			cells = append(cells, cellValue{row[idx], v})
		}
	}
	sort.SliceStable(cells, func(a, b int) bool {
		if ascending {
			return cells[a].value < cells[b].value
		}
		return cells[a].value > cells[b].value
	})
	if len(cells) > n {
		cells = cells[:n]
	}
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.cell
	}
	return out
}

// valueCounts returns distinct non-null values sorted by descending count,
// ties in first-appearance order.
func valueCounts(ds *dataset.Dataset, col string) []RankingEntry {
	idx, ok := ds.ColumnIndex(col)
	if !ok {
		return nil
	}
	counts := map[string]int{}
	first := map[string]int{}
	order := 0
	for _, row := range ds.Rows {
		if idx >= len(row) || dataset.IsNull(row[idx]) {
			continue
		}
		v := row[idx]
		if _, seen := counts[v]; !seen {
			first[v] = order
			order++
		}
		counts[v]++
	}
	out := make([]RankingEntry, 0, len(counts))
	for v, c := range counts {
		out = append(out, RankingEntry{Value: v, Count: c})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return first[out[a].Value] < first[out[b].Value]
	})
	return out
}

// ============================================================================
// General / help
// ============================================================================

func (e *Engine) processGeneral() *AnswerResult {
	cols := e.ds.Columns
	shown := cols
	if len(shown) > 5 {
		shown = shown[:5]
	}
	ellipsis := ""
	if len(cols) > 5 {
		ellipsis = "..."
	}
	return &AnswerResult{
		Success: true,
		Answer:  "I'm not sure how to answer that specific question. Here are some things I can help with:",
		Type:    "help",
		Suggestions: []string{
			"Try asking about: row counts, column summaries, missing values, or correlations",
			"Example questions: 'How many rows?', 'What's the average sales?', 'Are there missing values?'",
			fmt.Sprintf("Available columns: %s%s", strings.Join(shown, ", "), ellipsis),
		},
	}
}

// SmartSuggestions proposes questions that fit the dataset's structure.
func (e *Engine) SmartSuggestions() []string {
	suggestions := []string{
		"How many rows are there?",
		"What are the column names?",
		"Are there any missing values?",
		"Show me a summary of the data",
	}

	numericCols := e.prof.NumericColumns()
	if len(numericCols) > 0 {
		col := numericCols[0]
		suggestions = append(suggestions,
			fmt.Sprintf("What's the average %s?", col),
			fmt.Sprintf("What's the maximum %s?", col),
			fmt.Sprintf("Show me the top 10 %s values", col),
		)
	}
	if len(numericCols) >= 2 {
		suggestions = append(suggestions, "What are the correlations between numeric columns?")
	}
	if cats := e.prof.CategoricalColumns(); len(cats) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("What are the most common values in %s?", cats[0]))
	}

	if len(suggestions) > 8 {
		suggestions = suggestions[:8]
	}
	return suggestions
}

// ============================================================================
// Helpers
// ============================================================================

// Thousands renders an integer with comma separators, matching the answer
// templates' number style.
func Thousands(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

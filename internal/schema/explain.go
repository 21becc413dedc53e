package schema

import "sort"

// explainSampleSize caps how many values per column feed the overlap
// comparison.
const explainSampleSize = 200

// MatchExplanation says why two columns look related beyond their names.
type MatchExplanation struct {
	ValueOverlap         float64  `json:"value_overlap"`
	SharedValues         []string `json:"shared_values,omitempty"`
	FormatTransformation string   `json:"format_transformation,omitempty"`
	CardinalityMatch     float64  `json:"cardinality_match"`
	Verdict              string   `json:"verdict"`
}

// ExplainMatch compares the contents of two columns. Values are normalized
// before comparison, so the same data in different formats still overlaps.
// The verdict grades the overlap: above 0.5 the pair is a likely join key,
// above 0.1 possibly related, otherwise a name-only match.
func ExplainMatch(a, b []string) MatchExplanation {
	normalizer := NewNormalizer()
	setA := normalizedSet(normalizer, a)
	setB := normalizedSet(normalizer, b)

	overlap, shared := jaccard(setA, setB)

	explanation := MatchExplanation{
		ValueOverlap:     overlap,
		SharedValues:     shared,
		CardinalityMatch: cardinalityRatio(len(setA), len(setB)),
	}

	formatA := dominantFormat(normalizer, a)
	formatB := dominantFormat(normalizer, b)
	if formatA != "" && formatA == formatB && formatA != "text" && overlap > 0.5 {
		explanation.FormatTransformation = formatA
	}

	switch {
	case overlap > 0.5:
		explanation.Verdict = "likely join key"
	case overlap > 0.1:
		explanation.Verdict = "possibly related"
	default:
		explanation.Verdict = "name-only match"
	}
	return explanation
}

func normalizedSet(n *Normalizer, values []string) map[string]bool {
	set := map[string]bool{}
	limit := explainSampleSize
	if len(values) < limit {
		limit = len(values)
	}
	for i := 0; i < limit; i++ {
		if values[i] == "" {
			continue
		}
		if normalized := n.NormalizeValue(values[i]); normalized != "" {
			set[normalized] = true
		}
	}
	return set
}

// jaccard returns intersection/union plus up to five shared values, sorted
// for stable output.
func jaccard(setA, setB map[string]bool) (float64, []string) {
	if len(setA) == 0 || len(setB) == 0 {
		return 0, nil
	}
	var shared []string
	for v := range setA {
		if setB[v] {
			shared = append(shared, v)
		}
	}
	sort.Strings(shared)
	intersection := len(shared)
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0, nil
	}
	if len(shared) > 5 {
		shared = shared[:5]
	}
	return float64(intersection) / float64(union), shared
}

func cardinalityRatio(distinctA, distinctB int) float64 {
	if distinctA == 0 || distinctB == 0 {
		return 0
	}
	lo, hi := distinctA, distinctB
	if lo > hi {
		lo, hi = hi, lo
	}
	return float64(lo) / float64(hi)
}

// dominantFormat scans the first values until a non-text format shows up.
func dominantFormat(n *Normalizer, values []string) string {
	limit := 10
	if len(values) < limit {
		limit = len(values)
	}
	format := ""
	for i := 0; i < limit; i++ {
		if values[i] == "" {
			continue
		}
		format = n.DetectFormat(values[i])
		if format != "text" {
			break
		}
	}
	return format
}

package schema

import (
	"fmt"
	"strings"
)

// DatasetColumns names one dataset and its columns, in column order.
type DatasetColumns struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// ColumnRef points at one column of one dataset.
type ColumnRef struct {
	Dataset string `json:"dataset"`
	Column  string `json:"column"`
}

// SimilarPair records two near-identically named columns from two
// different datasets and their similarity score.
type SimilarPair struct {
	Dataset1 string  `json:"dataset1"`
	Column1  string  `json:"column1"`
	Dataset2 string  `json:"dataset2"`
	Column2  string  `json:"column2"`
	Score    float64 `json:"similarity"`
}

// GraphNode is one column in the schema relationship graph.
type GraphNode struct {
	ID      string `json:"id"`
	Dataset string `json:"dataset"`
	Column  string `json:"column"`
}

// GraphEdge links two columns, either by exact normalized name ("exact")
// or by fuzzy name similarity ("similar").
type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
	Kind   string  `json:"kind"`
}

// SchemaGraph is the cross-dataset column relationship graph.
type SchemaGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// DefaultThreshold is the minimum similarity ratio for a fuzzy match.
const DefaultThreshold = 0.7

// Matcher finds exact and fuzzy column-name relationships across datasets.
type Matcher struct {
	sim       Similarity
	threshold float64
}

// NewMatcher builds a matcher. A non-positive threshold falls back to
// DefaultThreshold.
func NewMatcher(sim Similarity, threshold float64) *Matcher {
	if sim == nil {
		sim = SequenceMatcher{}
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{sim: sim, threshold: threshold}
}

// Threshold returns the fuzzy-match cutoff in use.
func (m *Matcher) Threshold() float64 { return m.threshold }

// WithThreshold returns a matcher sharing the similarity strategy under a
// different cutoff.
func (m *Matcher) WithThreshold(threshold float64) *Matcher {
	return NewMatcher(m.sim, threshold)
}

// CommonColumns groups columns whose lowercased, trimmed names are equal.
// Only groups with at least two members survive; the map key is the
// normalized name and members keep input order.
func (m *Matcher) CommonColumns(datasets []DatasetColumns) map[string][]ColumnRef {
	groups := map[string][]ColumnRef{}
	for _, ds := range datasets {
		for _, col := range ds.Columns {
			normalized := strings.ToLower(strings.TrimSpace(col))
			groups[normalized] = append(groups[normalized], ColumnRef{Dataset: ds.Name, Column: col})
		}
	}
	for name, refs := range groups {
		if len(refs) < 2 {
			delete(groups, name)
		}
	}
	return groups
}

// SimilarColumns compares every column pair across every unordered dataset
// pair and keeps pairs scoring at or above the threshold. Identical
// lowercased names are excluded here; CommonColumns owns those. Keys are
// "{ds1}_{col1}___{ds2}_{col2}" in input pair order.
func (m *Matcher) SimilarColumns(datasets []DatasetColumns) map[string]SimilarPair {
	similar := map[string]SimilarPair{}
	for i := 0; i < len(datasets); i++ {
		for j := i + 1; j < len(datasets); j++ {
			ds1, ds2 := datasets[i], datasets[j]
			for _, col1 := range ds1.Columns {
				for _, col2 := range ds2.Columns {
					lower1 := strings.ToLower(col1)
					lower2 := strings.ToLower(col2)
					if lower1 == lower2 {
						continue
					}
					score := m.sim.Ratio(lower1, lower2)
					if score >= m.threshold {
						key := fmt.Sprintf("%s_%s___%s_%s", ds1.Name, col1, ds2.Name, col2)
						similar[key] = SimilarPair{
							Dataset1: ds1.Name,
							Column1:  col1,
							Dataset2: ds2.Name,
							Column2:  col2,
							Score:    score,
						}
					}
				}
			}
		}
	}
	return similar
}

// Graph renders every column as a node and every exact or fuzzy
// relationship as an edge. Exact edges carry weight 1.0.
func (m *Matcher) Graph(datasets []DatasetColumns) *SchemaGraph {
	graph := &SchemaGraph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	for _, ds := range datasets {
		for _, col := range ds.Columns {
			graph.Nodes = append(graph.Nodes, GraphNode{
				ID:      nodeID(ds.Name, col),
				Dataset: ds.Name,
				Column:  col,
			})
		}
	}

	for _, refs := range m.CommonColumns(datasets) {
		for i := 0; i < len(refs); i++ {
			for j := i + 1; j < len(refs); j++ {
				graph.Edges = append(graph.Edges, GraphEdge{
					Source: nodeID(refs[i].Dataset, refs[i].Column),
					Target: nodeID(refs[j].Dataset, refs[j].Column),
					Weight: 1.0,
					Kind:   "exact",
				})
			}
		}
	}
	for _, pair := range m.SimilarColumns(datasets) {
		graph.Edges = append(graph.Edges, GraphEdge{
			Source: nodeID(pair.Dataset1, pair.Column1),
			Target: nodeID(pair.Dataset2, pair.Column2),
			Weight: pair.Score,
			Kind:   "similar",
		})
	}
	return graph
}

func nodeID(dataset, column string) string {
	return fmt.Sprintf("%s.%s", dataset, column)
}

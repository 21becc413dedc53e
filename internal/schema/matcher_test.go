package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdata/internal/schema"
)

func TestNewMatcherDefaults(t *testing.T) {
	m := schema.NewMatcher(nil, 0)
	assert.Equal(t, schema.DefaultThreshold, m.Threshold())

	m = schema.NewMatcher(nil, 0.9)
	assert.Equal(t, 0.9, m.Threshold())
}

func TestWithThreshold(t *testing.T) {
	m := schema.NewMatcher(nil, 0.7)
	strict := m.WithThreshold(0.95)

	assert.Equal(t, 0.95, strict.Threshold())
	assert.Equal(t, 0.7, m.Threshold(), "original matcher keeps its cutoff")
}

func TestCommonColumns(t *testing.T) {
	m := schema.NewMatcher(nil, 0)
	datasets := []schema.DatasetColumns{
		{Name: "sales", Columns: []string{"id", "Region", "amount"}},
		{Name: "customers", Columns: []string{"region", "industry"}},
		{Name: "tickets", Columns: []string{"REGION "}},
	}

	groups := m.CommonColumns(datasets)
	require.Len(t, groups, 1, "columns appearing in a single dataset are dropped")

	refs, ok := groups["region"]
	require.True(t, ok)
	require.Len(t, refs, 3)
	// Members keep input order and original spelling.
	assert.Equal(t, schema.ColumnRef{Dataset: "sales", Column: "Region"}, refs[0])
	assert.Equal(t, schema.ColumnRef{Dataset: "customers", Column: "region"}, refs[1])
	assert.Equal(t, schema.ColumnRef{Dataset: "tickets", Column: "REGION "}, refs[2])
}

func TestSimilarColumns(t *testing.T) {
	m := schema.NewMatcher(schema.SequenceMatcher{}, 0.7)
	datasets := []schema.DatasetColumns{
		{Name: "sales", Columns: []string{"customer_id", "region"}},
		{Name: "crm", Columns: []string{"customer_key", "region"}},
	}

	similar := m.SimilarColumns(datasets)
	require.Len(t, similar, 1, "identical names belong to CommonColumns, not here")

	pair, ok := similar["sales_customer_id___crm_customer_key"]
	require.True(t, ok)
	assert.Equal(t, "sales", pair.Dataset1)
	assert.Equal(t, "customer_id", pair.Column1)
	assert.Equal(t, "crm", pair.Dataset2)
	assert.Equal(t, "customer_key", pair.Column2)
	assert.InDelta(t, 18.0/23.0, pair.Score, 1e-9)
}

func TestSimilarColumnsRespectsThreshold(t *testing.T) {
	m := schema.NewMatcher(schema.SequenceMatcher{}, 0.7)
	datasets := []schema.DatasetColumns{
		{Name: "sales", Columns: []string{"customer_id"}},
		{Name: "crm", Columns: []string{"customer_key"}},
	}

	assert.Len(t, m.SimilarColumns(datasets), 1)
	assert.Empty(t, m.WithThreshold(0.95).SimilarColumns(datasets))
}

func TestGraph(t *testing.T) {
	m := schema.NewMatcher(nil, 0.7)
	datasets := []schema.DatasetColumns{
		{Name: "sales", Columns: []string{"region", "customer_id"}},
		{Name: "crm", Columns: []string{"region", "customer_key"}},
	}

	graph := m.Graph(datasets)
	require.Len(t, graph.Nodes, 4)
	assert.Equal(t, "sales.region", graph.Nodes[0].ID)
	assert.Equal(t, "sales", graph.Nodes[0].Dataset)
	assert.Equal(t, "region", graph.Nodes[0].Column)

	require.Len(t, graph.Edges, 2)
	var exact, fuzzy *schema.GraphEdge
	for i := range graph.Edges {
		switch graph.Edges[i].Kind {
		case "exact":
			exact = &graph.Edges[i]
		case "similar":
			fuzzy = &graph.Edges[i]
		}
	}
	require.NotNil(t, exact)
	assert.Equal(t, "sales.region", exact.Source)
	assert.Equal(t, "crm.region", exact.Target)
	assert.Equal(t, 1.0, exact.Weight)

	require.NotNil(t, fuzzy)
	assert.Equal(t, "sales.customer_id", fuzzy.Source)
	assert.Equal(t, "crm.customer_key", fuzzy.Target)
	assert.InDelta(t, 18.0/23.0, fuzzy.Weight, 1e-9)
}

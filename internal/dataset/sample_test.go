package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdata/internal/dataset"
)

func TestSampleSales(t *testing.T) {
	ds := dataset.SampleSales()

	assert.Equal(t, "Sample_Sales", ds.Name)
	assert.Equal(t, 1000, ds.RowCount())
	assert.Equal(t, []string{
		"sales_rep", "region", "product", "deal_value",
		"close_date", "customer_size", "win_probability",
	}, ds.Columns)

	// Generation is seeded, so two builds produce identical data.
	again := dataset.SampleSales()
	assert.Equal(t, ds.Rows[0], again.Rows[0])
	assert.Equal(t, ds.Rows[999], again.Rows[999])

	// Every deal value parses as a number and every close date as a date.
	values := ds.NumericValues("deal_value")
	require.Len(t, values, 1000)
	for _, v := range values {
		assert.Greater(t, v, 0.0)
	}
	dates, ok := ds.Column("close_date")
	require.True(t, ok)
	_, parsed := dataset.ParseDate(dates[0])
	assert.True(t, parsed)

	// Win probabilities stay inside [0, 1].
	for _, p := range ds.NumericValues("win_probability") {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestSampleCustomers(t *testing.T) {
	ds := dataset.SampleCustomers()

	assert.Equal(t, "Sample_Customers", ds.Name)
	assert.Equal(t, 500, ds.RowCount())
	assert.Contains(t, ds.Columns, "satisfaction_score")

	for _, s := range ds.NumericValues("satisfaction_score") {
		assert.GreaterOrEqual(t, s, 1.0)
		assert.LessOrEqual(t, s, 10.0)
	}
}

func TestSamples(t *testing.T) {
	all := dataset.Samples()
	require.Len(t, all, 2)
	assert.Equal(t, "Sample_Sales", all[0].Name)
	assert.Equal(t, "Sample_Customers", all[1].Name)
}

package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// SampleSales builds the built-in demo sales dataset: 1000 seeded rows of
// rep/region/product deals with close dates spanning 2023.
func SampleSales() *Dataset {
	rng := rand.New(rand.NewSource(42))
	const n = 1000

	regions := []string{"North", "South", "East", "West"}
	products := []string{"Product_A", "Product_B", "Product_C"}
	sizes := []string{"Small", "Medium", "Large"}
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("Rep_%03d", 1+rng.Intn(49)),
			regions[rng.Intn(len(regions))],
			products[rng.Intn(len(products))],
			fmt.Sprintf("%.2f", logNormal(rng, 8, 1)),
			start.AddDate(0, 0, i).Format("2006-01-02"),
			sizes[rng.Intn(len(sizes))],
			fmt.Sprintf("%.4f", betaInt(rng, 2, 2)),
		})
	}
	return &Dataset{
		Name:     "Sample_Sales",
		Columns:  []string{"sales_rep", "region", "product", "deal_value", "close_date", "customer_size", "win_probability"},
		Rows:     rows,
		LoadedAt: time.Now(),
	}
}

// SampleCustomers builds the built-in demo customer dataset: 500 seeded rows
// with signup dates every other day from 2022.
func SampleCustomers() *Dataset {
	rng := rand.New(rand.NewSource(43))
	const n = 500

	regions := []string{"North", "South", "East", "West"}
	industries := []string{"Tech", "Finance", "Healthcare", "Retail"}
	sizes := []string{"Small", "Medium", "Large"}
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		score := clamp(normal(rng, 7.5, 1.5), 1, 10)
		rows = append(rows, []string{
			fmt.Sprintf("CUST_%05d", i),
			regions[rng.Intn(len(regions))],
			industries[rng.Intn(len(industries))],
			sizes[rng.Intn(len(sizes))],
			fmt.Sprintf("%.2f", logNormal(rng, 12, 1.5)),
			start.AddDate(0, 0, 2*i).Format("2006-01-02"),
			fmt.Sprintf("%.2f", score),
		})
	}
	return &Dataset{
		Name:     "Sample_Customers",
		Columns:  []string{"customer_id", "region", "industry", "company_size", "annual_revenue", "signup_date", "satisfaction_score"},
		Rows:     rows,
		LoadedAt: time.Now(),
	}
}

// Samples returns all built-in demo datasets.
func Samples() []*Dataset {
	return []*Dataset{SampleSales(), SampleCustomers()}
}

func normal(rng *rand.Rand, mean, std float64) float64 {
	return mean + std*rng.NormFloat64()
}

func logNormal(rng *rand.Rand, mu, sigma float64) float64 {
	return math.Exp(mu + sigma*rng.NormFloat64())
}

// gammaInt samples Gamma(shape, 1) for integer shape as a sum of
// exponentials, which is exact for the shapes used here.
func gammaInt(rng *rand.Rand, shape int) float64 {
	var sum float64
	for i := 0; i < shape; i++ {
		sum += rng.ExpFloat64()
	}
	return sum
}

func betaInt(rng *rand.Rand, a, b int) float64 {
	x := gammaInt(rng, a)
	y := gammaInt(rng, b)
	return x / (x + y)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

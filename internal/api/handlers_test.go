package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdata/internal/api"
	"askdata/internal/config"
	"askdata/internal/llm"
	"askdata/internal/multidata"
	"askdata/internal/schema"
	"askdata/internal/state"
)

const ordersCSV = "product,amount,quantity\nA,10,1\nA,20,2\nB,30,3\nA,40,4\n"

const (
	salesCSV = "region,customer_id,revenue\nNorth,C1,100\nSouth,C2,200\n"
	crmCSV   = "region,customer_key,spend\nEast,C1,50\nWest,C2,75\n"
)

// Two datasets sharing a date column and a numeric concept, with the
// second series reversed so the cross correlation is exactly -1.
const (
	seriesACSV = "day,revenue\n2024-01-01,10\n2024-01-02,20\n2024-01-03,30\n2024-01-04,40\n"
	seriesBCSV = "day,revenue\n2024-01-01,40\n2024-01-02,30\n2024-01-03,20\n2024-01-04,10\n"
)

// newServer builds a handler with in-memory state only and registers all
// routes on a fresh chi router. Persistence is disabled so the tests
// exercise the pure HTTP surface.
func newServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Import:     config.Import{PreviewRows: 10},
		Similarity: config.Similarity{Threshold: 0.7, Strategy: "sequence"},
	}
	h := api.NewHandler(state.NewAppState(), nil, schema.NewMatcher(nil, 0), llm.NewQuestionSuggester(nil), cfg, "test-session")
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func do(srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

// uploadCSV posts content as a multipart CSV upload. An empty name leaves
// the dataset name to be derived from the filename.
func uploadCSV(t *testing.T, srv http.Handler, filename, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	if name != "" {
		require.NoError(t, mw.WriteField("name", name))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func mustUpload(t *testing.T, srv http.Handler, filename, content string) {
	t.Helper()
	rec := uploadCSV(t, srv, filename, "", content)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestHealthCheck(t *testing.T) {
	srv := newServer(t)

	for _, target := range []string{"/health", "/api/health"} {
		rec := do(srv, http.MethodGet, target, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	}
}

func TestStatus(t *testing.T) {
	srv := newServer(t)

	var status struct {
		Loaded       bool   `json:"loaded"`
		DatasetCount int    `json:"dataset_count"`
		SessionID    string `json:"session_id"`
		Datasets     []struct {
			Name string `json:"name"`
			Rows int    `json:"rows"`
		} `json:"datasets"`
	}

	rec := do(srv, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &status)
	assert.False(t, status.Loaded)
	assert.Equal(t, 0, status.DatasetCount)
	assert.Equal(t, "test-session", status.SessionID)

	mustUpload(t, srv, "orders.csv", ordersCSV)

	rec = do(srv, http.MethodGet, "/api/status", "")
	decode(t, rec, &status)
	assert.True(t, status.Loaded)
	assert.Equal(t, 1, status.DatasetCount)
	require.Len(t, status.Datasets, 1)
	assert.Equal(t, "orders", status.Datasets[0].Name)
	assert.Equal(t, 4, status.Datasets[0].Rows)
}

func TestUploadDataset(t *testing.T) {
	srv := newServer(t)

	rec := uploadCSV(t, srv, "orders.csv", "", ordersCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.UploadResponse
	decode(t, rec, &resp)
	assert.Equal(t, "File 'orders.csv' uploaded successfully", resp.Message)
	assert.Equal(t, "orders", resp.Dataset)
	assert.Equal(t, 4, resp.Rows)
	assert.Equal(t, 3, resp.Columns)
	assert.Equal(t, []string{"product", "amount", "quantity"}, resp.ColumnNames)

	// An explicit name overrides the one derived from the filename.
	rec = uploadCSV(t, srv, "orders.csv", "deals", ordersCSV)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, "deals", resp.Dataset)

	var list struct {
		Count    int `json:"count"`
		Datasets []struct {
			Name        string   `json:"name"`
			Rows        int      `json:"rows"`
			ColumnNames []string `json:"column_names"`
		} `json:"datasets"`
	}
	rec = do(srv, http.MethodGet, "/api/datasets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Equal(t, 2, list.Count)
	require.Len(t, list.Datasets, 2)
	assert.Equal(t, "orders", list.Datasets[0].Name)
	assert.Equal(t, "deals", list.Datasets[1].Name)
}

func TestUploadValidation(t *testing.T) {
	srv := newServer(t)

	rec := uploadCSV(t, srv, "report.txt", "", "not,a,csv\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only CSV files are allowed", strings.TrimSpace(rec.Body.String()))

	// A multipart form without a file part is rejected.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "orders"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/datasets/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", strings.TrimSpace(rec.Body.String()))

	// An empty file has no header row to parse.
	rec = uploadCSV(t, srv, "empty.csv", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to parse CSV")
}

func TestLoadSampleDatasets(t *testing.T) {
	srv := newServer(t)

	rec := do(srv, http.MethodPost, "/api/datasets/sample", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message  string   `json:"message"`
		Datasets []string `json:"datasets"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "Sample datasets loaded", resp.Message)
	assert.Equal(t, []string{"Sample_Sales", "Sample_Customers"}, resp.Datasets)

	var preview struct {
		TotalRows int        `json:"total_rows"`
		Rows      [][]string `json:"rows"`
	}
	rec = do(srv, http.MethodGet, "/api/datasets/Sample_Sales?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &preview)
	assert.Equal(t, 1000, preview.TotalRows)
	assert.Len(t, preview.Rows, 5)
}

func TestGetDatasetPreview(t *testing.T) {
	srv := newServer(t)
	mustUpload(t, srv, "orders.csv", ordersCSV)

	var preview struct {
		Name      string     `json:"name"`
		Columns   []string   `json:"columns"`
		Rows      [][]string `json:"rows"`
		TotalRows int        `json:"total_rows"`
	}

	// The configured preview size caps the default response.
	rec := do(srv, http.MethodGet, "/api/datasets/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &preview)
	assert.Equal(t, "orders", preview.Name)
	assert.Equal(t, []string{"product", "amount", "quantity"}, preview.Columns)
	assert.Len(t, preview.Rows, 4)
	assert.Equal(t, 4, preview.TotalRows)

	rec = do(srv, http.MethodGet, "/api/datasets/orders?limit=2", "")
	decode(t, rec, &preview)
	assert.Len(t, preview.Rows, 2)
	assert.Equal(t, []string{"A", "10", "1"}, preview.Rows[0])
	assert.Equal(t, 4, preview.TotalRows)

	rec = do(srv, http.MethodGet, "/api/datasets/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Dataset not found", strings.TrimSpace(rec.Body.String()))
}

func TestDeleteDataset(t *testing.T) {
	srv := newServer(t)
	mustUpload(t, srv, "orders.csv", ordersCSV)

	rec := do(srv, http.MethodDelete, "/api/datasets/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Message string `json:"message"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "Dataset 'orders' deleted", resp.Message)

	rec = do(srv, http.MethodDelete, "/api/datasets/orders", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProfileAndQuality(t *testing.T) {
	srv := newServer(t)
	mustUpload(t, srv, "orders.csv", ordersCSV)

	var profile struct {
		Dataset string `json:"dataset"`
		Rows    int    `json:"rows"`
		Columns []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		} `json:"columns"`
	}
	rec := do(srv, http.MethodGet, "/api/datasets/orders/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &profile)
	assert.Equal(t, "orders", profile.Dataset)
	assert.Equal(t, 4, profile.Rows)
	require.Len(t, profile.Columns, 3)
	assert.Equal(t, "amount", profile.Columns[1].Name)
	assert.Equal(t, "numeric", profile.Columns[1].Kind)

	var quality struct {
		Dataset      string  `json:"dataset"`
		OverallScore float64 `json:"overall_score"`
	}
	rec = do(srv, http.MethodGet, "/api/datasets/orders/quality", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &quality)
	assert.Equal(t, "orders", quality.Dataset)
	assert.Greater(t, quality.OverallScore, 0.0)

	rec = do(srv, http.MethodGet, "/api/datasets/missing/profile", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuery(t *testing.T) {
	srv := newServer(t)
	mustUpload(t, srv, "orders.csv", ordersCSV)

	var resp struct {
		Success bool   `json:"success"`
		Answer  string `json:"answer"`
		Intent  string `json:"intent"`
		Dataset string `json:"dataset"`
		Cached  bool   `json:"cached"`
	}

	// With a single dataset loaded the dataset field may be omitted.
	rec := do(srv, http.MethodPost, "/api/query", `{"question":"How many rows are there?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "The dataset contains 4 rows.", resp.Answer)
	assert.Equal(t, "count", resp.Intent)
	assert.Equal(t, "orders", resp.Dataset)
	assert.False(t, resp.Cached)

	// Repeating the question verbatim hits the answer cache.
	rec = do(srv, http.MethodPost, "/api/query", `{"question":"How many rows are there?"}`)
	decode(t, rec, &resp)
	assert.Equal(t, "The dataset contains 4 rows.", resp.Answer)
	assert.True(t, resp.Cached)
}

func TestQueryValidation(t *testing.T) {
	srv := newServer(t)
	mustUpload(t, srv, "orders.csv", ordersCSV)

	tests := []struct {
		name   string
		body   string
		status int
		errMsg string
	}{
		{"invalid json", "{", http.StatusBadRequest, "Invalid JSON"},
		{"blank question", `{"question":"   "}`, http.StatusBadRequest, "Question is required"},
		{"unknown dataset", `{"dataset":"missing","question":"how many rows"}`, http.StatusNotFound, "Dataset not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(srv, http.MethodPost, "/api/query", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.errMsg, strings.TrimSpace(rec.Body.String()))
		})
	}

	// Once a second dataset is loaded the dataset field becomes mandatory.
	mustUpload(t, srv, "deals.csv", ordersCSV)
	rec := do(srv, http.MethodPost, "/api/query", `{"question":"how many rows"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Dataset is required when multiple datasets are loaded", strings.TrimSpace(rec.Body.String()))
}

func TestMultiQuery(t *testing.T) {
	srv := newServer(t)

	rec := do(srv, http.MethodPost, "/api/multi/query", `{"question":"compare my datasets"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No datasets loaded", strings.TrimSpace(rec.Body.String()))

	mustUpload(t, srv, "sales.csv", salesCSV)
	mustUpload(t, srv, "crm.csv", crmCSV)

	var resp struct {
		Success bool   `json:"success"`
		Type    string `json:"type"`
		Answer  string `json:"answer"`
	}
	rec = do(srv, http.MethodPost, "/api/multi/query", `{"question":"compare my datasets"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "comparison", resp.Type)
	assert.Contains(t, resp.Answer, "Dataset Comparison Summary:")
	assert.Contains(t, resp.Answer, "**sales**")
	assert.Contains(t, resp.Answer, "**crm**")
}

func TestSuggestions(t *testing.T) {
	srv := newServer(t)

	rec := do(srv, http.MethodGet, "/api/suggestions", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Dataset query parameter is required", strings.TrimSpace(rec.Body.String()))

	mustUpload(t, srv, "orders.csv", ordersCSV)

	var resp struct {
		Dataset     string   `json:"dataset"`
		Suggestions []string `json:"suggestions"`
	}
	rec = do(srv, http.MethodGet, "/api/suggestions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, "orders", resp.Dataset)
	assert.Len(t, resp.Suggestions, 8)
	assert.Contains(t, resp.Suggestions, "How many rows are there?")
	assert.Contains(t, resp.Suggestions, "What's the average amount?")

	rec = do(srv, http.MethodGet, "/api/suggestions?dataset=missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecentQueriesWithoutStore(t *testing.T) {
	srv := newServer(t)

	var resp struct {
		Queries []json.RawMessage `json:"queries"`
		Count   int               `json:"count"`
	}
	rec := do(srv, http.MethodGet, "/api/queries/recent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Empty(t, resp.Queries)
	assert.Equal(t, 0, resp.Count)
}

func TestCommonColumns(t *testing.T) {
	srv := newServer(t)
	mustUpload(t, srv, "sales.csv", salesCSV)
	mustUpload(t, srv, "crm.csv", crmCSV)

	var resp struct {
		Common map[string][]schema.ColumnRef `json:"common_columns"`
		Count  int                           `json:"count"`
	}
	rec := do(srv, http.MethodGet, "/api/schema/common", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, 1, resp.Count)
	require.Contains(t, resp.Common, "region")
	assert.Equal(t, []schema.ColumnRef{
		{Dataset: "sales", Column: "region"},
		{Dataset: "crm", Column: "region"},
	}, resp.Common["region"])
}

func TestSimilarColumns(t *testing.T) {
	srv := newServer(t)
	mustUpload(t, srv, "sales.csv", salesCSV)
	mustUpload(t, srv, "crm.csv", crmCSV)

	var resp struct {
		Similar   map[string]schema.SimilarPair `json:"similar_columns"`
		Count     int                           `json:"count"`
		Threshold float64                       `json:"threshold"`
	}
	rec := do(srv, http.MethodGet, "/api/schema/similar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 0.7, resp.Threshold)
	pair, ok := resp.Similar["sales_customer_id___crm_customer_key"]
	require.True(t, ok)
	assert.Equal(t, "customer_id", pair.Column1)
	assert.Equal(t, "customer_key", pair.Column2)
	assert.InDelta(t, 18.0/23.0, pair.Score, 1e-9)

	// A stricter threshold drops the fuzzy pair.
	rec = do(srv, http.MethodGet, "/api/schema/similar?threshold=0.95", "")
	decode(t, rec, &resp)
	assert.Equal(t, 0, resp.Count)
	assert.Equal(t, 0.95, resp.Threshold)
}

func TestSimilarColumnsExplained(t *testing.T) {
	srv := newServer(t)
	mustUpload(t, srv, "sales.csv", salesCSV)
	mustUpload(t, srv, "crm.csv", crmCSV)

	var resp struct {
		Explanations map[string]schema.MatchExplanation `json:"explanations"`
	}
	rec := do(srv, http.MethodGet, "/api/schema/similar?explain=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)

	// Both customer columns hold the same two identifiers.
	expl, ok := resp.Explanations["sales_customer_id___crm_customer_key"]
	require.True(t, ok)
	assert.Equal(t, 1.0, expl.ValueOverlap)
	assert.Equal(t, "likely join key", expl.Verdict)
}

func TestSchemaGraph(t *testing.T) {
	srv := newServer(t)
	mustUpload(t, srv, "sales.csv", salesCSV)
	mustUpload(t, srv, "crm.csv", crmCSV)

	var graph schema.SchemaGraph
	rec := do(srv, http.MethodGet, "/api/schema/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &graph)

	assert.Len(t, graph.Nodes, 6)
	require.Len(t, graph.Edges, 2)
	kinds := map[string]int{}
	for _, e := range graph.Edges {
		kinds[e.Kind]++
	}
	assert.Equal(t, 1, kinds["exact"])
	assert.Equal(t, 1, kinds["similar"])
}

func TestCorrelationsEndpoint(t *testing.T) {
	srv := newServer(t)
	mustUpload(t, srv, "a.csv", seriesACSV)
	mustUpload(t, srv, "b.csv", seriesBCSV)

	var resp struct {
		Correlations []multidata.ConceptCorrelation `json:"correlations"`
		Count        int                            `json:"count"`
	}
	rec := do(srv, http.MethodGet, "/api/multi/correlations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)

	// Only the revenue concept is numeric in both datasets; the shared
	// date column is skipped.
	require.Equal(t, 1, resp.Count)
	corr := resp.Correlations[0]
	assert.Equal(t, "revenue", corr.Concept)
	assert.Equal(t, []string{"a_revenue", "b_revenue"}, corr.Members)
	assert.Equal(t, 4, corr.Rows)
	require.NotNil(t, corr.StrongestPair)
	assert.InDelta(t, -1.0, corr.StrongestPair.Correlation, 1e-9)
	assert.Equal(t, "Strong", corr.StrongestPair.Strength)
}

func TestTrendsEndpoint(t *testing.T) {
	srv := newServer(t)
	mustUpload(t, srv, "a.csv", seriesACSV)
	mustUpload(t, srv, "b.csv", seriesBCSV)

	var resp struct {
		Trends []multidata.ConceptTrends `json:"trends"`
		Count  int                       `json:"count"`
	}
	rec := do(srv, http.MethodGet, "/api/multi/trends", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)

	require.Equal(t, 1, resp.Count)
	trend := resp.Trends[0]
	assert.Equal(t, "revenue", trend.Concept)
	assert.Equal(t, []string{"a", "b"}, trend.Datasets)
	require.Contains(t, trend.Trends, "a")
	require.Contains(t, trend.Trends, "b")
	assert.Equal(t, "Increasing", trend.Trends["a"].Direction)
	assert.Equal(t, "Decreasing", trend.Trends["b"].Direction)
	assert.Equal(t, 4, trend.Trends["a"].Points)
	require.Len(t, trend.TrendCorrelations, 2)
	assert.InDelta(t, -1.0, trend.TrendCorrelations[0][1], 1e-9)
}

func TestInsightsEndpoint(t *testing.T) {
	srv := newServer(t)

	var resp struct {
		Insights     []string `json:"insights"`
		DatasetCount int      `json:"dataset_count"`
	}
	rec := do(srv, http.MethodGet, "/api/multi/insights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, 0, resp.DatasetCount)
	assert.Equal(t, []string{"Load at least 2 datasets to generate cross-dataset insights."}, resp.Insights)

	mustUpload(t, srv, "sales.csv", salesCSV)
	mustUpload(t, srv, "crm.csv", crmCSV)

	rec = do(srv, http.MethodGet, "/api/multi/insights", "")
	decode(t, rec, &resp)
	assert.Equal(t, 2, resp.DatasetCount)
	assert.NotEmpty(t, resp.Insights)
}

func TestConnectorValidation(t *testing.T) {
	srv := newServer(t)

	rec := do(srv, http.MethodPost, "/api/connector/connect", `{"type":"mysql"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only postgres is supported currently", strings.TrimSpace(rec.Body.String()))

	rec = do(srv, http.MethodGet, "/api/connector/tables", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No database connection", strings.TrimSpace(rec.Body.String()))

	rec = do(srv, http.MethodPost, "/api/connector/import", `{"table":"orders"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No database connection", strings.TrimSpace(rec.Body.String()))
}

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"askdata/internal/analysis"
	"askdata/internal/config"
	"askdata/internal/connector"
	"askdata/internal/dataset"
	"askdata/internal/llm"
	"askdata/internal/metrics"
	"askdata/internal/multidata"
	"askdata/internal/query"
	"askdata/internal/schema"
	"askdata/internal/state"
	"askdata/internal/store"
)

const (
	MaxFileSize = 100 * 1024 * 1024 // 100MB
)

type Handler struct {
	State     *state.AppState
	Store     *store.Store
	Matcher   *schema.Matcher
	Router    *multidata.Router
	Suggester *llm.QuestionSuggester
	Source    connector.DataSource // Active DB connection
	Config    *config.Config
	SessionID string
	StartedAt time.Time
}

func NewHandler(st *state.AppState, db *store.Store, matcher *schema.Matcher, suggester *llm.QuestionSuggester, cfg *config.Config, sessionID string) *Handler {
	return &Handler{
		State:     st,
		Store:     db,
		Matcher:   matcher,
		Router:    multidata.NewRouter(matcher),
		Suggester: suggester,
		Config:    cfg,
		SessionID: sessionID,
		StartedAt: time.Now(),
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Get("/api/health", h.HealthCheck)
	r.Get("/api/status", h.GetStatus)

	// Dataset routes
	r.Post("/api/datasets/upload", h.UploadDataset)
	r.Post("/api/datasets/sample", h.LoadSampleDatasets)
	r.Get("/api/datasets", h.ListDatasets)
	r.Get("/api/datasets/{name}", h.GetDataset)
	r.Delete("/api/datasets/{name}", h.DeleteDataset)
	r.Get("/api/datasets/{name}/profile", h.GetProfile)
	r.Get("/api/datasets/{name}/quality", h.GetQuality)

	// Query routes
	r.Post("/api/query", h.Query)
	r.Post("/api/multi/query", h.MultiQuery)
	r.Get("/api/suggestions", h.GetSuggestions)
	r.Get("/api/queries/recent", h.GetRecentQueries)

	// Schema matching routes
	r.Get("/api/schema/common", h.GetCommonColumns)
	r.Get("/api/schema/similar", h.GetSimilarColumns)
	r.Get("/api/schema/graph", h.GetSchemaGraph)

	// Cross-dataset analysis routes
	r.Get("/api/multi/correlations", h.GetCorrelations)
	r.Get("/api/multi/trends", h.GetTrends)
	r.Get("/api/multi/insights", h.GetInsights)

	// Database connector routes
	r.Post("/api/connector/connect", h.ConnectSource)
	r.Get("/api/connector/tables", h.ListSourceTables)
	r.Post("/api/connector/import", h.ImportSourceTable)
}

// ============================================================================
// Health & Status
// ============================================================================

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// GetStatus returns the current session and loaded datasets
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	entries := h.State.List()
	datasets := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		datasets = append(datasets, map[string]interface{}{
			"name":      e.Name,
			"rows":      e.Dataset.RowCount(),
			"columns":   e.Dataset.ColumnCount(),
			"memory_mb": e.Dataset.MemoryMB(),
			"source":    e.Meta.Source,
			"loaded_at": e.Meta.AddedAt,
		})
	}

	status := map[string]interface{}{
		"loaded":         len(entries) > 0,
		"dataset_count":  len(entries),
		"datasets":       datasets,
		"session_id":     h.SessionID,
		"uptime_seconds": int(time.Since(h.StartedAt).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// ============================================================================
// Dataset Management
// ============================================================================

// UploadResponse is returned after a dataset has been registered
type UploadResponse struct {
	Message     string   `json:"message"`
	Dataset     string   `json:"dataset"`
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
}

// UploadDataset handles CSV file uploads
func (h *Handler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		http.Error(w, "File too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		http.Error(w, "Only CSV files are allowed", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read file: %v", err), http.StatusInternalServerError)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	ds, err := dataset.ParseCSV(name, data, dataset.ImportOptions{MaxRows: h.Config.Import.MaxRows})
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse CSV: %v", err), http.StatusBadRequest)
		return
	}
	ds.SourceFile = header.Filename

	entry := h.registerDataset(r, ds, header.Filename, "")
	log.Printf("📊 Registered dataset '%s' (%d rows, %d columns)", entry.Name, ds.RowCount(), ds.ColumnCount())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UploadResponse{
		Message:     fmt.Sprintf("File '%s' uploaded successfully", header.Filename),
		Dataset:     entry.Name,
		Rows:        ds.RowCount(),
		Columns:     ds.ColumnCount(),
		ColumnNames: ds.Columns,
	})
}

// LoadSampleDatasets registers the built-in demo datasets
func (h *Handler) LoadSampleDatasets(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	for _, ds := range dataset.Samples() {
		entry := h.registerDataset(r, ds, "sample", "Built-in sample dataset")
		names = append(names, entry.Name)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "Sample datasets loaded",
		"datasets": names,
	})
}

// DatasetInfo summarizes a loaded dataset
type DatasetInfo struct {
	Name        string    `json:"name"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	ColumnNames []string  `json:"column_names"`
	MemoryMB    float64   `json:"memory_mb"`
	Source      string    `json:"source,omitempty"`
	LoadedAt    time.Time `json:"loaded_at"`
	ID          string    `json:"id,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        string    `json:"tags,omitempty"`
}

// ListDatasets returns all loaded datasets with stored metadata
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	entries := h.State.List()
	infos := make([]DatasetInfo, 0, len(entries))
	for _, e := range entries {
		info := DatasetInfo{
			Name:        e.Name,
			Rows:        e.Dataset.RowCount(),
			Columns:     e.Dataset.ColumnCount(),
			ColumnNames: e.Dataset.Columns,
			MemoryMB:    e.Dataset.MemoryMB(),
			Source:      e.Meta.Source,
			LoadedAt:    e.Meta.AddedAt,
			ID:          e.Meta.ID,
			Description: e.Meta.Description,
		}
		if h.Store != nil {
			if meta, ok, err := h.Store.GetDataset(r.Context(), e.Name); err == nil && ok {
				info.ID = meta.ID
				info.Description = meta.Description
				info.Tags = meta.Tags
			}
		}
		infos = append(infos, info)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"datasets": infos,
		"count":    len(infos),
	})
}

// GetDataset returns a preview of a loaded dataset
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	entry, ok := h.State.Get(name)
	if !ok {
		http.Error(w, "Dataset not found", http.StatusNotFound)
		return
	}

	limit := getIntParam(r, "limit", h.Config.Import.PreviewRows)
	if limit <= 0 {
		limit = 10
	}
	rows := entry.Dataset.Rows
	if len(rows) > limit {
		rows = rows[:limit]
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"name":       entry.Name,
		"columns":    entry.Dataset.Columns,
		"rows":       rows,
		"total_rows": entry.Dataset.RowCount(),
	})
}

// DeleteDataset removes a dataset from the session
func (h *Handler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.State.RemoveDataset(name) {
		http.Error(w, "Dataset not found", http.StatusNotFound)
		return
	}
	if h.Store != nil {
		if err := h.Store.DeleteDataset(r.Context(), name); err != nil {
			log.Printf("Failed to delete stored metadata for '%s': %v", name, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": fmt.Sprintf("Dataset '%s' deleted", name),
	})
}

// GetProfile returns per-column type and statistics information
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	entry, ok := h.State.Get(name)
	if !ok {
		http.Error(w, "Dataset not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry.Profile)
}

// GetQuality returns a data quality report for a dataset
func (h *Handler) GetQuality(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	entry, ok := h.State.Get(name)
	if !ok {
		http.Error(w, "Dataset not found", http.StatusNotFound)
		return
	}

	report := analysis.AssessQuality(entry.Dataset, entry.Profile)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// ============================================================================
// Natural Language Queries
// ============================================================================

// QueryRequest is a natural language question about one dataset
type QueryRequest struct {
	Dataset  string `json:"dataset"`
	Question string `json:"question"`
}

// QueryResponse wraps an answer with cache information
type QueryResponse struct {
	*query.AnswerResult
	Dataset string `json:"dataset"`
	Cached  bool   `json:"cached"`
}

// Query answers a natural language question about a dataset
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		http.Error(w, "Question is required", http.StatusBadRequest)
		return
	}

	name := req.Dataset
	if name == "" {
		names := h.State.Names()
		if len(names) == 1 {
			name = names[0]
		} else {
			http.Error(w, "Dataset is required when multiple datasets are loaded", http.StatusBadRequest)
			return
		}
	}

	engine, ok := h.State.Engine(name)
	if !ok {
		http.Error(w, "Dataset not found", http.StatusNotFound)
		return
	}

	result, cached := engine.Ask(req.Question)
	metrics.RecordQuestion(string(result.Intent))
	if cached {
		metrics.RecordCacheHit()
	}
	h.logQuery(r, name, req.Question, string(result.Intent), result.Success)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(QueryResponse{AnswerResult: result, Dataset: name, Cached: cached})
}

// MultiQuery answers a question spanning all loaded datasets
func (h *Handler) MultiQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		http.Error(w, "Question is required", http.StatusBadRequest)
		return
	}
	if h.State.Len() == 0 {
		http.Error(w, "No datasets loaded", http.StatusBadRequest)
		return
	}

	result := h.Router.Answer(req.Question, h.members())
	metrics.RecordQuestion(result.Type)
	h.logQuery(r, "*", req.Question, result.Type, result.Success)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetSuggestions returns suggested questions for a dataset
func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("dataset")
	if name == "" {
		names := h.State.Names()
		if len(names) == 1 {
			name = names[0]
		} else {
			http.Error(w, "Dataset query parameter is required", http.StatusBadRequest)
			return
		}
	}

	engine, ok := h.State.Engine(name)
	if !ok {
		http.Error(w, "Dataset not found", http.StatusNotFound)
		return
	}

	var suggestions []string
	if h.Suggester != nil {
		suggestions = h.Suggester.Suggest(r.Context(), engine)
	} else {
		suggestions = engine.SmartSuggestions()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"dataset":     name,
		"suggestions": suggestions,
	})
}

// GetRecentQueries returns the most recent logged questions
func (h *Handler) GetRecentQueries(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 20)
	records := []store.QueryRecord{}
	if h.Store != nil {
		var err error
		records, err = h.Store.RecentQueries(r.Context(), limit)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to load query history: %v", err), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"queries": records,
		"count":   len(records),
	})
}

// ============================================================================
// Schema Matching
// ============================================================================

// GetCommonColumns returns exact column name matches across datasets
func (h *Handler) GetCommonColumns(w http.ResponseWriter, r *http.Request) {
	common := h.Matcher.CommonColumns(h.State.DatasetColumns())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"common_columns": common,
		"count":          len(common),
	})
}

// GetSimilarColumns returns fuzzy column name matches across datasets
func (h *Handler) GetSimilarColumns(w http.ResponseWriter, r *http.Request) {
	matcher := h.Matcher
	if threshold := getFloatParam(r, "threshold", 0); threshold > 0 {
		matcher = matcher.WithThreshold(threshold)
	}

	similar := matcher.SimilarColumns(h.State.DatasetColumns())

	response := map[string]interface{}{
		"similar_columns": similar,
		"count":           len(similar),
		"threshold":       matcher.Threshold(),
	}

	if r.URL.Query().Get("explain") == "true" {
		explanations := map[string]schema.MatchExplanation{}
		for key, pair := range similar {
			d1, ok1 := h.State.Get(pair.Dataset1)
			d2, ok2 := h.State.Get(pair.Dataset2)
			if !ok1 || !ok2 {
				continue
			}
			a, _ := d1.Dataset.Column(pair.Column1)
			b, _ := d2.Dataset.Column(pair.Column2)
			explanations[key] = schema.ExplainMatch(a, b)
		}
		response["explanations"] = explanations
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetSchemaGraph returns the cross-dataset relationship graph
func (h *Handler) GetSchemaGraph(w http.ResponseWriter, r *http.Request) {
	graph := h.Matcher.Graph(h.State.DatasetColumns())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(graph)
}

// ============================================================================
// Cross-Dataset Analysis
// ============================================================================

// GetCorrelations returns correlation matrices for shared numeric columns
func (h *Handler) GetCorrelations(w http.ResponseWriter, r *http.Request) {
	analyzer := multidata.NewAnalyzer(h.State.Datasets(), h.State.Profiles())
	groups := h.Matcher.CommonColumns(h.State.DatasetColumns())
	correlations := analyzer.CrossCorrelations(groups)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"correlations": correlations,
		"count":        len(correlations),
	})
}

// GetTrends returns time series trends for shared numeric columns
func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	analyzer := multidata.NewAnalyzer(h.State.Datasets(), h.State.Profiles())

	dateGroups := map[string][]schema.ColumnRef{}
	for _, e := range h.State.List() {
		for _, col := range e.Profile.DateColumns() {
			key := strings.ToLower(strings.TrimSpace(col))
			dateGroups[key] = append(dateGroups[key], schema.ColumnRef{Dataset: e.Name, Column: col})
		}
	}
	valueGroups := h.Matcher.CommonColumns(h.State.DatasetColumns())

	trends := analyzer.TrendsAcross(dateGroups, valueGroups)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"trends": trends,
		"count":  len(trends),
	})
}

// GetInsights returns automatically generated cross-dataset observations
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	entries := h.State.List()
	summaries := make([]multidata.DatasetSummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, multidata.Summarize(e.Name, e.Dataset, e.Profile))
	}
	common := h.Matcher.CommonColumns(h.State.DatasetColumns())

	insights := multidata.Insights(summaries, common)
	metrics.RecordInsightGeneration()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"insights":      insights,
		"dataset_count": len(entries),
	})
}

// ============================================================================
// Database Connector
// ============================================================================

// ConnectRequest holds database connection parameters
type ConnectRequest struct {
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// ConnectSource establishes a database connection for table imports
func (h *Handler) ConnectSource(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Type != "" && req.Type != "postgres" {
		http.Error(w, "Only postgres is supported currently", http.StatusBadRequest)
		return
	}

	src := connector.NewPostgresSource(connector.Config{
		Host:     req.Host,
		Port:     req.Port,
		User:     req.User,
		Password: req.Password,
		DBName:   req.DBName,
		SSLMode:  req.SSLMode,
	})
	if err := src.Connect(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("Failed to connect: %v", err), http.StatusInternalServerError)
		return
	}

	if h.Source != nil {
		h.Source.Close()
	}
	h.Source = src

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "connected",
		"database": req.DBName,
	})
}

// ListSourceTables returns the tables available in the connected database
func (h *Handler) ListSourceTables(w http.ResponseWriter, r *http.Request) {
	if h.Source == nil {
		http.Error(w, "No database connection", http.StatusBadRequest)
		return
	}

	tables, err := h.Source.ListTables(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Error listing tables: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"tables": tables,
		"count":  len(tables),
	})
}

// ImportRequest names a database table to load as a dataset
type ImportRequest struct {
	Table string `json:"table"`
	Name  string `json:"name"`
	Limit int    `json:"limit"`
}

// ImportSourceTable loads a database table as a dataset
func (h *Handler) ImportSourceTable(w http.ResponseWriter, r *http.Request) {
	if h.Source == nil {
		http.Error(w, "No database connection", http.StatusBadRequest)
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Table == "" {
		http.Error(w, "Table is required", http.StatusBadRequest)
		return
	}

	ds, err := h.Source.ImportTable(r.Context(), req.Table, req.Limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error importing table: %v", err), http.StatusInternalServerError)
		return
	}
	if req.Name != "" {
		ds.Name = req.Name
	}

	entry := h.registerDataset(r, ds, ds.SourceFile, "Imported from database")
	log.Printf("📊 Imported table '%s' as dataset '%s' (%d rows)", req.Table, entry.Name, ds.RowCount())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UploadResponse{
		Message:     fmt.Sprintf("Table '%s' imported successfully", req.Table),
		Dataset:     entry.Name,
		Rows:        ds.RowCount(),
		Columns:     ds.ColumnCount(),
		ColumnNames: ds.Columns,
	})
}

// ============================================================================
// Internal Helpers
// ============================================================================

func (h *Handler) registerDataset(r *http.Request, ds *dataset.Dataset, source, description string) *state.Entry {
	entry := h.State.AddDataset(ds, state.Meta{
		Source:      source,
		AddedAt:     time.Now().UTC(),
		Description: description,
	})
	metrics.RecordDatasetLoaded()

	if h.Store != nil {
		saved, err := h.Store.SaveDataset(r.Context(), store.DatasetMeta{
			Name:        ds.Name,
			Filename:    source,
			SizeBytes:   ds.MemoryBytes(),
			Rows:        ds.RowCount(),
			Columns:     ds.ColumnCount(),
			Description: description,
		})
		if err != nil {
			log.Printf("Failed to persist metadata for '%s': %v", ds.Name, err)
		} else {
			entry.Meta.ID = saved.ID
		}
	}
	return entry
}

func (h *Handler) logQuery(r *http.Request, datasetName, question, intent string, success bool) {
	if h.Store == nil {
		return
	}
	err := h.Store.LogQuery(r.Context(), store.QueryRecord{
		SessionID: h.SessionID,
		Dataset:   datasetName,
		Question:  question,
		Intent:    intent,
		Success:   success,
	})
	if err != nil {
		log.Printf("Failed to log query: %v", err)
		return
	}
	if err := h.Store.TouchSession(r.Context(), h.SessionID); err != nil {
		log.Printf("Failed to update session: %v", err)
	}
}

func (h *Handler) members() []multidata.Member {
	entries := h.State.List()
	members := make([]multidata.Member, len(entries))
	for i, e := range entries {
		members[i] = multidata.Member{Name: e.Name, Dataset: e.Dataset, Profile: e.Profile}
	}
	return members
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, name string, defaultVal int) int {
	if val := r.URL.Query().Get(name); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getFloatParam extracts a float query parameter with a default value
func getFloatParam(r *http.Request, name string, defaultVal float64) float64 {
	if val := r.URL.Query().Get(name); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

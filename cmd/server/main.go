package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"askdata/internal/api"
	"askdata/internal/config"
	"askdata/internal/dataset"
	"askdata/internal/llm"
	"askdata/internal/metrics"
	"askdata/internal/schema"
	"askdata/internal/state"
	"askdata/internal/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize persistence
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer db.Close()

	sessionID, err := db.CreateSession(context.Background())
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	// Initialize services
	appState := state.NewAppState()
	matcher := schema.NewMatcher(schema.NewSimilarity(cfg.Similarity.Strategy), cfg.Similarity.Threshold)

	var client *llm.Client
	if cfg.Ollama.Enabled {
		client = llm.NewClient(llm.Config{BaseURL: cfg.Ollama.URL, Model: cfg.Ollama.Model})
	}
	suggester := llm.NewQuestionSuggester(client)

	// Initialize handler
	handler := api.NewHandler(appState, db, matcher, suggester, cfg, sessionID)

	// Watch for CSV drops
	if cfg.Watch.Enabled {
		go watchIncoming(context.Background(), appState, db, cfg)
	}

	// Router setup
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// CORS - Allow frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("AskData backend is running"))
	})

	// Prometheus metrics
	r.Handle("/metrics", metrics.Handler())

	// Register all API routes
	handler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("🚀 Starting AskData backend on http://localhost%s", addr)
	log.Printf("📡 CORS enabled for: %s", strings.Join(cfg.Server.CORSOrigins, ", "))
	log.Printf("💾 Metadata store: %s (session %s)", cfg.Storage.Path, sessionID)
	if cfg.Ollama.Enabled {
		log.Printf("🤖 Ollama question suggestions enabled (%s)", cfg.Ollama.Model)
	}
	if cfg.Watch.Enabled {
		log.Printf("📁 Watching for CSV drops in: %s", cfg.Watch.Dir)
	}

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// watchIncoming registers CSV files dropped into the watch directory while
// the server runs.
func watchIncoming(ctx context.Context, appState *state.AppState, db *store.Store, cfg *config.Config) {
	watcher, err := dataset.NewWatcher()
	if err != nil {
		log.Printf("Watcher disabled: %v", err)
		return
	}
	defer watcher.Close()

	events, err := watcher.Watch(ctx, cfg.Watch.Dir)
	if err != nil {
		log.Printf("Watcher disabled: %v", err)
		return
	}

	for event := range events {
		if info, err := dataset.ProbeFile(event.Path); err == nil {
			if cfg.Import.MaxRows > 0 && info.EstimatedRows > int64(cfg.Import.MaxRows) {
				log.Printf("📏 %s: ~%d rows estimated, sampling down to %d", event.Path, info.EstimatedRows, cfg.Import.MaxRows)
			}
		}
		ds, err := dataset.LoadCSVFile(event.Path, dataset.ImportOptions{MaxRows: cfg.Import.MaxRows})
		if err != nil {
			log.Printf("Failed to ingest %s: %v", event.Path, err)
			continue
		}
		appState.AddDataset(ds, state.Meta{
			Source:      event.Path,
			AddedAt:     time.Now().UTC(),
			Description: "Ingested from watch directory",
		})
		metrics.RecordDatasetLoaded()
		if _, err := db.SaveDataset(ctx, store.DatasetMeta{
			Name:      ds.Name,
			Filename:  event.Path,
			SizeBytes: ds.MemoryBytes(),
			Rows:      ds.RowCount(),
			Columns:   ds.ColumnCount(),
		}); err != nil {
			log.Printf("Failed to persist metadata for '%s': %v", ds.Name, err)
		}
		log.Printf("📊 Ingested dataset '%s' from %s (%d rows)", ds.Name, event.Path, ds.RowCount())
	}
}

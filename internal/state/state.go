package state

import (
	"sync"
	"time"

	"askdata/internal/analysis"
	"askdata/internal/dataset"
	"askdata/internal/query"
	"askdata/internal/schema"
)

// Meta records how a dataset entered the registry.
type Meta struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	AddedAt     time.Time `json:"added_at"`
	Description string    `json:"description,omitempty"`
}

// Entry is one registered dataset with its profile and metadata.
type Entry struct {
	Name    string
	Dataset *dataset.Dataset
	Profile *analysis.DatasetProfile
	Meta    Meta
}

// AppState is the in-memory dataset registry. Every handler shares one
// injected instance; all access goes through the mutex.
type AppState struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*Entry
	engines map[string]*query.Engine
}

// NewAppState creates an empty registry.
func NewAppState() *AppState {
	return &AppState{
		entries: make(map[string]*Entry),
		engines: make(map[string]*query.Engine),
	}
}

// AddDataset profiles and registers a dataset under its name. Replacing an
// existing name keeps its registry position and discards the old answer
// cache, since cached answers describe the old rows.
func (s *AppState) AddDataset(ds *dataset.Dataset, meta Meta) *Entry {
	prof := analysis.ProfileDataset(ds)
	entry := &Entry{Name: ds.Name, Dataset: ds, Profile: prof, Meta: meta}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[ds.Name]; !exists {
		s.order = append(s.order, ds.Name)
	}
	s.entries[ds.Name] = entry
	s.engines[ds.Name] = query.NewEngine(ds, prof)
	return entry
}

// RemoveDataset drops a dataset, reporting whether it was present.
func (s *AppState) RemoveDataset(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; !ok {
		return false
	}
	delete(s.entries, name)
	delete(s.engines, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Get retrieves one entry by name.
func (s *AppState) Get(name string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[name]
	return entry, ok
}

// Engine retrieves the query engine for a dataset.
func (s *AppState) Engine(name string) (*query.Engine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engine, ok := s.engines[name]
	return engine, ok
}

// List returns every entry in registry order.
func (s *AppState) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.entries[name])
	}
	return out
}

// Names returns the dataset names in registry order.
func (s *AppState) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len reports how many datasets are registered.
func (s *AppState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// DatasetColumns adapts the registry for the schema matcher, in registry
// order.
func (s *AppState) DatasetColumns() []schema.DatasetColumns {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.DatasetColumns, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, schema.DatasetColumns{
			Name:    name,
			Columns: s.entries[name].Dataset.Columns,
		})
	}
	return out
}

// Datasets returns a name-to-dataset view for the cross-dataset analyzer.
func (s *AppState) Datasets() map[string]*dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*dataset.Dataset, len(s.entries))
	for name, entry := range s.entries {
		out[name] = entry.Dataset
	}
	return out
}

// Profiles returns a name-to-profile view for the cross-dataset analyzer.
func (s *AppState) Profiles() map[string]*analysis.DatasetProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*analysis.DatasetProfile, len(s.entries))
	for name, entry := range s.entries {
		out[name] = entry.Profile
	}
	return out
}

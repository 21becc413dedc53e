package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// WatchEvent signals a CSV file appearing or changing in a watched
// directory.
type WatchEvent struct {
	Path string
}

// Watcher monitors a drop directory and emits events for CSV files so the
// caller can ingest them into the registry.
type Watcher struct {
	watcher *fsnotify.Watcher
}

// NewWatcher creates a directory watcher.
func NewWatcher() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{watcher: w}, nil
}

// Watch starts monitoring dir until ctx is cancelled. Create and Write
// events for .csv files are delivered; everything else is filtered out.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan WatchEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	events := make(chan WatchEvent, 16)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !isCSV(event.Name) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				select {
				case events <- WatchEvent{Path: event.Name}:
				case <-ctx.Done():
					return
				}
			case _, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return events, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

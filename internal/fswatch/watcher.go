// Package fswatch adapts github.com/fsnotify/fsnotify to the
// filewatch.Watcher interface.
package fswatch

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/fabricmesh/peerfabric/internal/ferr"
	"github.com/fabricmesh/peerfabric/internal/filewatch"
)

// Watcher wraps one fsnotify.Watcher, translating its event stream into
// filewatch.Event: Create becomes EventCreate, Remove and Rename (the old
// name going away) become EventRemove, and Write and Chmod are dropped.
type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan filewatch.Event
}

// New starts a background pump goroutine and returns a ready-to-use
// Watcher. Call Close to release both the underlying OS watch and the
// pump goroutine.
func New() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferr.Wrap("open", "fsnotify", err)
	}
	w := &Watcher{fsw: fsw, events: make(chan filewatch.Event, 64)}
	go w.pump()
	return w, nil
}

func (w *Watcher) pump() {
	defer close(w.events)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			switch {
			case ev.Op&fsnotify.Create != 0:
				w.events <- filewatch.Event{Path: ev.Name, Kind: filewatch.EventCreate}
			case ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0:
				w.events <- filewatch.Event{Path: ev.Name, Kind: filewatch.EventRemove}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("fswatch: watcher error", "err", err)
		}
	}
}

func (w *Watcher) Watch(dir string) error         { return w.fsw.Add(dir) }
func (w *Watcher) Unwatch(dir string) error       { return w.fsw.Remove(dir) }
func (w *Watcher) Events() <-chan filewatch.Event { return w.events }
func (w *Watcher) Close() error                   { return w.fsw.Close() }

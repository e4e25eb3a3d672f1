// Package filewatch implements the Client/Controller halves of the
// file-watch subsystem (spec.md C8). The underlying directory watcher
// is abstracted behind the Watcher interface so the logic here can be
// tested without touching a real filesystem notifier; internal/fswatch
// provides the fsnotify-backed implementation used in production.
package filewatch

// EventKind discriminates the two watcher events spec.md §4.8 cares
// about — a rename or a write-then-close both surface as one or the
// other depending on the platform, which filewatch does not attempt to
// normalize further.
type EventKind int

const (
	EventCreate EventKind = iota
	EventRemove
)

// Event is one filesystem change, already resolved to an absolute path.
type Event struct {
	Path string
	Kind EventKind
}

// Watcher is the external directory-watching collaborator. Implementations
// must be non-recursive: Watch only reports direct children of dir.
type Watcher interface {
	Watch(dir string) error
	Unwatch(dir string) error
	Events() <-chan Event
	Close() error
}

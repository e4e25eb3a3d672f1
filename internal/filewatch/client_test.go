package filewatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fabricmesh/peerfabric/internal/protocol"
)

type fakeWatcher struct {
	watched   []string
	unwatched []string
	events    chan Event
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan Event, 16)}
}

func (f *fakeWatcher) Watch(dir string) error   { f.watched = append(f.watched, dir); return nil }
func (f *fakeWatcher) Unwatch(dir string) error { f.unwatched = append(f.unwatched, dir); return nil }
func (f *fakeWatcher) Events() <-chan Event     { return f.events }
func (f *fakeWatcher) Close() error             { return nil }

func makeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644)
	os.MkdirAll(filepath.Join(root, "sub"), 0o755)
	os.WriteFile(filepath.Join(root, "sub", "b.png"), []byte("b"), 0o644)
	deep := filepath.Join(root, "1", "2", "3", "4", "5")
	os.MkdirAll(deep, 0o755)
	os.WriteFile(filepath.Join(deep, "too-deep.txt"), []byte("x"), 0o644)
	return root
}

func TestWatchSendsListingToExistingSubscribers(t *testing.T) {
	root := makeTree(t)
	var sent []protocol.Envelope
	w := newFakeWatcher()
	c := NewClient("self", w, func(env protocol.Envelope) { sent = append(sent, env) })

	if err := c.RegisterListener("sub-1"); err != nil {
		t.Fatal(err)
	}
	sent = nil // discard the register-time ProvideFiles

	if err := c.Watch(root); err != nil {
		t.Fatal(err)
	}
	if len(w.watched) != 1 || w.watched[0] != root {
		t.Fatalf("expected watcher.Watch(%q), got %v", root, w.watched)
	}
	if len(sent) != 1 || sent[0].Command.Kind != protocol.CommandProvideFiles {
		t.Fatalf("expected one ProvideFiles to the existing subscriber, got %+v", sent)
	}

	paths := map[string]bool{}
	for _, e := range sent[0].Command.Entries {
		paths[e.Path] = true
	}
	if !paths[filepath.Join("sub", "b.png")] || !paths["a.txt"] {
		t.Fatalf("expected a.txt and sub/b.png in the listing, got %+v", sent[0].Command.Entries)
	}
	for p := range paths {
		if filepath.Base(p) == "too-deep.txt" {
			t.Fatalf("listing should not include paths beyond depth 4: %v", paths)
		}
	}
}

func TestWatchSwitchesDirectory(t *testing.T) {
	rootA, rootB := t.TempDir(), t.TempDir()
	w := newFakeWatcher()
	c := NewClient("self", w, func(protocol.Envelope) {})

	if err := c.Watch(rootA); err != nil {
		t.Fatal(err)
	}
	if err := c.Watch(rootB); err != nil {
		t.Fatal(err)
	}
	if len(w.unwatched) != 1 || w.unwatched[0] != rootA {
		t.Fatalf("expected rootA to be unwatched, got %v", w.unwatched)
	}
	if len(w.watched) != 2 || w.watched[1] != rootB {
		t.Fatalf("expected watch sequence [rootA rootB], got %v", w.watched)
	}
}

func TestRegisterAndDeregisterListener(t *testing.T) {
	root := makeTree(t)
	w := newFakeWatcher()
	var sent []protocol.Envelope
	c := NewClient("self", w, func(env protocol.Envelope) { sent = append(sent, env) })
	if err := c.Watch(root); err != nil {
		t.Fatal(err)
	}

	if err := c.RegisterListener("peer-1"); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 {
		t.Fatalf("expected a ProvideFiles on registration, got %+v", sent)
	}

	c.DeregisterListener("peer-1")
	sent = nil
	if err := c.HandleEvent(Event{Path: filepath.Join(root, "new.txt"), Kind: EventCreate}); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 0 {
		t.Fatalf("expected no fan-out after deregistration, got %+v", sent)
	}
}

func TestHandleEventEmitsUpdateFile(t *testing.T) {
	root := makeTree(t)
	w := newFakeWatcher()
	var sent []protocol.Envelope
	c := NewClient("self", w, func(env protocol.Envelope) { sent = append(sent, env) })
	if err := c.Watch(root); err != nil {
		t.Fatal(err)
	}
	if err := c.RegisterListener("peer-1"); err != nil {
		t.Fatal(err)
	}
	sent = nil

	if err := c.HandleEvent(Event{Path: filepath.Join(root, "new.txt"), Kind: EventCreate}); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 || sent[0].Command.Kind != protocol.CommandUpdateFile || !sent[0].Command.Add {
		t.Fatalf("expected an additive UpdateFile, got %+v", sent)
	}
	if sent[0].Command.Entry.Path != "new.txt" {
		t.Fatalf("expected relative path new.txt, got %q", sent[0].Command.Entry.Path)
	}

	sent = nil
	if err := c.HandleEvent(Event{Path: filepath.Join(root, "a.txt"), Kind: EventRemove}); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 || sent[0].Command.Add {
		t.Fatalf("expected a non-additive UpdateFile for a removal, got %+v", sent)
	}
}

package filewatch

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fabricmesh/peerfabric/internal/protocol"
)

const maxListingDepth = 4

// Client is the watched side of spec.md C8: it owns one directory, a
// watcher on it, and the set of peers subscribed to updates.
type Client struct {
	selfID  protocol.PeerId
	emit    func(protocol.Envelope)
	watcher Watcher

	mu          sync.Mutex
	currentDir  string
	subscribers []protocol.PeerId
}

func NewClient(selfID protocol.PeerId, w Watcher, emit func(protocol.Envelope)) *Client {
	return &Client{selfID: selfID, watcher: w, emit: emit}
}

func (c *Client) reply(to protocol.PeerId, cmd protocol.Command) {
	c.emit(protocol.Envelope{Command: cmd, Destination: protocol.SingleDest(to)})
}

// Watch switches the watched directory: unwatches any previous path,
// watches newPath non-recursively, and — if subscribers already
// exist — pushes each of them a fresh ProvideFiles listing.
func (c *Client) Watch(newPath string) error {
	c.mu.Lock()
	previous := c.currentDir
	c.currentDir = newPath
	subs := append([]protocol.PeerId(nil), c.subscribers...)
	c.mu.Unlock()

	if previous != "" {
		if err := c.watcher.Unwatch(previous); err != nil {
			return err
		}
	}
	if err := c.watcher.Watch(newPath); err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	entries, err := c.listing()
	if err != nil {
		return err
	}
	for _, peer := range subs {
		c.reply(peer, protocol.Command{Kind: protocol.CommandProvideFiles, Owner: c.selfID, Entries: entries})
	}
	return nil
}

// RegisterListener sends peer the current listing and adds it to the
// subscriber set.
func (c *Client) RegisterListener(peer protocol.PeerId) error {
	entries, err := c.listing()
	if err != nil {
		return err
	}
	c.reply(peer, protocol.Command{Kind: protocol.CommandProvideFiles, Owner: c.selfID, Entries: entries})

	c.mu.Lock()
	c.subscribers = append(c.subscribers, peer)
	c.mu.Unlock()
	return nil
}

// DeregisterListener removes peer from the subscriber set, e.g. on that
// peer's NotifyDisconnect.
func (c *Client) DeregisterListener(peer protocol.PeerId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.subscribers[:0]
	for _, p := range c.subscribers {
		if p != peer {
			out = append(out, p)
		}
	}
	c.subscribers = out
}

// HandleEvent turns one watcher Event into an UpdateFile fan-out to every
// subscriber.
func (c *Client) HandleEvent(ev Event) error {
	c.mu.Lock()
	dir := c.currentDir
	subs := append([]protocol.PeerId(nil), c.subscribers...)
	c.mu.Unlock()

	rel, err := filepath.Rel(dir, ev.Path)
	if err != nil {
		return err
	}
	entry := protocol.FileEntry{Path: rel, FileType: extensionOf(ev.Path)}
	add := ev.Kind == EventCreate

	for _, peer := range subs {
		c.reply(peer, protocol.Command{Kind: protocol.CommandUpdateFile, Owner: c.selfID, Entry: entry, Add: add})
	}
	return nil
}

// Run drains watcher events until its channel closes, feeding each one to
// HandleEvent. Intended to run in its own goroutine for the Client's
// lifetime.
func (c *Client) Run() error {
	for ev := range c.watcher.Events() {
		if err := c.HandleEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// listing walks the current directory up to maxListingDepth, returning
// files only (spec.md §4.8), each as a path relative to the root plus
// its extension. With no directory watched yet the listing is empty.
func (c *Client) listing() ([]protocol.FileEntry, error) {
	c.mu.Lock()
	root := c.currentDir
	c.mu.Unlock()

	entries := []protocol.FileEntry{}
	if root == "" {
		return entries, nil
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		depth := len(strings.Split(filepath.ToSlash(rel), "/"))
		if depth > maxListingDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		entries = append(entries, protocol.FileEntry{Path: rel, FileType: extensionOf(path)})
		return nil
	})
	return entries, err
}

func extensionOf(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

package filewatch

import (
	"sync"

	"github.com/fabricmesh/peerfabric/internal/protocol"
)

// Controller is the subscribing side of spec.md C8: the PeerDirectory
// `files` field, `PeerId -> (file_type -> ordered list of paths)`.
type Controller struct {
	mu    sync.RWMutex
	files map[protocol.PeerId]map[string][]string
}

func NewController() *Controller {
	return &Controller{files: make(map[protocol.PeerId]map[string][]string)}
}

// HandleProvideFiles replaces owner's file map wholesale.
func (c *Controller) HandleProvideFiles(owner protocol.PeerId, entries []protocol.FileEntry) {
	byType := make(map[string][]string)
	for _, e := range entries {
		byType[e.FileType] = append(byType[e.FileType], e.Path)
	}
	c.mu.Lock()
	c.files[owner] = byType
	c.mu.Unlock()
}

// HandleUpdateFile appends or removes entry from owner's per-type list.
// A no-op if owner has no recorded map yet (spec.md §4.8).
func (c *Controller) HandleUpdateFile(owner protocol.PeerId, entry protocol.FileEntry, add bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byType, ok := c.files[owner]
	if !ok {
		return
	}

	if add {
		byType[entry.FileType] = append(byType[entry.FileType], entry.Path)
		return
	}

	list := byType[entry.FileType]
	out := list[:0]
	for _, p := range list {
		if p != entry.Path {
			out = append(out, p)
		}
	}
	byType[entry.FileType] = out
}

// Files returns a defensive copy of owner's recorded file map.
func (c *Controller) Files(owner protocol.PeerId) map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	byType, ok := c.files[owner]
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(byType))
	for ft, paths := range byType {
		out[ft] = append([]string(nil), paths...)
	}
	return out
}

// Forget drops owner's recorded file map, e.g. on NotifyDisconnect.
func (c *Controller) Forget(owner protocol.PeerId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, owner)
}

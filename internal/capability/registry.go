package capability

import (
	"sync"

	"github.com/fabricmesh/peerfabric/internal/protocol"
)

// Registry is a Controller's view of every peer's advertised capability
// set (spec.md §4.7, the `capabilities` field of PeerDirectory). Safe
// for concurrent use — a Controller's UI goroutine reads it while the
// peer connection's event loop writes it.
type Registry struct {
	mu   sync.RWMutex
	sets map[protocol.PeerId][]protocol.Capability
}

func NewRegistry() *Registry {
	return &Registry{sets: make(map[protocol.PeerId][]protocol.Capability)}
}

// Set records peer's advertised capability list, replacing any prior
// entry (a fresh ProvideCapabilities always wins — spec.md has no
// incremental capability update).
func (r *Registry) Set(peer protocol.PeerId, caps []protocol.Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[peer] = append([]protocol.Capability(nil), caps...)
}

// Get returns peer's known capability set, or false if none has arrived
// yet (the Controller should send RequestCapabilities first).
func (r *Registry) Get(peer protocol.PeerId) ([]protocol.Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	caps, ok := r.sets[peer]
	return append([]protocol.Capability(nil), caps...), ok
}

// Has reports whether peer has advertised capability c.
func (r *Registry) Has(peer protocol.PeerId, c protocol.Capability) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, have := range r.sets[peer] {
		if have == c {
			return true
		}
	}
	return false
}

// Forget drops a peer's capability set, e.g. on NotifyDisconnect.
func (r *Registry) Forget(peer protocol.PeerId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sets, peer)
}

// Snapshot returns a defensive copy of the whole registry, for UI
// rendering or the warm-start cache.
func (r *Registry) Snapshot() map[protocol.PeerId][]protocol.Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[protocol.PeerId][]protocol.Capability, len(r.sets))
	for peer, caps := range r.sets {
		out[peer] = append([]protocol.Capability(nil), caps...)
	}
	return out
}

// Load replaces the registry's contents wholesale, e.g. from a warm-start
// cache read at process startup.
func (r *Registry) Load(sets map[protocol.PeerId][]protocol.Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets = make(map[protocol.PeerId][]protocol.Capability, len(sets))
	for peer, caps := range sets {
		r.sets[peer] = append([]protocol.Capability(nil), caps...)
	}
}

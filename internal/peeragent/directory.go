// Package peeragent wires the domain packages (protocol, peerconn,
// capability, transfer, filewatch, settings) into the two peer roles
// spec.md §1 describes: Client and Controller. Grounded on the teacher's
// cli/cmd/session.go ConnectionContext — one struct per process owning
// the live connection and the collaborators that read and write it — but
// generalized from a single WebRTC session to the fabric's long-lived
// multi-peer directory.
package peeragent

import (
	"sync"

	"github.com/fabricmesh/peerfabric/internal/protocol"
)

// Directory is a peer's local view of who else is connected, built from
// ActiveConnections/UpdateConnection/NotifyDisconnect (spec.md §4.2). Both
// roles keep one; only a Controller additionally keeps capability and
// file state per peer (internal/capability.Registry, internal/filewatch.Controller).
type Directory struct {
	mu    sync.RWMutex
	peers map[protocol.PeerId]protocol.ConnectionInfo
}

func NewDirectory() *Directory {
	return &Directory{peers: make(map[protocol.PeerId]protocol.ConnectionInfo)}
}

// ReplaceAll installs the result of a GetConnections round-trip wholesale.
func (d *Directory) ReplaceAll(list []protocol.ConnectionInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.peers = make(map[protocol.PeerId]protocol.ConnectionInfo, len(list))
	for _, info := range list {
		d.peers[info.PeerId] = info
	}
}

// Upsert applies one UpdateConnection — the Hub fans these out to every
// peer regardless of the envelope's destination field (spec.md §9), so
// the caller must not filter on it before reaching here.
func (d *Directory) Upsert(info protocol.ConnectionInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.peers[info.PeerId] = info
}

// Remove drops a peer on NotifyDisconnect.
func (d *Directory) Remove(id protocol.PeerId) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.peers, id)
}

// Get returns one peer's known info.
func (d *Directory) Get(id protocol.PeerId) (protocol.ConnectionInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.peers[id]
	return info, ok
}

// Snapshot returns every known peer.
func (d *Directory) Snapshot() []protocol.ConnectionInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]protocol.ConnectionInfo, 0, len(d.peers))
	for _, info := range d.peers {
		out = append(out, info)
	}
	return out
}

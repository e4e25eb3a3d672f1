// Package settings implements the gateway spec.md §4.9 describes: a
// named-setting edit drives persistence plus whatever side effect that
// name carries (reconnect, re-broadcast, re-derive a boolean, rewatch a
// directory). Grounded on
// original_source/example-communication-client/src/settings.rs
// (MyConfig::on_setting_edited) and its Controller counterpart, merged
// into one switch on the setting name that both roles share.
package settings

import (
	"github.com/fabricmesh/peerfabric/internal/configstore"
	"github.com/fabricmesh/peerfabric/internal/peerconn"
	"github.com/fabricmesh/peerfabric/internal/protocol"
)

// Names recognized by at least one role, per spec.md §4.9's table.
const (
	ClientName           = "client_name"
	Address              = "address"
	Key                  = "key"
	SoundSource          = "sound_source"
	FileTransferLocation = "file_transfer_location"
)

// Watcher is the narrow slice of filewatch.Client the gateway needs; kept
// as an interface so the gateway can be tested without a real directory.
type Watcher interface {
	Watch(path string) error
}

// Gateway applies a named setting edit: persist the new value, then run
// whatever derived effect that name carries. Unknown names are no-ops,
// per spec.md §4.9 and §7.
type Gateway struct {
	store  *configstore.FileStore
	selfID protocol.PeerId
	role   protocol.Role
	emit   func(protocol.Envelope)
	signal *peerconn.ReconnectSignal
	watch  Watcher

	// PlaySound and AcceptFileTransfer are derived booleans the UI reads;
	// they are not themselves persisted settings, per spec.md §4.9.
	PlaySound          bool
	AcceptFileTransfer bool
}

// New builds a Gateway. watch may be nil (only a Client has a watched
// directory); an edit of file_transfer_location then persists the value
// and re-derives AcceptFileTransfer without rewatching anything.
func New(store *configstore.FileStore, selfID protocol.PeerId, role protocol.Role, emit func(protocol.Envelope), signal *peerconn.ReconnectSignal, watch Watcher) *Gateway {
	g := &Gateway{store: store, selfID: selfID, role: role, emit: emit, signal: signal, watch: watch}
	if v, ok := store.Get(SoundSource); ok {
		g.PlaySound = v != ""
	}
	if v, ok := store.Get(FileTransferLocation); ok {
		g.AcceptFileTransfer = v != ""
	}
	return g
}

// Edit applies one setting edit by name. For client_name, value becomes the
// DisplayName in the UpdateConnection envelope that re-announces the peer.
func (g *Gateway) Edit(name, value string) error {
	if err := g.store.Set(name, value); err != nil {
		return err
	}

	switch name {
	case ClientName:
		g.emit(protocol.Envelope{
			Command: protocol.Command{
				Kind: protocol.CommandUpdateConnection,
				Info: protocol.ConnectionInfo{PeerId: g.selfID, DisplayName: value, Role: g.role},
			},
			Destination: protocol.NoneDest(),
		})

	case Address, Key:
		g.signal.Trip()

	case SoundSource:
		g.PlaySound = value != ""

	case FileTransferLocation:
		if g.watch != nil {
			if err := g.watch.Watch(value); err != nil {
				return err
			}
		}
		g.AcceptFileTransfer = value != ""

	default:
		// Unknown setting: persisted above, no further effect.
	}
	return nil
}

// Get returns the currently stored value for name, if any.
func (g *Gateway) Get(name string) (string, bool) {
	return g.store.Get(name)
}

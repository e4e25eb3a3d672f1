package settings

import (
	"path/filepath"
	"testing"

	"github.com/fabricmesh/peerfabric/internal/configstore"
	"github.com/fabricmesh/peerfabric/internal/peerconn"
	"github.com/fabricmesh/peerfabric/internal/protocol"
)

type fakeWatch struct {
	paths []string
}

func (f *fakeWatch) Watch(path string) error {
	f.paths = append(f.paths, path)
	return nil
}

func newGateway(t *testing.T) (*Gateway, *fakeWatch, *peerconn.ReconnectSignal) {
	t.Helper()
	store, err := configstore.Open(filepath.Join(t.TempDir(), "play_with_me"))
	if err != nil {
		t.Fatal(err)
	}
	signal := peerconn.NewReconnectSignal()
	w := &fakeWatch{}
	g := New(store, "self-id", protocol.RoleClient, func(protocol.Envelope) {}, signal, w)
	return g, w, signal
}

func TestClientNameBroadcastsUpdateConnectionWithNoneDestination(t *testing.T) {
	g, _, _ := newGateway(t)
	var sent []protocol.Envelope
	g.emit = func(env protocol.Envelope) { sent = append(sent, env) }

	if err := g.Edit(ClientName, "Alice"); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 {
		t.Fatalf("expected one emitted envelope, got %d", len(sent))
	}
	cmd := sent[0].Command
	if cmd.Kind != protocol.CommandUpdateConnection || cmd.Info.DisplayName != "Alice" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if sent[0].Destination.Kind != protocol.DestNone {
		t.Fatalf("expected Destination::None, got %+v", sent[0].Destination)
	}
	if v, ok := g.Get(ClientName); !ok || v != "Alice" {
		t.Fatalf("expected client_name persisted, got %q, %v", v, ok)
	}
}

func TestAddressAndKeyTripReconnectSignal(t *testing.T) {
	g, _, signal := newGateway(t)

	if err := g.Edit(Address, "ws://new-host:8080/ws"); err != nil {
		t.Fatal(err)
	}
	if !signal.TryWait() {
		t.Fatal("expected address edit to trip the reconnect signal")
	}

	if err := g.Edit(Key, "secret"); err != nil {
		t.Fatal(err)
	}
	if !signal.TryWait() {
		t.Fatal("expected key edit to trip the reconnect signal")
	}
}

func TestSoundSourceDerivesPlaySound(t *testing.T) {
	g, _, _ := newGateway(t)

	if err := g.Edit(SoundSource, "/sounds/ding.wav"); err != nil {
		t.Fatal(err)
	}
	if !g.PlaySound {
		t.Fatal("expected PlaySound true for a nonempty sound_source")
	}

	if err := g.Edit(SoundSource, ""); err != nil {
		t.Fatal(err)
	}
	if g.PlaySound {
		t.Fatal("expected PlaySound false for an empty sound_source")
	}
}

func TestFileTransferLocationInvokesWatchAndDerivesAccept(t *testing.T) {
	g, w, _ := newGateway(t)

	if err := g.Edit(FileTransferLocation, "/downloads"); err != nil {
		t.Fatal(err)
	}
	if len(w.paths) != 1 || w.paths[0] != "/downloads" {
		t.Fatalf("expected watch(/downloads), got %v", w.paths)
	}
	if !g.AcceptFileTransfer {
		t.Fatal("expected AcceptFileTransfer true for a nonempty location")
	}
}

func TestUnknownSettingIsPersistedButHasNoEffect(t *testing.T) {
	g, w, signal := newGateway(t)

	if err := g.Edit("some_future_setting", "x"); err != nil {
		t.Fatal(err)
	}
	if v, ok := g.Get("some_future_setting"); !ok || v != "x" {
		t.Fatalf("expected unknown setting to still persist, got %q, %v", v, ok)
	}
	if len(w.paths) != 0 {
		t.Fatal("unknown setting should not invoke watch")
	}
	if signal.TryWait() {
		t.Fatal("unknown setting should not trip the reconnect signal")
	}
}

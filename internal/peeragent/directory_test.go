package peeragent

import (
	"testing"

	"github.com/fabricmesh/peerfabric/internal/protocol"
)

func TestDirectoryReplaceUpsertRemove(t *testing.T) {
	d := NewDirectory()
	d.ReplaceAll([]protocol.ConnectionInfo{
		{PeerId: "a", DisplayName: "Alice", Role: protocol.RoleClient},
		{PeerId: "b", DisplayName: "Bob", Role: protocol.RoleController},
	})
	if len(d.Snapshot()) != 2 {
		t.Fatalf("expected 2 peers after ReplaceAll, got %d", len(d.Snapshot()))
	}

	d.Upsert(protocol.ConnectionInfo{PeerId: "c", DisplayName: "Carol", Role: protocol.RoleClient})
	if _, ok := d.Get("c"); !ok {
		t.Fatal("expected Carol to be present after Upsert")
	}

	d.Remove("a")
	if _, ok := d.Get("a"); ok {
		t.Fatal("expected Alice to be gone after Remove")
	}
	if len(d.Snapshot()) != 2 {
		t.Fatalf("expected 2 peers after Remove, got %d", len(d.Snapshot()))
	}
}

func TestDirectoryUpsertOverwritesExisting(t *testing.T) {
	d := NewDirectory()
	d.Upsert(protocol.ConnectionInfo{PeerId: "a", DisplayName: "Old Name", Role: protocol.RoleClient})
	d.Upsert(protocol.ConnectionInfo{PeerId: "a", DisplayName: "New Name", Role: protocol.RoleClient})

	info, ok := d.Get("a")
	if !ok || info.DisplayName != "New Name" {
		t.Fatalf("expected overwritten display name, got %+v, %v", info, ok)
	}
}

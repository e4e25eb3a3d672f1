package protocol

import (
	"encoding/json"
	"testing"
)

func peerA() PeerId { return PeerId("11111111-1111-4111-8111-111111111111") }
func peerB() PeerId { return PeerId("22222222-2222-4222-8222-222222222222") }

func roundTrip(t *testing.T, e Envelope) Envelope {
	t.Helper()
	data, err := Encode(e)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v (frame %s)", err, data)
	}
	return out
}

func TestEnvelopeRoundTripCommands(t *testing.T) {
	info := ConnectionInfo{PeerId: peerA(), DisplayName: "alice", Role: RoleClient}

	cases := []struct {
		name string
		env  Envelope
	}{
		{"Welcome", Envelope{Command: Command{Kind: CommandWelcome, PeerId: peerA()}, Destination: SingleDest(peerA())}},
		{"SetConnectionInfo", Envelope{Command: Command{Kind: CommandSetConnectionInfo, Info: info}, Destination: NoneDest()}},
		{"GetConnections", Envelope{Command: Command{Kind: CommandGetConnections, ReplyTo: peerA()}, Destination: NoneDest()}},
		{"ActiveConnections", Envelope{Command: Command{Kind: CommandActiveConnections, List: []ConnectionInfo{info}}, Destination: SingleDest(peerA())}},
		{"ActiveConnectionsEmpty", Envelope{Command: Command{Kind: CommandActiveConnections, List: nil}, Destination: SingleDest(peerA())}},
		{"UpdateConnection", Envelope{Command: Command{Kind: CommandUpdateConnection, Info: info}, Destination: SingleDest(peerA())}},
		{"NotifyDisconnect", Envelope{Command: Command{Kind: CommandNotifyDisconnect, PeerId: peerB()}, Destination: AllDest()}},
		{"Disconnect", Envelope{Command: Command{Kind: CommandDisconnect}, Destination: NoneDest()}},
		{"Ack", Envelope{Command: Command{Kind: CommandAck}, Destination: SingleDest(peerA())}},
		{"RequestCapabilities", Envelope{Command: Command{Kind: CommandRequestCapabilities, ReplyTo: peerA()}, Destination: SingleDest(peerB())}},
		{"ProvideCapabilities", Envelope{Command: Command{
			Kind: CommandProvideCapabilities, Sender: peerB(),
			Capabilities: []Capability{CapabilityMessage, CapabilityTransferFile, CapabilityDeleteFile},
		}, Destination: SingleDest(peerA())}},
		{"ControlMessage", Envelope{Command: Command{Kind: CommandControl, Control: ControlMessage{Kind: ControlMessageText, Text: "hi"}}, Destination: SingleDest(peerB())}},
		{"ControlTransferFile", Envelope{Command: Command{Kind: CommandControl, Control: ControlMessage{Kind: ControlTransferFile}}, Destination: SingleDest(peerB())}},
		{"ControlDeleteFile", Envelope{Command: Command{Kind: CommandControl, Control: ControlMessage{Kind: ControlDeleteFile, Path: "a/b.txt"}}, Destination: SingleDest(peerB())}},
		{"StartFileTransfer", Envelope{Command: Command{
			Kind: CommandStartFileTransfer, Name: "a.bin", ChunkCount: 3, BlobSize: 1024, Checksum: "abc123", ReturnTo: peerA(),
		}, Destination: SingleDest(peerB())}},
		{"FileTransferBlob", Envelope{Command: Command{
			Kind: CommandFileTransferBlob, Name: "a.bin", ChunkNum: 2, Bytes: []byte{1, 2, 3}, ReturnTo: peerA(),
		}, Destination: SingleDest(peerB())}},
		{"FileTransferAck", Envelope{Command: Command{Kind: CommandFileTransferAck, Name: "a.bin", Start: true, ChunkNum: 0, Whole: false}, Destination: SingleDest(peerA())}},
		{"FileTransferNack", Envelope{Command: Command{Kind: CommandFileTransferNack, Name: "a.bin", Start: false, ChunkNum: 1, Whole: true}, Destination: SingleDest(peerA())}},
		{"AddFileWatch", Envelope{Command: Command{Kind: CommandAddFileWatch, ReplyTo: peerA()}, Destination: SingleDest(peerB())}},
		{"ProvideFiles", Envelope{Command: Command{
			Kind: CommandProvideFiles, Owner: peerB(), Entries: []FileEntry{{Path: "x/y.txt", FileType: "txt"}},
		}, Destination: SingleDest(peerA())}},
		{"UpdateFile", Envelope{Command: Command{
			Kind: CommandUpdateFile, Owner: peerB(), Entry: FileEntry{Path: "x/y.txt", FileType: "txt"}, Add: true,
		}, Destination: SingleDest(peerA())}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := roundTrip(t, tc.env)
			if out.Command.Kind != tc.env.Command.Kind {
				t.Fatalf("kind mismatch: got %q want %q", out.Command.Kind, tc.env.Command.Kind)
			}
			gotJSON, _ := json.Marshal(out)
			wantJSON, _ := json.Marshal(tc.env)
			if string(gotJSON) != string(wantJSON) {
				t.Fatalf("round-trip mismatch:\n got  %s\n want %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestEnvelopeUnknownCommandIgnored(t *testing.T) {
	frame := []byte(`{"command":{"FutureCommand":{"foo":"bar"}},"destination":{"All":{}}}`)
	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode should not fail on unknown variant: %v", err)
	}
	if env.Command.Kind != "FutureCommand" {
		t.Fatalf("expected unknown kind preserved, got %q", env.Command.Kind)
	}
}

func TestDestinationMatches(t *testing.T) {
	a := ConnectionInfo{PeerId: peerA(), Role: RoleClient}
	b := ConnectionInfo{PeerId: peerB(), Role: RoleController}

	if !SingleDest(peerA()).Matches(a) {
		t.Error("Single should match own id")
	}
	if SingleDest(peerA()).Matches(b) {
		t.Error("Single should not match other id")
	}
	if !MultiDest([]PeerId{peerA(), peerB()}).Matches(a) {
		t.Error("Multi should match member")
	}
	if MultiDest([]PeerId{peerB()}).Matches(a) {
		t.Error("Multi should not match non-member")
	}
	if !TypedDest(RoleClient).Matches(a) {
		t.Error("Typed should match same role")
	}
	if TypedDest(RoleClient).Matches(b) {
		t.Error("Typed should not match different role")
	}
	if !AllDest().Matches(a) || !AllDest().Matches(b) {
		t.Error("All should always match")
	}
	if NoneDest().Matches(a) {
		t.Error("None should never match")
	}
}

func TestDestinationRoundTrip(t *testing.T) {
	dests := []Destination{
		SingleDest(peerA()),
		MultiDest([]PeerId{peerA(), peerB()}),
		TypedDest(RoleController),
		AllDest(),
		NoneDest(),
	}
	for _, d := range dests {
		data, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var out Destination
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if out.Kind != d.Kind {
			t.Fatalf("kind mismatch: got %v want %v", out.Kind, d.Kind)
		}
	}
}

package capability

import (
	"fmt"

	"github.com/fabricmesh/peerfabric/internal/protocol"
)

// Invocation is a UI-collected request to exercise one capability against
// one peer: the option values keyed by Option.Name.
type Invocation struct {
	Target protocol.PeerId
	Cap    protocol.Capability
	Values map[string]string
}

// TransferFileRequested is returned by Invoke when Cap is TransferFile:
// per spec.md §4.7 this capability never produces a Control envelope,
// it starts a file-transfer session instead (internal/transfer.Sender).
type TransferFileRequested struct {
	Target protocol.PeerId
	Path   string
}

// Invoke turns an Invocation into the envelope it should produce, or a
// TransferFileRequested sentinel for the one capability that bypasses
// Control entirely.
func Invoke(inv Invocation) (*protocol.Envelope, *TransferFileRequested, error) {
	switch inv.Cap {
	case protocol.CapabilityMessage:
		env := protocol.Envelope{
			Command:     protocol.Command{Kind: protocol.CommandControl, Control: protocol.ControlMessage{Kind: protocol.ControlMessageText, Text: inv.Values["Text"]}},
			Destination: protocol.SingleDest(inv.Target),
		}
		return &env, nil, nil

	case protocol.CapabilityTransferFile:
		return nil, &TransferFileRequested{Target: inv.Target, Path: inv.Values["File"]}, nil

	case protocol.CapabilityDeleteFile:
		env := protocol.Envelope{
			Command:     protocol.Command{Kind: protocol.CommandControl, Control: protocol.ControlMessage{Kind: protocol.ControlDeleteFile, Path: inv.Values["File"]}},
			Destination: protocol.SingleDest(inv.Target),
		}
		return &env, nil, nil

	default:
		return nil, nil, fmt.Errorf("capability: unknown capability %q", inv.Cap)
	}
}

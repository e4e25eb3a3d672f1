package protocol

import (
	"encoding/json"
	"fmt"
)

// Capability is the wire tag for an action a Client advertises. The UI
// definition (display name, option schema) is reconstructed locally by
// internal/capability; only the tag crosses the wire.
type Capability string

const (
	CapabilityMessage      Capability = "Message"
	CapabilityTransferFile Capability = "TransferFile"
	CapabilityDeleteFile   Capability = "DeleteFile"
)

// ControlMessageKind discriminates the ControlMessage tagged union.
type ControlMessageKind string

const (
	ControlMessageText   ControlMessageKind = "Message"
	ControlTransferFile  ControlMessageKind = "TransferFile"
	ControlDeleteFile    ControlMessageKind = "DeleteFile"
)

// ControlMessage is the payload of a Control command: a peer-to-peer
// capability invocation.
type ControlMessage struct {
	Kind ControlMessageKind

	Text string // ControlMessageText
	Path string // ControlDeleteFile
}

type wireControlMessage struct {
	Text *string `json:"text,omitempty"`
	Path *string `json:"path,omitempty"`
}

func (c ControlMessage) MarshalJSON() ([]byte, error) {
	payload := map[string]wireControlMessage{}
	switch c.Kind {
	case ControlMessageText:
		text := c.Text
		payload[string(ControlMessageText)] = wireControlMessage{Text: &text}
	case ControlTransferFile:
		payload[string(ControlTransferFile)] = wireControlMessage{}
	case ControlDeleteFile:
		path := c.Path
		payload[string(ControlDeleteFile)] = wireControlMessage{Path: &path}
	default:
		return nil, fmt.Errorf("protocol: unknown control message kind %q", c.Kind)
	}
	return json.Marshal(payload)
}

func (c *ControlMessage) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("protocol: control message must have exactly one tag, got %d", len(raw))
	}
	for kind, body := range raw {
		var w wireControlMessage
		if len(body) > 0 {
			if err := json.Unmarshal(body, &w); err != nil {
				return err
			}
		}
		switch ControlMessageKind(kind) {
		case ControlMessageText:
			if w.Text == nil {
				return fmt.Errorf("protocol: Message control missing text")
			}
			*c = ControlMessage{Kind: ControlMessageText, Text: *w.Text}
		case ControlTransferFile:
			*c = ControlMessage{Kind: ControlTransferFile}
		case ControlDeleteFile:
			if w.Path == nil {
				return fmt.Errorf("protocol: DeleteFile control missing path")
			}
			*c = ControlMessage{Kind: ControlDeleteFile, Path: *w.Path}
		default:
			return fmt.Errorf("protocol: unknown control message tag %q", kind)
		}
	}
	return nil
}

// FileEntry describes one path in a Client's watched file tree.
type FileEntry struct {
	Path     string `json:"path"`
	FileType string `json:"file_type"`
}

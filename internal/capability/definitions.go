// Package capability implements the per-peer capability registry
// (spec.md C7): the wire carries only a Capability tag; the UI
// definition (display name, option schema) it maps to is reconstructed
// locally on both ends, grounded on original_source's
// ControlTypes::to_definition.
package capability

import "github.com/fabricmesh/peerfabric/internal/protocol"

// UIType mirrors original_source's UITypes: how a ControlOption's value
// should be collected from a human operator.
type UIType string

const (
	UIText     UIType = "Text"
	UICheckbox UIType = "Checkbox"
	UICombo    UIType = "ComboBox"
)

// Option describes one input field of a capability's invocation form.
type Option struct {
	DisplayName  string
	Name         string
	UIType       UIType
	DefaultValue string

	AcceptableOptionTypes []string
}

// Definition is a capability's local-only UI schema: never sent over
// the wire, only looked up by tag on both peers.
type Definition struct {
	DisplayName string
	Name        string
	Options     []Option
}

// Definitions returns the fixed tag -> UI schema map, one entry per
// protocol.Capability, verbatim from original_source's to_definition.
func Definitions() map[protocol.Capability]Definition {
	return map[protocol.Capability]Definition{
		protocol.CapabilityMessage: {
			DisplayName: "Send Message",
			Name:        string(protocol.CapabilityMessage),
			Options: []Option{{
				DisplayName: "Text", Name: "Text", UIType: UIText, DefaultValue: "",
			}},
		},
		protocol.CapabilityTransferFile: {
			DisplayName: "Transfer File",
			Name:        string(protocol.CapabilityTransferFile),
			Options: []Option{{
				DisplayName: "File Location", Name: "File", UIType: UIText, DefaultValue: "",
			}},
		},
		protocol.CapabilityDeleteFile: {
			DisplayName: "Delete File",
			Name:        string(protocol.CapabilityDeleteFile),
			Options: []Option{{
				DisplayName: "File To Delete", Name: "File", UIType: UICombo, DefaultValue: "",
				AcceptableOptionTypes: []string{"ALL"},
			}},
		},
	}
}

// DefinitionFor looks up one capability's UI schema.
func DefinitionFor(c protocol.Capability) (Definition, bool) {
	d, ok := Definitions()[c]
	return d, ok
}

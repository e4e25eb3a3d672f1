package protocol

import (
	"encoding/json"
	"fmt"
)

// DestinationKind discriminates the Destination tagged union.
type DestinationKind string

const (
	DestSingle DestinationKind = "Single"
	DestMulti  DestinationKind = "Multi"
	DestTyped  DestinationKind = "Typed"
	DestAll    DestinationKind = "All"
	DestNone   DestinationKind = "None"
)

// Destination selects which connected peers an envelope is routed to.
//
// Single and Typed fields are mutually exclusive with Multi's set; only the
// field matching Kind is meaningful. Zero value is None.
type Destination struct {
	Kind DestinationKind

	Single PeerId
	Multi  []PeerId
	Typed  Role
}

// SingleDest builds a Destination routed to exactly one peer.
func SingleDest(id PeerId) Destination { return Destination{Kind: DestSingle, Single: id} }

// MultiDest builds a Destination routed to a set of peers.
func MultiDest(ids []PeerId) Destination { return Destination{Kind: DestMulti, Multi: ids} }

// TypedDest builds a Destination routed to every peer with a given role.
func TypedDest(role Role) Destination { return Destination{Kind: DestTyped, Typed: role} }

// AllDest routes to every connected peer.
func AllDest() Destination { return Destination{Kind: DestAll} }

// NoneDest matches no peer; used when an envelope is addressed to the Hub
// itself rather than routed onward.
func NoneDest() Destination { return Destination{Kind: DestNone} }

// Matches reports whether info is a routing target of d.
func (d Destination) Matches(info ConnectionInfo) bool {
	switch d.Kind {
	case DestSingle:
		return d.Single == info.PeerId
	case DestMulti:
		for _, id := range d.Multi {
			if id == info.PeerId {
				return true
			}
		}
		return false
	case DestTyped:
		return d.Typed == info.Role
	case DestAll:
		return true
	case DestNone:
		return false
	default:
		return false
	}
}

type wireDestination struct {
	Single *PeerId  `json:"destination_uuid,omitempty"`
	Multi  []PeerId `json:"destination_uuids,omitempty"`
	Typed  *Role    `json:"destination_type,omitempty"`
}

// MarshalJSON renders Destination as an externally-tagged single-key object,
// e.g. {"Single":{"destination_uuid":"..."}}.
func (d Destination) MarshalJSON() ([]byte, error) {
	payload := map[string]wireDestination{}
	switch d.Kind {
	case DestSingle:
		id := d.Single
		payload[string(DestSingle)] = wireDestination{Single: &id}
	case DestMulti:
		payload[string(DestMulti)] = wireDestination{Multi: d.Multi}
	case DestTyped:
		role := d.Typed
		payload[string(DestTyped)] = wireDestination{Typed: &role}
	case DestAll:
		payload[string(DestAll)] = wireDestination{}
	case DestNone:
		payload[string(DestNone)] = wireDestination{}
	default:
		return nil, fmt.Errorf("protocol: unknown destination kind %q", d.Kind)
	}
	return json.Marshal(payload)
}

// UnmarshalJSON parses the externally-tagged form produced by MarshalJSON.
func (d *Destination) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("protocol: destination must have exactly one tag, got %d", len(raw))
	}
	for kind, body := range raw {
		var w wireDestination
		if len(body) > 0 {
			if err := json.Unmarshal(body, &w); err != nil {
				return err
			}
		}
		switch DestinationKind(kind) {
		case DestSingle:
			if w.Single == nil {
				return fmt.Errorf("protocol: Single destination missing destination_uuid")
			}
			*d = Destination{Kind: DestSingle, Single: *w.Single}
		case DestMulti:
			*d = Destination{Kind: DestMulti, Multi: w.Multi}
		case DestTyped:
			if w.Typed == nil {
				return fmt.Errorf("protocol: Typed destination missing destination_type")
			}
			*d = Destination{Kind: DestTyped, Typed: *w.Typed}
		case DestAll:
			*d = Destination{Kind: DestAll}
		case DestNone:
			*d = Destination{Kind: DestNone}
		default:
			return fmt.Errorf("protocol: unknown destination tag %q", kind)
		}
	}
	return nil
}

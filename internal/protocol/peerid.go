// Package protocol implements the wire model shared by every participant in
// the fabric: peer identities, roles, destinations, commands, and the
// envelope that carries one command per frame.
package protocol

import "github.com/google/uuid"

// PeerId is an opaque identifier the Hub mints on connect, unique per live
// socket. It is carried as the UUID v4 text form on the wire.
type PeerId string

// NewPeerId mints a fresh random PeerId.
func NewPeerId() PeerId {
	return PeerId(uuid.New().String())
}

// Role distinguishes the two kinds of peer. The Hub treats both uniformly
// for routing but stamps each peer's role for typed-broadcast destinations.
type Role string

const (
	RoleClient     Role = "Client"
	RoleController Role = "Controller"
)

// ConnectionInfo is a peer's public identity: immutable except DisplayName,
// which only its owner may update.
type ConnectionInfo struct {
	PeerId      PeerId `json:"peer_id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

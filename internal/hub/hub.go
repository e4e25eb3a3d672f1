// Package hub implements the Hub routing/presence engine (spec.md C4): a
// single goroutine owns the directory of connected peers and processes
// register/unregister/inbound-envelope events serialized over channels, the same
// shape as the teacher's backend/internal/signaling/hub.go Run loop,
// generalized from paired rooms to spec.md's flat N-peer directory.
package hub

import (
	"log/slog"

	"github.com/fabricmesh/peerfabric/internal/protocol"
)

// outboundFunc delivers an envelope to one connected peer's write side.
// The Hub never touches a socket directly; connections register a sender
// function instead.
type outboundFunc func(protocol.Envelope)

type directoryEntry struct {
	peerId PeerId
	send   outboundFunc
	info   *protocol.ConnectionInfo // nil until SetConnectionInfo arrives
}

// PeerId is a local alias kept distinct from protocol.PeerId only for
// readability inside this package; the two are interchangeable.
type PeerId = protocol.PeerId

type registration struct {
	peerId PeerId
	send   outboundFunc
}

type inboundMsg struct {
	peerId PeerId
	env    protocol.Envelope
}

// Hub is the central routing/presence engine. Zero value is not usable;
// build with New.
type Hub struct {
	register   chan registration
	unregister chan PeerId
	inbound    chan inboundMsg

	directory map[PeerId]*directoryEntry
}

// New creates a Hub. Call Run in its own goroutine before use.
func New() *Hub {
	return &Hub{
		register:   make(chan registration),
		unregister: make(chan PeerId),
		inbound:    make(chan inboundMsg, 256),
		directory:  make(map[PeerId]*directoryEntry),
	}
}

// Connection is returned by Register; the caller feeds arriving envelopes
// to Deliver and calls Close exactly once when the socket goes away.
type Connection struct {
	hub    *Hub
	peerId PeerId
}

// Register allocates a fresh PeerId, installs a directory entry with no
// ConnectionInfo yet, and sends a Welcome envelope via send. send must not
// block for long — the Hub's single goroutine calls it inline.
func (h *Hub) Register(send outboundFunc) *Connection {
	id := protocol.NewPeerId()
	h.register <- registration{peerId: id, send: send}
	return &Connection{hub: h, peerId: id}
}

// Deliver hands one envelope received from this connection's socket to
// the Hub for processing.
func (c *Connection) Deliver(env protocol.Envelope) {
	c.hub.inbound <- inboundMsg{peerId: c.peerId, env: env}
}

// Close removes the connection from the directory and notifies remaining
// peers, per spec.md §4.4.
func (c *Connection) Close() {
	c.hub.unregister <- c.peerId
}

// PeerId returns the id this Hub assigned on Register.
func (c *Connection) PeerId() PeerId { return c.peerId }

// Run is the Hub's single event loop; it owns `directory` exclusively and
// must run in its own goroutine for the Hub's lifetime.
func (h *Hub) Run() {
	for {
		select {
		case r := <-h.register:
			h.directory[r.peerId] = &directoryEntry{peerId: r.peerId, send: r.send}
			r.send(protocol.Envelope{
				Command:     protocol.Command{Kind: protocol.CommandWelcome, PeerId: r.peerId},
				Destination: protocol.SingleDest(r.peerId),
			})
			slog.Debug("hub: peer registered", "peer", r.peerId)

		case id := <-h.unregister:
			if _, ok := h.directory[id]; !ok {
				continue
			}
			delete(h.directory, id)
			slog.Debug("hub: peer disconnected", "peer", id)
			h.broadcastAll(protocol.Envelope{
				Command:     protocol.Command{Kind: protocol.CommandNotifyDisconnect, PeerId: id},
				Destination: protocol.AllDest(),
			})

		case m := <-h.inbound:
			h.handleEnvelope(m.peerId, m.env)
		}
	}
}

func (h *Hub) broadcastAll(env protocol.Envelope) {
	for _, entry := range h.directory {
		entry.send(env)
	}
}

func (h *Hub) handleEnvelope(from PeerId, env protocol.Envelope) {
	switch env.Command.Kind {
	case protocol.CommandGetConnections:
		h.handleGetConnections(from, env.Command.ReplyTo)

	case protocol.CommandSetConnectionInfo:
		h.handleSetConnectionInfo(from, env.Command.Info)

	case protocol.CommandWelcome, protocol.CommandActiveConnections:
		// Server-origin commands are never expected from a peer.
		slog.Debug("hub: dropping server-origin command from peer", "peer", from, "kind", env.Command.Kind)

	default:
		h.forward(env)
	}
}

func (h *Hub) handleGetConnections(from PeerId, replyTo PeerId) {
	entry, ok := h.directory[replyTo]
	if !ok {
		slog.Debug("hub: GetConnections reply_to not in directory", "reply_to", replyTo)
		return
	}
	list := make([]protocol.ConnectionInfo, 0, len(h.directory))
	for _, e := range h.directory {
		if e.info != nil {
			list = append(list, *e.info)
		}
	}
	entry.send(protocol.Envelope{
		Command:     protocol.Command{Kind: protocol.CommandActiveConnections, List: list},
		Destination: protocol.SingleDest(replyTo),
	})
}

func (h *Hub) handleSetConnectionInfo(from PeerId, info protocol.ConnectionInfo) {
	if info.PeerId != from {
		slog.Debug("hub: SetConnectionInfo peer id mismatch, dropping", "from", from, "claimed", info.PeerId)
		return
	}
	entry, ok := h.directory[from]
	if !ok {
		return
	}
	entry.info = &info

	entry.send(protocol.Envelope{
		Command:     protocol.Command{Kind: protocol.CommandAck},
		Destination: protocol.SingleDest(from),
	})

	update := protocol.Envelope{
		Command:     protocol.Command{Kind: protocol.CommandUpdateConnection, Info: info},
		Destination: protocol.SingleDest(from),
	}
	for id, e := range h.directory {
		if id == from || e.info == nil {
			continue
		}
		e.send(update)
	}
}

// forward routes env to every directory entry matching env.Destination,
// per spec.md §4.4: Single looks up directly (dropping if absent), Multi/
// Typed/All fan out to matching populated entries, None is a no-op (the
// Hub-internal cases are handled above).
func (h *Hub) forward(env protocol.Envelope) {
	switch env.Destination.Kind {
	case protocol.DestSingle:
		if entry, ok := h.directory[env.Destination.Single]; ok {
			entry.send(env)
		}
	case protocol.DestNone:
		// Hub-internal destination with no specific handler above: drop.
	default:
		for _, entry := range h.directory {
			if entry.info != nil && env.Destination.Matches(*entry.info) {
				entry.send(env)
			}
		}
	}
}

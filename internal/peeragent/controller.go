package peeragent

import (
	"log/slog"
	"sync"

	"github.com/fabricmesh/peerfabric/internal/capability"
	"github.com/fabricmesh/peerfabric/internal/filewatch"
	"github.com/fabricmesh/peerfabric/internal/peerconn"
	"github.com/fabricmesh/peerfabric/internal/protocol"
	"github.com/fabricmesh/peerfabric/internal/settings"
	"github.com/fabricmesh/peerfabric/internal/transfer"
)

// Controller is the Controller-role agent (spec.md §1): it discovers
// peers, requests and caches their capabilities, invokes capabilities
// (Control envelopes, or a file-transfer session for TransferFile), and
// keeps each Client's file listing up to date.
type Controller struct {
	SelfID       protocol.PeerId
	Directory    *Directory
	Capabilities *capability.Registry
	Files        *filewatch.Controller
	Settings     *settings.Gateway

	conn *peerconn.Conn

	mu      sync.Mutex
	senders map[string]chan protocol.Command // keyed by file name, per active outbound transfer
}

// NewController wires a Controller's collaborators around one live
// connection. settings may be nil until the caller's configstore is
// ready; SetSettings attaches it afterward.
func NewController(selfID protocol.PeerId, conn *peerconn.Conn) *Controller {
	return &Controller{
		SelfID:       selfID,
		Directory:    NewDirectory(),
		Capabilities: capability.NewRegistry(),
		Files:        filewatch.NewController(),
		conn:         conn,
		senders:      make(map[string]chan protocol.Command),
	}
}

// SetSettings attaches the settings gateway once its backing store is open.
func (c *Controller) SetSettings(g *settings.Gateway) { c.Settings = g }

// Announce sends this Controller's identity to the Hub.
func (c *Controller) Announce(displayName string) {
	c.conn.Outbound <- protocol.Envelope{
		Command:     protocol.Command{Kind: protocol.CommandSetConnectionInfo, Info: protocol.ConnectionInfo{PeerId: c.SelfID, DisplayName: displayName, Role: protocol.RoleController}},
		Destination: protocol.NoneDest(),
	}
}

// RequestConnections asks the Hub for the current presence snapshot
// (spec.md §8 scenario 1).
func (c *Controller) RequestConnections() {
	c.conn.Outbound <- protocol.Envelope{
		Command:     protocol.Command{Kind: protocol.CommandGetConnections, ReplyTo: c.SelfID},
		Destination: protocol.NoneDest(),
	}
}

// RequestCapabilities asks peer to advertise its capability set
// (spec.md §8 scenario 2).
func (c *Controller) RequestCapabilities(peer protocol.PeerId) {
	c.conn.Outbound <- protocol.Envelope{
		Command:     protocol.Command{Kind: protocol.CommandRequestCapabilities, ReplyTo: c.SelfID},
		Destination: protocol.SingleDest(peer),
	}
}

// Subscribe asks peer to start sending file-listing updates.
func (c *Controller) Subscribe(peer protocol.PeerId) {
	c.conn.Outbound <- protocol.Envelope{
		Command:     protocol.Command{Kind: protocol.CommandAddFileWatch, ReplyTo: c.SelfID},
		Destination: protocol.SingleDest(peer),
	}
}

// Invoke runs one capability invocation. For TransferFile this opens a
// Sender and drives it to completion in the caller's goroutine — callers
// that want this non-blocking should run Invoke in its own goroutine.
func (c *Controller) Invoke(inv capability.Invocation) error {
	env, transferReq, err := capability.Invoke(inv)
	if err != nil {
		return err
	}
	if env != nil {
		c.conn.Outbound <- *env
		return nil
	}
	return c.startTransfer(transferReq.Target, transferReq.Path)
}

func (c *Controller) startTransfer(target protocol.PeerId, path string) error {
	acks := make(chan protocol.Command, transfer.MaxActivePackets*2)

	sender, err := transfer.NewSender(path, target, c.SelfID, func(env protocol.Envelope) { c.conn.Outbound <- env }, acks)
	if err != nil {
		return err
	}
	defer sender.Close()

	name := fileBase(path)
	c.mu.Lock()
	c.senders[name] = acks
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.senders, name)
		c.mu.Unlock()
	}()

	return sender.Run()
}

// Run dispatches every inbound envelope until the connection's inbound
// channel closes. Intended to run for the Controller's lifetime.
func (c *Controller) Run() {
	for env := range c.conn.Inbound {
		c.handle(env.Command)
	}
}

func (c *Controller) handle(cmd protocol.Command) {
	switch cmd.Kind {
	case protocol.CommandWelcome:
		c.SelfID = cmd.PeerId

	case protocol.CommandActiveConnections:
		c.Directory.ReplaceAll(cmd.List)

	case protocol.CommandUpdateConnection:
		c.Directory.Upsert(cmd.Info)

	case protocol.CommandNotifyDisconnect:
		c.Directory.Remove(cmd.PeerId)
		c.Capabilities.Forget(cmd.PeerId)
		c.Files.Forget(cmd.PeerId)

	case protocol.CommandProvideCapabilities:
		c.Capabilities.Set(cmd.Sender, cmd.Capabilities)

	case protocol.CommandProvideFiles:
		c.Files.HandleProvideFiles(cmd.Owner, cmd.Entries)

	case protocol.CommandUpdateFile:
		c.Files.HandleUpdateFile(cmd.Owner, cmd.Entry, cmd.Add)

	case protocol.CommandFileTransferAck, protocol.CommandFileTransferNack:
		c.routeAck(cmd)
	}
}

func (c *Controller) routeAck(cmd protocol.Command) {
	c.mu.Lock()
	ch, ok := c.senders[cmd.Name]
	c.mu.Unlock()
	if !ok {
		slog.Debug("peeragent/controller: ack for unknown transfer", "name", cmd.Name)
		return
	}
	select {
	case ch <- cmd:
	default:
		slog.Warn("peeragent/controller: sender ack channel full, dropping", "name", cmd.Name)
	}
}

func fileBase(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

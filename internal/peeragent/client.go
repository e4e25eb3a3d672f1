package peeragent

import (
	"log/slog"

	"github.com/fabricmesh/peerfabric/internal/capability"
	"github.com/fabricmesh/peerfabric/internal/filewatch"
	"github.com/fabricmesh/peerfabric/internal/peerconn"
	"github.com/fabricmesh/peerfabric/internal/protocol"
	"github.com/fabricmesh/peerfabric/internal/settings"
	"github.com/fabricmesh/peerfabric/internal/transfer"
)

// Advertised is the fixed capability set every Client advertises, per
// spec.md §8 scenario 2.
var Advertised = []protocol.Capability{
	protocol.CapabilityMessage,
	protocol.CapabilityTransferFile,
	protocol.CapabilityDeleteFile,
}

// Client is the Client-role agent (spec.md §1): it answers
// RequestCapabilities, receives Control invocations and inbound file
// transfers, and runs the file-watch subsystem for whichever directory
// its settings currently name.
type Client struct {
	SelfID    protocol.PeerId
	Directory *Directory
	Settings  *settings.Gateway
	Watch     *filewatch.Client
	Transfers *transfer.Receiver

	conn        *peerconn.Conn
	onControl   func(msg protocol.ControlMessage)
	transferDir string
}

// NewClient wires a Client's collaborators around one live connection.
// transferDir is where inbound files land; onControl is invoked for every
// Message/DeleteFile Control a Controller sends (TransferFile bypasses
// Control entirely per spec.md §4.7 and lands in Transfers instead). The
// wire form of Control carries no sender field — original_source's
// handle_control_message displays the message text alone, without
// attributing it to a peer, and this mirrors that.
func NewClient(selfID protocol.PeerId, conn *peerconn.Conn, transferDir string, onControl func(protocol.ControlMessage)) *Client {
	emit := func(env protocol.Envelope) { conn.Outbound <- env }
	return &Client{
		SelfID:      selfID,
		Directory:   NewDirectory(),
		Watch:       filewatch.NewClient(selfID, nil, emit),
		Transfers:   transfer.NewReceiver(transferDir, emit),
		conn:        conn,
		onControl:   onControl,
		transferDir: transferDir,
	}
}

// SetSettings attaches the settings gateway once its backing store is open.
func (c *Client) SetSettings(g *settings.Gateway) { c.Settings = g }

// AttachWatcher binds a real filewatch.Watcher once one is available;
// useful because fswatch.New can fail and the Client should still start.
func (c *Client) AttachWatcher(w filewatch.Watcher) {
	c.Watch = filewatch.NewClient(c.SelfID, w, func(env protocol.Envelope) { c.conn.Outbound <- env })
}

// Announce sends this Client's identity to the Hub.
func (c *Client) Announce(displayName string) {
	c.conn.Outbound <- protocol.Envelope{
		Command:     protocol.Command{Kind: protocol.CommandSetConnectionInfo, Info: protocol.ConnectionInfo{PeerId: c.SelfID, DisplayName: displayName, Role: protocol.RoleClient}},
		Destination: protocol.NoneDest(),
	}
}

// Run dispatches every inbound envelope until the connection's inbound
// channel closes. Intended to run for the Client's lifetime.
func (c *Client) Run() {
	for env := range c.conn.Inbound {
		c.handle(env.Command)
	}
}

func (c *Client) handle(cmd protocol.Command) {
	switch cmd.Kind {
	case protocol.CommandWelcome:
		c.SelfID = cmd.PeerId

	case protocol.CommandActiveConnections:
		c.Directory.ReplaceAll(cmd.List)

	case protocol.CommandUpdateConnection:
		c.Directory.Upsert(cmd.Info)

	case protocol.CommandNotifyDisconnect:
		c.Directory.Remove(cmd.PeerId)

	case protocol.CommandRequestCapabilities:
		c.conn.Outbound <- protocol.Envelope{
			Command:     protocol.Command{Kind: protocol.CommandProvideCapabilities, Sender: c.SelfID, Capabilities: Advertised},
			Destination: protocol.SingleDest(cmd.ReplyTo),
		}

	case protocol.CommandControl:
		c.handleControl(cmd)

	case protocol.CommandAddFileWatch:
		if err := c.Watch.RegisterListener(cmd.ReplyTo); err != nil {
			slog.Warn("peeragent/client: register listener failed", "err", err)
		}

	case protocol.CommandStartFileTransfer, protocol.CommandFileTransferBlob:
		if err := c.Transfers.Handle(cmd.ReturnTo, cmd); err != nil {
			slog.Warn("peeragent/client: transfer handling failed", "err", err)
		}
	}
}

func (c *Client) handleControl(cmd protocol.Command) {
	switch cmd.Control.Kind {
	case protocol.ControlMessageText, protocol.ControlDeleteFile:
		if c.onControl != nil {
			c.onControl(cmd.Control)
		}
	}
}

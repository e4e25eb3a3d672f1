// Package transport implements the bidirectional framed-text socket
// multiplexer (spec.md C2) shared by the Hub and every peer: one goroutine
// reads frames off the wire into an inbound sink, another drains an
// outbound queue onto the wire, and either side closing tears the other
// down. This generalizes the teacher's near-identical client.go ReadPump/
// WritePump pair (backend and cli each had their own copy) into the one
// shared component spec.md names.
package transport

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fabricmesh/peerfabric/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 256 * 1024
)

// Loop multiplexes a single websocket connection: Outbound is drained onto
// the wire in enqueue order, frames arriving off the wire are delivered to
// Inbound in arrival order. Run blocks until either direction terminates.
type Loop struct {
	conn     *websocket.Conn
	outbound <-chan protocol.Envelope
	inbound  chan<- protocol.Envelope

	// label identifies this loop in log lines (the peer id on the Hub
	// side, "hub" on a peer's side).
	label string
}

// New builds a Loop over conn. outbound is read by the write pump;
// inbound is written to by the read pump and should be buffered by the
// caller if backpressure must not stall the read pump.
func New(conn *websocket.Conn, outbound <-chan protocol.Envelope, inbound chan<- protocol.Envelope, label string) *Loop {
	return &Loop{conn: conn, outbound: outbound, inbound: inbound, label: label}
}

// Run starts the read and write pumps and blocks until both have exited.
// It closes conn before returning. Run does not close inbound or
// outbound — the caller owns those channels' lifetimes.
func (l *Loop) Run() {
	done := make(chan struct{})
	writeDone := make(chan struct{})
	go func() {
		l.writePump(done)
		close(writeDone)
	}()
	l.readPump(done)
	<-writeDone
	l.conn.Close()
}

func (l *Loop) readPump(done chan<- struct{}) {
	defer close(done)

	l.conn.SetReadLimit(maxMessageSize)
	l.conn.SetReadDeadline(time.Now().Add(pongWait))
	l.conn.SetPongHandler(func(string) error {
		l.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := l.conn.ReadMessage()
		if err != nil {
			slog.Debug("transport: read error, closing loop", "peer", l.label, "err", err)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		env, err := protocol.Decode(data)
		if err != nil {
			slog.Debug("transport: dropping malformed frame", "peer", l.label, "err", err)
			continue
		}

		if env.Command.Kind == protocol.CommandDisconnect {
			slog.Debug("transport: peer sent Disconnect", "peer", l.label)
			return
		}

		l.inbound <- env
	}
}

func (l *Loop) writePump(readDone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case env, ok := <-l.outbound:
			if !ok {
				l.conn.SetWriteDeadline(time.Now().Add(writeWait))
				l.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := protocol.Encode(env)
			if err != nil {
				slog.Debug("transport: failed to encode outbound envelope", "peer", l.label, "err", err)
				continue
			}
			l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Debug("transport: write error, closing loop", "peer", l.label, "err", err)
				return
			}

		case <-ticker.C:
			l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-readDone:
			return
		}
	}
}

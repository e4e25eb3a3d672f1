// Package peerconn implements the peer connection manager (spec.md C3):
// connect-with-retry against the Hub, and reconnect-on-signal when
// configuration changes invalidate the live socket. Grounded on
// original_source's connect_to_server_loop/reconnect (a Notify-driven
// retry loop) and the teacher's cli/internal/signaling/client.go for the
// Go goroutine/channel realization of the same shape.
package peerconn

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/fabricmesh/peerfabric/internal/protocol"
	"github.com/fabricmesh/peerfabric/internal/transport"
)

// Config names where and how to reach the Hub.
type Config struct {
	URL string // e.g. ws://host:8080/ws
	Key string // sent as the Authorization header
}

// StatusSink is the out-of-scope collaborator that receives human-readable
// connection-state strings (spec.md §1).
type StatusSink interface {
	UpdateStatus(message string)
}

// ReconnectSignal is a single-consumer edge-triggered notification: Trip
// may be called any number of times before a Wait consumes it, but it
// only ever unblocks one Wait per Trip (multiple Trips before a Wait
// collapse into one wakeup, per spec.md §9).
type ReconnectSignal struct {
	ch chan struct{}
}

// NewReconnectSignal builds a ready-to-use signal.
func NewReconnectSignal() *ReconnectSignal {
	return &ReconnectSignal{ch: make(chan struct{}, 1)}
}

// Trip wakes one pending (or future) Wait. Non-blocking.
func (s *ReconnectSignal) Trip() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until the signal has been tripped since the last Wait.
func (s *ReconnectSignal) Wait() {
	<-s.ch
}

// TryWait reports whether the signal was tripped since the last Wait or
// TryWait, consuming it if so. Non-blocking.
func (s *ReconnectSignal) TryWait() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Conn is a live connection to the Hub: Outbound is the queue a peer
// enqueues envelopes onto, Inbound is the sink envelopes arrive on.
type Conn struct {
	Outbound chan protocol.Envelope
	Inbound  chan protocol.Envelope

	conn *websocket.Conn
	done chan struct{}
}

func dial(cfg Config) (*websocket.Conn, error) {
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("peerconn: invalid server URL: %w", err)
	}
	header := http.Header{}
	header.Set("Authorization", cfg.Key)
	conn, _, err := websocket.DefaultDialer.Dial(cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("peerconn: failed to connect: %w", err)
	}
	return conn, nil
}

func startLoop(wsConn *websocket.Conn) *Conn {
	outbound := make(chan protocol.Envelope, 64)
	inbound := make(chan protocol.Envelope, 64)
	c := &Conn{Outbound: outbound, Inbound: inbound, conn: wsConn, done: make(chan struct{})}

	loop := transport.New(wsConn, outbound, inbound, "hub")
	go func() {
		loop.Run()
		close(inbound)
		close(c.done)
	}()
	return c
}

// ConnectWithRetry dials the Hub, retrying indefinitely on failure. Each
// failure is reported to status; the retry wait blocks on signal so a
// configuration change can interrupt it immediately (spec.md §4.3).
func ConnectWithRetry(cfg Config, status StatusSink, signal *ReconnectSignal) *Conn {
	for {
		wsConn, err := dial(cfg)
		if err != nil {
			status.UpdateStatus(err.Error())
			slog.Warn("peerconn: connect failed, waiting for retry signal", "err", err)
			signal.Wait()
			continue
		}
		status.UpdateStatus("Connected")
		return startLoop(wsConn)
	}
}

// Reconnect tears down the current connection (announcing Disconnect
// first) and connects again, returning the new Conn. The caller must
// switch its outbound producer and inbound consumer over to the result.
func Reconnect(current *Conn, cfg Config, status StatusSink, signal *ReconnectSignal) *Conn {
	select {
	case current.Outbound <- protocol.Envelope{Command: protocol.Command{Kind: protocol.CommandDisconnect}, Destination: protocol.NoneDest()}:
	default:
	}
	close(current.Outbound)
	current.conn.Close()

	return ConnectWithRetry(cfg, status, signal)
}

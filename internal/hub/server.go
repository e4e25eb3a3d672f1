package hub

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/fabricmesh/peerfabric/internal/protocol"
	"github.com/fabricmesh/peerfabric/internal/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // permissive CORS, per spec.md §6
}

// ServeWS returns an http.Handler implementing spec.md §6: a single path
// authenticated by a literal Authorization header match against apiKey,
// upgrading to a text-frame websocket and wiring the connection into h.
func ServeWS(h *Hub, apiKey string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Path != "/ws" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != apiKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("hub: websocket upgrade failed", "err", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		serveConn(h, conn)
	})
}

func serveConn(h *Hub, wsConn *websocket.Conn) {
	outbound := make(chan protocol.Envelope, 256)
	inbound := make(chan protocol.Envelope, 256)

	conn := h.Register(func(env protocol.Envelope) {
		select {
		case outbound <- env:
		default:
			slog.Warn("hub: dropping envelope, outbound queue full", "peer", "?")
		}
	})
	label := string(conn.PeerId())

	loop := transport.New(wsConn, outbound, inbound, label)

	go func() {
		for env := range inbound {
			conn.Deliver(env)
		}
	}()

	loop.Run()
	close(outbound)
	close(inbound)
	conn.Close()
}

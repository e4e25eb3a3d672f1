package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fabricmesh/peerfabric/internal/protocol"
)

var upgrader = websocket.Upgrader{}

func echoServer(t *testing.T) (*httptest.Server, chan protocol.Envelope) {
	t.Helper()
	received := make(chan protocol.Envelope, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		outbound := make(chan protocol.Envelope, 8)
		l := New(conn, outbound, received, "server")
		go func() {
			// Echo every envelope back unchanged.
			for env := range received {
				if env.Command.Kind == protocol.CommandDisconnect {
					close(outbound)
					return
				}
				outbound <- env
			}
		}()
		l.Run()
	}))
	return srv, received
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestLoopDeliversInOrder(t *testing.T) {
	srv, received := echoServer(t)
	defer srv.Close()
	defer close(received)

	conn := dial(t, srv.URL)
	defer conn.Close()

	for i := 0; i < 5; i++ {
		env := protocol.Envelope{
			Command:     protocol.Command{Kind: protocol.CommandAck},
			Destination: protocol.SingleDest(protocol.PeerId(string(rune('a' + i)))),
		}
		data, _ := protocol.Encode(env)
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	for i := 0; i < 5; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		env, err := protocol.Decode(data)
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		if env.Command.Kind != protocol.CommandAck {
			t.Fatalf("unexpected echo %d: %+v", i, env)
		}
		if want := protocol.PeerId(string(rune('a' + i))); env.Destination.Single != want {
			t.Fatalf("echo %d out of order: got destination %q, want %q", i, env.Destination.Single, want)
		}
	}
}

func TestLoopDiscardsMalformedFrame(t *testing.T) {
	srv, received := echoServer(t)
	defer srv.Close()
	defer close(received)

	conn := dial(t, srv.URL)
	defer conn.Close()

	conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3})

	env := protocol.Envelope{Command: protocol.Command{Kind: protocol.CommandAck}, Destination: protocol.NoneDest()}
	data, _ := protocol.Encode(env)
	conn.WriteMessage(websocket.TextMessage, data)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out, err := protocol.Decode(reply)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Command.Kind != protocol.CommandAck {
		t.Fatalf("expected only the valid frame to survive, got %+v", out)
	}
}

func TestLoopTerminatesOnDisconnect(t *testing.T) {
	srv, received := echoServer(t)
	defer srv.Close()
	defer close(received)

	conn := dial(t, srv.URL)
	defer conn.Close()

	env := protocol.Envelope{Command: protocol.Command{Kind: protocol.CommandDisconnect}, Destination: protocol.NoneDest()}
	data, _ := protocol.Encode(env)
	conn.WriteMessage(websocket.TextMessage, data)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatal("expected connection to close after Disconnect")
	}
}

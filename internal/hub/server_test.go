package hub_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/fabricmesh/peerfabric/internal/hub"
)

const testAPIKey = "secret-key"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	h := hub.New()
	go h.Run()
	return httptest.NewServer(hub.ServeWS(h, testAPIKey))
}

func doRequest(t *testing.T, method, url, apiKey string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if apiKey != "" {
		req.Header.Set("Authorization", apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func TestServeWSRejectsWrongMethod(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/ws", testAPIKey)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestServeWSRejectsUnknownPath(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doRequest(t, http.MethodGet, srv.URL+"/nope", testAPIKey)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestServeWSRejectsBadKey(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doRequest(t, http.MethodGet, srv.URL+"/ws", "wrong-key")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestServeWSRejectsNonUpgradeRequest(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doRequest(t, http.MethodGet, srv.URL+"/ws", testAPIKey)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a plain GET with no upgrade headers, got %d", resp.StatusCode)
	}
}

func TestServeWSUpgradesValidRequest(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("Authorization", testAPIKey)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}
}

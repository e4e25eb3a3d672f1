// Command hub runs the fabric's routing/presence engine (spec.md C4),
// grounded on the teacher's backend/cmd/server/main.go: create the engine,
// run its event loop in a goroutine, register the websocket handler, and
// listen.
package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fabricmesh/peerfabric/internal/config"
	"github.com/fabricmesh/peerfabric/internal/hub"
	"github.com/fabricmesh/peerfabric/internal/logging"
)

func main() {
	logging.InitHub()

	cfg := config.LoadHub(config.HubOptions{})

	h := hub.New()
	go h.Run()

	mux := http.NewServeMux()
	mux.Handle("/ws", hub.ServeWS(h, cfg.APIKey))

	addr := fmt.Sprintf("%s:%d", cfg.BindHost, cfg.BindPort)
	slog.Info("hub: listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("hub: exited", "err", err)
	}
}

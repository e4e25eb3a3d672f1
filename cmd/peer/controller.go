package main

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fabricmesh/peerfabric/internal/capability"
	"github.com/fabricmesh/peerfabric/internal/config"
	"github.com/fabricmesh/peerfabric/internal/configstore"
	"github.com/fabricmesh/peerfabric/internal/peeragent"
	"github.com/fabricmesh/peerfabric/internal/peerconn"
	"github.com/fabricmesh/peerfabric/internal/protocol"
	"github.com/fabricmesh/peerfabric/internal/settings"
	"github.com/fabricmesh/peerfabric/internal/ui"
)

var (
	controllerFlagURL  string
	controllerFlagKey  string
	controllerFlagName string
)

var controllerCmd = &cobra.Command{
	Use:   "controller",
	Short: "Run as a Controller: discover peers and invoke their capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runController()
	},
}

func runController() error {
	cfg := config.LoadPeer(config.PeerOptions{URL: controllerFlagURL, Key: controllerFlagKey})

	storePath, err := roleConfigPath("play_with_me_controller")
	if err != nil {
		return err
	}
	store, err := configstore.Open(storePath)
	if err != nil {
		return err
	}

	signal := peerconn.NewReconnectSignal()

	stopSpinner := ui.RunConnectSpinner("Connecting to fabric...")
	conn := peerconn.ConnectWithRetry(peerconn.Config{URL: cfg.URL, Key: cfg.Key}, statusPrinter{}, signal)
	stopSpinner()
	ui.PrintSuccess("Connected")

	selfID, err := awaitWelcome(conn)
	if err != nil {
		return err
	}

	controller := peeragent.NewController(selfID, conn)
	gateway := settings.New(store, selfID, protocol.RoleController, func(env protocol.Envelope) { conn.Outbound <- env }, signal, nil)
	controller.SetSettings(gateway)

	cachePath := filepath.Join(filepath.Dir(storePath), "capabilities.cache")
	if err := capability.LoadCache(cachePath, controller.Capabilities); err != nil {
		slog.Warn("controller: capability cache load failed", "err", err)
	}
	defer func() {
		if err := capability.SaveCache(cachePath, controller.Capabilities); err != nil {
			slog.Warn("controller: capability cache save failed", "err", err)
		}
	}()

	displayName := controllerFlagName
	if displayName == "" {
		if v, ok := store.Get(settings.ClientName); ok {
			displayName = v
		}
	}
	if displayName == "" {
		displayName = "controller"
	}
	controller.Announce(displayName)
	controller.RequestConnections()

	ui.PrintStatus("Watching for peers; Ctrl+C to exit.")
	controller.Run()
	return nil
}

func init() {
	rootCmd.AddCommand(controllerCmd)

	controllerCmd.Flags().StringVar(&controllerFlagURL, "url", "", "Fabric Hub URL (overrides FABRIC_SERVER_URL)")
	controllerCmd.Flags().StringVar(&controllerFlagKey, "key", "", "Hub API key (overrides FABRIC_API_KEY)")
	controllerCmd.Flags().StringVar(&controllerFlagName, "name", "", "Display name announced to the Hub")
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fabricmesh/peerfabric/internal/config"
	"github.com/fabricmesh/peerfabric/internal/configstore"
	"github.com/fabricmesh/peerfabric/internal/fswatch"
	"github.com/fabricmesh/peerfabric/internal/peeragent"
	"github.com/fabricmesh/peerfabric/internal/peerconn"
	"github.com/fabricmesh/peerfabric/internal/protocol"
	"github.com/fabricmesh/peerfabric/internal/settings"
	"github.com/fabricmesh/peerfabric/internal/ui"
)

var (
	clientFlagURL  string
	clientFlagKey  string
	clientFlagName string
	clientFlagDir  string
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Run as a Client: share files and answer capability invocations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient()
	},
}

// statusPrinter is the minimal peerconn.StatusSink a CLI needs.
type statusPrinter struct{}

func (statusPrinter) UpdateStatus(message string) { ui.PrintStatus(message) }

func runClient() error {
	cfg := config.LoadPeer(config.PeerOptions{URL: clientFlagURL, Key: clientFlagKey})

	storePath, err := roleConfigPath("play_with_me")
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

	transferDir := clientFlagDir
	if transferDir == "" {
		if v, ok := store.Get(settings.FileTransferLocation); ok {
			transferDir = v
		}
	}
	if transferDir == "" {
		transferDir = "."
	}

	client := peeragent.NewClient(selfID, conn, transferDir, func(msg protocol.ControlMessage) {
		switch msg.Kind {
		case protocol.ControlMessageText:
			ui.PrintStatus(fmt.Sprintf("message: %s", msg.Text))
		case protocol.ControlDeleteFile:
			if err := os.Remove(filepath.Join(transferDir, msg.Path)); err != nil {
				slog.Warn("client: delete requested file failed", "path", msg.Path, "err", err)
			}
		}
	})

	if watcher, err := fswatch.New(); err != nil {
		slog.Warn("client: file watcher unavailable", "err", err)
	} else {
		client.AttachWatcher(watcher)
		if err := client.Watch.Watch(transferDir); err != nil {
			slog.Warn("client: watch failed", "dir", transferDir, "err", err)
		}
		go client.Watch.Run()
	}

	gateway := settings.New(store, selfID, protocol.RoleClient, func(env protocol.Envelope) { conn.Outbound <- env }, signal, client.Watch)
	client.SetSettings(gateway)

	displayName := clientFlagName
	if displayName == "" {
		if v, ok := store.Get(settings.ClientName); ok {
			displayName = v
		}
	}
	if displayName == "" {
		displayName = "client"
	}
	client.Announce(displayName)

	client.Run()
	return nil
}

// roleConfigPath returns the per-role settings file, creating its parent
// directory if necessary — confy's get_configuration_file_path on the
// original, realized with os.UserConfigDir.
func roleConfigPath(role string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, role)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func init() {
	rootCmd.AddCommand(clientCmd)

	clientCmd.Flags().StringVar(&clientFlagURL, "url", "", "Fabric Hub URL (overrides FABRIC_SERVER_URL)")
	clientCmd.Flags().StringVar(&clientFlagKey, "key", "", "Hub API key (overrides FABRIC_API_KEY)")
	clientCmd.Flags().StringVar(&clientFlagName, "name", "", "Display name announced to the Hub")
	clientCmd.Flags().StringVar(&clientFlagDir, "dir", "", "Directory to share and accept transfers into")
}

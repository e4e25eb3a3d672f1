package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fabricmesh/peerfabric/internal/config"
	"github.com/fabricmesh/peerfabric/internal/peeragent"
	"github.com/fabricmesh/peerfabric/internal/peerconn"
	"github.com/fabricmesh/peerfabric/internal/protocol"
	"github.com/fabricmesh/peerfabric/internal/ui"
)

var (
	watchFlagURL    string
	watchFlagKey    string
	watchFlagTarget string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Subscribe to a target Client's file listing and print updates",
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchFlagTarget == "" {
			return fmt.Errorf("watch: --target is required")
		}
		return runWatch()
	},
}

func runWatch() error {
	cfg := config.LoadPeer(config.PeerOptions{URL: watchFlagURL, Key: watchFlagKey})
	signal := peerconn.NewReconnectSignal()

	stopSpinner := ui.RunConnectSpinner("Connecting to fabric...")
	conn := peerconn.ConnectWithRetry(peerconn.Config{URL: cfg.URL, Key: cfg.Key}, statusPrinter{}, signal)
	stopSpinner()

	selfID, err := awaitWelcome(conn)
	if err != nil {
		return err
	}

	controller := peeragent.NewController(selfID, conn)
	go controller.Run()

	target := protocol.PeerId(watchFlagTarget)
	controller.Subscribe(target)

	ui.PrintStatus(fmt.Sprintf("watching %s; Ctrl+C to exit", target))
	var last map[string][]string
	for {
		current := controller.Files.Files(target)
		if !sameListing(last, current) {
			ui.RenderFiles(target, current)
			last = current
		}
		time.Sleep(time.Second)
	}
}

func sameListing(a, b map[string][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for ft, paths := range a {
		other, ok := b[ft]
		if !ok || len(other) != len(paths) {
			return false
		}
		for i := range paths {
			if paths[i] != other[i] {
				return false
			}
		}
	}
	return true
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchFlagURL, "url", "", "Fabric Hub URL (overrides FABRIC_SERVER_URL)")
	watchCmd.Flags().StringVar(&watchFlagKey, "key", "", "Hub API key (overrides FABRIC_API_KEY)")
	watchCmd.Flags().StringVar(&watchFlagTarget, "target", "", "Target peer id to subscribe to")
}

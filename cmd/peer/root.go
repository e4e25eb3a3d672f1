package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fabricmesh/peerfabric/internal/logging"
	"github.com/fabricmesh/peerfabric/internal/peerconn"
	"github.com/fabricmesh/peerfabric/internal/protocol"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "peerfabric",
	Short:   "Join a routing fabric as a Client or a Controller",
	Long:    `peerfabric connects to a fabric Hub and plays one of its two peer roles: a Client shares files and answers capability invocations, a Controller discovers peers and invokes their capabilities.`,
	Version: "v0.0.1",
}

// awaitWelcome blocks for the Hub's Welcome envelope, which it sends as
// the first thing on every Register (internal/hub/hub.go's Run loop), and
// returns the PeerId it assigned this connection. Every peer must adopt
// that id before announcing itself or requesting anything keyed by
// identity — SetConnectionInfo with a self-picked id fails the Hub's
// from-matches-claimed check and is dropped silently.
func awaitWelcome(conn *peerconn.Conn) (protocol.PeerId, error) {
	for env := range conn.Inbound {
		if env.Command.Kind == protocol.CommandWelcome {
			return env.Command.PeerId, nil
		}
	}
	return "", fmt.Errorf("peerfabric: connection closed before Hub sent Welcome")
}

func main() {
	logging.InitPeer()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

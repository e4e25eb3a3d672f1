package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fabricmesh/peerfabric/internal/configstore"
	"github.com/fabricmesh/peerfabric/internal/peerconn"
	"github.com/fabricmesh/peerfabric/internal/protocol"
	"github.com/fabricmesh/peerfabric/internal/settings"
	"github.com/fabricmesh/peerfabric/internal/ui"
)

var configFlagController bool

var configCmd = &cobra.Command{
	Use:   "config <setting> <value>",
	Short: "Edit a persisted setting without starting a connection",
	Long: fmt.Sprintf(`config writes a setting into the local store a subsequent
client/controller run picks up on startup. Recognized names: %s, %s, %s,
%s, %s (the last two apply to the client role only).`,
		settings.ClientName, settings.Address, settings.Key,
		settings.SoundSource, settings.FileTransferLocation),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfig(args[0], args[1])
	},
}

func runConfig(name, value string) error {
	role := "play_with_me"
	roleTag := protocol.RoleClient
	if configFlagController {
		role = "play_with_me_controller"
		roleTag = protocol.RoleController
	}

	path, err := roleConfigPath(role)
	if err != nil {
		return err
	}
	store, err := configstore.Open(path)
	if err != nil {
		return err
	}

	// No live connection in this one-shot command: Edit's reconnect/
	// re-broadcast side effects are no-ops here, which is correct since
	// there is no running session for them to affect — only persistence
	// matters until the next client/controller run picks the value up.
	gateway := settings.New(store, protocol.NewPeerId(), roleTag, func(protocol.Envelope) {}, peerconn.NewReconnectSignal(), nil)
	if err := gateway.Edit(name, value); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("%s = %s", name, value))
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configFlagController, "controller", false, "Edit the Controller's settings instead of the Client's")
}

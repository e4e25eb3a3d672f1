package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fabricmesh/peerfabric/internal/capability"
	"github.com/fabricmesh/peerfabric/internal/config"
	"github.com/fabricmesh/peerfabric/internal/peeragent"
	"github.com/fabricmesh/peerfabric/internal/peerconn"
	"github.com/fabricmesh/peerfabric/internal/protocol"
	"github.com/fabricmesh/peerfabric/internal/ui"
)

var (
	sendFlagURL    string
	sendFlagKey    string
	sendFlagTarget string
	sendFlagText   string
	sendFlagFile   string
	sendFlagDelete string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Invoke one capability against a target peer and exit",
	Long: `send opens a short-lived Controller connection, waits for the target
peer's advertised capabilities, invokes exactly one of them, and exits.

Examples:
  peerfabric send --target <peer-id> --text "hello"
  peerfabric send --target <peer-id> --file report.pdf
  peerfabric send --target <peer-id> --delete old.log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sendFlagTarget == "" {
			return fmt.Errorf("send: --target is required")
		}
		return runSend()
	},
}

func runSend() error {
	cfg := config.LoadPeer(config.PeerOptions{URL: sendFlagURL, Key: sendFlagKey})
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

	target := protocol.PeerId(sendFlagTarget)
	controller.RequestCapabilities(target)

	inv, err := waitForInvocation(controller, target)
	if err != nil {
		return err
	}

	label := string(inv.Cap)
	if def, ok := capability.DefinitionFor(inv.Cap); ok {
		label = def.DisplayName
	}
	ui.PrintStatus(fmt.Sprintf("invoking %q against %s", label, target))
	if err := controller.Invoke(inv); err != nil {
		return err
	}
	ui.PrintSuccess("done")
	return nil
}

// waitForInvocation polls the controller's capability registry for target's
// advertised set and builds the Invocation the caller's flags describe,
// erroring if target never advertises the capability being asked for.
func waitForInvocation(controller *peeragent.Controller, target protocol.PeerId) (capability.Invocation, error) {
	capTag, values, err := requestedInvocation()
	if err != nil {
		return capability.Invocation{}, err
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if controller.Capabilities.Has(target, capTag) {
			return capability.Invocation{Target: target, Cap: capTag, Values: values}, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return capability.Invocation{}, fmt.Errorf("send: %s never advertised %s", target, capTag)
}

func requestedInvocation() (protocol.Capability, map[string]string, error) {
	set := 0
	var capTag protocol.Capability
	values := map[string]string{}

	if sendFlagText != "" {
		set++
		capTag = protocol.CapabilityMessage
		values["Text"] = sendFlagText
	}
	if sendFlagFile != "" {
		set++
		capTag = protocol.CapabilityTransferFile
		values["File"] = sendFlagFile
	}
	if sendFlagDelete != "" {
		set++
		capTag = protocol.CapabilityDeleteFile
		values["File"] = sendFlagDelete
	}

	if set != 1 {
		return "", nil, fmt.Errorf("send: specify exactly one of --text, --file, --delete")
	}
	return capTag, values, nil
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendFlagURL, "url", "", "Fabric Hub URL (overrides FABRIC_SERVER_URL)")
	sendCmd.Flags().StringVar(&sendFlagKey, "key", "", "Hub API key (overrides FABRIC_API_KEY)")
	sendCmd.Flags().StringVar(&sendFlagTarget, "target", "", "Target peer id")
	sendCmd.Flags().StringVar(&sendFlagText, "text", "", "Send a text message")
	sendCmd.Flags().StringVar(&sendFlagFile, "file", "", "Transfer a file")
	sendCmd.Flags().StringVar(&sendFlagDelete, "delete", "", "Request deletion of a remote file")
}

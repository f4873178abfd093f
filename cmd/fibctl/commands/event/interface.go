package event

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routingfib/corefib/cmd/fibctl/cmdutil"
)

var interfacePort uint32

var interfaceDownCmd = &cobra.Command{
	Use:   "interface-down",
	Short: "Inject a local interface-down transition",
	RunE:  runInterfaceDown,
}

var interfaceUpCmd = &cobra.Command{
	Use:   "interface-up",
	Short: "Inject a local interface-up transition",
	RunE:  runInterfaceUp,
}

func init() {
	interfaceDownCmd.Flags().Uint32Var(&interfacePort, "port", 0, "Interface port ID (required)")
	_ = interfaceDownCmd.MarkFlagRequired("port")
	interfaceUpCmd.Flags().Uint32Var(&interfacePort, "port", 0, "Interface port ID (required)")
	_ = interfaceUpCmd.MarkFlagRequired("port")
}

func runInterfaceDown(cmd *cobra.Command, args []string) error {
	if err := cmdutil.GetClient().InterfaceDown(interfacePort); err != nil {
		return fmt.Errorf("injecting interface-down event: %w", err)
	}
	cmdutil.PrintSuccess(fmt.Sprintf("port %d marked unreachable", interfacePort))
	return nil
}

func runInterfaceUp(cmd *cobra.Command, args []string) error {
	if err := cmdutil.GetClient().InterfaceUp(interfacePort); err != nil {
		return fmt.Errorf("injecting interface-up event: %w", err)
	}
	cmdutil.PrintSuccess(fmt.Sprintf("port %d marked reachable", interfacePort))
	return nil
}

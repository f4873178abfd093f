package event

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routingfib/corefib/cmd/fibctl/cmdutil"
)

var bfdSession string

var bfdDownCmd = &cobra.Command{
	Use:   "bfd-down",
	Short: "Inject a BFD session-down transition",
	RunE:  runBfdDown,
}

var bfdUpCmd = &cobra.Command{
	Use:   "bfd-up",
	Short: "Inject a BFD session-up transition",
	RunE:  runBfdUp,
}

func init() {
	bfdDownCmd.Flags().StringVar(&bfdSession, "session", "", "BFD session identifier registered via RegisterBfdSession (required)")
	_ = bfdDownCmd.MarkFlagRequired("session")
	bfdUpCmd.Flags().StringVar(&bfdSession, "session", "", "BFD session identifier registered via RegisterBfdSession (required)")
	_ = bfdUpCmd.MarkFlagRequired("session")
}

func runBfdDown(cmd *cobra.Command, args []string) error {
	if err := cmdutil.GetClient().BfdDown(bfdSession); err != nil {
		return fmt.Errorf("injecting bfd-down event: %w", err)
	}
	cmdutil.PrintSuccess(fmt.Sprintf("bfd session %s marked down", bfdSession))
	return nil
}

func runBfdUp(cmd *cobra.Command, args []string) error {
	if err := cmdutil.GetClient().BfdUp(bfdSession); err != nil {
		return fmt.Errorf("injecting bfd-up event: %w", err)
	}
	cmdutil.PrintSuccess(fmt.Sprintf("bfd session %s marked up", bfdSession))
	return nil
}

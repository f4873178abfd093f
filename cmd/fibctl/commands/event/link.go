package event

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routingfib/corefib/cmd/fibctl/cmdutil"
)

var (
	linkName string
	linkDown bool
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Inject an IGP link up/down transition",
	RunE:  runLink,
}

func init() {
	linkCmd.Flags().StringVar(&linkName, "link", "", "Link identifier registered via RegisterEcmpLink (required)")
	linkCmd.Flags().BoolVar(&linkDown, "down", false, "Bring the link down instead of up")
	_ = linkCmd.MarkFlagRequired("link")
}

func runLink(cmd *cobra.Command, args []string) error {
	if err := cmdutil.GetClient().LinkEvent(linkName, !linkDown); err != nil {
		return fmt.Errorf("injecting link event: %w", err)
	}
	state := "up"
	if linkDown {
		state = "down"
	}
	cmdutil.PrintSuccess(fmt.Sprintf("link %s marked %s", linkName, state))
	return nil
}

package route

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routingfib/corefib/cmd/fibctl/cmdutil"
	"github.com/routingfib/corefib/internal/cli/prompt"
)

var withdrawFlags keyFlags
var withdrawForce bool

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw a route",
	RunE:  runWithdraw,
}

func init() {
	withdrawFlags.register(withdrawCmd)
	withdrawCmd.Flags().BoolVarP(&withdrawForce, "force", "f", false, "skip the confirmation prompt")
}

func runWithdraw(cmd *cobra.Command, args []string) error {
	key, err := withdrawFlags.routeKey()
	if err != nil {
		return err
	}

	label := fmt.Sprintf("withdraw route %s/%d", key.Prefix, key.PrefixLen)
	ok, err := prompt.ConfirmWithForce(label, withdrawForce)
	if err != nil {
		return fmt.Errorf("confirming withdraw: %w", err)
	}
	if !ok {
		cmdutil.PrintSuccess("withdraw cancelled")
		return nil
	}

	client := cmdutil.GetClient()
	if err := client.WithdrawRoute(key); err != nil {
		return fmt.Errorf("withdrawing route: %w", err)
	}
	cmdutil.PrintSuccess(fmt.Sprintf("route %s/%d withdrawn", key.Prefix, key.PrefixLen))
	return nil
}

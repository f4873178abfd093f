package route

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routingfib/corefib/cmd/fibctl/cmdutil"
	"github.com/routingfib/corefib/internal/fib/handle"
)

var (
	updateFlags   keyFlags
	updateNewRoot uint64
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rebind a route to a new resolution root",
	RunE:  runUpdate,
}

func init() {
	updateFlags.register(updateCmd)
	updateCmd.Flags().Uint64Var(&updateNewRoot, "root", 0, "New resolution-object handle (required)")
	_ = updateCmd.MarkFlagRequired("root")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	key, err := updateFlags.routeKey()
	if err != nil {
		return err
	}
	client := cmdutil.GetClient()
	if err := client.UpdateRoute(key, handle.Handle(updateNewRoot)); err != nil {
		return fmt.Errorf("updating route: %w", err)
	}
	cmdutil.PrintSuccess(fmt.Sprintf("route %s/%d updated", key.Prefix, key.PrefixLen))
	return nil
}

package event

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routingfib/corefib/cmd/fibctl/cmdutil"
	"github.com/routingfib/corefib/internal/fib/routetable"
	"github.com/routingfib/corefib/internal/fib/store"
)

var (
	routeChangeID   uint64
	routeChangeKind string
)

var routeChangeCmd = &cobra.Command{
	Use:   "route-change",
	Short: "Notify the core of an external LPM route-table change",
	RunE:  runRouteChange,
}

func init() {
	routeChangeCmd.Flags().Uint64Var(&routeChangeID, "route-id", 0, "LPM route ID (required)")
	routeChangeCmd.Flags().StringVar(&routeChangeKind, "change", "modified", "Change kind: added|modified|withdrawn")
	_ = routeChangeCmd.MarkFlagRequired("route-id")
}

func runRouteChange(cmd *cobra.Command, args []string) error {
	var kind routetable.ChangeKind
	switch routeChangeKind {
	case "added":
		kind = routetable.ChangeAdded
	case "modified":
		kind = routetable.ChangeModified
	case "withdrawn":
		kind = routetable.ChangeWithdrawn
	default:
		return fmt.Errorf("unknown change kind %q, want added|modified|withdrawn", routeChangeKind)
	}

	if err := cmdutil.GetClient().RouteChange(store.RouteID(routeChangeID), kind); err != nil {
		return fmt.Errorf("injecting route-change event: %w", err)
	}
	cmdutil.PrintSuccess(fmt.Sprintf("route %d marked %s", routeChangeID, routeChangeKind))
	return nil
}

package store

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/routingfib/corefib/cmd/fibctl/cmdutil"
	"github.com/routingfib/corefib/internal/cli/output"
	"github.com/routingfib/corefib/internal/fib/handle"
)

var nodeCmd = &cobra.Command{
	Use:   "node <handle>",
	Short: "Dump one node by handle",
	Args:  cobra.ExactArgs(1),
	RunE:  runNode,
}

func runNode(cmd *cobra.Command, args []string) error {
	hv, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid handle %q: %w", args[0], err)
	}
	node, err := cmdutil.GetClient().GetNode(handle.Handle(hv))
	if err != nil {
		return fmt.Errorf("fetching node: %w", err)
	}
	return output.PrintJSON(os.Stdout, node)
}

// Package store implements node-store introspection commands for fibctl.
package store

import "github.com/spf13/cobra"

// Cmd is the parent command for node store introspection.
var Cmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the node store",
	Long: `Inspect the resolution-object node store of a running corefib process.

Examples:
  # Print the current node count
  fibctl store stats

  # Dump one node by handle
  fibctl store node 42`,
}

func init() {
	Cmd.AddCommand(statsCmd)
	Cmd.AddCommand(nodeCmd)
}

// Package route implements route lifecycle commands for fibctl.
package route

import "github.com/spf13/cobra"

// Cmd is the parent command for route lifecycle management.
var Cmd = &cobra.Command{
	Use:   "route",
	Short: "Install, update and withdraw routes",
	Long: `Drive a running corefib process's route lifecycle API.

Examples:
  # Install a route bound to an already-resolved handle
  fibctl route install --family ipv4 --prefix 10.0.0.0 --len 24 --root 42

  # Rebind a route to a new resolution root
  fibctl route update --family ipv4 --prefix 10.0.0.0 --len 24 --root 43

  # Withdraw a route
  fibctl route withdraw --family ipv4 --prefix 10.0.0.0 --len 24`,
}

func init() {
	Cmd.AddCommand(installCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(withdrawCmd)
}

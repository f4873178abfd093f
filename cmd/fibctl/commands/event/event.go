// Package event implements liveness-event injection commands for fibctl,
// giving a test rig the same triggers a dataplane agent would call on the
// core directly: link, BFD, interface and LPM route-table transitions.
package event

import "github.com/spf13/cobra"

// Cmd is the parent command for liveness-event injection.
var Cmd = &cobra.Command{
	Use:   "event",
	Short: "Inject liveness events",
	Long: `Inject the liveness events a dataplane agent would normally deliver,
useful for driving PIC Core/PIC Edge reconvergence from a test rig.

Examples:
  # Bring an IGP-resolved link down, triggering PIC Core ECMP redistribution
  fibctl event link --link core-1 --down

  # Signal a BFD session down, triggering PIC Edge FRR failover
  fibctl event bfd-down --session bfd-1

  # Notify the core of an external LPM route-table change
  fibctl event route-change --route-id 7 --change withdrawn`,
}

func init() {
	Cmd.AddCommand(linkCmd)
	Cmd.AddCommand(bfdDownCmd)
	Cmd.AddCommand(bfdUpCmd)
	Cmd.AddCommand(interfaceDownCmd)
	Cmd.AddCommand(interfaceUpCmd)
	Cmd.AddCommand(routeChangeCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/routingfib/corefib/cmd/fibctl/cmdutil"
	"github.com/routingfib/corefib/cmd/fibctl/commands/event"
	"github.com/routingfib/corefib/cmd/fibctl/commands/route"
	"github.com/routingfib/corefib/cmd/fibctl/commands/store"
)

var rootCmd = &cobra.Command{
	Use:   "fibctl",
	Short: "Command-line client for a corefib orchestrator process",
	Long: `fibctl drives a running corefib process's HTTP/JSON API: install,
update and withdraw routes, inspect the node store, and inject the
liveness events a dataplane agent would otherwise deliver.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cmdutil.Flags.ServerURL, "server", "http://localhost:8080", "corefib API server URL")
	rootCmd.PersistentFlags().StringVarP(&cmdutil.Flags.Output, "output", "o", "table", "Output format: table|json|yaml")

	rootCmd.AddCommand(route.Cmd)
	rootCmd.AddCommand(store.Cmd)
	rootCmd.AddCommand(event.Cmd)
}

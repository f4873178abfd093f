package route

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routingfib/corefib/cmd/fibctl/cmdutil"
	"github.com/routingfib/corefib/internal/fib/handle"
)

var (
	installFlags keyFlags
	installRoot  uint64
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a route",
	RunE:  runInstall,
}

func init() {
	installFlags.register(installCmd)
	installCmd.Flags().Uint64Var(&installRoot, "root", 0, "Resolution-object handle this route resolves to (required)")
	_ = installCmd.MarkFlagRequired("root")
}

func runInstall(cmd *cobra.Command, args []string) error {
	key, err := installFlags.routeKey()
	if err != nil {
		return err
	}
	client := cmdutil.GetClient()
	if err := client.InstallRoute(key, handle.Handle(installRoot)); err != nil {
		return fmt.Errorf("installing route: %w", err)
	}
	cmdutil.PrintSuccess(fmt.Sprintf("route %s/%d installed", key.Prefix, key.PrefixLen))
	return nil
}

package store

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/routingfib/corefib/cmd/fibctl/cmdutil"
	"github.com/routingfib/corefib/internal/cli/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print node store size",
	RunE:  runStats,
}

type statsTable struct{ nodeCount int }

func (t statsTable) Headers() []string { return []string{"NODE COUNT"} }
func (t statsTable) Rows() [][]string {
	return [][]string{{strconv.Itoa(t.nodeCount)}}
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := cmdutil.GetClient().StoreStats()
	if err != nil {
		return fmt.Errorf("fetching store stats: %w", err)
	}
	return cmdutil.PrintOutput(os.Stdout, stats, false, "", statsTable{nodeCount: stats.NodeCount})
}

var _ output.TableRenderer = statsTable{}

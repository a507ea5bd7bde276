package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/notedesk/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show note statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

type statsOutput struct {
	Path string `json:"path"`
	store.Stats
}

func runStats(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	printJSON(cmd, statsOutput{Path: a.cfg.StoragePath(), Stats: a.store.Stats()})
}

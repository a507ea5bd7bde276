package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/notedesk/internal/logging"
	"github.com/rcliao/notedesk/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow changes other processes make to the notes file",
		Long:  "Reload and print stats whenever the snapshot file changes. Requires the file backend.",
		Run:   runWatch,
	}

	RootCmd.AddCommand(cmd)
}

type watchEvent struct {
	At time.Time `json:"at"`
	store.Stats
}

func runWatch(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	fs, ok := a.slot.(*store.FileSlot)
	if !ok {
		exitErr("watch", fmt.Errorf("backend %q cannot be watched; use --backend file", a.slot.Backend()))
	}

	ctx := cmd.Context()
	changes, err := fs.Watch(ctx)
	if err != nil {
		exitErr("watch", err)
	}
	a.logger.Info("watching", zap.String(logging.FieldPath, fs.Path()))

	for at := range changes {
		if err := a.store.Reload(ctx); err != nil {
			a.logger.Warn("reload failed", zap.Error(err))
			continue
		}
		printJSON(cmd, watchEvent{At: at, Stats: a.store.Stats()})
	}
}

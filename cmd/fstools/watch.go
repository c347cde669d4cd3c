package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/fstools/internal/logger"
	"github.com/Ning0612/fstools/internal/service"
)

var (
	watchInterval time.Duration
	watchJobs     []string
	watchNow      bool
	watchStatus   bool
	watchStop     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run configured sync jobs on an interval",
	Long: `Watch runs every enabled job from the config (or those named with --job)
each --interval until interrupted. A PID file in the state directory
prevents two watchers from running at once; --status and --stop act on
the recorded watcher.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "time between runs (default from config)")
	watchCmd.Flags().StringSliceVar(&watchJobs, "job", nil, "jobs to run (default all enabled)")
	watchCmd.Flags().BoolVar(&watchNow, "now", false, "run once immediately instead of waiting one interval")
	watchCmd.Flags().BoolVar(&watchStatus, "status", false, "report on the running watcher and exit")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop the running watcher and exit")
	watchCmd.MarkFlagsMutuallyExclusive("status", "stop")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	tk, err := newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	w, err := service.NewWatcher(tk)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case watchStop:
		return w.StopRemote()
	case watchStatus:
		status, err := w.Status(ctx)
		if err != nil {
			return err
		}
		if status.Running {
			fmt.Fprintf(out, "watcher running (PID %d)\n", status.PID)
		} else {
			fmt.Fprintln(out, "watcher not running")
		}
		if last := status.LastExecution; last != nil {
			fmt.Fprintf(out, "last run: %s %s %s, %s\n",
				last.Operation, last.Job, last.Status, humanize.Time(last.StartTime))
		}
		return nil
	}

	if err := w.Start(ctx, service.WatchOptions{
		Interval:   watchInterval,
		Jobs:       watchJobs,
		RunOnStart: watchNow,
	}); err != nil {
		return err
	}

	<-w.Done()
	logger.Get().Info("Shutting down watcher")
	return w.Stop()
}

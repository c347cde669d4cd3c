package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/fstools/internal/core/diff"
	"github.com/Ning0612/fstools/internal/core/synchronizer"
	"github.com/Ning0612/fstools/internal/domain"
	"github.com/Ning0612/fstools/internal/service"
)

var (
	syncExcludes []string
	syncJob      string
	syncCompare  string
	syncVerbose  bool
	syncUnlock   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [source target]",
	Short: "Mirror source into target, copying missing or newer files",
	Long: `Sync copies every file of source that is missing from target, or whose
modification time is strictly newer than the target copy. Nothing in
target is ever deleted.

With --compare size-time the rule changes: a file is copied whenever its
size or modification time differs from the target copy, so a target
that is newer than the source is overwritten. Use it to restore a target
to the source's state.

Either give source and target, or name a job from the config with --job.
Only one sync may run against a state directory at a time.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if syncUnlock || syncJob != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into subdirectories")
	syncCmd.Flags().StringArrayVar(&syncExcludes, "exclude", nil, "skip paths matching this glob (repeatable, ** allowed)")
	syncCmd.Flags().StringVar(&syncJob, "job", "", "run the named job from the config")
	syncCmd.Flags().StringVar(&syncCompare, "compare", "newer", "copy rule: newer or size-time")
	syncCmd.Flags().BoolVarP(&syncVerbose, "verbose", "v", false, "print every visited file")
	syncCmd.Flags().BoolVar(&syncUnlock, "force-unlock", false, "remove a lock left by a crashed sync and exit")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	tk, err := newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	if syncUnlock {
		return tk.ForceUnlock()
	}

	out := cmd.OutOrStdout()
	var recorder synchronizer.Recorder
	if syncVerbose {
		recorder = synchronizer.RecorderFunc(func(e domain.SyncEvent) error {
			_, err := fmt.Fprintf(out, "%s -> %s\n", e.Source, e.Target)
			return err
		})
	}

	var result *service.SyncResult
	if syncJob != "" {
		result, err = tk.SyncJob(ctx, syncJob, recorder)
	} else {
		comparer, cerr := diff.ByName(syncCompare)
		if cerr != nil {
			return cerr
		}
		result, err = tk.Sync(ctx, service.SyncRequest{
			Source:    args[0],
			Target:    args[1],
			Recursive: recursive,
			Excludes:  syncExcludes,
			Comparer:  comparer,
			Recorder:  recorder,
		})
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d files checked, %d copied (%s) in %s\n",
		result.Files, result.Copied, humanize.IBytes(uint64(result.Bytes)), result.Duration.Round(time.Millisecond))
	return nil
}

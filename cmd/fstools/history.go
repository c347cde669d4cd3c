package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/fstools/internal/state"
)

var (
	historyJob   string
	historyOp    string
	historyLimit int
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded split, join and sync runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyJob, "job", "", "only runs of this job")
	historyCmd.Flags().StringVar(&historyOp, "op", "", "only this operation (sync, split, join)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete runs older than this and exit, e.g. 720h")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	tk, err := newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	out := cmd.OutOrStdout()
	if historyPrune > 0 {
		removed, err := tk.PruneHistory(ctx, time.Now().Add(-historyPrune))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d runs removed\n", removed)
		return nil
	}

	records, err := tk.History(ctx, state.Query{Job: historyJob, Operation: historyOp, Limit: historyLimit})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tOPERATION\tJOB\tSTATUS\tFILES\tBYTES\tDURATION\tERROR")
	for _, r := range records {
		job := r.Job
		if job == "" {
			job = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			humanize.Time(r.StartTime), r.Operation, job, r.Status,
			r.Files, humanize.IBytes(uint64(r.Bytes)),
			r.Duration().Round(time.Millisecond), r.Error)
	}
	return tw.Flush()
}

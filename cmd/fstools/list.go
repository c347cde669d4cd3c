package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/fstools/internal/domain"
)

var (
	recursive  bool
	jsonOutput bool
	searchExt  string
)

var listCmd = &cobra.Command{
	Use:   "list <dir>",
	Short: "List a directory, optionally as a tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var searchCmd = &cobra.Command{
	Use:   "search <dir> [pattern]",
	Short: "Find files whose path matches a glob pattern",
	Long: `Search lists the files under dir whose full path matches pattern.
Use * for any run of characters and ? for one character, for example
"*.txt" or "*/2024-??-*". With --ext the pattern is "*.<ext>".`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSearch,
}

func init() {
	for _, cmd := range []*cobra.Command{listCmd, searchCmd} {
		cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into subdirectories")
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "print entries as JSON")
	}
	searchCmd.Flags().StringVar(&searchExt, "ext", "", "match files with this extension")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	tk, err := newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	entries, err := tk.List(ctx, args[0], recursive)
	if err != nil {
		return err
	}
	return printEntries(cmd.OutOrStdout(), entries)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 2 && searchExt != "" {
		return fmt.Errorf("give either a pattern or --ext, not both")
	}
	if len(args) == 1 && searchExt == "" {
		return fmt.Errorf("a pattern or --ext is required")
	}

	ctx, cancel := signalContext()
	defer cancel()

	tk, err := newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	var entries []domain.Entry
	if searchExt != "" {
		entries, err = tk.SearchByExtension(ctx, args[0], searchExt, recursive)
	} else {
		entries, err = tk.Search(ctx, args[0], args[1], recursive)
	}
	if err != nil {
		return err
	}
	return printEntries(cmd.OutOrStdout(), entries)
}

func printEntries(w io.Writer, entries []domain.Entry) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		writeEntry(tw, e, 0)
	}
	return tw.Flush()
}

func writeEntry(w io.Writer, e domain.Entry, depth int) {
	name := strings.Repeat("  ", depth) + e.Name
	size := "-"
	if e.IsDir() {
		name += "/"
	} else if e.Size != nil {
		size = humanize.IBytes(uint64(*e.Size))
	}
	fmt.Fprintf(w, "%s\t%s\t%s\n", name, size, humanize.Time(e.ModTime))

	for _, child := range e.Children {
		writeEntry(w, child, depth+1)
	}
}

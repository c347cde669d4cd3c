package main

import (
	"fmt"
	"path/filepath"

	"github.com/c2h5oh/datasize"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/fstools/internal/service"
)

var (
	splitSize string
	splitOut  string
	joinFrom  string
)

var splitCmd = &cobra.Command{
	Use:   "split <file>",
	Short: "Split a file into <name>.part0, <name>.part1, ...",
	Long: `Split cuts a file into consecutive parts of --size bytes (the last part
may be shorter). Sizes accept units such as 512KB, 10MB or 1GB, which are
binary multiples. The default comes from split.chunk_size in the config.`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

var joinCmd = &cobra.Command{
	Use:   "join <dest> [part...]",
	Short: "Concatenate parts back into one file",
	Long: `Join writes the given parts, in order, into dest. With --from the parts
of the named original file are discovered as <from>.part0, .part1, ...
up to the first missing index.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runJoin,
}

func init() {
	splitCmd.Flags().StringVar(&splitSize, "size", "", "part size, e.g. 10MB (default from config)")
	splitCmd.Flags().StringVar(&splitOut, "out", "", "directory for the parts (default is the file's directory)")
	joinCmd.Flags().StringVar(&joinFrom, "from", "", "original file whose parts should be joined")

	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(joinCmd)
}

// parseSize turns "10MB" into bytes; an empty string means the config default
func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if size == 0 {
		return 0, fmt.Errorf("size must be positive")
	}
	return int64(size.Bytes()), nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	chunk, err := parseSize(splitSize)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	tk, err := newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	parts, err := tk.Split(ctx, service.SplitRequest{
		Source:    args[0],
		OutputDir: splitOut,
		ChunkSize: chunk,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range parts {
		fmt.Fprintf(out, "%s\t%s\n", p.Path, humanize.IBytes(uint64(p.Size)))
	}
	return nil
}

func runJoin(cmd *cobra.Command, args []string) error {
	dest, parts := args[0], args[1:]
	if len(parts) == 0 && joinFrom == "" {
		return fmt.Errorf("list the parts or use --from")
	}
	if len(parts) > 0 && joinFrom != "" {
		return fmt.Errorf("give either parts or --from, not both")
	}

	ctx, cancel := signalContext()
	defer cancel()

	tk, err := newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	written, err := tk.Join(ctx, service.JoinRequest{Dest: dest, Parts: parts, From: joinFrom})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", filepath.Clean(dest), humanize.IBytes(uint64(written)))
	return nil
}

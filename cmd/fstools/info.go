package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/fstools/internal/adapter/local"
	"github.com/Ning0612/fstools/internal/core/checksum"
	"github.com/Ning0612/fstools/internal/fileinfo"
	"github.com/Ning0612/fstools/internal/tempfile"
)

var infoHash string

var infoCmd = &cobra.Command{
	Use:   "info <file|data-url>",
	Short: "Show size, type and optionally a checksum of a file",
	Long: `Info prints a file's metadata: size, MIME type (sniffed from content,
falling back to the extension), extension and modification time.
The argument may also be a data: URL, which is decoded to a temporary
file for inspection.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringVar(&infoHash, "hash", "", "also print a checksum: "+supportedHashes())
	infoCmd.Flags().BoolVar(&jsonOutput, "json", false, "print metadata as JSON")

	rootCmd.AddCommand(infoCmd)
}

func supportedHashes() string {
	var names []string
	for _, a := range checksum.Supported() {
		names = append(names, string(a))
	}
	return strings.Join(names, ", ")
}

type infoOutput struct {
	fileinfo.Metadata
	Hash string `json:"hash,omitempty"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	var algo checksum.Algorithm
	if infoHash != "" {
		a, err := checksum.Parse(infoHash)
		if err != nil {
			return err
		}
		algo = a
	}

	ctx, cancel := signalContext()
	defer cancel()

	file, cleanup, err := openInfoTarget(ctx, args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	meta, err := file.Metadata(ctx)
	if err != nil {
		return err
	}
	result := infoOutput{Metadata: meta}
	if algo != "" {
		if result.Hash, err = file.Hash(ctx, algo); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "path\t%s\n", meta.Path)
	fmt.Fprintf(tw, "size\t%s (%s bytes)\n", humanize.IBytes(uint64(meta.Size)), humanize.Comma(meta.Size))
	fmt.Fprintf(tw, "type\t%s\n", meta.MimeType)
	fmt.Fprintf(tw, "extension\t%s\n", meta.Extension)
	fmt.Fprintf(tw, "modified\t%s (%s)\n", meta.LastModified, humanize.Time(file.ModTime()))
	if result.Hash != "" {
		fmt.Fprintf(tw, "%s\t%s\n", algo, result.Hash)
	}
	return tw.Flush()
}

// openInfoTarget opens a path, or decodes a data URL into a temp file that
// cleanup removes
func openInfoTarget(ctx context.Context, arg string) (*fileinfo.File, func(), error) {
	if !strings.HasPrefix(arg, "data:") {
		f, err := fileinfo.Open(ctx, local.New(), arg)
		return f, func() {}, err
	}

	tmp, err := tempfile.FromBase64(arg)
	if err != nil {
		return nil, nil, err
	}
	f, err := tmp.Info(ctx)
	if err != nil {
		tmp.Close()
		return nil, nil, err
	}
	return f, func() { tmp.Close() }, nil
}

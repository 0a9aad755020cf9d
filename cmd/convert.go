package cmd

import (
	"context"
	"fmt"

	"github.com/resolv-libs/resolv-data/internal/store"
	"github.com/spf13/cobra"
)

var flagConvertForce bool

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Rewrite an index file in another format",
	Long: `Read an index file and write the same catalog to out. The extension of
each path picks its format: .json, .zst/.zstd, anything else is binary.

Unknown fields survive binary and zstd conversions; JSON has no place for
them and drops them.

Example:
  resolv-data convert index.bin index.json
  resolv-data convert index.json index.bin.zst`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&flagConvertForce, "force", false, "Replace out even if it holds the same version with different content")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	x, err := store.Load(in)
	if err != nil {
		return err
	}
	if store.FormatFor(out) == store.JSON && x.HasUnknownFields() {
		printWarn(x.ID, "unknown fields are dropped in JSON")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := store.Write(ctx, out, x, store.WriteOptions{Force: flagConvertForce})
	if err != nil {
		return err
	}
	if res.Unchanged {
		printSkip(x.ID, fmt.Sprintf("%s already holds this catalog", out))
		return nil
	}
	printOK(x.ID, fmt.Sprintf("%s (%s) -> %s (%s)", in, store.FormatFor(in), out, res.Format))
	return nil
}

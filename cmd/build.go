package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/resolv-libs/resolv-data/internal/catalog"
	"github.com/resolv-libs/resolv-data/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagBuildOut     string
	flagBuildPrefix  string
	flagBuildForce   bool
	flagBuildWorkers int
)

var buildCmd = &cobra.Command{
	Use:   "build <dataset> <mode> [dir]",
	Short: "Catalog a dataset directory and publish its index",
	Long: `Walk a dataset directory that is already on disk, checksum every file
and write the catalog.

dir defaults to <datasets_dir>/<root dir name>, e.g.
~/.resolv/datasets/maestro-v3.0.0-midi. The index is written inside dir
unless --out is given; its extension picks the format (.json, .zst, binary).

Example:
  resolv-data build maestro-v3 midi
  resolv-data build lakh-midi-v1 clean ./clean_midi --out clean.json
  resolv-data build jsb-chorales-v1 full --prefix s3://bucket/jsb`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&flagBuildOut, "out", "", "Index file to write (default: <dir>/index.bin or index.bin.zst)")
	buildCmd.Flags().StringVar(&flagBuildPrefix, "prefix", "", "Path prefix recorded instead of the dataset directory")
	buildCmd.Flags().BoolVar(&flagBuildForce, "force", false, "Replace an existing index even if its version is unchanged")
	buildCmd.Flags().IntVar(&flagBuildWorkers, "workers", 0, "Concurrent file hashing (default: reconcile_workers from config)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	name, mode := args[0], args[1]
	ds, err := catalog.Lookup(name)
	if err != nil {
		return err
	}

	dir := filepath.Join(cfg.DatasetsDir, catalog.RootDirName(ds, mode))
	if len(args) == 3 {
		dir = args[2]
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return fmt.Errorf("dataset directory %s not found\nDownload and unpack it first; 'resolv-data datasets %s' lists the archives.", dir, name)
	}
	out := flagBuildOut
	if out == "" {
		out = filepath.Join(dir, cfg.IndexFileName())
	}
	workers := flagBuildWorkers
	if workers == 0 {
		workers = cfg.ReconcileWorkers
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	printInfo(name, fmt.Sprintf("cataloging %s (%s)", dir, mode))
	x, err := catalog.Build(ctx, name, mode, dir, catalog.BuildOptions{PathPrefix: flagBuildPrefix, Workers: workers})
	if err != nil {
		return err
	}

	res, err := store.Write(ctx, out, x, store.WriteOptions{Force: flagBuildForce})
	if err != nil {
		return err
	}
	if res.Unchanged {
		printSkip(name, fmt.Sprintf("index unchanged: %s", out))
		return nil
	}
	printOK(name, fmt.Sprintf("%d entries written to %s (%s, fingerprint %s)", len(x.Entries), out, res.Format, res.Fingerprint))
	return nil
}

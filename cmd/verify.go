package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/resolv-libs/resolv-data/internal/reconcile"
	"github.com/resolv-libs/resolv-data/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagVerifyRoot    string
	flagVerifyWorkers int
	flagVerifyAll     bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <index>",
	Short: "Compare recorded checksums with the files on disk",
	Long: `Hash every local file an index points to and compare it with the
recorded md5 checksum. Relative paths resolve against --root, which
defaults to the directory holding the index. Remote paths are skipped.

Only problems are listed unless --all is given. Exits non-zero when a file
is missing, unreadable or has a different checksum.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&flagVerifyRoot, "root", "", "Directory relative paths resolve against")
	verifyCmd.Flags().IntVar(&flagVerifyWorkers, "workers", 0, "Concurrent file hashing (default: reconcile_workers from config)")
	verifyCmd.Flags().BoolVar(&flagVerifyAll, "all", false, "List every file, not only problems")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := args[0]
	x, err := store.Load(path)
	if err != nil {
		return err
	}

	root := flagVerifyRoot
	if root == "" {
		root = filepath.Dir(path)
	}
	workers := flagVerifyWorkers
	if workers == 0 {
		workers = cfg.ReconcileWorkers
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rep, err := reconcile.Reconcile(ctx, x, reconcile.Options{Workers: workers, Root: root})
	if err != nil {
		return err
	}

	printSection("Files")
	for _, f := range rep.Findings {
		printFinding(f, flagVerifyAll)
	}

	printSection("Summary")
	fmt.Printf("  ok: %d  mismatch: %d  missing: %d  unreadable: %d  no checksum: %d  skipped: %d\n",
		rep.Count(reconcile.OK), rep.Count(reconcile.Mismatch), rep.Count(reconcile.Missing),
		rep.Count(reconcile.Unreadable), rep.Count(reconcile.NoChecksum), rep.Count(reconcile.Skipped))
	if rep.Failed() {
		return fmt.Errorf("%s does not match the files on disk", path)
	}
	return nil
}

func printFinding(f reconcile.Finding, all bool) {
	name := f.EntryID + "/" + f.FileKey
	switch f.Status {
	case reconcile.Mismatch:
		printErr(name, fmt.Sprintf("%s: expected %s, got %s", f.Path, f.Expected, f.Actual))
	case reconcile.Missing:
		printMiss(name, f.Path+": not found")
	case reconcile.Unreadable:
		printErr(name, fmt.Sprintf("%s: %s", f.Path, f.Detail))
	case reconcile.NoChecksum:
		printWarn(name, f.Path+": no checksum recorded")
	case reconcile.Skipped:
		if all {
			printSkip(name, f.Path+": not a local path")
		}
	default:
		if all {
			printOK(name, f.Path)
		}
	}
}

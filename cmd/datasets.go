package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/resolv-libs/resolv-data/internal/catalog"
	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets [name]",
	Short: "List the datasets resolv-data can catalog",
	Long: `Without arguments, list every known dataset with its modes.
With a dataset name, show its description, license, citation and the
archives each mode is published as.

Example:
  resolv-data datasets
  resolv-data datasets maestro-v3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDatasets,
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}

func runDatasets(_ *cobra.Command, args []string) error {
	if len(args) == 1 {
		return showDataset(args[0])
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDATASET\tVERSION\tMODES")
	for _, name := range catalog.Names() {
		ds := catalog.Registry[name]
		info := ds.Info()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, info.Name, info.Version, strings.Join(ds.Modes(), ", "))
	}
	return w.Flush()
}

func showDataset(name string) error {
	ds, err := catalog.Lookup(name)
	if err != nil {
		return err
	}
	info := ds.Info()

	printSection(fmt.Sprintf("%s v%s", info.Name, info.Version))
	fmt.Println(info.Description)
	if info.Homepage != "" {
		fmt.Printf("\nHomepage: %s\n", info.Homepage)
	}
	if info.License != "" {
		fmt.Printf("License:  %s\n", info.License)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, mode := range ds.Modes() {
		root := filepath.Join(cfg.DatasetsDir, catalog.RootDirName(ds, mode))
		printBullet(fmt.Sprintf("Mode %s → %s", mode, root))
		for _, src := range ds.Sources(mode) {
			printInfo(src.Filename, src.URL)
			fmt.Printf("        sha256 %s\n", src.SHA256)
		}
	}

	if info.Citation != "" {
		printSection("Citation")
		fmt.Println(info.Citation)
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/resolv-libs/resolv-data/internal/search"
	"github.com/resolv-libs/resolv-data/internal/store"
	"github.com/spf13/cobra"
)

var flagSearchK int

var searchCmd = &cobra.Command{
	Use:   "search <index> <query...>",
	Short: "Find entries of an index by keyword",
	Long: `Search the entries of an index file by case-insensitive keyword over id,
composer, title, release, split and file keys. Every query word must match.

A word of the form field:value only matches that field. Fields: id,
composer, title, release, split, file.

Example:
  resolv-data search index.bin chopin ballade
  resolv-data search index.bin.zst composer:bach split:test`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&flagSearchK, "k", 20, "Maximum number of results (0 = all)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(_ *cobra.Command, args []string) error {
	x, err := store.Load(args[0])
	if err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(args[1:], " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}
	results := search.KeywordSearch(search.Docs(x), query, flagSearchK)
	printSearchResults(query, results)
	return nil
}

func printSearchResults(query string, results []search.SearchResult) {
	fmt.Printf("\nresolv-data search %q\n\n", query)
	fmt.Printf("Results (%d found):\n", len(results))
	if len(results) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, r := range results {
		label := r.Entry.Title
		if r.Entry.Composer != "" {
			label = r.Entry.Composer + " - " + label
		}
		fmt.Fprintf(w, "  %d.\t[%.1f]\t%s\t%s\n", i+1, r.Score, r.Entry.ID, strings.TrimSpace(label))
		fmt.Fprintf(w, "  \t\t\tmatched: %s\n", r.Why)
	}
	_ = w.Flush()
}

package cmd

import (
	"fmt"

	"github.com/resolv-libs/resolv-data/internal/index"
	"github.com/resolv-libs/resolv-data/internal/store"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <index>",
	Short: "Check an index file for structural violations",
	Long: `Decode an index file and check its structural rules: unique entry ids,
unique file keys per entry, md5 checksum format and well-formed variants.
Exits non-zero when any rule is broken.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	path := args[0]
	x, err := store.Load(path)
	if err != nil {
		return err
	}
	vs := index.Validate(x)
	if len(vs) == 0 {
		printOK(x.ID, fmt.Sprintf("%d entries, no violations", len(x.Entries)))
		return nil
	}
	for _, v := range vs {
		name := v.EntryID
		if v.FileKey != "" {
			name += "/" + v.FileKey
		}
		printErr(name, v.Message)
	}
	return fmt.Errorf("%s: %d violation(s)", path, len(vs))
}

package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/resolv-libs/resolv-data/internal/index"
	"github.com/resolv-libs/resolv-data/internal/store"
	"github.com/spf13/cobra"
)

var flagInspectEntry string

var inspectCmd = &cobra.Command{
	Use:   "inspect <index>",
	Short: "Show a summary of an index file",
	Long: `Display the identity of an index file (id, version, schema revision,
format, fingerprint) and counts of its entries, splits and file roles.

With --entry, show one entry in full.

Example:
  resolv-data inspect ~/.resolv/datasets/maestro-v3.0.0-midi/index.bin
  resolv-data inspect index.json --entry 2018/track1`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&flagInspectEntry, "entry", "", "Show the entry with this id")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, args []string) error {
	path := args[0]
	x, err := store.Load(path)
	if err != nil {
		return err
	}
	if flagInspectEntry != "" {
		e, ok := x.Entry(flagInspectEntry)
		if !ok {
			return fmt.Errorf("entry %q not found in %s", flagInspectEntry, path)
		}
		printEntry(e)
		return nil
	}

	rev, _ := index.VersionSchema(x.Version)
	printSection("Index")
	fmt.Printf("  ID:          %s\n", emptyAsNA(x.ID))
	fmt.Printf("  Version:     %s\n", emptyAsNA(x.Version))
	fmt.Printf("  Schema:      revision %d\n", rev)
	fmt.Printf("  Format:      %s\n", store.FormatFor(path))
	fmt.Printf("  Fingerprint: %s\n", store.Fingerprint(x))
	fmt.Printf("  Entries:     %d\n", len(x.Entries))

	splits := map[string]int{}
	keys := map[string]int{}
	var files, unknownVariants, noChecksum int
	for i := range x.Entries {
		e := &x.Entries[i]
		splits[e.Split]++
		if _, ok := e.Metadata.(*index.UnknownMetadata); ok {
			unknownVariants++
		}
		for _, nf := range e.Files {
			files++
			keys[nf.Key]++
			if nf.File.MD5Checksum == "" {
				noChecksum++
			}
			if _, ok := nf.File.Attributes.(*index.UnknownAttributes); ok {
				unknownVariants++
			}
		}
	}

	printSection("Splits")
	printCounts(splits, "(none)")
	printSection("Files")
	fmt.Printf("  Total:       %d\n", files)
	printCounts(keys, "(empty key)")

	if noChecksum > 0 {
		printWarn("", fmt.Sprintf("%d file(s) without md5 checksum", noChecksum))
	}
	if unknownVariants > 0 {
		printInfo("", fmt.Sprintf("%d variant(s) from a newer schema, kept as-is", unknownVariants))
	}
	if len(x.UnknownFields) > 0 {
		printInfo("", fmt.Sprintf("%d byte(s) of unknown index fields, kept as-is", len(x.UnknownFields)))
	}
	return nil
}

func printCounts(m map[string]int, emptyLabel string) {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		label := k
		if label == "" {
			label = emptyLabel
		}
		fmt.Printf("  %-12s %d\n", label+":", m[k])
	}
}

func printEntry(e *index.Entry) {
	printSection("Entry " + e.ID)
	fmt.Printf("  Split:       %s\n", emptyAsNA(e.Split))
	switch m := e.Metadata.(type) {
	case *index.MusicTrackMetadata:
		fmt.Printf("  Composer:    %s\n", emptyAsNA(m.Composer))
		fmt.Printf("  Title:       %s\n", emptyAsNA(m.Title))
		if m.Year != 0 {
			fmt.Printf("  Year:        %d\n", m.Year)
		}
		if m.Duration != 0 {
			fmt.Printf("  Duration:    %.2fs\n", m.Duration)
		}
		if m.Release != "" {
			fmt.Printf("  Release:     %s\n", m.Release)
		}
	case *index.UnknownMetadata:
		fmt.Printf("  Metadata:    unknown variant (tag %d, %d bytes)\n", m.Tag, len(m.Raw))
	default:
		fmt.Printf("  Metadata:    n/a\n")
	}

	printBullet("Files:")
	for _, nf := range e.Files {
		var extra []string
		if nf.File.MD5Checksum != "" {
			extra = append(extra, "md5 "+nf.File.MD5Checksum)
		}
		switch a := nf.File.Attributes.(type) {
		case *index.SymbolicMusicFileAttributes:
			extra = append(extra, fmt.Sprintf("match %.4f", a.MatchScore))
		case *index.UnknownAttributes:
			extra = append(extra, fmt.Sprintf("unknown attributes (tag %d)", a.Tag))
		}
		msg := nf.File.Path
		if len(extra) > 0 {
			msg += "  (" + strings.Join(extra, ", ") + ")"
		}
		printOK(nf.Key, msg)
	}
}

package cmd

import (
	"fmt"
	"os"
)

// ── Output helpers ────────────────────────────────────────────────────────────
// Every command reports through these so build, verify and validate runs
// read the same way: one line per entry or file, tagged with its name.
//
// Icons:
//   ✓  written / verified
//   ✗  violation / mismatch     (written to stderr)
//   ⚠  suspicious but usable, e.g. a file without checksum
//   ○  skipped, e.g. an unchanged index or a remote path
//   -  missing file
//   ~  progress and neutral notes

// printSection prints a header such as "=== Splits ===" or "=== Summary ===".
func printSection(title string) {
	fmt.Printf("\n=== %s ===\n", title)
}

// printBullet prints a sub-heading such as "● Files:" or "● Mode midi → <dir>".
func printBullet(title string) {
	fmt.Printf("\n● %s\n", title)
}

// printOK prints a success line. With a name it reads
//
//	✓  [2018/track1/midi] /data/2018/track1.midi
//
// and without one the bracketed part is dropped.
func printOK(name, msg string) {
	if name == "" {
		fmt.Printf("  ✓  %s\n", msg)
	} else {
		fmt.Printf("  ✓  [%s] %s\n", name, msg)
	}
}

// printErr prints a failure line to stderr, e.g. a validation violation.
func printErr(name, msg string) {
	if name == "" {
		fmt.Fprintf(os.Stderr, "  ✗  %s\n", msg)
	} else {
		fmt.Fprintf(os.Stderr, "  ✗  [%s] %s\n", name, msg)
	}
}

// printWarn prints a warning line.
func printWarn(name, msg string) {
	if name == "" {
		fmt.Printf("  ⚠  %s\n", msg)
	} else {
		fmt.Printf("  ⚠  [%s] %s\n", name, msg)
	}
}

// printSkip prints a line for work that was not needed or not possible.
func printSkip(name, msg string) {
	if name == "" {
		fmt.Printf("  ○  %s\n", msg)
	} else {
		fmt.Printf("  ○  [%s] %s\n", name, msg)
	}
}

// printMiss prints a line for a file the index lists but the disk lacks.
func printMiss(name, msg string) {
	if name == "" {
		fmt.Printf("  -  %s\n", msg)
	} else {
		fmt.Printf("  -  [%s] %s\n", name, msg)
	}
}

// printInfo prints a neutral line: progress, sources, notes.
func printInfo(name, msg string) {
	if name == "" {
		fmt.Printf("  ~  %s\n", msg)
	} else {
		fmt.Printf("  ~  [%s] %s\n", name, msg)
	}
}

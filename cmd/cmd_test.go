package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/resolv-libs/resolv-data/internal/index"
	"github.com/resolv-libs/resolv-data/internal/store"
	"github.com/spf13/cobra"
)

// setupHome points HOME at a temp dir so config.Load sees no user config.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("RESOLV_DATASETS_DIR", "")
	t.Setenv("RESOLV_LOG_LEVEL", "")
	t.Setenv("RESOLV_RECONCILE_WORKERS", "")
	return home
}

func testCommand() *cobra.Command {
	c := &cobra.Command{}
	c.SetContext(context.Background())
	return c
}

func writeChorale(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestBuildVerifySearch(t *testing.T) {
	setupHome(t)
	dir := t.TempDir()
	writeChorale(t, dir, "bwv253.mxml", "<score/>")
	writeChorale(t, dir, "bwv254.mxml", "<score>2</score>")

	flagBuildOut, flagBuildPrefix, flagBuildForce, flagBuildWorkers = "", "", false, 2
	if err := runBuild(testCommand(), []string{"jsb-chorales-v1", "full", dir}); err != nil {
		t.Fatalf("build: %v", err)
	}
	path := filepath.Join(dir, "index.bin")
	x, err := store.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(x.Entries) != 2 || x.Entries[0].ID != "bwv253" {
		t.Fatalf("unexpected entries: %+v", x.Entries)
	}

	// Building the same tree again is a no-op.
	if err := runBuild(testCommand(), []string{"jsb-chorales-v1", "full", dir}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	flagVerifyRoot, flagVerifyWorkers, flagVerifyAll = "", 0, true
	if err := runVerify(testCommand(), []string{path}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	writeChorale(t, dir, "bwv254.mxml", "changed")
	if err := runVerify(testCommand(), []string{path}); err == nil {
		t.Fatalf("verify should fail after a file changed")
	}

	flagSearchK = 10
	if err := runSearch(testCommand(), []string{path, "bwv253"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if err := runSearch(testCommand(), []string{path, "  "}); err == nil {
		t.Fatalf("empty query should fail")
	}
}

func TestBuild_MissingDir(t *testing.T) {
	setupHome(t)
	flagBuildOut, flagBuildPrefix, flagBuildForce, flagBuildWorkers = "", "", false, 0
	err := runBuild(testCommand(), []string{"jsb-chorales-v1", "full"})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected missing directory error, got %v", err)
	}
}

func TestBuild_UnknownDataset(t *testing.T) {
	setupHome(t)
	if err := runBuild(testCommand(), []string{"nope", "full", t.TempDir()}); err == nil {
		t.Fatalf("expected error for unknown dataset")
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.bin")
	x := &index.Index{ID: "x", Version: "1", Entries: []index.Entry{{ID: "a"}, {ID: "b"}}}
	if err := os.WriteFile(good, index.Encode(x), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := runValidate(nil, []string{good}); err != nil {
		t.Fatalf("validate good: %v", err)
	}

	bad := filepath.Join(dir, "bad.bin")
	x.Entries[1].ID = "a"
	if err := os.WriteFile(bad, index.Encode(x), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := runValidate(nil, []string{bad}); err == nil {
		t.Fatalf("validate should report the duplicate id")
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")
	x := &index.Index{ID: "x", Version: "1", Entries: []index.Entry{{
		ID:       "a",
		Metadata: &index.MusicTrackMetadata{Composer: "Bach"},
		Files:    []index.NamedFile{{Key: "midi", File: index.EntryFile{Path: "a.mid"}}},
	}}}
	if err := os.WriteFile(path, index.Encode(x), 0o644); err != nil {
		t.Fatal(err)
	}

	flagInspectEntry = ""
	if err := runInspect(nil, []string{path}); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	flagInspectEntry = "a"
	if err := runInspect(nil, []string{path}); err != nil {
		t.Fatalf("inspect entry: %v", err)
	}
	flagInspectEntry = "missing"
	if err := runInspect(nil, []string{path}); err == nil {
		t.Fatalf("expected error for unknown entry")
	}
	flagInspectEntry = ""
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "index.bin")
	out := filepath.Join(dir, "index.json")
	x := &index.Index{ID: "x", Version: "1.0", Entries: []index.Entry{{ID: "a", Split: "train"}}}
	if err := os.WriteFile(in, index.Encode(x), 0o644); err != nil {
		t.Fatal(err)
	}

	flagConvertForce = false
	if err := runConvert(testCommand(), []string{in, out}); err != nil {
		t.Fatalf("convert: %v", err)
	}
	got, err := store.Load(out)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if store.Fingerprint(got) != store.Fingerprint(x) {
		t.Fatalf("converted catalog differs")
	}

	// Same version, different content: refused without --force.
	x.Entries[0].Split = "test"
	if err := os.WriteFile(in, index.Encode(x), 0o644); err != nil {
		t.Fatal(err)
	}
	err = runConvert(testCommand(), []string{in, out})
	if !errors.Is(err, store.ErrVersionNotBumped) {
		t.Fatalf("expected ErrVersionNotBumped, got %v", err)
	}
	flagConvertForce = true
	if err := runConvert(testCommand(), []string{in, out}); err != nil {
		t.Fatalf("forced convert: %v", err)
	}
	flagConvertForce = false
}

func TestEmptyAsNA(t *testing.T) {
	if emptyAsNA("") != "n/a" || emptyAsNA("x") != "x" {
		t.Fatalf("emptyAsNA mismatch")
	}
}

package flopbench

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// TestWriteReport_Files runs a small sweep and renders its report.
func TestWriteReport_Files(t *testing.T) {
	cfg := smallConfig(t, "pytorch-qr", "pytorch-qrcp", "test-always-fails")
	cfg.MemoryProfile = true

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	l := NewLayout(cfg.OutputDir)
	rep, err := WriteReport(l, res, quietLogger())
	if err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	summary := readCSV(t, rep.RuntimeSummary)
	// header + 3 solvers × 2 row counts
	if len(summary) != 7 {
		t.Fatalf("runtime_summary.csv has %d lines, want 7", len(summary))
	}
	if summary[0][0] != "solver" || summary[0][10] != "ns_per_flop" {
		t.Errorf("header = %v", summary[0])
	}

	scaling := readCSV(t, rep.Scaling)
	if len(scaling) != 4 {
		t.Errorf("scaling.csv has %d lines, want 4", len(scaling))
	}

	for _, name := range []string{"pytorch-qr.png", "pytorch-qrcp.png", "all_solvers.png"} {
		assertNonEmpty(t, filepath.Join(l.RuntimeFigures, name))
	}
	assertNonEmpty(t, filepath.Join(l.MemoryFigures, "pytorch-qr.png"))

	if _, err := os.Stat(filepath.Join(l.RuntimeFigures, "test-always-fails.png")); !os.IsNotExist(err) {
		t.Error("figure drawn for a solver with no timings")
	}
	t.Logf("figures: %v", rep.Figures)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return records
}

func assertNonEmpty(t *testing.T, path string) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("missing %s: %v", path, err)
		return
	}
	if info.Size() == 0 {
		t.Errorf("%s is empty", path)
	}
}

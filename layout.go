package flopbench

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout is the directory tree a run writes into.
type Layout struct {
	Root            string // metadata.yaml
	RawData         string // actual_time.yaml, theoretical_time.yaml, memory_usage.yaml
	MemoryOutput    string // per-iteration pprof files
	MemoryFigures   string
	RuntimeFigures  string
	ProcessedOutput string
}

// NewLayout returns the layout rooted at root without touching the filesystem.
func NewLayout(root string) Layout {
	raw := filepath.Join(root, "raw_data")
	return Layout{
		Root:            root,
		RawData:         raw,
		MemoryOutput:    filepath.Join(raw, "memory_output"),
		MemoryFigures:   filepath.Join(root, "memory_figures"),
		RuntimeFigures:  filepath.Join(root, "runtime_figures"),
		ProcessedOutput: filepath.Join(root, "processed_output"),
	}
}

// PrepareLayout creates every directory of the layout rooted at root.
// Existing directories are kept.
func PrepareLayout(root string) (Layout, error) {
	l := NewLayout(root)
	for _, dir := range []string{l.Root, l.RawData, l.MemoryOutput, l.MemoryFigures, l.RuntimeFigures, l.ProcessedOutput} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Layout{}, fmt.Errorf("prepare output layout: %w", err)
		}
	}
	return l, nil
}

// MetadataPath is where metadata.yaml is written.
func (l Layout) MetadataPath() string {
	return filepath.Join(l.Root, "metadata.yaml")
}

// ActualTimePath is where measured timings are written.
func (l Layout) ActualTimePath() string {
	return filepath.Join(l.RawData, "actual_time.yaml")
}

// TheoreticalTimePath is where flop estimates are written.
func (l Layout) TheoreticalTimePath() string {
	return filepath.Join(l.RawData, "theoretical_time.yaml")
}

// MemoryUsagePath is where per-iteration allocation deltas are written.
func (l Layout) MemoryUsagePath() string {
	return filepath.Join(l.RawData, "memory_usage.yaml")
}

// MemoryProfileName is the file name of one iteration's memory profile.
func MemoryProfileName(solver string, rows, iter int) string {
	return fmt.Sprintf("mem_%s_%d_%d.bin", solver, rows, iter)
}

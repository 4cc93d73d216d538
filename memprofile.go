package flopbench

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/google/pprof/profile"
)

// MemorySample records allocations made by one profiled fit.
type MemorySample struct {
	Rows            int    `yaml:"rows"`
	Iteration       int    `yaml:"iteration"`
	TotalAllocBytes uint64 `yaml:"total_alloc_bytes"`
	Mallocs         uint64 `yaml:"mallocs"`
	Profile         string `yaml:"profile"` // file name under raw_data/memory_output
}

// MemoryResult maps solver names to memory samples in sweep order.
type MemoryResult map[string][]MemorySample

// MemoryUsage is the allocation delta measured around a profiled call.
type MemoryUsage struct {
	TotalAllocBytes uint64
	Mallocs         uint64
}

// ProfileMemory runs fn with every allocation sampled, then writes the
// allocations made during fn to path in pprof format.
//
// The runtime's allocs profile is cumulative, so it is captured before and
// after fn and only the difference is written. The previous
// runtime.MemProfileRate is restored before ProfileMemory returns, including
// when fn panics; the panic then continues to the caller. An error from fn is
// returned without writing a profile.
func ProfileMemory(path string, fn func() error) (MemoryUsage, error) {
	prevRate := runtime.MemProfileRate
	runtime.MemProfileRate = 1
	defer func() {
		runtime.MemProfileRate = prevRate
	}()

	// runtime.GC publishes every allocation made so far to the profile.
	runtime.GC()
	var baseline bytes.Buffer
	if err := pprof.Lookup("allocs").WriteTo(&baseline, 0); err != nil {
		return MemoryUsage{}, fmt.Errorf("snapshot allocs profile: %w", err)
	}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)

	if err := fn(); err != nil {
		return MemoryUsage{}, err
	}

	runtime.ReadMemStats(&after)
	usage := MemoryUsage{
		TotalAllocBytes: after.TotalAlloc - before.TotalAlloc,
		Mallocs:         after.Mallocs - before.Mallocs,
	}

	runtime.GC()
	var current bytes.Buffer
	if err := pprof.Lookup("allocs").WriteTo(&current, 0); err != nil {
		return usage, fmt.Errorf("snapshot allocs profile: %w", err)
	}

	delta, err := diffAllocs(&baseline, &current)
	if err != nil {
		return usage, fmt.Errorf("memory profile %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return usage, fmt.Errorf("create memory profile: %w", err)
	}
	if err := delta.Write(f); err != nil {
		f.Close()
		return usage, fmt.Errorf("write memory profile %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return usage, fmt.Errorf("close memory profile %s: %w", path, err)
	}
	return usage, nil
}

// diffAllocs returns current minus baseline. Samples with no allocations left
// are dropped, and in-use values that went negative because baseline objects
// were freed are clamped to zero.
func diffAllocs(baseline, current io.Reader) (*profile.Profile, error) {
	base, err := profile.Parse(baseline)
	if err != nil {
		return nil, fmt.Errorf("parse baseline: %w", err)
	}
	cur, err := profile.Parse(current)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	base.Scale(-1)
	delta, err := profile.Merge([]*profile.Profile{cur, base})
	if err != nil {
		return nil, fmt.Errorf("diff profiles: %w", err)
	}

	var allocIdx []int
	for i, st := range delta.SampleType {
		if strings.HasPrefix(st.Type, "alloc_") {
			allocIdx = append(allocIdx, i)
		}
	}

	kept := delta.Sample[:0]
	for _, s := range delta.Sample {
		allocated := false
		for _, i := range allocIdx {
			if s.Value[i] > 0 {
				allocated = true
			}
		}
		if !allocated {
			continue
		}
		for i, v := range s.Value {
			if v < 0 {
				s.Value[i] = 0
			}
		}
		kept = append(kept, s)
	}
	delta.Sample = kept

	return delta.Compact(), nil
}

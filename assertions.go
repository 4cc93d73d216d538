package flopbench

import (
	"fmt"
	"math"
	"testing"
)

// AssertionConfig contains thresholds for comparing measurements to theory.
type AssertionConfig struct {
	// Maximum |measured exponent - theoretical exponent|
	MaxExponentGap float64

	// Minimum R² of the measured power-law fit
	MinRSquared float64

	// Row counts below this are ignored: constant overheads dominate there
	MinRows int
}

// DefaultAssertionConfig returns loose thresholds suited to noisy timings.
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		MaxExponentGap: 0.5,
		MinRSquared:    0.8,
		MinRows:        1000,
	}
}

// AssertScheduleAligned verifies every solver has exactly Repeat samples per
// scheduled row count, in schedule order.
func AssertScheduleAligned(t *testing.T, res *Results) {
	t.Helper()

	md := res.Metadata
	for name, samples := range res.Actual {
		want := len(md.Schedule) * md.Repeat
		if len(samples) != want {
			t.Errorf("%s: %d samples, want %d (schedule %d × repeat %d)",
				name, len(samples), want, len(md.Schedule), md.Repeat)
			continue
		}
		for i, s := range samples {
			if rows := md.Schedule[i/md.Repeat]; s.Rows != rows {
				t.Errorf("%s: sample %d has rows=%d, want %d", name, i, s.Rows, rows)
				break
			}
		}
	}
}

// AssertNoFailures verifies no solver failed during the sweep.
func AssertNoFailures(t *testing.T, res *Results) {
	t.Helper()

	for _, f := range res.Metadata.Failures {
		t.Errorf("%s failed at rows=%d iteration=%d: %s", f.Solver, f.Rows, f.Iteration, f.Error)
	}
}

// AssertTracksTheory verifies the measured runtime of solver grows with rows
// at roughly the rate its cost model predicts.
//
// Both series are fitted to a power law over row counts ≥ cfg.MinRows and the
// exponents compared. For the built-in solvers with fixed columns the
// theoretical exponent is close to 1.
func AssertTracksTheory(t *testing.T, res *Results, solver string, cfg AssertionConfig) {
	t.Helper()

	theory, ok := res.Theoretical[solver]
	if !ok {
		t.Fatalf("%s has no theoretical estimate", solver)
	}

	rows, medians := MedianSeries(res.Actual[solver])
	rows, medians = fromRows(rows, medians, cfg.MinRows)
	measured, err := FitScaling(rows, medians)
	if err != nil {
		t.Fatalf("Failed to fit measured runtime of %s: %v", solver, err)
	}

	frows, flops := FlopSeries(theory)
	frows, flops = fromRows(frows, flops, cfg.MinRows)
	expected, err := FitScaling(frows, flops)
	if err != nil {
		t.Fatalf("Failed to fit theoretical flops of %s: %v", solver, err)
	}

	if gap := math.Abs(measured.Exponent - expected.Exponent); gap > cfg.MaxExponentGap {
		t.Errorf("%s: measured exponent %.3f vs theoretical %.3f (gap %.3f > %.3f)",
			solver, measured.Exponent, expected.Exponent, gap, cfg.MaxExponentGap)
	}
	if measured.RSquared < cfg.MinRSquared {
		t.Errorf("%s: poor power-law fit: R² = %.4f (min: %.4f)", solver, measured.RSquared, cfg.MinRSquared)
	}

	t.Logf("✓ %s: measured exponent %.3f, theoretical %.3f, R² = %.4f",
		solver, measured.Exponent, expected.Exponent, measured.RSquared)
}

func fromRows(rows []int, values []float64, minRows int) ([]int, []float64) {
	var r []int
	var v []float64
	for i := range rows {
		if rows[i] >= minRows {
			r = append(r, rows[i])
			v = append(v, values[i])
		}
	}
	return r, v
}

// PrintAnalysis logs per-solver summaries of a run to the test log.
func PrintAnalysis(t *testing.T, res *Results) {
	t.Helper()

	t.Logf("\n=== Complexity Analysis (%s, %s) ===", res.Metadata.DatasetShape, res.Metadata.TimerMethod)
	for _, name := range sortedKeys(res.Actual) {
		t.Logf("\n%s:", name)
		t.Logf("  Rows      Median (ns)     Flops           ns/flop")
		t.Logf("  --------  --------------  --------------  --------")
		for _, st := range CalculateStatistics(res.Actual[name]) {
			flops, ok := flopsAt(res.Theoretical[name], st.Rows)
			perFlop := "-"
			if ok && flops > 0 && st.Count > 0 {
				perFlop = fmt.Sprintf("%.3f", st.Median/float64(flops))
			}
			t.Logf("  %-8d  %14.0f  %14d  %8s", st.Rows, st.Median, flops, perFlop)
		}
	}
}

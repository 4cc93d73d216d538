package flopbench

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Statistics summarizes the repeated timings of one solver at one row count.
type Statistics struct {
	Rows   int
	Count  int // successful iterations
	Failed int // iterations recorded as null
	Mean   float64
	Stddev float64 // sample standard deviation, 0 for a single run
	Median float64
	Min    float64
	Max    float64
}

// CalculateStatistics groups samples by row count, in order of first
// appearance, and summarizes the successful ones. Rows where every iteration
// failed are reported with Count == 0 and NaN timings.
func CalculateStatistics(samples []Sample) []Statistics {
	var order []int
	byRows := make(map[int][]float64)
	failed := make(map[int]int)

	for _, s := range samples {
		if _, seen := byRows[s.Rows]; !seen {
			order = append(order, s.Rows)
			byRows[s.Rows] = nil
		}
		if !s.OK() {
			failed[s.Rows]++
			continue
		}
		byRows[s.Rows] = append(byRows[s.Rows], float64(*s.Elapsed))
	}

	out := make([]Statistics, 0, len(order))
	for _, rows := range order {
		out = append(out, summarize(rows, byRows[rows], failed[rows]))
	}
	return out
}

func summarize(rows int, values []float64, failed int) Statistics {
	st := Statistics{Rows: rows, Count: len(values), Failed: failed}
	if len(values) == 0 {
		nan := math.NaN()
		st.Mean, st.Stddev, st.Median, st.Min, st.Max = nan, nan, nan, nan, nan
		return st
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	st.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		st.Stddev = stat.StdDev(sorted, nil)
	}
	st.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	st.Min = sorted[0]
	st.Max = sorted[len(sorted)-1]
	return st
}

// ScalingFit is a power law t = C·rows^Exponent fitted in log-log space.
type ScalingFit struct {
	Exponent float64 // slope of log(t) against log(rows)
	Coeff    float64 // C
	RSquared float64 // goodness of fit in log space
	Points   int
}

// Predict evaluates the fitted power law at rows.
func (f ScalingFit) Predict(rows int) float64 {
	return f.Coeff * math.Pow(float64(rows), f.Exponent)
}

// FitScaling fits a power law through (rows, value) points by ordinary least
// squares on log(value) = log(C) + Exponent·log(rows). Points with a
// non-positive or NaN value are ignored.
func FitScaling(rows []int, values []float64) (ScalingFit, error) {
	if len(rows) != len(values) {
		return ScalingFit{}, fmt.Errorf("got %d row counts and %d values", len(rows), len(values))
	}

	var xs, ys []float64
	for i, v := range values {
		if rows[i] <= 0 || v <= 0 || math.IsNaN(v) {
			continue
		}
		xs = append(xs, math.Log(float64(rows[i])))
		ys = append(ys, math.Log(v))
	}
	if len(xs) < 2 {
		return ScalingFit{}, fmt.Errorf("need at least 2 data points, got %d", len(xs))
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)
	if math.IsNaN(r2) {
		// All ys equal: the flat line is an exact fit.
		r2 = 1
	}

	return ScalingFit{
		Exponent: beta,
		Coeff:    math.Exp(alpha),
		RSquared: r2,
		Points:   len(xs),
	}, nil
}

// MedianSeries returns the median runtime per row count of one solver's
// samples, aligned with the row counts returned.
func MedianSeries(samples []Sample) (rows []int, medians []float64) {
	for _, st := range CalculateStatistics(samples) {
		rows = append(rows, st.Rows)
		medians = append(medians, st.Median)
	}
	return rows, medians
}

// FlopSeries splits flop samples into parallel slices.
func FlopSeries(samples []FlopSample) (rows []int, flops []float64) {
	for _, s := range samples {
		rows = append(rows, s.Rows)
		flops = append(flops, float64(s.Flops))
	}
	return rows, flops
}

package flopbench

import (
	"encoding/csv"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Report lists the files written by WriteReport.
type Report struct {
	RuntimeSummary string
	Scaling        string
	Figures        []string
}

// WriteReport renders processed summaries and figures for a finished run:
//
//	processed_output/runtime_summary.csv  per solver and row count
//	processed_output/scaling.csv          fitted log-log exponents
//	runtime_figures/<solver>.png          measured median vs theoretical flops
//	runtime_figures/all_solvers.png       every solver's median runtime
//	memory_figures/<solver>.png           allocated bytes per fit
func WriteReport(l Layout, res *Results, log *slog.Logger) (*Report, error) {
	if log == nil {
		log = slog.Default()
	}
	rep := &Report{
		RuntimeSummary: filepath.Join(l.ProcessedOutput, "runtime_summary.csv"),
		Scaling:        filepath.Join(l.ProcessedOutput, "scaling.csv"),
	}

	solvers := sortedKeys(res.Actual)

	if err := writeRuntimeSummary(rep.RuntimeSummary, solvers, res); err != nil {
		return nil, err
	}
	if err := writeScaling(rep.Scaling, solvers, res); err != nil {
		return nil, err
	}

	for _, name := range solvers {
		path := filepath.Join(l.RuntimeFigures, name+".png")
		ok, err := plotRuntime(path, name, res.Actual[name], res.Theoretical[name])
		if err != nil {
			return nil, fmt.Errorf("runtime figure for %s: %w", name, err)
		}
		if !ok {
			log.Warn("no successful timings, skipping runtime figure", "solver", name)
			continue
		}
		rep.Figures = append(rep.Figures, path)
	}

	all := filepath.Join(l.RuntimeFigures, "all_solvers.png")
	if ok, err := plotAllSolvers(all, solvers, res.Actual); err != nil {
		return nil, fmt.Errorf("combined runtime figure: %w", err)
	} else if ok {
		rep.Figures = append(rep.Figures, all)
	}

	for _, name := range sortedKeys(res.Memory) {
		path := filepath.Join(l.MemoryFigures, name+".png")
		ok, err := plotMemory(path, name, res.Memory[name])
		if err != nil {
			return nil, fmt.Errorf("memory figure for %s: %w", name, err)
		}
		if ok {
			rep.Figures = append(rep.Figures, path)
		}
	}

	log.Info("report written", "summary", rep.RuntimeSummary, "figures", len(rep.Figures))
	return rep, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func flopsAt(samples []FlopSample, rows int) (int64, bool) {
	for _, s := range samples {
		if s.Rows == rows {
			return s.Flops, true
		}
	}
	return 0, false
}

func writeRuntimeSummary(path string, solvers []string, res *Results) error {
	records := [][]string{{
		"solver", "rows", "count", "failed",
		"mean_ns", "stddev_ns", "median_ns", "min_ns", "max_ns",
		"theoretical_flops", "ns_per_flop",
	}}

	for _, name := range solvers {
		for _, st := range CalculateStatistics(res.Actual[name]) {
			flops, perFlop := "", ""
			if f, ok := flopsAt(res.Theoretical[name], st.Rows); ok {
				flops = strconv.FormatInt(f, 10)
				if f > 0 && st.Count > 0 {
					perFlop = formatFloat(st.Median / float64(f))
				}
			}
			records = append(records, []string{
				name,
				strconv.Itoa(st.Rows),
				strconv.Itoa(st.Count),
				strconv.Itoa(st.Failed),
				formatFloat(st.Mean),
				formatFloat(st.Stddev),
				formatFloat(st.Median),
				formatFloat(st.Min),
				formatFloat(st.Max),
				flops,
				perFlop,
			})
		}
	}
	return writeCSV(path, records)
}

func writeScaling(path string, solvers []string, res *Results) error {
	records := [][]string{{"solver", "measured_exponent", "measured_r2", "theoretical_exponent", "points"}}

	for _, name := range solvers {
		rows, medians := MedianSeries(res.Actual[name])
		measured, err := FitScaling(rows, medians)
		if err != nil {
			records = append(records, []string{name, "", "", "", "0"})
			continue
		}

		theory := ""
		if samples, ok := res.Theoretical[name]; ok {
			frows, flops := FlopSeries(samples)
			if fit, err := FitScaling(frows, flops); err == nil {
				theory = formatFloat(fit.Exponent)
			}
		}

		records = append(records, []string{
			name,
			formatFloat(measured.Exponent),
			formatFloat(measured.RSquared),
			theory,
			strconv.Itoa(measured.Points),
		})
	}
	return writeCSV(path, records)
}

// positiveXYs keeps the points a log-log plot can draw.
func positiveXYs(rows []int, values []float64) plotter.XYs {
	var pts plotter.XYs
	for i, v := range values {
		if v > 0 && !math.IsNaN(v) && rows[i] > 0 {
			pts = append(pts, plotter.XY{X: float64(rows[i]), Y: v})
		}
	}
	return pts
}

func newLogLogPlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Rows"
	p.Y.Label.Text = ylabel
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{}
	p.Y.Tick.Marker = plot.LogTicks{}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())
	return p
}

func addSeries(p *plot.Plot, label string, pts plotter.XYs, c color.Color, dashed bool) error {
	line, scatter, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1)
	line.LineStyle.Color = c
	if dashed {
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}
	scatter.GlyphStyle.Color = c
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(line, scatter)
	p.Legend.Add(label, line, scatter)
	return nil
}

// plotRuntime draws the measured median runtime next to the flop estimate
// scaled to meet it at the first measured size, so the slopes compare
// directly. It reports false when nothing could be drawn.
func plotRuntime(path, solver string, samples []Sample, theory []FlopSample) (bool, error) {
	rows, medians := MedianSeries(samples)
	measured := positiveXYs(rows, medians)
	if len(measured) == 0 {
		return false, nil
	}

	p := newLogLogPlot(fmt.Sprintf("%s: runtime vs theoretical flops", solver), "Median time (ns)")
	if err := addSeries(p, "measured", measured, plotutil.Color(0), false); err != nil {
		return false, err
	}

	frows, flops := FlopSeries(theory)
	estimated := positiveXYs(frows, flops)
	if len(estimated) > 0 {
		scale := measured[0].Y / estimated[0].Y
		for i := range estimated {
			estimated[i].Y *= scale
		}
		if err := addSeries(p, "theoretical (scaled)", estimated, plotutil.Color(1), true); err != nil {
			return false, err
		}
	}

	return true, p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func plotAllSolvers(path string, solvers []string, actual TimingResult) (bool, error) {
	p := newLogLogPlot("Median runtime by solver", "Median time (ns)")
	drawn := 0
	for i, name := range solvers {
		rows, medians := MedianSeries(actual[name])
		pts := positiveXYs(rows, medians)
		if len(pts) == 0 {
			continue
		}
		if err := addSeries(p, name, pts, plotutil.Color(i), false); err != nil {
			return false, err
		}
		drawn++
	}
	if drawn == 0 {
		return false, nil
	}
	return true, p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func plotMemory(path, solver string, samples []MemorySample) (bool, error) {
	var order []int
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, s := range samples {
		if counts[s.Rows] == 0 {
			order = append(order, s.Rows)
		}
		sums[s.Rows] += float64(s.TotalAllocBytes)
		counts[s.Rows]++
	}

	means := make([]float64, len(order))
	for i, rows := range order {
		means[i] = sums[rows] / float64(counts[rows])
	}
	pts := positiveXYs(order, means)
	if len(pts) == 0 {
		return false, nil
	}

	p := newLogLogPlot(fmt.Sprintf("%s: allocated bytes per fit", solver), "Mean bytes allocated")
	if err := addSeries(p, solver, pts, plotutil.Color(0), false); err != nil {
		return false, err
	}
	return true, p.Save(6*vg.Inch, 4*vg.Inch, path)
}

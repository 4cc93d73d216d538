package aggregate

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/lmittmann/tint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t    *testing.T
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "outputs"), 0o755))
	return &fixture{t: t, root: root}
}

func (f *fixture) config(log *slog.Logger) Config {
	if log == nil {
		log = slog.New(tint.NewHandler(&bytes.Buffer{}, &tint.Options{NoColor: true}))
	}
	return Config{Root: f.root, Logger: log}
}

// run writes a complete run folder. Empty files are left out.
func (f *fixture) run(name, inputData, results string, withImage bool) string {
	f.t.Helper()

	dir := filepath.Join(f.root, "outputs", name)
	require.NoError(f.t, os.MkdirAll(dir, 0o755))

	if results != "" {
		require.NoError(f.t, os.WriteFile(filepath.Join(dir, ResultsFile), []byte(results), 0o644))
	}
	if inputData != "" {
		meta := "input_data: " + inputData + "\n"
		require.NoError(f.t, os.WriteFile(filepath.Join(dir, MetadataFile), []byte(meta), 0o644))
	}
	if withImage {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		img.Set(1, 1, color.RGBA{R: 255, A: 255})
		out, err := os.Create(filepath.Join(dir, ImageFile))
		require.NoError(f.t, err)
		require.NoError(f.t, png.Encode(out, img))
		require.NoError(f.t, out.Close())
	}
	return dir
}

const agreeing = "numpy:\n  MAE: 0.12345\nsklearn:\n  MAE: 0.12345\nstatsmodels:\n  MAE: 0.12345\n"

func TestAggregate_BuildsSubsetTable(t *testing.T) {
	f := newFixture(t)
	f.run("run_a", "circle_3-subsets_A-combo_0-rotation_x", agreeing, true)
	f.run("run_b", "circle_3-subsets_B-combo_0-rotation_x", "numpy:\n  MAE: 0.5\nsklearn:\n  MAE: 0.5\n", true)
	f.run("run_c", "circle_3-subsets_A-combo_30-rotation_x", "numpy:\n  MAE: 0.25\n", true)

	sum, err := Aggregate(f.config(nil))
	require.NoError(t, err)

	assert.Len(t, sum.Runs, 3)
	assert.Empty(t, sum.Skipped)
	assert.Empty(t, sum.Suspicious())
	require.Equal(t, []string{filepath.Join(f.root, "final_results", "3-subsets.csv")}, sum.Written)

	table := sum.Tables["3"]
	require.NotNil(t, table)
	assert.Equal(t, []string{"A", "B"}, table.Combos())

	v, _ := table.Get("A", RotationColumn("0"))
	assert.Equal(t, "0.123", v)
	v, _ = table.Get("A", RotationColumn("30"))
	assert.Equal(t, "0.25", v)
	v, _ = table.Get("B", RotationColumn("0"))
	assert.Equal(t, "0.5", v)
	v, _ = table.Get("A", ImageColumn)
	assert.Equal(t, "3-subsets_A-combo.png", v)

	for _, name := range []string{"3-subsets_A-combo.png", "3-subsets_B-combo.png"} {
		in, err := os.Open(filepath.Join(f.root, "regression_pics", name))
		require.NoError(t, err)
		img, err := png.Decode(in)
		in.Close()
		require.NoError(t, err)
		assert.Equal(t, 4, img.Bounds().Dx())
	}

	data, err := os.ReadFile(sum.Written[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Combination,Partial Circle and its Regression Line,$0^{\\circ}$ Rotation")
	assert.Contains(t, string(data), "A,3-subsets_A-combo.png,0.123")
}

func TestAggregate_FlagsDisagreement(t *testing.T) {
	f := newFixture(t)
	f.run("run_a", "circle_3-subsets_A-combo_5-rotation_x", "numpy:\n  MAE: 0.1\nsklearn:\n  MAE: 0.2\n", true)

	var logs bytes.Buffer
	sum, err := Aggregate(f.config(slog.New(tint.NewHandler(&logs, &tint.Options{NoColor: true}))))
	require.NoError(t, err)

	require.Len(t, sum.Runs, 1)
	run := sum.Runs[0]
	assert.True(t, run.Suspect)
	assert.InDelta(t, 0.05, run.MAEStd, 1e-12)
	assert.Equal(t, 0.15, run.MAE)
	assert.Equal(t, []string{run.Folder}, sum.Suspicious())
	assert.Contains(t, logs.String(), "disagree")

	// No rotation 0 run: no image copied.
	assert.Empty(t, run.Image)
	_, err = os.Stat(filepath.Join(f.root, "regression_pics", "3-subsets_A-combo.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestAggregate_SkipsIncompleteFolders(t *testing.T) {
	f := newFixture(t)
	f.run("complete", "circle_3-subsets_A-combo_15-rotation_x", agreeing, true)
	noImage := f.run("no_image", "circle_3-subsets_B-combo_15-rotation_x", agreeing, false)
	noMeta := f.run("no_meta", "", agreeing, true)
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "outputs", "stray.txt"), []byte("x"), 0o644))

	var logs bytes.Buffer
	sum, err := Aggregate(f.config(slog.New(tint.NewHandler(&logs, &tint.Options{NoColor: true}))))
	require.NoError(t, err)

	assert.Len(t, sum.Runs, 1)
	assert.Equal(t, []string{noImage, noMeta}, sum.Skipped)
	assert.Contains(t, logs.String(), "skipping output folder")
	assert.Equal(t, []string{"A"}, sum.Tables["3"].Combos())
}

func TestAggregate_MalformedFolderAborts(t *testing.T) {
	tests := []struct {
		name      string
		inputData string
		results   string
	}{
		{"bad input_data", "circle", agreeing},
		{"missing MAE", "circle_3-subsets_A-combo_0-rotation_x", "numpy:\n  RMSE: 1\n"},
		{"no implementations", "circle_3-subsets_A-combo_0-rotation_x", "{}\n"},
		{"not yaml", "circle_3-subsets_A-combo_0-rotation_x", "numpy: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			dir := f.run("broken", tt.inputData, tt.results, true)

			_, err := Aggregate(f.config(nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), dir)
		})
	}
}

func TestAggregate_FullCircleFillsRotations(t *testing.T) {
	f := newFixture(t)
	f.run("full", "circle_0-subsets_A-combo_0-rotation_x", agreeing, true)
	f.run("five", "circle_5-subsets_A-combo_0-rotation_x", agreeing, true)

	sum, err := Aggregate(f.config(nil))
	require.NoError(t, err)

	full := sum.Tables["0"]
	require.NotNil(t, full)
	for _, rot := range StandardRotations {
		v, ok := full.Get("A", RotationColumn(rot))
		assert.True(t, ok, "rotation %s", rot)
		assert.Equal(t, "0.123", v)
	}

	// Any subset count gets its own table.
	require.Contains(t, sum.Tables, "5")
	assert.Len(t, sum.Written, 2)
	assert.FileExists(t, filepath.Join(f.root, "final_results", "5-subsets.csv"))
}

func TestAggregate_MissingOutputs(t *testing.T) {
	_, err := Aggregate(Config{Root: t.TempDir()})
	assert.Error(t, err)
}

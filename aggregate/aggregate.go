package aggregate

import (
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"
	"gopkg.in/yaml.v3"
)

// Tolerance is the largest standard deviation of MAE across implementations
// that is still treated as agreement.
const Tolerance = 0.0001

// Expected files in every run folder.
const (
	ResultsFile  = "results.yaml"
	MetadataFile = "metadata.yaml"
	ImageFile    = "regression.png"
)

// ErrNoMAE is returned when results.yaml has no usable MAE values.
var ErrNoMAE = errors.New("no MAE values")

// Config locates the experiment tree.
type Config struct {
	// Root contains outputs/ and receives regression_pics/ and final_results/.
	Root string

	// Logger receives progress and disagreement notices. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultConfig points at the circular experiment's analysis directory.
func DefaultConfig() Config {
	return Config{Root: filepath.Join("circular_data_exper", "analysis")}
}

// InputDir is the directory scanned for run folders.
func (c Config) InputDir() string { return filepath.Join(c.Root, "outputs") }

// PicturesDir receives the copied regression images.
func (c Config) PicturesDir() string { return filepath.Join(c.Root, "regression_pics") }

// ResultsDir receives one CSV per subset count.
func (c Config) ResultsDir() string { return filepath.Join(c.Root, "final_results") }

// RunResult is the reduced result of one run folder.
type RunResult struct {
	Folder   string
	Key      RunKey
	MAE      float64 // mean across implementations, rounded to 3 decimals
	MAEStd   float64 // population standard deviation across implementations
	Suspect  bool    // MAEStd > Tolerance
	Image    string  // copied image path, set for rotation 0
	ImplsMAE map[string]float64
}

// Summary reports what Aggregate did.
type Summary struct {
	Runs    []RunResult
	Skipped []string          // folders missing an expected file
	Tables  map[string]*Table // keyed by subset count
	Written []string          // CSV paths
}

// Suspicious returns the folders whose implementations disagreed.
func (s *Summary) Suspicious() []string {
	var out []string
	for _, r := range s.Runs {
		if r.Suspect {
			out = append(out, r.Folder)
		}
	}
	return out
}

type resultsFile map[string]struct {
	MAE *float64 `yaml:"MAE"`
}

type metadataFile struct {
	InputData string `yaml:"input_data"`
}

// Aggregate scans every run folder under cfg.InputDir in name order, builds the
// per-subset tables, copies zero-rotation images, and writes the CSVs.
//
// A folder missing results.yaml, metadata.yaml or regression.png is skipped
// with a warning. A folder whose files exist but cannot be parsed aborts the
// aggregation with an error naming the folder.
func Aggregate(cfg Config) (*Summary, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	entries, err := os.ReadDir(cfg.InputDir())
	if err != nil {
		return nil, fmt.Errorf("read outputs: %w", err)
	}
	if err := os.MkdirAll(cfg.PicturesDir(), 0o755); err != nil {
		return nil, err
	}

	sum := &Summary{Tables: make(map[string]*Table)}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(cfg.InputDir(), entry.Name())

		if missing := missingFiles(folder); len(missing) > 0 {
			log.Warn("skipping output folder", "folder", folder, "missing", missing)
			sum.Skipped = append(sum.Skipped, folder)
			continue
		}

		run, err := reduceFolder(folder)
		if err != nil {
			return nil, fmt.Errorf("output folder %s: %w", folder, err)
		}
		if run.Suspect {
			log.Warn("OLS implementations disagree: MAE std too high",
				"folder", folder,
				"std", run.MAEStd,
				"tolerance", Tolerance)
		}

		table, ok := sum.Tables[run.Key.Subsets]
		if !ok {
			table = NewTable(run.Key.Subsets)
			sum.Tables[run.Key.Subsets] = table
		}

		mae := strconv.FormatFloat(run.MAE, 'f', -1, 64)
		if run.Key.Subsets == "0" {
			// The full circle looks the same at every rotation.
			for _, rot := range StandardRotations {
				table.SetRotation(run.Key.Combo, rot, mae)
			}
		} else {
			table.SetRotation(run.Key.Combo, run.Key.Rotation, mae)
		}

		if run.Key.Rotation == "0" {
			dst := filepath.Join(cfg.PicturesDir(), run.Key.ImageName())
			if err := copyImage(filepath.Join(folder, ImageFile), dst); err != nil {
				return nil, fmt.Errorf("output folder %s: %w", folder, err)
			}
			run.Image = dst
			table.Set(run.Key.Combo, ImageColumn, run.Key.ImageName())
		}

		sum.Runs = append(sum.Runs, *run)
	}

	if err := os.MkdirAll(cfg.ResultsDir(), 0o755); err != nil {
		return nil, err
	}
	subsets := make([]string, 0, len(sum.Tables))
	for n := range sum.Tables {
		subsets = append(subsets, n)
	}
	sort.Strings(subsets)

	for _, n := range subsets {
		path := filepath.Join(cfg.ResultsDir(), n+"-subsets.csv")
		if err := writeTable(path, sum.Tables[n]); err != nil {
			return nil, err
		}
		sum.Written = append(sum.Written, path)
	}

	log.Info("aggregation complete",
		"runs", len(sum.Runs),
		"skipped", len(sum.Skipped),
		"suspicious", len(sum.Suspicious()),
		"tables", len(sum.Written))
	return sum, nil
}

func missingFiles(folder string) []string {
	var missing []string
	for _, name := range []string{ResultsFile, MetadataFile, ImageFile} {
		if _, err := os.Stat(filepath.Join(folder, name)); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

func readYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// reduceFolder parses one run folder and reduces its metrics.
func reduceFolder(folder string) (*RunResult, error) {
	var results resultsFile
	if err := readYAML(filepath.Join(folder, ResultsFile), &results); err != nil {
		return nil, err
	}
	var meta metadataFile
	if err := readYAML(filepath.Join(folder, MetadataFile), &meta); err != nil {
		return nil, err
	}

	key, err := ParseInputData(meta.InputData)
	if err != nil {
		return nil, err
	}

	impls := make(map[string]float64, len(results))
	var maes stats.Float64Data
	for impl, r := range results {
		if r.MAE == nil {
			return nil, fmt.Errorf("%w: %s has no MAE", ErrNoMAE, impl)
		}
		impls[impl] = *r.MAE
		maes = append(maes, *r.MAE)
	}
	if len(maes) == 0 {
		return nil, ErrNoMAE
	}

	mean, err := maes.Mean()
	if err != nil {
		return nil, err
	}
	mean, err = stats.Round(mean, 3)
	if err != nil {
		return nil, err
	}
	std, err := maes.StandardDeviationPopulation()
	if err != nil {
		return nil, err
	}

	return &RunResult{
		Folder:   folder,
		Key:      key,
		MAE:      mean,
		MAEStd:   std,
		Suspect:  std > Tolerance,
		ImplsMAE: impls,
	}, nil
}

// copyImage decodes src as PNG and re-encodes it at dst.
func copyImage(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	img, err := png.Decode(in)
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(src), err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	return out.Close()
}

func writeTable(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

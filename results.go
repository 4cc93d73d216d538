package flopbench

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Sample is one timed iteration. Elapsed is nil when the iteration failed, so
// a solver's samples stay aligned with the schedule.
type Sample struct {
	Rows    int
	Elapsed *int64 // nanoseconds
}

// OK reports whether the iteration succeeded.
func (s Sample) OK() bool {
	return s.Elapsed != nil
}

// TimingResult maps solver names to samples in sweep order: every scheduled
// row count repeated Config.Repeat times.
type TimingResult map[string][]Sample

// Failure is one captured solver error.
type Failure struct {
	Solver    string `yaml:"solver"`
	Rows      int    `yaml:"rows"`
	Iteration int    `yaml:"iteration"`
	Error     string `yaml:"error"`
}

// Metadata describes a run. Field names on disk follow the established
// metadata.yaml format.
type Metadata struct {
	RunID             string    `yaml:"run_id"`
	DatasetShape      string    `yaml:"dataset_shape"`
	Seed              uint64    `yaml:"seed"`
	Rank              int       `yaml:"rank"`
	FailedSolvers     []string  `yaml:"failed_regs"`
	Failures          []Failure `yaml:"failed_regs_exceptions"`
	Schedule          []int     `yaml:"rows_in_experiment"`
	Repeat            int       `yaml:"repeat"`
	TimerMethod       string    `yaml:"timer_method"`
	Solvers           []string  `yaml:"reg_names"`
	MissingCostModels []string  `yaml:"missing_cost_models,omitempty"`
	StartedAt         time.Time `yaml:"started_at"`
	FinishedAt        time.Time `yaml:"finished_at"`
}

// Results is everything a run produces.
type Results struct {
	Metadata    Metadata
	Actual      TimingResult
	Theoretical TheoreticalResult
	Memory      MemoryResult
}

// pairNode renders [rows, value] as a flow sequence.
func pairNode(rows int, value *yaml.Node) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.SequenceNode,
		Style: yaml.FlowStyle,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(rows)},
			value,
		},
	}
}

func decodePair(node *yaml.Node) (rows int64, value *int64, err error) {
	var pair []*int64
	if err := node.Decode(&pair); err != nil {
		return 0, nil, err
	}
	if len(pair) != 2 || pair[0] == nil {
		return 0, nil, fmt.Errorf("line %d: want [rows, value], got %d items", node.Line, len(pair))
	}
	return *pair[0], pair[1], nil
}

// MarshalYAML encodes the sample as [rows, ns] or [rows, null].
func (s Sample) MarshalYAML() (interface{}, error) {
	value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	if s.Elapsed != nil {
		value = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(*s.Elapsed, 10)}
	}
	return pairNode(s.Rows, value), nil
}

// UnmarshalYAML decodes [rows, ns] or [rows, null].
func (s *Sample) UnmarshalYAML(node *yaml.Node) error {
	rows, elapsed, err := decodePair(node)
	if err != nil {
		return fmt.Errorf("timing sample: %w", err)
	}
	s.Rows, s.Elapsed = int(rows), elapsed
	return nil
}

// MarshalYAML encodes the sample as [rows, flops].
func (f FlopSample) MarshalYAML() (interface{}, error) {
	value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(f.Flops, 10)}
	return pairNode(f.Rows, value), nil
}

// UnmarshalYAML decodes [rows, flops].
func (f *FlopSample) UnmarshalYAML(node *yaml.Node) error {
	rows, flops, err := decodePair(node)
	if err != nil {
		return fmt.Errorf("flop sample: %w", err)
	}
	if flops == nil {
		return fmt.Errorf("flop sample: line %d: flops is null", node.Line)
	}
	f.Rows, f.Flops = int(rows), *flops
	return nil
}

func writeYAML(path string, v interface{}) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// WriteResults writes metadata, theoretical and actual timings, and memory
// usage into the layout.
func WriteResults(l Layout, res *Results) error {
	if err := writeYAML(l.MetadataPath(), res.Metadata); err != nil {
		return err
	}
	if err := writeYAML(l.TheoreticalTimePath(), res.Theoretical); err != nil {
		return err
	}
	if err := writeYAML(l.ActualTimePath(), res.Actual); err != nil {
		return err
	}
	if res.Memory != nil {
		if err := writeYAML(l.MemoryUsagePath(), res.Memory); err != nil {
			return err
		}
	}
	return nil
}

// LoadResults reads back the files written by WriteResults. memory_usage.yaml
// is optional.
func LoadResults(l Layout) (*Results, error) {
	res := &Results{}
	if err := readYAML(l.MetadataPath(), &res.Metadata); err != nil {
		return nil, err
	}
	if err := readYAML(l.TheoreticalTimePath(), &res.Theoretical); err != nil {
		return nil, err
	}
	if err := readYAML(l.ActualTimePath(), &res.Actual); err != nil {
		return nil, err
	}
	if err := readYAML(l.MemoryUsagePath(), &res.Memory); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return res, nil
}

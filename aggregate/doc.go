// Package aggregate collects the outputs of the circular-data regression
// experiment into one table per subset count.
//
// Each run folder under <root>/outputs holds results.yaml (per-implementation
// error metrics), metadata.yaml (whose input_data names the data file), and
// regression.png. The input_data name encodes the run parameters as
// underscore-separated tokens, each value followed by a dash:
//
//	circle_3-subsets_A-combo_15-rotation.csv
//	       |         |       |
//	       subsets   combo   rotation
//
// Aggregate writes <root>/final_results/<n>-subsets.csv with one row per
// combination and one column per rotation, and copies the regression image of
// every zero-rotation run to <root>/regression_pics.
package aggregate

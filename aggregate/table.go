package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

const (
	// ImageColumn holds the regression image file name of zero-rotation runs.
	ImageColumn = "Partial Circle and its Regression Line"

	// IndexColumn heads the combination identifiers in written CSVs.
	IndexColumn = "Combination"
)

// StandardRotations are the rotations every table has a column for.
var StandardRotations = []string{"0", "5", "15", "30", "60", "90"}

// RotationColumn returns the column header for a rotation in degrees.
func RotationColumn(rot string) string {
	return fmt.Sprintf("$%s^{\\circ}$ Rotation", rot)
}

// Table is the result grid of one subset count: rows keyed by combination,
// columns by rotation.
type Table struct {
	Subsets string

	columns []string
	extra   []string // non-standard rotations
	combos  []string // in order of first appearance
	cells   map[string]map[string]string
}

// NewTable creates an empty table with the standard columns.
func NewTable(subsets string) *Table {
	cols := []string{ImageColumn}
	for _, rot := range StandardRotations {
		cols = append(cols, RotationColumn(rot))
	}
	return &Table{
		Subsets: subsets,
		columns: cols,
		cells:   make(map[string]map[string]string),
	}
}

// Set stores value at (combo, column), adding the row if needed.
func (t *Table) Set(combo, column, value string) {
	row, ok := t.cells[combo]
	if !ok {
		row = make(map[string]string)
		t.cells[combo] = row
		t.combos = append(t.combos, combo)
	}
	row[column] = value
}

// SetRotation stores value in the column for rot, adding a column for
// rotations outside StandardRotations.
func (t *Table) SetRotation(combo, rot, value string) {
	col := RotationColumn(rot)
	if !t.hasColumn(col) {
		t.extra = append(t.extra, rot)
		sort.Slice(t.extra, func(i, j int) bool {
			a, errA := strconv.ParseFloat(t.extra[i], 64)
			b, errB := strconv.ParseFloat(t.extra[j], 64)
			if errA != nil || errB != nil {
				return t.extra[i] < t.extra[j]
			}
			return a < b
		})
	}
	t.Set(combo, col, value)
}

// Get returns the value at (combo, column).
func (t *Table) Get(combo, column string) (string, bool) {
	v, ok := t.cells[combo][column]
	return v, ok
}

// Combos returns the row keys in insertion order.
func (t *Table) Combos() []string {
	return append([]string(nil), t.combos...)
}

// Columns returns the value columns: the image column, the standard
// rotations, then any other rotations in numeric order.
func (t *Table) Columns() []string {
	cols := append([]string(nil), t.columns...)
	for _, rot := range t.extra {
		cols = append(cols, RotationColumn(rot))
	}
	return cols
}

func (t *Table) hasColumn(col string) bool {
	for _, c := range t.Columns() {
		if c == col {
			return true
		}
	}
	return false
}

// WriteCSV writes the table with a leading Combination column. Missing cells
// are empty.
func (t *Table) WriteCSV(w io.Writer) error {
	cols := t.Columns()
	cw := csv.NewWriter(w)

	if err := cw.Write(append([]string{IndexColumn}, cols...)); err != nil {
		return err
	}
	for _, combo := range t.combos {
		record := make([]string, 0, len(cols)+1)
		record = append(record, combo)
		for _, col := range cols {
			record = append(record, t.cells[combo][col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

package flopbench

import (
	"errors"
	"fmt"
	"math"
)

// MinScheduleRows is the smallest dataset a schedule can be built for: every
// schedule starts at 10^1 rows.
const MinScheduleRows = 10

var (
	// ErrScheduleEmpty is returned when the dataset is too small for a single step.
	ErrScheduleEmpty = errors.New("schedule is empty")

	// ErrInvalidGranularity is returned for a step size below one tenth of a decade.
	ErrInvalidGranularity = errors.New("granularity must be >= 1")
)

// Schedule returns the row counts swept by an experiment over a dataset with
// the given number of rows.
//
// Steps are taken in tenths of a decade: the i-th exponent is 10 + i·granularity
// and the row count is floor(10^(exponent/10)). Steps stop before the first
// row count that would exceed rows. The result is strictly increasing and
// never empty.
func Schedule(rows, granularity int) ([]int, error) {
	if granularity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGranularity, granularity)
	}
	if rows < MinScheduleRows {
		return nil, fmt.Errorf("%w: dataset has %d rows, need at least %d", ErrScheduleEmpty, rows, MinScheduleRows)
	}

	var schedule []int
	for exp := 10; ; exp += granularity {
		size := math.Pow(10, float64(exp)/10)
		if size > float64(rows) {
			break
		}
		schedule = append(schedule, int(math.Floor(size)))
	}

	return schedule, nil
}

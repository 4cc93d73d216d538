package flopbench

import (
	"errors"
	"fmt"
	"time"
)

// TimerKind selects the clock used to time solver calls.
type TimerKind string

const (
	// TimerTotal measures monotonic wall-clock time, including time spent blocked.
	TimerTotal TimerKind = "total"
	// TimerProcess measures CPU time consumed by the whole process.
	TimerProcess TimerKind = "process"
)

// ErrInvalidTimer is returned for a timer kind other than "total" or "process".
var ErrInvalidTimer = errors.New("invalid timer kind")

// Clock returns a reading in nanoseconds. Only differences between two
// readings of the same Clock are meaningful.
type Clock func() int64

// NewClock returns the clock for kind.
func NewClock(kind TimerKind) (Clock, error) {
	switch kind {
	case TimerTotal:
		base := time.Now()
		return func() int64 {
			return int64(time.Since(base))
		}, nil
	case TimerProcess:
		if _, err := processNanos(); err != nil {
			return nil, fmt.Errorf("%w: process clock unavailable: %v", ErrInvalidTimer, err)
		}
		return readingClock(processNanos), nil
	default:
		return nil, fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidTimer, kind, TimerTotal, TimerProcess)
	}
}

// ErrClockRead is the panic value of a clock whose reading failed.
var ErrClockRead = errors.New("clock read failed")

// readingClock wraps read as a Clock. A failed reading panics with
// ErrClockRead, which the sweep records as a failed iteration instead of
// storing a bogus timing.
func readingClock(read func() (int64, error)) Clock {
	return func() int64 {
		ns, err := read()
		if err != nil {
			panic(fmt.Errorf("%w: %v", ErrClockRead, err))
		}
		return ns
	}
}

// Describe returns the timer description stored in run metadata.
func (k TimerKind) Describe() string {
	return string(k) + " in nanoseconds"
}

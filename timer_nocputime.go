//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package flopbench

import "errors"

func processNanos() (int64, error) {
	return 0, errors.New("process CPU clock is not supported on this platform")
}

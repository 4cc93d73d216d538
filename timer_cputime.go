//go:build linux || darwin || freebsd || netbsd || openbsd

package flopbench

import "golang.org/x/sys/unix"

func processNanos() (int64, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_PROCESS_CPUTIME_ID, &ts); err != nil {
		return 0, err
	}
	return ts.Nano(), nil
}

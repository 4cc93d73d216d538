package flopbench

import (
	"errors"
	"testing"
)

// TestDecomposition_Flops checks each formula at m=100, n=10, r=10.
func TestDecomposition_Flops(t *testing.T) {
	cases := map[Decomposition]int64{
		Cholesky:  11000, // 100·100 + 1000
		COD:       9666,  // 20000 - 11000 + 666.67 + 0
		QRPivoted: 19333, // 40000 - 22000 + 1333.33
		QR:        19333, // 20000 - 666.67
		SVD:       48000, // 40000 + 8000
		SVDDivide: 10000,
	}

	for d, want := range cases {
		got, err := d.Flops(100, 10, 10)
		if err != nil {
			t.Errorf("%s: %v", d, err)
			continue
		}
		if got != want {
			t.Errorf("%s: Flops(100, 10, 10) = %d, want %d", d, got, want)
		}
	}
}

// TestDecomposition_Monotonic verifies flops never decrease as rows grow.
func TestDecomposition_Monotonic(t *testing.T) {
	for d := range costModels {
		for _, nr := range [][2]int{{10, 10}, {10, 7}, {50, 50}, {3, 1}} {
			var prev int64 = -1 << 62
			for m := 1; m <= 10_000_000; m = m*3 + 1 {
				got, err := d.Flops(m, nr[0], nr[1])
				if err != nil {
					t.Fatalf("%s: %v", d, err)
				}
				if got < prev {
					t.Errorf("%s n=%d r=%d: flops fell from %d to %d at m=%d", d, nr[0], nr[1], prev, got, m)
				}
				prev = got
			}
		}
	}
}

// TestTheoreticalFlops_NoCostModel reports the gap instead of guessing.
func TestTheoreticalFlops_NoCostModel(t *testing.T) {
	_, err := TheoreticalFlops("gonum-svdfull", 100, 10, 10)
	if !errors.Is(err, ErrNoCostModel) {
		t.Errorf("expected ErrNoCostModel, got %v", err)
	}

	_, err = TheoreticalFlops("no-such-solver", 100, 10, 10)
	if !errors.Is(err, ErrUnknownSolver) {
		t.Errorf("expected ErrUnknownSolver, got %v", err)
	}
}

// TestTheoretical_PairsWithSchedule verifies results align with the schedule.
func TestTheoretical_PairsWithSchedule(t *testing.T) {
	schedule := []int{10, 31, 100}

	res, missing, err := Theoretical(10, 10, []string{"gonum-qr", "gonum-svdfull"}, schedule)
	if err != nil {
		t.Fatalf("Theoretical failed: %v", err)
	}

	if len(missing) != 1 || missing[0] != "gonum-svdfull" {
		t.Errorf("missing = %v, want [gonum-svdfull]", missing)
	}
	if _, ok := res["gonum-svdfull"]; ok {
		t.Error("solver without a cost model should not have an estimate")
	}

	qr := res["gonum-qr"]
	if len(qr) != len(schedule) {
		t.Fatalf("gonum-qr has %d estimates, want %d", len(qr), len(schedule))
	}
	for i, s := range qr {
		if s.Rows != schedule[i] {
			t.Errorf("estimate %d is for %d rows, want %d", i, s.Rows, schedule[i])
		}
	}
	if qr[2].Flops != 19333 {
		t.Errorf("gonum-qr at 100 rows = %d, want 19333", qr[2].Flops)
	}
}

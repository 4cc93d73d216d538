package flopbench

import (
	"errors"
	"fmt"
	"math"
)

// Decomposition names the factorization a solver is built on.
type Decomposition string

const (
	Cholesky    Decomposition = "cholesky"     // normal equations
	COD         Decomposition = "cod"          // complete orthogonal decomposition
	QRPivoted   Decomposition = "qr-pivoted"   // QR with column pivoting
	QR          Decomposition = "qr"           // Householder QR
	SVD         Decomposition = "svd"          // Golub-Kahan SVD
	SVDDivide   Decomposition = "svd-dc"       // divide-and-conquer SVD
	SVDComplete Decomposition = "svd-complete" // SVD with the full m×m U
)

// ErrNoCostModel is returned for a decomposition without a flop formula.
var ErrNoCostModel = errors.New("no cost model")

// CostModel estimates the flops needed to factor an m×n matrix of rank r.
type CostModel func(m, n, r float64) float64

// costModels holds the asymptotic operation counts. SVDComplete has no entry:
// there is no formula for it, and one is not guessed.
var costModels = map[Decomposition]CostModel{
	Cholesky: func(m, n, _ float64) float64 {
		return m*n*n + n*n*n
	},
	COD: func(m, n, r float64) float64 {
		return 2*m*n*r - r*r*(m+n) + 2*r*r*r/3 + r*(n-r)
	},
	QRPivoted: func(m, n, r float64) float64 {
		return 4*m*n*r - 2*r*r*(m+n) + 4*r*r*r/3
	},
	QR: func(m, n, _ float64) float64 {
		return 2*m*n*n - 2*n*n*n/3
	},
	SVD: func(m, n, _ float64) float64 {
		return 4*m*n*n + 8*n*n*n
	},
	SVDDivide: func(m, n, _ float64) float64 {
		return m * n * n
	},
}

// costFormulas mirrors costModels for display.
var costFormulas = map[Decomposition]string{
	Cholesky:  "mn^2 + n^3",
	COD:       "2mnr - r^2(m + n) + 2r^3/3 + r(n - r)",
	QRPivoted: "4mnr - 2r^2(m + n) + 4r^3/3",
	QR:        "2mn^2 - 2n^3/3",
	SVD:       "4mn^2 + 8n^3",
	SVDDivide: "mn^2",
}

// Formula returns a human-readable form of the decomposition's cost model,
// or "" when it has none.
func (d Decomposition) Formula() string {
	return costFormulas[d]
}

// HasCostModel reports whether flops can be estimated for d.
func (d Decomposition) HasCostModel() bool {
	_, ok := costModels[d]
	return ok
}

// Flops returns floor(cost) for an m×n matrix of rank r.
func (d Decomposition) Flops(m, n, r int) (int64, error) {
	model, ok := costModels[d]
	if !ok {
		return 0, fmt.Errorf("%w for decomposition %q", ErrNoCostModel, d)
	}
	return int64(math.Floor(model(float64(m), float64(n), float64(r)))), nil
}

// FlopSample pairs a row count with a theoretical flop count.
type FlopSample struct {
	Rows  int
	Flops int64
}

// TheoreticalResult maps solver names to flop estimates along the schedule.
type TheoreticalResult map[string][]FlopSample

// TheoreticalFlops estimates the flops of the named solver for an m×n
// problem of rank r.
func TheoreticalFlops(solver string, m, n, r int) (int64, error) {
	rec, err := LookupSolver(solver)
	if err != nil {
		return 0, err
	}
	flops, err := rec.Decomposition.Flops(m, n, r)
	if err != nil {
		return 0, fmt.Errorf("solver %s: %w", solver, err)
	}
	return flops, nil
}

// Theoretical evaluates every solver's cost model at each scheduled row count
// with n columns and rank r. Solvers without a cost model are left out of the
// result and returned in missing.
func Theoretical(n, r int, solvers []string, schedule []int) (result TheoreticalResult, missing []string, err error) {
	result = make(TheoreticalResult, len(solvers))
	for _, name := range solvers {
		final := make([]FlopSample, 0, len(schedule))
		for _, rows := range schedule {
			flops, err := TheoreticalFlops(name, rows, n, r)
			if errors.Is(err, ErrNoCostModel) {
				missing = append(missing, name)
				final = nil
				break
			}
			if err != nil {
				return nil, nil, err
			}
			final = append(final, FlopSample{Rows: rows, Flops: flops})
		}
		if final != nil {
			result[name] = final
		}
	}
	return result, missing, nil
}

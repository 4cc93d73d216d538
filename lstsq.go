package flopbench

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/gonum"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

// ErrRankDeficient is returned by solvers that need a full-rank matrix.
var ErrRankDeficient = errors.New("matrix is rank deficient")

// builtinSolvers lists the solvers registered at init, in sweep order.
//
// The first seven keep the names of the published sweep. Each runs the gonum
// counterpart of the LAPACK driver behind that name: gels for pytorch-qr,
// gelsy for pytorch-qrcp and tf-cod, gelss for pytorch-svd, and gelsd for the
// two svddc entries.
func builtinSolvers() []SolverRecord {
	return []SolverRecord{
		{Name: "tf-necd", Library: "gonum/mat", Decomposition: Cholesky, Fit: fitNormalCholesky},
		{Name: "tf-cod", Library: "gonum/lapack/gonum", Decomposition: COD, Fit: fitCOD},
		{Name: "pytorch-qrcp", Library: "gonum/lapack/gonum", Decomposition: QRPivoted, Fit: fitPivotedQR},
		{Name: "pytorch-qr", Library: "gonum/lapack/lapack64", Decomposition: QR, Fit: fitGels},
		{Name: "pytorch-svd", Library: "gonum/mat", Decomposition: SVD, Fit: fitSVD(mat.SVDThin)},
		{Name: "pytorch-svddc", Library: "gonum/lapack/gonum", Decomposition: SVDDivide, Fit: fitQRSVD},
		{Name: "sklearn-svddc", Library: "gonum/lapack/gonum", Decomposition: SVDDivide, Fit: fitQRSVD},
		{Name: "gonum-qr", Library: "gonum/mat", Decomposition: QR, Fit: fitQR},
		{Name: "gonum-svdfull", Library: "gonum/mat", Decomposition: SVDComplete, Fit: fitSVD(mat.SVDFull)},
	}
}

// defaultSolverNames is the published sweep.
var defaultSolverNames = []string{
	"tf-necd",
	"tf-cod",
	"pytorch-qrcp",
	"pytorch-qr",
	"pytorch-svd",
	"pytorch-svddc",
	"sklearn-svddc",
}

// conditionOK drops mat.Condition warnings: the solution is still computed for
// ill-conditioned systems. Exactly singular systems stay errors.
func conditionOK(err error) error {
	var cond mat.Condition
	if errors.As(err, &cond) && !math.IsInf(float64(cond), 1) {
		return nil
	}
	return err
}

// fitNormalCholesky solves xᵀx·β = xᵀy with a Cholesky factorization.
func fitNormalCholesky(x mat.Matrix, y mat.Vector) (*mat.VecDense, error) {
	_, n := x.Dims()

	xtx := mat.NewSymDense(n, nil)
	xtx.SymOuterK(1, x.T())

	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(xtx); !ok {
		return nil, fmt.Errorf("%w: normal equations are not positive definite", ErrRankDeficient)
	}

	beta := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(beta, &xty); conditionOK(err) != nil {
		return nil, err
	}
	return beta, nil
}

// fitQR uses gonum's Householder QR.
func fitQR(x mat.Matrix, y mat.Vector) (*mat.VecDense, error) {
	_, n := x.Dims()

	var qr mat.QR
	qr.Factorize(x)

	beta := mat.NewVecDense(n, nil)
	if err := qr.SolveVecTo(beta, false, y); conditionOK(err) != nil {
		return nil, err
	}
	return beta, nil
}

// fitGels calls LAPACK's Dgels through lapack64.
func fitGels(x mat.Matrix, y mat.Vector) (*mat.VecDense, error) {
	m, n := x.Dims()

	a := mat.DenseCopyOf(x).RawMatrix()
	rhs := make([]float64, max(m, n))
	for i := 0; i < m; i++ {
		rhs[i] = y.AtVec(i)
	}
	b := blas64.General{Rows: max(m, n), Cols: 1, Stride: 1, Data: rhs}

	work := []float64{0}
	lapack64.Gels(blas.NoTrans, a, b, work, -1)
	work = make([]float64, int(work[0]))

	if ok := lapack64.Gels(blas.NoTrans, a, b, work, len(work)); !ok {
		return nil, ErrRankDeficient
	}
	return mat.NewVecDense(n, rhs[:n:n]), nil
}

// pivotedQR holds a column-pivoted QR factorization A·P = Q·R together with
// Qᵀy and the numerical rank.
type pivotedQR struct {
	m, n int
	a    []float64 // R in the upper triangle, reflectors below, row-major
	lda  int
	jpvt []int     // column j of A·P is column jpvt[j] of A
	qty  []float64 // Qᵀy
	rank int
}

func factorPivotedQR(x mat.Matrix, y mat.Vector) *pivotedQR {
	var impl gonum.Implementation

	m, n := x.Dims()
	raw := mat.DenseCopyOf(x).RawMatrix()
	k := min(m, n)

	jpvt := make([]int, n)
	for i := range jpvt {
		jpvt[i] = -1
	}
	tau := make([]float64, k)

	work := []float64{0}
	impl.Dgeqp3(m, n, raw.Data, raw.Stride, jpvt, tau, work, -1)
	work = make([]float64, int(work[0]))
	impl.Dgeqp3(m, n, raw.Data, raw.Stride, jpvt, tau, work, len(work))

	qty := make([]float64, m)
	for i := range qty {
		qty[i] = y.AtVec(i)
	}
	work = []float64{0}
	impl.Dormqr(blas.Left, blas.Trans, m, 1, k, raw.Data, raw.Stride, tau, qty, 1, work, -1)
	work = make([]float64, int(work[0]))
	impl.Dormqr(blas.Left, blas.Trans, m, 1, k, raw.Data, raw.Stride, tau, qty, 1, work, len(work))

	// Pivoting orders |R[i][i]| non-increasingly, so the rank is the length
	// of the prefix above the tolerance.
	rank := 0
	if k > 0 {
		tol := float64(max(m, n)) * epsilon * math.Abs(raw.Data[0])
		for rank < k && math.Abs(raw.Data[rank*raw.Stride+rank]) > tol {
			rank++
		}
	}

	return &pivotedQR{m: m, n: n, a: raw.Data, lda: raw.Stride, jpvt: jpvt, qty: qty, rank: rank}
}

// unpivot maps a solution of the permuted system back to the columns of A.
func (f *pivotedQR) unpivot(z []float64) *mat.VecDense {
	beta := mat.NewVecDense(f.n, nil)
	for j, v := range z {
		beta.SetVec(f.jpvt[j], v)
	}
	return beta
}

// fitPivotedQR returns the basic solution: β is zero outside the leading rank
// pivot columns.
func fitPivotedQR(x mat.Matrix, y mat.Vector) (*mat.VecDense, error) {
	f := factorPivotedQR(x, y)
	if f.rank == 0 {
		return mat.NewVecDense(f.n, nil), nil
	}

	var impl gonum.Implementation
	z := f.qty[:f.rank]
	if ok := impl.Dtrtrs(blas.Upper, blas.NoTrans, blas.NonUnit, f.rank, 1, f.a, f.lda, z, 1); !ok {
		return nil, ErrRankDeficient
	}
	return f.unpivot(z), nil
}

// fitCOD completes the pivoted QR with an LQ factorization of the leading
// rank rows of R, giving the minimum-norm solution even when rank < n.
func fitCOD(x mat.Matrix, y mat.Vector) (*mat.VecDense, error) {
	f := factorPivotedQR(x, y)
	if f.rank == 0 {
		return mat.NewVecDense(f.n, nil), nil
	}

	t := mat.NewDense(f.rank, f.n, nil)
	for i := 0; i < f.rank; i++ {
		for j := i; j < f.n; j++ {
			t.Set(i, j, f.a[i*f.lda+j])
		}
	}

	var lq mat.LQ
	lq.Factorize(t)

	z := mat.NewVecDense(f.n, nil)
	if err := lq.SolveVecTo(z, false, mat.NewVecDense(f.rank, f.qty[:f.rank])); conditionOK(err) != nil {
		return nil, err
	}
	return f.unpivot(z.RawVector().Data), nil
}

// fitSVD returns a minimum-norm solution from an SVD of the given kind.
func fitSVD(kind mat.SVDKind) Fit {
	return func(x mat.Matrix, y mat.Vector) (*mat.VecDense, error) {
		m, n := x.Dims()

		var svd mat.SVD
		if ok := svd.Factorize(x, kind); !ok {
			return nil, errors.New("svd: factorization did not converge")
		}
		rank := svd.Rank(float64(max(m, n)) * epsilon)

		beta := mat.NewVecDense(n, nil)
		svd.SolveVecTo(beta, y, rank)
		return beta, nil
	}
}

// fitQRSVD factors x = Q·R first and takes the SVD of the n×n factor R, the
// reduction gelsd applies to tall matrices. The solution is minimum-norm.
func fitQRSVD(x mat.Matrix, y mat.Vector) (*mat.VecDense, error) {
	m, n := x.Dims()
	if m < n {
		return fitSVD(mat.SVDThin)(x, y)
	}

	var impl gonum.Implementation
	raw := mat.DenseCopyOf(x).RawMatrix()
	tau := make([]float64, n)

	work := []float64{0}
	impl.Dgeqrf(m, n, raw.Data, raw.Stride, tau, work, -1)
	work = make([]float64, int(work[0]))
	impl.Dgeqrf(m, n, raw.Data, raw.Stride, tau, work, len(work))

	qty := make([]float64, m)
	for i := range qty {
		qty[i] = y.AtVec(i)
	}
	work = []float64{0}
	impl.Dormqr(blas.Left, blas.Trans, m, 1, n, raw.Data, raw.Stride, tau, qty, 1, work, -1)
	work = make([]float64, int(work[0]))
	impl.Dormqr(blas.Left, blas.Trans, m, 1, n, raw.Data, raw.Stride, tau, qty, 1, work, len(work))

	r := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r.Set(i, j, raw.Data[i*raw.Stride+j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(r, mat.SVDThin); !ok {
		return nil, errors.New("svd: factorization did not converge")
	}
	rank := svd.Rank(float64(m) * epsilon)

	beta := mat.NewVecDense(n, nil)
	svd.SolveVecTo(beta, mat.NewVecDense(n, qty[:n]), rank)
	return beta, nil
}

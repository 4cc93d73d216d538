package flopbench

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSeed seeds GenerateDataset when a Config leaves Seed at zero.
const DefaultSeed uint64 = 100

// epsilon is the float64 machine epsilon, 2^-52.
const epsilon = 0x1p-52

// ErrInvalidShape is returned for datasets without a feature and a target column.
var ErrInvalidShape = errors.New("invalid dataset shape")

// Dataset is a rows×cols matrix of standard normal values. The last column is
// the regression target, the others are features. It is read-only once built.
type Dataset struct {
	data *mat.Dense
	seed uint64
}

// GenerateDataset draws a rows×cols matrix from N(0, 1) using a PCG source
// seeded with seed. Identical arguments always produce identical matrices.
func GenerateDataset(rows, cols int, seed uint64) (*Dataset, error) {
	if rows < 1 || cols < 2 {
		return nil, fmt.Errorf("%w: %d x %d (need rows >= 1, cols >= 2)", ErrInvalidShape, rows, cols)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed)}
	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = normal.Rand()
	}

	return &Dataset{data: mat.NewDense(rows, cols, values), seed: seed}, nil
}

// Dims returns the number of rows and columns.
func (d *Dataset) Dims() (rows, cols int) {
	return d.data.Dims()
}

// Seed returns the seed the dataset was drawn with.
func (d *Dataset) Seed() uint64 {
	return d.seed
}

// Matrix exposes the underlying matrix. Callers must not modify it.
func (d *Dataset) Matrix() mat.Matrix {
	return d.data
}

// Prefix returns views of the features and target restricted to the first n
// rows. No data is copied.
func (d *Dataset) Prefix(n int) (x mat.Matrix, y mat.Vector) {
	rows, cols := d.data.Dims()
	if n < 1 || n > rows {
		panic(fmt.Sprintf("flopbench: prefix %d out of range [1, %d]", n, rows))
	}
	x = d.data.Slice(0, n, 0, cols-1)
	y = d.data.ColView(cols - 1).(*mat.VecDense).SliceVec(0, n)
	return x, y
}

// Rank returns the numerical rank of the whole matrix, features and target
// together, using the singular value threshold max(rows, cols)·ε·σ_max.
func (d *Dataset) Rank() (int, error) {
	var svd mat.SVD
	if ok := svd.Factorize(d.data, mat.SVDNone); !ok {
		return 0, errors.New("rank: SVD did not converge")
	}
	rows, cols := d.data.Dims()
	return svd.Rank(float64(max(rows, cols)) * epsilon), nil
}

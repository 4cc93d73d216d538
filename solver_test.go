package flopbench

import (
	"errors"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func zeroFit(x mat.Matrix, _ mat.Vector) (*mat.VecDense, error) {
	_, n := x.Dims()
	return mat.NewVecDense(n, nil), nil
}

// TestSolverRegistry_RegisterLookup verifies the basic registry contract.
func TestSolverRegistry_RegisterLookup(t *testing.T) {
	r := NewSolverRegistry()

	if err := r.Register(SolverRecord{Name: "zero", Decomposition: QR, Fit: zeroFit}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(SolverRecord{Name: "zero", Fit: zeroFit}); !errors.Is(err, ErrDuplicateSolver) {
		t.Errorf("duplicate register: err = %v, want ErrDuplicateSolver", err)
	}
	if err := r.Register(SolverRecord{Name: "nofit"}); err == nil {
		t.Error("expected error for a record without a fit")
	}

	rec, err := r.Lookup("zero")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec.Decomposition != QR {
		t.Errorf("Decomposition = %q, want %q", rec.Decomposition, QR)
	}
	if _, err := r.Lookup("missing"); !errors.Is(err, ErrUnknownSolver) {
		t.Errorf("Lookup(missing): err = %v, want ErrUnknownSolver", err)
	}
}

// TestDefaultSolvers_HaveCostModels verifies the default sweep only names
// solvers with a theoretical estimate, and that all of them are registered.
func TestDefaultSolvers_HaveCostModels(t *testing.T) {
	names := DefaultSolvers()
	if len(names) == 0 {
		t.Fatal("no default solvers")
	}

	registered := SolverNames()
	for _, name := range names {
		rec, err := LookupSolver(name)
		if err != nil {
			t.Fatalf("default solver %s not registered: %v", name, err)
		}
		if !rec.Decomposition.HasCostModel() {
			t.Errorf("default solver %s has no cost model", name)
		}
		if !slices.Contains(registered, name) {
			t.Errorf("SolverNames() is missing %s", name)
		}
	}
	if slices.Contains(names, "gonum-svdfull") {
		t.Error("gonum-svdfull should not be swept by default")
	}
	if !slices.IsSorted(registered) {
		t.Errorf("SolverNames() not sorted: %v", registered)
	}
}

// TestDefaultSolvers_PublishedNames keeps the published sweep's names and order.
func TestDefaultSolvers_PublishedNames(t *testing.T) {
	want := []string{"tf-necd", "tf-cod", "pytorch-qrcp", "pytorch-qr", "pytorch-svd", "pytorch-svddc", "sklearn-svddc"}
	if got := DefaultSolvers(); !slices.Equal(got, want) {
		t.Errorf("DefaultSolvers() = %v, want %v", got, want)
	}

	rec, err := LookupSolver("pytorch-svddc")
	if err != nil {
		t.Fatalf("LookupSolver failed: %v", err)
	}
	if rec.Decomposition != SVDDivide {
		t.Errorf("pytorch-svddc decomposition = %q, want %q", rec.Decomposition, SVDDivide)
	}

	// The returned slice is a copy.
	DefaultSolvers()[0] = "changed"
	if DefaultSolvers()[0] != "tf-necd" {
		t.Error("DefaultSolvers shares its backing array")
	}
}

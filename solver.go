package flopbench

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Fit solves the least-squares problem min ||x·β - y||₂ and returns β.
// Implementations must not modify x or y.
type Fit func(x mat.Matrix, y mat.Vector) (*mat.VecDense, error)

// SolverRecord describes a registered solver.
type SolverRecord struct {
	Name          string        // Registry key, e.g. "pytorch-qrcp"
	Library       string        // Package the fit is built on
	Decomposition Decomposition // Factorization used, selects the cost model
	Fit           Fit
}

var (
	// ErrUnknownSolver is returned when a solver name is not registered.
	ErrUnknownSolver = errors.New("unknown solver")

	// ErrDuplicateSolver is returned when registering a name twice.
	ErrDuplicateSolver = errors.New("solver already registered")
)

// SolverRegistry maps solver names to their fit strategies.
type SolverRegistry struct {
	mu      sync.RWMutex
	solvers map[string]SolverRecord
}

// NewSolverRegistry creates an empty registry.
func NewSolverRegistry() *SolverRegistry {
	return &SolverRegistry{
		solvers: make(map[string]SolverRecord),
	}
}

// Register adds a solver. Names must be unique and Fit must be set.
func (r *SolverRegistry) Register(rec SolverRecord) error {
	if rec.Name == "" || rec.Fit == nil {
		return fmt.Errorf("solver record needs a name and a fit function")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.solvers[rec.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSolver, rec.Name)
	}
	r.solvers[rec.Name] = rec
	return nil
}

// Lookup returns the solver registered under name.
func (r *SolverRegistry) Lookup(name string) (SolverRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.solvers[name]
	if !ok {
		return SolverRecord{}, fmt.Errorf("%w: %q", ErrUnknownSolver, name)
	}
	return rec, nil
}

// Names returns the registered solver names in sorted order.
func (r *SolverRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry holds the built-in solvers from lstsq.go.
var defaultRegistry = NewSolverRegistry()

func init() {
	for _, rec := range builtinSolvers() {
		if err := defaultRegistry.Register(rec); err != nil {
			panic(err)
		}
	}
}

// RegisterSolver adds a solver to the default registry.
func RegisterSolver(rec SolverRecord) error {
	return defaultRegistry.Register(rec)
}

// LookupSolver finds a solver in the default registry.
func LookupSolver(name string) (SolverRecord, error) {
	return defaultRegistry.Lookup(name)
}

// SolverNames lists the default registry.
func SolverNames() []string {
	return defaultRegistry.Names()
}

// DefaultSolvers returns the names swept when a Config names no solvers:
// the seven solvers of the published sweep, all with a cost model.
func DefaultSolvers() []string {
	return slices.Clone(defaultSolverNames)
}

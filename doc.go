// Package flopbench measures how the runtime of least-squares solvers grows
// with problem size and compares it against each solver's theoretical
// floating-point operation count.
//
// # Overview
//
// A run generates one synthetic dataset, sweeps growing row prefixes of it on a
// logarithmic schedule, and times every configured solver at every size:
//
//	cfg := flopbench.DefaultConfig()
//	cfg.Solvers = []string{"pytorch-qr", "pytorch-qrcp"}
//	cfg.Rows = 100_000
//
//	results, err := flopbench.Run(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The results are written under cfg.OutputDir:
//
//	complexity_results/
//	    metadata.yaml
//	    raw_data/
//	        actual_time.yaml
//	        theoretical_time.yaml
//	        memory_usage.yaml
//	        memory_output/mem_<solver>_<rows>_<iter>.bin
//	    memory_figures/
//	    runtime_figures/
//	    processed_output/
//
// # Schedule
//
// Row counts follow 10^(i/10) for i = 10, 10+g, 10+2g, ... where g is the
// granularity, stopping at the dataset's row count. A granularity of 5 steps
// by half a decade:
//
//	10, 31, 100, 316, 1000, 3162, 10000
//
// # Solvers
//
// Each solver name maps to one fit strategy over gonum. The default sweep
// keeps the solver names of the published experiment; each runs the gonum
// counterpart of the LAPACK driver behind the name:
//
//	tf-necd        Cholesky on the normal equations   m·n² + n³
//	tf-cod         complete orthogonal decomposition  2mnr - r²(m+n) + 2r³/3 + r(n-r)
//	pytorch-qrcp   QR with column pivoting (gelsy)    4mnr - 2r²(m+n) + 4r³/3
//	pytorch-qr     QR, LAPACK Dgels (gels)            2mn² - 2n³/3
//	pytorch-svd    SVD (gelss)                        4mn² + 8n³
//	pytorch-svddc  QR then SVD of R (gelsd)           mn²
//	sklearn-svddc  QR then SVD of R (gelsd)           mn²
//
// Also registered, outside the default sweep:
//
//	gonum-qr       Householder QR via mat.QR          2mn² - 2n³/3
//	gonum-svdfull  SVD with full U                    (no cost model)
//
// A solver that fails at any iteration keeps its slot in the timing results as
// a null entry, is listed in metadata.yaml under failed_regs, and is left out of
// the theoretical comparison.
//
// # Reports
//
// WriteReport turns a finished run into summary CSVs and log-log figures of
// measured runtime against theoretical flops. The aggregate subpackage handles
// the separate circular-data experiment.
package flopbench

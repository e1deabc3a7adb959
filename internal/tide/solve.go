package tide

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/hveclab/tidego/internal/gof"
)

// SolveAdapter wraps the harmonic solver with data quality control,
// failure isolation and the statistics the raw solver does not provide.
// Solver failures never escape as panics: they come back as a typed
// *SolverFailure after being logged as a warning.
type SolveAdapter struct {
	solver           Solver
	correctionMethod string
	logger           *zap.SugaredLogger
}

// NewSolveAdapter creates an adapter around solver. correctionMethod
// selects the adjusted-R² correction; empty selects gof.MethodBence.
func NewSolveAdapter(solver Solver, correctionMethod string, logger *zap.SugaredLogger) *SolveAdapter {
	if correctionMethod == "" {
		correctionMethod = gof.MethodBence
	}
	return &SolveAdapter{
		solver:           solver,
		correctionMethod: correctionMethod,
		logger:           logger,
	}
}

// Solve fits the harmonic model to one segment and augments the result
// with zmean, count, adjusted R² and wind-setup statistics. On any
// solver error the returned failure is terminal for this segment.
func (a *SolveAdapter) Solve(t []time.Time, h []float64, opts SolveOptions) (*Solution, *SolverFailure) {
	return a.SolveSegment(SegmentKey{}, t, h, opts)
}

// SolveSegment is Solve with the segment key attached to any failure,
// so batch callers can report which segment was skipped.
func (a *SolveAdapter) SolveSegment(key SegmentKey, t []time.Time, h []float64, opts SolveOptions) (sol *Solution, fail *SolverFailure) {
	defer func() {
		if r := recover(); r != nil {
			sol = nil
			fail = a.failure(key, fmt.Errorf("solver panic: %v", r))
		}
	}()

	if len(t) != len(h) {
		return nil, a.failure(key, fmt.Errorf("length mismatch: %d timestamps vs %d levels", len(t), len(h)))
	}

	// Drop missing levels before handing the segment to the solver.
	tc := make([]time.Time, 0, len(t))
	hc := make([]float64, 0, len(h))
	for i := range h {
		if math.IsNaN(h[i]) {
			continue
		}
		tc = append(tc, t[i])
		hc = append(hc, h[i])
	}
	if len(hc) == 0 {
		return nil, a.failure(key, fmt.Errorf("no valid observations"))
	}

	coef, err := a.solver.Solve(tc, hc, opts)
	if err != nil {
		return nil, a.failure(key, err)
	}

	sol = &Solution{
		CoefficientSet:   *coef,
		ZMean:            stat.Mean(hc, nil),
		Count:            len(hc),
		CorrectionMethod: a.correctionMethod,
	}

	hmodel, err := a.solver.Reconstruct(tc, coef)
	if err != nil {
		return nil, a.failure(key, fmt.Errorf("reconstruction: %w", err))
	}

	k := 2*len(coef.Names) + 1
	if opts.Detrend {
		k++
	}
	rsq, err := gof.RsqAdj(hc, hmodel, k, a.correctionMethod)
	if err != nil {
		// A fit without a quality score is still a fit.
		a.logger.Warnf("adjusted R² unavailable for segment %s: %v", key, err)
		rsq = math.NaN()
	}
	sol.RsqAdj = rsq

	setup := make([]float64, len(hc))
	for i := range hc {
		setup[i] = hc[i] - hmodel[i]
	}
	sol.SetupMean = stat.Mean(setup, nil)
	sol.SetupMin, sol.SetupMax = minMax(setup)

	return sol, nil
}

func (a *SolveAdapter) failure(key SegmentKey, reason error) *SolverFailure {
	fail := &SolverFailure{Key: key, Reason: reason}
	a.logger.Warnf("%v", fail)
	return fail
}

func minMax(data []float64) (float64, float64) {
	if len(data) == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi := data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

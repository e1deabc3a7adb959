package tide

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TideAndSetup reconstructs the astronomic tide for one segment and
// derives the wind setup, defined as observed minus reconstructed level.
// When sol is nil a fresh solve is run first; if that fails (or sol was
// the product of a failed solve) the result is nil rather than a panic,
// so callers can skip the segment.
func (a *SolveAdapter) TideAndSetup(t []time.Time, h []float64, sol *Solution, opts SolveOptions) (*Series, *SolverFailure) {
	if sol == nil {
		a.logger.Info("no harmonic solution provided, running solver")
		var fail *SolverFailure
		sol, fail = a.Solve(t, h, opts)
		if fail != nil {
			return nil, fail
		}
	}

	astr, err := a.solver.Reconstruct(t, &sol.CoefficientSet)
	if err != nil {
		return nil, a.failure(SegmentKey{}, err)
	}

	setup := make([]float64, len(h))
	for i := range h {
		setup[i] = h[i] - astr[i]
	}

	return &Series{
		Time:       t,
		Observed:   h,
		Astronomic: astr,
		Setup:      setup,
	}, nil
}

// SetupStats returns the minimum, mean and maximum of the setup
// residual, ignoring missing values.
func (s *Series) SetupStats() (min, mean, max float64) {
	valid := make([]float64, 0, len(s.Setup))
	for _, v := range s.Setup {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	min, max = minMax(valid)
	return min, stat.Mean(valid, nil), max
}

// append adds all rows of other to s, preserving order.
func (s *Series) append(other *Series) {
	s.Time = append(s.Time, other.Time...)
	s.Location = append(s.Location, other.Location...)
	s.Observed = append(s.Observed, other.Observed...)
	s.Astronomic = append(s.Astronomic, other.Astronomic...)
	s.Setup = append(s.Setup, other.Setup...)
}

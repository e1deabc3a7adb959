// Package tide performs segmented harmonic analysis of long water-level
// series: it partitions an observation record into (time-bucket, location)
// segments, fits a harmonic model to each segment through a Solver
// collaborator, augments each fit with goodness-of-fit and residual
// statistics, and flattens the results into a tabular constituent record
// per segment.
package tide

import (
	"fmt"
	"time"
)

// Observation is a single water-level reading. Level may be NaN when the
// measurement is missing; readings are assumed chronological per location.
type Observation struct {
	Time     time.Time
	Location string
	Level    float64
}

// SegmentKey identifies one analysis segment: a calendar-aligned time
// bucket and a measurement location.
type SegmentKey struct {
	Bucket   time.Time
	Location string
}

func (k SegmentKey) String() string {
	return fmt.Sprintf("%s/%s", k.Bucket.Format("2006-01-02"), k.Location)
}

// BucketWidth selects the calendar-aligned segment width.
type BucketWidth string

const (
	BucketYear    BucketWidth = "year"
	BucketQuarter BucketWidth = "quarter"
	BucketMonth   BucketWidth = "month"
	BucketDay     BucketWidth = "day"
)

// ConfidenceMethod selects how the solver estimates confidence intervals.
type ConfidenceMethod string

const (
	ConfidenceNone       ConfidenceMethod = "none"
	ConfidenceLinear     ConfidenceMethod = "linear"
	ConfidenceMonteCarlo ConfidenceMethod = "monte_carlo"
)

// FitMethod selects the solver's fitting strategy.
type FitMethod string

const (
	FitDefault FitMethod = "default"
	FitRobust  FitMethod = "robust"
)

// SolveOptions are the named options passed to the harmonic solver.
// Latitude is required by every solver implementation.
type SolveOptions struct {
	Latitude        float64
	Detrend         bool
	NodalCorrection bool
	ConfInt         ConfidenceMethod
	Method          FitMethod
	Verbose         bool
}

// CoefficientSet is the immutable result of one harmonic solve. The
// per-constituent slices share length and index alignment with Names,
// which the solver orders by descending percentage energy. Optional
// members are nil when the solver did not produce them, so downstream
// code dispatches on presence rather than probing dynamic fields.
type CoefficientSet struct {
	Names     []string
	Amplitude []float64
	Phase     []float64 // degrees
	PE        []float64 // percentage energy, non-increasing, sum <= 100

	Frequency   []float64 // cycles per hour, nil unless requested
	AmplitudeCI []float64 // nil unless confidence intervals were computed
	PhaseCI     []float64 // nil unless confidence intervals were computed

	Mean     float64  // z0, the constant offset of the fit
	Slope    *float64 // level units per hour, nil unless detrended
	RMSResid *float64 // solver-internal residual RMS, nil if not reported

	Epoch time.Time // reference time the phases are expressed against
}

// HasConstituent reports whether name appears in the set.
func (c *CoefficientSet) HasConstituent(name string) bool {
	for _, n := range c.Names {
		if n == name {
			return true
		}
	}
	return false
}

// AmplitudeOf returns the fitted amplitude for name.
func (c *CoefficientSet) AmplitudeOf(name string) (float64, bool) {
	for i, n := range c.Names {
		if n == name {
			return c.Amplitude[i], true
		}
	}
	return 0, false
}

// Solution is a CoefficientSet augmented with the statistics the solve
// adapter derives from the observed segment. It is assembled once per
// segment and never mutated afterwards.
type Solution struct {
	CoefficientSet

	ZMean float64 // mean of the observed (non-missing) levels
	Count int     // number of non-missing levels

	// Wind setup (observed minus reconstructed astronomic level) statistics.
	SetupMean float64
	SetupMin  float64
	SetupMax  float64

	RsqAdj           float64
	CorrectionMethod string
}

// Series is a reconstructed segment: the observed levels alongside the
// predicted astronomic level and the setup residual, in input order.
type Series struct {
	Time       []time.Time
	Location   []string
	Observed   []float64
	Astronomic []float64
	Setup      []float64
}

// Len returns the number of rows in the series.
func (s *Series) Len() int { return len(s.Time) }

// Solver is the harmonic-analysis collaborator. Implementations fit a
// set of tidal constituents to a level series and reconstruct predicted
// levels from a previous fit.
type Solver interface {
	Solve(t []time.Time, h []float64, opts SolveOptions) (*CoefficientSet, error)
	Reconstruct(t []time.Time, coef *CoefficientSet) ([]float64, error)
}

// SolverFailure marks a segment whose harmonic solve could not produce a
// usable fit. It is returned by the solve adapter instead of a Solution
// and is terminal for that segment; it never propagates as a panic.
type SolverFailure struct {
	Key    SegmentKey
	Reason error
}

func (f *SolverFailure) Error() string {
	if f.Key == (SegmentKey{}) {
		return fmt.Sprintf("harmonic solve failed: %v", f.Reason)
	}
	return fmt.Sprintf("harmonic solve failed for segment %s: %v", f.Key, f.Reason)
}

func (f *SolverFailure) Unwrap() error { return f.Reason }

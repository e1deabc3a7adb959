package tide

import (
	"fmt"
	"time"
)

// DefaultSelectionThreshold is the cumulative percentage-energy cutoff
// used when SelectConstituents is called with a non-positive threshold.
const DefaultSelectionThreshold = 99.0

// SelectConstituents runs a coarse harmonic analysis of obs (typically
// the most recent calendar period of a record) and returns the smallest
// leading set of constituents, in solver PE order, whose cumulative
// percentage energy stays below thr. Nodal correction and detrending
// are disabled for speed. The constituent whose inclusion first reaches
// the threshold is excluded: reaching the threshold counts as exceeding
// it, so a record with PE 70/20/9/1 and thr 99 selects the first two.
//
// On solver failure the error is returned so batch callers can skip the
// record rather than abort.
func (a *SolveAdapter) SelectConstituents(obs []Observation, latitude, thr float64) ([]string, error) {
	if thr <= 0 {
		thr = DefaultSelectionThreshold
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("no observations to select constituents from")
	}

	a.logger.Infof("selecting constituents with threshold %g%% for %s", thr, obs[0].Location)

	t := make([]time.Time, len(obs))
	h := make([]float64, len(obs))
	for i, o := range obs {
		t[i] = o.Time
		h[i] = o.Level
	}

	sol, fail := a.Solve(t, h, SolveOptions{
		Latitude:        latitude,
		NodalCorrection: false,
		Detrend:         false,
		Verbose:         false,
	})
	if fail != nil {
		return nil, fail
	}

	cum := 0.0
	for i, pe := range sol.PE {
		cum += pe
		if cum >= thr {
			return append([]string(nil), sol.Names[:i]...), nil
		}
	}
	// Threshold never reached: the whole set is needed.
	return append([]string(nil), sol.Names...), nil
}

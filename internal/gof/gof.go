// Package gof provides goodness-of-fit diagnostics for harmonic model
// fits, principally the adjusted coefficient of determination with a
// selectable small-sample correction.
package gof

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Correction method names accepted by RsqAdj.
const (
	MethodBence  = "Bence"  // effective sample size from lag-1 residual autocorrelation
	MethodWherry = "Wherry" // classical adjustment with the raw sample size
)

// RsqAdj computes the adjusted R-squared between observed and modeled
// values for a fit with k parameters. Pairs where either value is NaN
// are ignored. The method selects how the effective sample size is
// determined: "Wherry" uses the raw count, "Bence" shrinks it by the
// lag-1 autocorrelation of the residuals (Bence 1995), which penalizes
// serially correlated residuals the way tidal records demand.
func RsqAdj(observed, modeled []float64, k int, method string) (float64, error) {
	if len(observed) != len(modeled) {
		return math.NaN(), fmt.Errorf("length mismatch: %d observed vs %d modeled", len(observed), len(modeled))
	}

	var obs, mod, resid []float64
	for i := range observed {
		if math.IsNaN(observed[i]) || math.IsNaN(modeled[i]) {
			continue
		}
		obs = append(obs, observed[i])
		mod = append(mod, modeled[i])
		resid = append(resid, observed[i]-modeled[i])
	}

	n := float64(len(obs))
	if len(obs) < 3 {
		return math.NaN(), fmt.Errorf("need at least 3 valid pairs, have %d", len(obs))
	}

	mean := stat.Mean(obs, nil)
	var ssRes, ssTot float64
	for i := range obs {
		ssRes += resid[i] * resid[i]
		d := obs[i] - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		return math.NaN(), fmt.Errorf("observed values are constant")
	}
	rsq := 1 - ssRes/ssTot

	var nEff float64
	switch method {
	case MethodWherry:
		nEff = n
	case MethodBence:
		nEff = effectiveSampleSize(resid)
	default:
		return math.NaN(), fmt.Errorf("unknown correction method %q", method)
	}

	dof := nEff - float64(k) - 1
	if dof <= 0 {
		return math.NaN(), fmt.Errorf("no degrees of freedom left: n_eff=%.1f, k=%d", nEff, k)
	}

	return 1 - (1-rsq)*(nEff-1)/dof, nil
}

// effectiveSampleSize applies the Bence (1995) correction
// n_eff = n * (1 - r1) / (1 + r1), with r1 the lag-1 autocorrelation
// of the residuals. Degenerate residual series fall back to n.
func effectiveSampleSize(resid []float64) float64 {
	n := float64(len(resid))
	if len(resid) < 2 {
		return n
	}
	r1 := stat.Correlation(resid[:len(resid)-1], resid[1:], nil)
	if math.IsNaN(r1) || r1 <= -1 || r1 >= 1 {
		return n
	}
	nEff := n * (1 - r1) / (1 + r1)
	if nEff > n {
		// Negative autocorrelation does not buy extra information.
		return n
	}
	return nEff
}

package harmonic

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/hveclab/tidego/internal/tide"
)

const (
	degToRad = math.Pi / 180

	// z-score of the 95% confidence interval reported alongside
	// amplitudes and phases.
	ciZ = 1.96

	defaultBootstrapReplicates = 128
)

// Solver fits a harmonic tidal model by ordinary (or iteratively
// reweighted) least squares against the constituent speed catalog.
// Nodal modulation is not applied: the NodalCorrection option is
// accepted for interface compatibility but the fit always uses the
// plain catalog speeds.
type Solver struct {
	// Constituents to fit, in priority order. Defaults to
	// DefaultConstituents. Constituents the record cannot resolve
	// (period longer than the record, or too close in speed to a
	// higher-priority constituent) are dropped before fitting.
	Constituents []string

	// BootstrapReplicates used by the monte_carlo confidence method.
	BootstrapReplicates int

	logger *zap.SugaredLogger
}

// NewSolver returns a Solver with the default constituent set. logger
// may be nil; it is only used when a solve requests verbose output.
func NewSolver(logger *zap.SugaredLogger) *Solver {
	return &Solver{
		Constituents:        DefaultConstituents,
		BootstrapReplicates: defaultBootstrapReplicates,
		logger:              logger,
	}
}

// Solve fits mean (+ optional trend) and one cosine/sine pair per
// resolvable constituent to the level series and reports amplitudes,
// phases and percentage energy sorted by descending energy.
func (s *Solver) Solve(t []time.Time, h []float64, opts tide.SolveOptions) (*tide.CoefficientSet, error) {
	n := len(t)
	if n != len(h) {
		return nil, fmt.Errorf("length mismatch: %d timestamps vs %d levels", n, len(h))
	}
	if n == 0 {
		return nil, fmt.Errorf("empty series")
	}
	if math.IsNaN(opts.Latitude) || opts.Latitude < -90 || opts.Latitude > 90 {
		return nil, fmt.Errorf("latitude %v out of range", opts.Latitude)
	}

	epoch := t[0]
	tau := make([]float64, n)
	span := 0.0
	for i, ti := range t {
		tau[i] = ti.Sub(epoch).Hours()
		if tau[i] > span {
			span = tau[i]
		}
	}

	names, omega, err := s.resolvable(span)
	if err != nil {
		return nil, err
	}
	m := len(names)

	p := 1 + 2*m
	trendCol := -1
	if opts.Detrend {
		trendCol = 1
		p++
	}
	if n < p+1 {
		return nil, fmt.Errorf("insufficient data: %d points for %d parameters", n, p)
	}

	A := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		A.Set(i, 0, 1)
		if trendCol >= 0 {
			A.Set(i, trendCol, tau[i])
		}
		for j := 0; j < m; j++ {
			arg := omega[j] * tau[i]
			A.Set(i, cosCol(j, trendCol), math.Cos(arg))
			A.Set(i, sinCol(j, trendCol), math.Sin(arg))
		}
	}
	y := mat.NewDense(n, 1, append([]float64(nil), h...))

	x, err := solveLS(A, y)
	if err != nil {
		return nil, fmt.Errorf("degenerate design matrix: %w", err)
	}
	if opts.Method == tide.FitRobust {
		if x, err = robustRefit(A, h, x); err != nil {
			return nil, err
		}
	}

	coef := &tide.CoefficientSet{
		Names:     names,
		Amplitude: make([]float64, m),
		Phase:     make([]float64, m),
		PE:        make([]float64, m),
		Frequency: make([]float64, m),
		Mean:      x.At(0, 0),
		Epoch:     epoch,
	}
	if trendCol >= 0 {
		slope := x.At(trendCol, 0)
		coef.Slope = &slope
	}

	totalEnergy := 0.0
	for j := 0; j < m; j++ {
		a := x.At(cosCol(j, trendCol), 0)
		b := x.At(sinCol(j, trendCol), 0)
		coef.Amplitude[j] = math.Hypot(a, b)
		coef.Phase[j] = degrees(math.Atan2(b, a))
		coef.Frequency[j] = omega[j] / (2 * math.Pi) // cycles per hour
		totalEnergy += coef.Amplitude[j] * coef.Amplitude[j] / 2
	}
	for j := 0; j < m; j++ {
		if totalEnergy > 0 {
			coef.PE[j] = 100 * (coef.Amplitude[j] * coef.Amplitude[j] / 2) / totalEnergy
		}
	}

	resid := residuals(A, x, h)

	if opts.ConfInt != "" && opts.ConfInt != tide.ConfidenceNone {
		ss := 0.0
		for _, r := range resid {
			ss += r * r
		}
		rms := math.Sqrt(ss / float64(len(resid)))
		coef.RMSResid = &rms

		switch opts.ConfInt {
		case tide.ConfidenceLinear:
			err = s.linearCI(A, resid, n, p, trendCol, coef)
		case tide.ConfidenceMonteCarlo:
			err = s.bootstrapCI(A, x, resid, trendCol, coef)
		default:
			err = fmt.Errorf("unknown confidence interval method %q", opts.ConfInt)
		}
		if err != nil {
			return nil, err
		}
	}

	sortByEnergy(coef)

	if opts.Verbose && s.logger != nil {
		s.logger.Infof("fitted %d constituents to %d points (span %.0f h), z0=%.4f",
			m, n, span, coef.Mean)
	}
	return coef, nil
}

// Reconstruct evaluates a previous fit at the given timestamps.
func (s *Solver) Reconstruct(t []time.Time, coef *tide.CoefficientSet) ([]float64, error) {
	if coef == nil {
		return nil, fmt.Errorf("no coefficient set")
	}

	omega := make([]float64, len(coef.Names))
	for i, name := range coef.Names {
		if coef.Frequency != nil {
			omega[i] = coef.Frequency[i] * 2 * math.Pi
			continue
		}
		speed, ok := SpeedOf(name)
		if !ok {
			return nil, fmt.Errorf("unknown constituent %q", name)
		}
		omega[i] = speed * degToRad
	}

	out := make([]float64, len(t))
	for i, ti := range t {
		tau := ti.Sub(coef.Epoch).Hours()
		v := coef.Mean
		if coef.Slope != nil {
			v += *coef.Slope * tau
		}
		for j := range coef.Names {
			v += coef.Amplitude[j] * math.Cos(omega[j]*tau-coef.Phase[j]*degToRad)
		}
		out[i] = v
	}
	return out, nil
}

// resolvable filters the configured constituents down to those the
// record can separate: at least one full cycle within the record span,
// and at least one full beat cycle against every higher-priority
// constituent already kept (Rayleigh criterion).
func (s *Solver) resolvable(span float64) ([]string, []float64, error) {
	wanted := s.Constituents
	if len(wanted) == 0 {
		wanted = DefaultConstituents
	}

	var names []string
	var omega []float64
	var kept []float64 // speeds, deg/h
	for _, name := range wanted {
		speed, ok := SpeedOf(name)
		if !ok {
			return nil, nil, fmt.Errorf("unknown constituent %q", name)
		}
		if span*speed < 360 {
			continue
		}
		separable := true
		for _, other := range kept {
			if math.Abs(speed-other)*span < 360 {
				separable = false
				break
			}
		}
		if !separable {
			continue
		}
		names = append(names, name)
		omega = append(omega, speed*degToRad)
		kept = append(kept, speed)
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("record span of %.1f h resolves no constituents", span)
	}
	return names, omega, nil
}

// linearCI derives 95% confidence intervals from the residual variance
// and the diagonal of (AᵀA)⁻¹.
func (s *Solver) linearCI(A *mat.Dense, resid []float64, n, p, trendCol int, coef *tide.CoefficientSet) error {
	var ata mat.Dense
	ata.Mul(A.T(), A)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return fmt.Errorf("confidence intervals unavailable: %w", err)
	}

	ssRes := 0.0
	for _, r := range resid {
		ssRes += r * r
	}
	sigma2 := ssRes / float64(n-p)

	m := len(coef.Names)
	coef.AmplitudeCI = make([]float64, m)
	coef.PhaseCI = make([]float64, m)
	for j := 0; j < m; j++ {
		varA := sigma2 * inv.At(cosCol(j, trendCol), cosCol(j, trendCol))
		varB := sigma2 * inv.At(sinCol(j, trendCol), sinCol(j, trendCol))
		sigmaAmp := math.Sqrt((varA + varB) / 2)
		coef.AmplitudeCI[j] = ciZ * sigmaAmp
		coef.PhaseCI[j] = phaseCI(sigmaAmp, coef.Amplitude[j])
	}
	return nil
}

// bootstrapCI derives 95% confidence intervals by refitting against
// residual-bootstrap replicates. The generator is seeded so repeated
// solves of the same segment are identical.
func (s *Solver) bootstrapCI(A, x *mat.Dense, resid []float64, trendCol int, coef *tide.CoefficientSet) error {
	reps := s.BootstrapReplicates
	if reps <= 0 {
		reps = defaultBootstrapReplicates
	}
	n := len(resid)
	m := len(coef.Names)

	var yhat mat.Dense
	yhat.Mul(A, x)

	rng := rand.New(rand.NewSource(1))
	Y := mat.NewDense(n, reps, nil)
	for b := 0; b < reps; b++ {
		for i := 0; i < n; i++ {
			Y.Set(i, b, yhat.At(i, 0)+resid[rng.Intn(n)])
		}
	}

	X, err := solveLS(A, Y)
	if err != nil {
		return fmt.Errorf("bootstrap refit: %w", err)
	}

	coef.AmplitudeCI = make([]float64, m)
	coef.PhaseCI = make([]float64, m)
	amps := make([]float64, reps)
	phaseDev := make([]float64, reps)
	for j := 0; j < m; j++ {
		for b := 0; b < reps; b++ {
			a := X.At(cosCol(j, trendCol), b)
			bb := X.At(sinCol(j, trendCol), b)
			amps[b] = math.Hypot(a, bb)
			phaseDev[b] = wrapDegrees(degrees(math.Atan2(bb, a)) - coef.Phase[j])
		}
		coef.AmplitudeCI[j] = ciZ * stat.StdDev(amps, nil)
		coef.PhaseCI[j] = ciZ * stat.StdDev(phaseDev, nil)
	}
	return nil
}

// robustRefit runs a few rounds of iteratively reweighted least squares
// with Huber weights to tame outliers (storm surges, sensor spikes).
func robustRefit(A *mat.Dense, h []float64, x *mat.Dense) (*mat.Dense, error) {
	n, p := A.Dims()
	const iterations = 3
	const huberK = 1.345

	for iter := 0; iter < iterations; iter++ {
		resid := residuals(A, x, h)

		absResid := make([]float64, n)
		for i, r := range resid {
			absResid[i] = math.Abs(r)
		}
		sort.Float64s(absResid)
		scale := 1.4826 * stat.Quantile(0.5, stat.Empirical, absResid, nil)
		if scale == 0 {
			break
		}

		wA := mat.NewDense(n, p, nil)
		wy := mat.NewDense(n, 1, nil)
		for i := 0; i < n; i++ {
			w := 1.0
			if a := math.Abs(resid[i]); a > huberK*scale {
				w = huberK * scale / a
			}
			sw := math.Sqrt(w)
			for j := 0; j < p; j++ {
				wA.Set(i, j, sw*A.At(i, j))
			}
			wy.Set(i, 0, sw*h[i])
		}

		var err error
		if x, err = solveLS(wA, wy); err != nil {
			return nil, fmt.Errorf("robust refit: %w", err)
		}
	}
	return x, nil
}

// sortByEnergy reorders every per-constituent slice by descending PE,
// with the name as a deterministic tie-break.
func sortByEnergy(coef *tide.CoefficientSet) {
	m := len(coef.Names)
	idx := make([]int, m)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if coef.PE[idx[a]] != coef.PE[idx[b]] {
			return coef.PE[idx[a]] > coef.PE[idx[b]]
		}
		return coef.Names[idx[a]] < coef.Names[idx[b]]
	})

	reorder := func(s []float64) []float64 {
		if s == nil {
			return nil
		}
		out := make([]float64, m)
		for i, j := range idx {
			out[i] = s[j]
		}
		return out
	}

	names := make([]string, m)
	for i, j := range idx {
		names[i] = coef.Names[j]
	}
	coef.Names = names
	coef.Amplitude = reorder(coef.Amplitude)
	coef.Phase = reorder(coef.Phase)
	coef.PE = reorder(coef.PE)
	coef.Frequency = reorder(coef.Frequency)
	coef.AmplitudeCI = reorder(coef.AmplitudeCI)
	coef.PhaseCI = reorder(coef.PhaseCI)
}

func solveLS(A, b mat.Matrix) (*mat.Dense, error) {
	var x mat.Dense
	if err := x.Solve(A, b); err != nil {
		return nil, err
	}
	return &x, nil
}

func residuals(A, x *mat.Dense, h []float64) []float64 {
	var yhat mat.Dense
	yhat.Mul(A, x)
	resid := make([]float64, len(h))
	for i := range h {
		resid[i] = h[i] - yhat.At(i, 0)
	}
	return resid
}

func cosCol(j, trendCol int) int {
	base := 1
	if trendCol >= 0 {
		base = 2
	}
	return base + 2*j
}

func sinCol(j, trendCol int) int {
	return cosCol(j, trendCol) + 1
}

func degrees(rad float64) float64 {
	d := rad / degToRad
	for d < 0 {
		d += 360
	}
	for d >= 360 {
		d -= 360
	}
	return d
}

// wrapDegrees maps an angle difference into [-180, 180).
func wrapDegrees(d float64) float64 {
	for d < -180 {
		d += 360
	}
	for d >= 180 {
		d -= 360
	}
	return d
}

// phaseCI converts an amplitude standard error into a phase interval in
// degrees; tiny amplitudes get the maximally uninformative interval.
func phaseCI(sigmaAmp, amp float64) float64 {
	if amp < 1e-12 {
		return 360
	}
	ci := ciZ * sigmaAmp / amp / degToRad
	if ci > 360 {
		return 360
	}
	return ci
}

package tide

import "math"

// FlattenOptions control which optional fields Flatten emits.
type FlattenOptions struct {
	IncludePhase      bool
	IncludeFrequency  bool
	IncludeCharLevels bool
}

// Field is one named scalar of a flattened result.
type Field struct {
	Name  string
	Value float64
}

// FlatRecord is one segment's fit flattened to a single tabular row.
// Field order is fixed by Flatten and stable across runs.
type FlatRecord struct {
	Key    SegmentKey
	Fields []Field
}

// Get returns the value of the named field.
func (r *FlatRecord) Get(name string) (float64, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// Names returns the field names in emission order.
func (r *FlatRecord) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

func (r *FlatRecord) add(name string, value float64) {
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}

// Flatten converts an augmented solution into one flat record. The
// solver may have run with different options per call, so the optional
// blocks (phase, trend slope, residual RMS, confidence intervals,
// frequency) are emitted only when present in the solution. Identical
// solutions and options always produce field-for-field identical
// records.
func Flatten(sol *Solution, opts FlattenOptions) FlatRecord {
	var rec FlatRecord

	rec.add("z0", sol.Mean)
	rec.add("zmean", sol.ZMean)
	rec.add("count", float64(sol.Count))

	for i, name := range sol.Names {
		rec.add(name+"_ampl", sol.Amplitude[i])
	}

	rec.add("smean", sol.SetupMean)
	rec.add("smin", sol.SetupMin)
	rec.add("smax", sol.SetupMax)

	if opts.IncludePhase {
		for i, name := range sol.Names {
			rec.add(name+"_phase", sol.Phase[i])
		}
	}

	if sol.Slope != nil {
		rec.add("slope", *sol.Slope)
	}

	if sol.RMSResid != nil {
		rec.add("rms_resid", *sol.RMSResid)
	}

	if sol.AmplitudeCI != nil {
		for i, name := range sol.Names {
			rec.add(name+"_A_ci", sol.AmplitudeCI[i])
		}
	}

	if sol.PhaseCI != nil && opts.IncludePhase {
		for i, name := range sol.Names {
			rec.add(name+"_g_ci", sol.PhaseCI[i])
		}
	}

	if !math.IsNaN(sol.RsqAdj) {
		rec.add("Rsq_adj", sol.RsqAdj)
	}

	if opts.IncludeFrequency && sol.Frequency != nil {
		for i, name := range sol.Names {
			rec.add(name+"_frq", sol.Frequency[i])
		}
	}

	if opts.IncludeCharLevels {
		addCharacteristicLevels(&rec, sol)
	}

	return rec
}

// addCharacteristicLevels derives the spring/neap tide levels from the
// principal lunar and solar semidiurnal amplitudes. A fit that resolved
// neither M2 nor S2 simply keeps its base record; the derivation is
// skipped without error.
func addCharacteristicLevels(rec *FlatRecord, sol *Solution) {
	m2, okM2 := sol.AmplitudeOf("M2")
	s2, okS2 := sol.AmplitudeOf("S2")
	if !okM2 || !okS2 {
		return
	}

	z0 := sol.Mean
	rec.add("MHWS", z0+m2+s2)
	rec.add("MLWS", z0-m2-s2)
	rec.add("MHWN", z0+m2-s2)
	rec.add("MLWN", z0-m2+s2)
}

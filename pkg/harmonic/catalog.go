// Package harmonic provides a least-squares harmonic tidal solver
// implementing the tide.Solver interface: a fixed catalog of constituent
// speeds, a cosine/sine design matrix fit, and reconstruction of the
// astronomic level from a previous fit.
package harmonic

// Angular speeds of the supported tidal constituents in degrees per
// mean solar hour (Pugh & Woodworth, Sea level science, 2014).
var speeds = map[string]float64{
	// Long period
	"SA":  0.0410686,
	"SSA": 0.0821373,
	"MM":  0.5443747,
	"MSF": 1.0158958,
	"MF":  1.0980331,

	// Diurnal
	"Q1": 13.3986609,
	"O1": 13.9430356,
	"P1": 14.9589314,
	"K1": 15.0410686,
	"J1": 15.5854433,

	// Semidiurnal
	"2N2": 27.8953548,
	"MU2": 27.9682084,
	"N2":  28.4397295,
	"NU2": 28.5125831,
	"M2":  28.9841042,
	"L2":  29.5284789,
	"T2":  29.9589333,
	"S2":  30.0000000,
	"K2":  30.0821373,

	// Shallow water
	"MN4": 57.4238337,
	"M4":  57.9682084,
	"MS4": 58.9841042,
	"S4":  60.0000000,
	"M6":  86.9523127,
}

// DefaultConstituents is the set fitted when the caller does not
// prescribe one, ordered by customary importance.
var DefaultConstituents = []string{
	"M2", "S2", "N2", "K2",
	"K1", "O1", "P1", "Q1",
	"MF", "MM", "SSA", "SA",
	"M4", "MS4", "M6",
}

// SpeedOf returns the angular speed of a constituent in degrees per
// hour.
func SpeedOf(name string) (float64, bool) {
	s, ok := speeds[name]
	return s, ok
}

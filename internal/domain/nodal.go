package domain

import "math"

// NodalFactor is the amplitude factor f and phase correction u (degrees)
// caused by the 18.6-year regression of the lunar node.
type NodalFactor struct {
	F float64
	U float64
}

// identityFactor applies no nodal correction.
var identityFactor = NodalFactor{F: 1, U: 0} //nolint:gochecknoglobals // Constant value.

// nodalSeries evaluates
//
//	f = F[0] + F[1] cos N + F[2] cos 2N + F[3] cos 3N
//	u = U[1] sin N + U[2] sin 2N + U[3] sin 3N
type nodalSeries struct {
	F [4]float64
	U [4]float64
}

func (s nodalSeries) eval(nDeg float64) NodalFactor {
	n := Deg2Rad(nDeg)
	f := s.F[0]
	u := s.U[0]
	for k := 1; k < 4; k++ {
		kn := float64(k) * n
		f += s.F[k] * math.Cos(kn)
		u += s.U[k] * math.Sin(kn)
	}
	return NodalFactor{F: f, U: u}
}

// Built-in series (Schureman 1958, Table 2 and formulas 73-78, 227-235).
//
//nolint:gochecknoglobals // Read-only coefficient table.
var builtInNodalSeries = map[string]nodalSeries{
	"M2":  {F: [4]float64{1.0004, -0.0373, 0.0002, 0}, U: [4]float64{0, -2.14, 0, 0}},
	"K1":  {F: [4]float64{1.0060, 0.1150, -0.0088, 0.0006}, U: [4]float64{0, -8.86, 0.68, -0.07}},
	"O1":  {F: [4]float64{1.0089, 0.1871, -0.0147, 0.0014}, U: [4]float64{0, 10.80, -1.34, 0.19}},
	"K2":  {F: [4]float64{1.0241, 0.2863, 0.0083, -0.0015}, U: [4]float64{0, -17.74, 0.68, -0.04}},
	"J1":  {F: [4]float64{1.0129, 0.1676, -0.0170, 0.0016}, U: [4]float64{0, -12.94, 1.34, -0.19}},
	"OO1": {F: [4]float64{1.1027, 0.6504, 0.0317, -0.0014}, U: [4]float64{0, -36.68, 4.02, -0.57}},
	"MF":  {F: [4]float64{1.0429, 0.4135, -0.0040, 0}, U: [4]float64{0, -23.74, 2.68, -0.38}},
	"MM":  {F: [4]float64{1.0000, -0.1300, 0.0013, 0}},
}

// aliasNodal maps constituents that share another constituent's series.
//
//nolint:gochecknoglobals // Read-only alias table.
var aliasNodal = map[string]string{
	"N2":  "M2",
	"2N2": "M2",
	"MU2": "M2",
	"NU2": "M2",
	"Q1":  "O1",
}

type compoundTerm struct {
	base string
	k    int
}

// compoundNodal derives factors of shallow water constituents from their
// parents: f = Π f_i^|k_i|, u = Σ k_i u_i.
//
//nolint:gochecknoglobals // Read-only compound table.
var compoundNodal = map[string][]compoundTerm{
	"M4":   {{base: "M2", k: 2}},
	"MN4":  {{base: "M2", k: 1}, {base: "N2", k: 1}},
	"MS4":  {{base: "M2", k: 1}},
	"M6":   {{base: "M2", k: 3}},
	"MK3":  {{base: "M2", k: 1}, {base: "K1", k: 1}},
	"2SM2": {{base: "M2", k: -1}},
}

// NodalTable resolves nodal factors, consulting per-profile overrides before
// the built-in series. The zero value and nil both use built-ins only.
type NodalTable struct {
	overrides map[string]nodalSeries
}

// NodalFactorFor returns the built-in nodal factor for a constituent at node
// longitude nDeg. Constituents without a tabulated entry get f=1, u=0.
func NodalFactorFor(id string, nDeg float64) NodalFactor {
	var t *NodalTable
	return t.FactorFor(id, nDeg)
}

// FactorFor returns the nodal factor for a constituent at node longitude nDeg.
func (t *NodalTable) FactorFor(id string, nDeg float64) NodalFactor {
	key := NormalizeConstituentID(id)

	if t != nil {
		if s, ok := t.overrides[key]; ok {
			return s.eval(nDeg)
		}
	}

	if alias, ok := aliasNodal[key]; ok {
		key = alias
		if t != nil {
			if s, ok := t.overrides[key]; ok {
				return s.eval(nDeg)
			}
		}
	}

	if s, ok := builtInNodalSeries[key]; ok {
		return s.eval(nDeg)
	}

	if terms, ok := compoundNodal[key]; ok {
		out := identityFactor
		for _, term := range terms {
			base := t.FactorFor(term.base, nDeg)
			out.F *= math.Pow(base.F, math.Abs(float64(term.k)))
			out.U += float64(term.k) * base.U
		}
		return out
	}

	return identityFactor
}

// Has reports whether the table carries an override for id.
func (t *NodalTable) Has(id string) bool {
	if t == nil {
		return false
	}
	_, ok := t.overrides[NormalizeConstituentID(id)]
	return ok
}

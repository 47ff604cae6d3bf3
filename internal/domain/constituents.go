package domain

import (
	"sort"
	"strings"
)

// ConstituentInfo describes a standard tidal constituent: its Doodson
// coefficients over (T, s, h, p, N) and the constant part of its
// equilibrium argument.
type ConstituentInfo struct {
	Name                 string
	Description          string
	Doodson              [5]int
	EquilibriumOffsetDeg float64
}

// SpeedDegPerHr returns the angular speed implied by the Doodson coefficients.
func (c ConstituentInfo) SpeedDegPerHr() float64 {
	rates := [5]float64{rateTPerHour, rateSPerHour, rateHPerHour, ratePPerHour, 0}
	speed := 0.0
	for k, coef := range c.Doodson {
		speed += float64(coef) * rates[k]
	}
	return speed
}

// standardConstituents is keyed by upper-case name.
// Coefficients follow Schureman's V in terms of T, s, h, p; the solar perigee
// term of T2/R2 is dropped.
//
//nolint:gochecknoglobals // Read-only catalog.
var standardConstituents = map[string]ConstituentInfo{
	// Semidiurnal.
	"M2":  {Name: "M2", Description: "Principal lunar semidiurnal", Doodson: [5]int{2, -2, 2, 0, 0}},
	"S2":  {Name: "S2", Description: "Principal solar semidiurnal", Doodson: [5]int{2, 0, 0, 0, 0}},
	"N2":  {Name: "N2", Description: "Larger lunar elliptic semidiurnal", Doodson: [5]int{2, -3, 2, 1, 0}},
	"K2":  {Name: "K2", Description: "Lunisolar semidiurnal", Doodson: [5]int{2, 0, 2, 0, 0}},
	"2N2": {Name: "2N2", Description: "Lunar elliptic semidiurnal second-order", Doodson: [5]int{2, -4, 2, 2, 0}},
	"MU2": {Name: "MU2", Description: "Variational", Doodson: [5]int{2, -4, 4, 0, 0}},
	"NU2": {Name: "NU2", Description: "Larger lunar evectional", Doodson: [5]int{2, -3, 4, -1, 0}},
	"L2":  {Name: "L2", Description: "Smaller lunar elliptic semidiurnal", Doodson: [5]int{2, -1, 2, -1, 0}, EquilibriumOffsetDeg: 180},
	"T2":  {Name: "T2", Description: "Larger solar elliptic", Doodson: [5]int{2, 0, -1, 0, 0}},

	// Diurnal.
	"K1":  {Name: "K1", Description: "Lunisolar diurnal", Doodson: [5]int{1, 0, 1, 0, 0}, EquilibriumOffsetDeg: -90},
	"O1":  {Name: "O1", Description: "Principal lunar diurnal", Doodson: [5]int{1, -2, 1, 0, 0}, EquilibriumOffsetDeg: 90},
	"P1":  {Name: "P1", Description: "Principal solar diurnal", Doodson: [5]int{1, 0, -1, 0, 0}, EquilibriumOffsetDeg: 90},
	"Q1":  {Name: "Q1", Description: "Larger lunar elliptic diurnal", Doodson: [5]int{1, -3, 1, 1, 0}, EquilibriumOffsetDeg: 90},
	"J1":  {Name: "J1", Description: "Smaller lunar elliptic diurnal", Doodson: [5]int{1, 1, 1, -1, 0}, EquilibriumOffsetDeg: -90},
	"OO1": {Name: "OO1", Description: "Lunar diurnal, second order", Doodson: [5]int{1, 2, 1, 0, 0}, EquilibriumOffsetDeg: -90},
	"S1":  {Name: "S1", Description: "Solar diurnal", Doodson: [5]int{1, 0, 0, 0, 0}, EquilibriumOffsetDeg: 180},

	// Shallow water.
	"M4":   {Name: "M4", Description: "Shallow water overtide of M2", Doodson: [5]int{4, -4, 4, 0, 0}},
	"MS4":  {Name: "MS4", Description: "Shallow water quarter diurnal", Doodson: [5]int{4, -2, 2, 0, 0}},
	"MN4":  {Name: "MN4", Description: "Shallow water quarter diurnal", Doodson: [5]int{4, -5, 4, 1, 0}},
	"S4":   {Name: "S4", Description: "Shallow water overtide of S2", Doodson: [5]int{4, 0, 0, 0, 0}},
	"M6":   {Name: "M6", Description: "Shallow water overtide of M2", Doodson: [5]int{6, -6, 6, 0, 0}},
	"MK3":  {Name: "MK3", Description: "Shallow water terdiurnal", Doodson: [5]int{3, -2, 3, 0, 0}, EquilibriumOffsetDeg: -90},
	"2SM2": {Name: "2SM2", Description: "Shallow water semidiurnal", Doodson: [5]int{2, 2, -2, 0, 0}},

	// Long period.
	"MF":  {Name: "MF", Description: "Lunisolar fortnightly", Doodson: [5]int{0, 2, 0, 0, 0}},
	"MM":  {Name: "MM", Description: "Lunar monthly", Doodson: [5]int{0, 1, 0, -1, 0}},
	"SSA": {Name: "SSA", Description: "Solar semiannual", Doodson: [5]int{0, 0, 2, 0, 0}},
	"SA":  {Name: "SA", Description: "Solar annual", Doodson: [5]int{0, 0, 1, 0, 0}},
}

// NormalizeConstituentID maps a constituent name to its catalog key.
func NormalizeConstituentID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// LookupConstituent returns the catalog entry for a constituent name.
// The lookup is case-insensitive.
func LookupConstituent(id string) (ConstituentInfo, bool) {
	c, ok := standardConstituents[NormalizeConstituentID(id)]
	return c, ok
}

// AllConstituents returns the catalog ordered by angular speed.
func AllConstituents() []ConstituentInfo {
	out := make([]ConstituentInfo, 0, len(standardConstituents))
	for _, c := range standardConstituents {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].SpeedDegPerHr(), out[j].SpeedDegPerHr()
		if si != sj {
			return si < sj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

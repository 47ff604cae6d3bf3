package domain

import (
	"math"
	"time"
)

// DayContext caches everything that stays fixed over one UTC calendar day:
// the base astronomical angles at midnight and one nodal factor per profile
// constituent. It is not safe for concurrent use and is never shared across
// calls.
type DayContext struct {
	Midnight time.Time
	Base     BaseAngles
	Factors  []NodalFactor
}

// NewDayContext builds the context for the UTC day starting at midnight.
func NewDayContext(midnight time.Time, p *Profile) *DayContext {
	midnight = UTCMidnight(midnight)
	base := BaseAnglesAt(midnight)

	factors := make([]NodalFactor, len(p.constituents))
	for i, c := range p.constituents {
		factors[i] = p.nodal.FactorFor(c.ID, base.N)
	}

	return &DayContext{
		Midnight: midnight,
		Base:     base,
		Factors:  factors,
	}
}

// Covers reports whether t falls on the context's UTC day.
func (dc *DayContext) Covers(t time.Time) bool {
	return UTCMidnight(t).Equal(dc.Midnight)
}

// Term is one constituent's contribution at an instant before amplitude and
// phase lag are applied: h_k = F * A_k * trig(ArgumentDeg - κ_k).
type Term struct {
	ID          string
	F           float64
	ArgumentDeg float64 // V + E + u, including longitude and origin shifts.
}

// Terms returns the nodal factor and argument of every profile constituent
// at t, which must fall on the context's day.
func (dc *DayContext) Terms(t time.Time, p *Profile) ([]Term, error) {
	angles, err := dc.angles(t, p)
	if err != nil {
		return nil, err
	}

	terms := make([]Term, len(p.constituents))
	for i, c := range p.constituents {
		terms[i] = Term{
			ID:          c.ID,
			F:           dc.Factors[i].F,
			ArgumentDeg: Mod360(dc.argument(i, c, angles)),
		}
	}
	return terms, nil
}

// angles returns the Doodson angle vector at t with the profile's shift
// applied to the first angle.
func (dc *DayContext) angles(t time.Time, p *Profile) ([5]float64, error) {
	hours := t.Sub(dc.Midnight).Hours()
	args := dc.Base.Advance(hours)
	angles := args.Vector()

	shift := p.refLonDeg + p.originDeg
	switch p.argument {
	case ArgumentT:
		angles[0] = Mod360(args.T + shift)
	case ArgumentLunarTime:
		angles[0] = Mod360(args.LunarTime() + shift)
	default:
		return angles, newFieldError("argumentConvention", "unknown convention "+p.argument.String())
	}
	return angles, nil
}

// argument returns V + E + u, unnormalized.
func (dc *DayContext) argument(i int, c Constituent, angles [5]float64) float64 {
	v := 0.0
	for k, coef := range c.Doodson {
		if coef != 0 {
			v += float64(coef) * angles[k]
		}
	}
	return v + c.EquilibriumOffsetDeg + dc.Factors[i].U
}

// height evaluates the profile at t, which must fall on the context's day.
func (dc *DayContext) height(t time.Time, p *Profile) (float64, error) {
	var trig func(float64) float64
	switch p.phase {
	case PhaseCosine:
		trig = math.Cos
	case PhaseSine:
		trig = math.Sin
	default:
		return 0, newFieldError("phaseConvention", "unknown convention "+p.phase.String())
	}

	angles, err := dc.angles(t, p)
	if err != nil {
		return 0, err
	}

	height := p.z0Cm
	if p.seasonal != nil {
		height += p.seasonal.Anomaly(t)
	}

	for i, c := range p.constituents {
		phase := Mod360(dc.argument(i, c, angles) - c.PhaseLagDeg)
		height += dc.Factors[i].F * c.AmplitudeCm * trig(Deg2Rad(phase))
	}

	return height, nil
}

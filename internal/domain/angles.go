package domain

import (
	"math"
	"time"
)

// Mean longitudes at the 2000-01-01 00:00 UTC epoch (degrees).
// Derived from the J2000.0 mean elements moved back half a day.
const (
	epochS = 211.728
	epochH = 279.974
	epochP = 83.298
	epochN = 125.071
)

// Daily rates of the fundamental arguments (degrees per day).
const (
	rateSPerDay = 13.176396
	rateHPerDay = 0.985647
	ratePPerDay = 0.111404
	rateNPerDay = -0.052954 // Node regresses.
)

// Hourly rates used to advance the arguments within a day (degrees per hour).
const (
	rateTPerHour = 15.0
	rateSPerHour = 0.5490165
	rateHPerHour = 0.0410686
	ratePPerHour = 0.0046418
)

// BaseAngles holds the fundamental astronomical arguments at 0:00 UTC.
type BaseAngles struct {
	S float64 // Mean longitude of the moon (degrees).
	H float64 // Mean longitude of the sun (degrees).
	P float64 // Mean longitude of lunar perigee (degrees).
	N float64 // Mean longitude of the lunar ascending node (degrees).
}

// Arguments holds the fundamental arguments at an instant of the day.
// T is the time-varying base angle: 180° at 0:00 UTC, 0° at 12:00 UTC.
type Arguments struct {
	T float64
	S float64
	H float64
	P float64
	N float64
}

// Vector returns the arguments in Doodson coefficient order (T, s, h, p, N).
func (a Arguments) Vector() [5]float64 {
	return [5]float64{a.T, a.S, a.H, a.P, a.N}
}

// LunarTime returns the mean lunar time τ = T - s + h in degrees.
func (a Arguments) LunarTime() float64 {
	return Mod360(a.T - a.S + a.H)
}

// BaseAnglesAt computes the fundamental arguments at 0:00 UTC of the calendar
// day containing t. The time of day of t is ignored. The leap correction
// L = floor((Y+3)/4) - 500 is exact for years 1901 through 2099.
func BaseAnglesAt(t time.Time) BaseAngles {
	t = t.UTC()
	y := t.Year()
	d := t.YearDay() - 1

	// Leap days elapsed between the epoch and January 1st of year y.
	l := floorDiv(y+3, 4) - 500
	days := float64(365*(y-2000) + d + l)

	return BaseAngles{
		S: Mod360(epochS + rateSPerDay*days),
		H: Mod360(epochH + rateHPerDay*days),
		P: Mod360(epochP + ratePPerDay*days),
		N: Mod360(epochN + rateNPerDay*days),
	}
}

// Advance moves the base angles forward by hours since midnight.
// N is held constant over the day; intraday nodal drift is ignored.
func (b BaseAngles) Advance(hours float64) Arguments {
	return Arguments{
		T: Mod360(180 + rateTPerHour*hours),
		S: Mod360(b.S + rateSPerHour*hours),
		H: Mod360(b.H + rateHPerHour*hours),
		P: Mod360(b.P + ratePPerHour*hours),
		N: b.N,
	}
}

// UTCMidnight returns 0:00 UTC of the calendar day containing t.
func UTCMidnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Mod360 normalizes an angle in degrees into [0, 360).
func Mod360(deg float64) float64 {
	r := math.Mod(deg, 360.0)
	if r < 0 {
		r += 360.0
	}
	// -tiny + 360 rounds to 360 in float64.
	if r >= 360.0 {
		r = 0
	}
	return r
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

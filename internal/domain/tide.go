package domain

import (
	"math"
	"sort"
	"time"
)

// DefaultStepMinutes is the series step used when callers do not choose one.
const DefaultStepMinutes = 10.0

// MaxSeriesSamples bounds the length of a single series.
const MaxSeriesSamples = 1_000_000

// Sample is a single predicted height at a UTC instant.
type Sample struct {
	Time     time.Time
	HeightCm float64
}

// Extrema holds high and low water events.
type Extrema struct {
	Highs []Sample
	Lows  []Sample
}

// HeightAt predicts the height in centimeters above datum at instant t.
// A nil profile selects DefaultProfile.
//
//	h(t) = Z0 + seasonal(t) + Σ f_k A_k trig(V_k + E_k + u_k - κ_k)
//
// where V_k is the Doodson-weighted sum of (T, s, h, p, N) at t.
func HeightAt(t time.Time, p *Profile) (float64, error) {
	if err := validateInstant(t); err != nil {
		return 0, err
	}
	if p == nil {
		p = DefaultProfile()
	}
	dc := NewDayContext(t, p)
	return dc.height(t, p)
}

// Series predicts heights from start for durationMinutes at stepMinutes
// intervals. It returns floor(duration/step)+1 samples; both endpoints are
// included when the duration is a whole number of steps. A nil profile
// selects DefaultProfile.
//
// Results are identical to calling HeightAt for each sample.
func Series(start time.Time, durationMinutes, stepMinutes float64, p *Profile) ([]Sample, error) {
	if err := validateInstant(start); err != nil {
		return nil, err
	}
	if !finite(durationMinutes) || durationMinutes < 0 {
		return nil, invalidArgument("duration must be a finite number of minutes >= 0, got %v", durationMinutes)
	}
	if !finite(stepMinutes) || stepMinutes <= 0 {
		return nil, invalidArgument("step must be a finite number of minutes > 0, got %v", stepMinutes)
	}
	steps := math.Floor(durationMinutes / stepMinutes)
	if steps+1 > MaxSeriesSamples {
		return nil, invalidArgument("series of %.0f samples exceeds limit of %d", steps+1, MaxSeriesSamples)
	}
	last := steps * stepMinutes * float64(time.Minute)
	if last >= math.MaxInt64 {
		return nil, invalidArgument("series of %v minutes overflows the time range", steps*stepMinutes)
	}
	// Samples are monotonic, so a valid last instant bounds them all.
	if err := validateInstant(start.Add(time.Duration(last))); err != nil {
		return nil, err
	}
	if p == nil {
		p = DefaultProfile()
	}

	count := int(steps) + 1
	samples := make([]Sample, 0, count)

	var dc *DayContext
	for i := 0; i < count; i++ {
		offset := time.Duration(float64(i) * stepMinutes * float64(time.Minute))
		t := start.Add(offset).UTC()

		if dc == nil || !dc.Covers(t) {
			dc = NewDayContext(t, p)
		}

		h, err := dc.height(t, p)
		if err != nil {
			return nil, err
		}
		samples = append(samples, Sample{Time: t, HeightCm: h})
	}

	return samples, nil
}

// InstantFromUnixMillis converts milliseconds since the Unix epoch to a UTC
// instant, rejecting non-finite or out-of-range values.
func InstantFromUnixMillis(ms float64) (time.Time, error) {
	const maxMillis = 8.64e15
	if !finite(ms) || math.Abs(ms) > maxMillis {
		return time.Time{}, invalidArgument("instant %v ms is not a valid time", ms)
	}
	sec := math.Floor(ms / 1000)
	nsec := (ms - sec*1000) * 1e6
	return time.Unix(int64(sec), int64(nsec)).UTC(), nil
}

// The leap-day correction in BaseAnglesAt follows the Julian rule, which
// matches the Gregorian calendar only between 1901 and 2099.
const (
	minSupportedYear = 1901
	maxSupportedYear = 2099
)

func validateInstant(t time.Time) error {
	if t.IsZero() {
		return invalidArgument("instant is not set")
	}
	if y := t.UTC().Year(); y < minSupportedYear || y > maxSupportedYear {
		return invalidArgument("instant %s is outside supported years %d-%d", t.UTC().Format(time.RFC3339), minSupportedYear, maxSupportedYear)
	}
	return nil
}

// FindExtrema identifies high and low waters from a series.
// Uses the sign change of the first difference; on a plateau the first
// sample is reported.
func FindExtrema(samples []Sample) Extrema {
	highs := make([]Sample, 0)
	lows := make([]Sample, 0)
	if len(samples) < 3 {
		return Extrema{Highs: highs, Lows: lows}
	}

	for i := 1; i < len(samples)-1; i++ {
		prev := samples[i-1].HeightCm
		curr := samples[i].HeightCm
		next := samples[i+1].HeightCm

		if curr > prev && curr >= next {
			highs = append(highs, samples[i])
		}
		if curr < prev && curr <= next {
			lows = append(lows, samples[i])
		}
	}

	return Extrema{Highs: highs, Lows: lows}
}

// RefineExtremum fits a parabola through three evenly spaced samples and
// returns its vertex. The discrete peak is returned when spacing is uneven,
// the curve is nearly linear, or the vertex falls outside the interval.
func RefineExtremum(before, peak, after Sample) Sample {
	dt1 := peak.Time.Sub(before.Time).Hours()
	dt2 := after.Time.Sub(peak.Time).Hours()
	if dt1 <= 0 || math.Abs(dt1-dt2) > 1e-6 {
		return peak
	}

	// y = a x^2 + b x + c around the peak; vertex at x = -b/(2a).
	h0, h1, h2 := before.HeightCm, peak.HeightCm, after.HeightCm
	a := (h2 - 2*h1 + h0) / (2 * dt1 * dt1)
	b := (h2 - h0) / (2 * dt1)
	if math.Abs(a) < 1e-10 {
		return peak
	}

	dtVertex := -b / (2 * a)
	if math.Abs(dtVertex) > dt1 {
		return peak
	}

	return Sample{
		Time:     peak.Time.Add(time.Duration(dtVertex * float64(time.Hour))),
		HeightCm: h1 + b*dtVertex + a*dtVertex*dtVertex,
	}
}

// RefineExtrema applies parabolic interpolation to every extremum found in
// samples.
func RefineExtrema(samples []Sample, extrema Extrema) Extrema {
	if len(samples) < 3 {
		return extrema
	}

	index := make(map[int64]int, len(samples))
	for i, s := range samples {
		index[s.Time.UnixNano()] = i
	}

	refine := func(events []Sample) []Sample {
		out := make([]Sample, 0, len(events))
		for _, e := range events {
			i, ok := index[e.Time.UnixNano()]
			if !ok || i < 1 || i >= len(samples)-1 {
				out = append(out, e)
				continue
			}
			out = append(out, RefineExtremum(samples[i-1], samples[i], samples[i+1]))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
		return out
	}

	return Extrema{
		Highs: refine(extrema.Highs),
		Lows:  refine(extrema.Lows),
	}
}

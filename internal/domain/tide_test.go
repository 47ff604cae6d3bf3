package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// s2Profile returns a single S2 constituent with no phase lag. S2 carries no
// nodal modulation and depends on T alone, so its height is A cos(2T).
func s2Profile(t *testing.T, mutate func(*ProfileConfig)) *Profile {
	t.Helper()
	cfg := ProfileConfig{
		Name:         "s2",
		Constituents: []ConstituentConfig{{ID: "S2", AmplitudeCm: 100}},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := NewProfile(cfg)
	require.NoError(t, err)
	return p
}

// TestHeightAt_SingleConstituent tests tide calculation with a single constituent.
func TestHeightAt_SingleConstituent(t *testing.T) {
	p := s2Profile(t, nil)
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		offset time.Duration
		want   float64
	}{
		{0, 100},                // T = 180, V = 360
		{3 * time.Hour, 0},      // V = 450
		{6 * time.Hour, -100},   // V = 540
		{12 * time.Hour, 100},   // T = 0
		{21 * time.Hour, 0},     // V = 630
		{90 * time.Minute, 70.71067811865476},
	}

	for _, tt := range tests {
		h, err := HeightAt(day.Add(tt.offset), p)
		require.NoError(t, err)
		if math.Abs(h-tt.want) > 1e-9 {
			t.Errorf("Height at +%v: expected %.10f, got %.10f", tt.offset, tt.want, h)
		}
	}
}

// TestHeightAt_MultipleConstituents tests with multiple constituents.
func TestHeightAt_MultipleConstituents(t *testing.T) {
	p, err := NewProfile(ProfileConfig{
		Z0Cm: 50,
		Constituents: []ConstituentConfig{
			{ID: "S2", AmplitudeCm: 20},
			{ID: "S4", AmplitudeCm: 5},
		},
	})
	require.NoError(t, err)

	// At midnight both phases are whole turns: 50 + 20 + 5.
	h, err := HeightAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p)
	require.NoError(t, err)
	assert.InDelta(t, 75.0, h, 1e-9)
}

func TestHeightAt_Shifts(t *testing.T) {
	midnight := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)

	lon := s2Profile(t, func(c *ProfileConfig) { c.ReferenceLongitudeDeg = 90 })
	h, err := HeightAt(midnight, lon)
	require.NoError(t, err)
	assert.InDelta(t, -100.0, h, 1e-9, "T shifted by 90 gives V = 540")

	// The phase-origin offset adds to the longitude shift.
	both := s2Profile(t, func(c *ProfileConfig) {
		c.ReferenceLongitudeDeg = 45
		c.PhaseOriginOffsetDeg = 45
	})
	h2, err := HeightAt(midnight, both)
	require.NoError(t, err)
	assert.InDelta(t, h, h2, 1e-9)
}

func TestHeightAt_PhaseLagAndZ0(t *testing.T) {
	p := s2Profile(t, func(c *ProfileConfig) {
		c.Z0Cm = 120
		c.Constituents[0].PhaseLagDeg = 60
	})
	h, err := HeightAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p)
	require.NoError(t, err)
	assert.InDelta(t, 120+100*math.Cos(Deg2Rad(-60)), h, 1e-9)
}

func TestHeightAt_PhaseConventionSymmetry(t *testing.T) {
	base := DefaultProfile().Config()

	sine := base
	sine.PhaseConvention = "sin"

	cosine := base
	cosine.Constituents = make([]ConstituentConfig, len(base.Constituents))
	for i, c := range base.Constituents {
		c.PhaseLagDeg += 90
		cosine.Constituents[i] = c
	}

	ps := MustNewProfile(sine)
	pc := MustNewProfile(cosine)

	start := time.Date(2024, 2, 28, 17, 0, 0, 0, time.UTC)
	for i := 0; i < 48; i++ {
		at := start.Add(time.Duration(i) * 37 * time.Minute)
		hs, err := HeightAt(at, ps)
		require.NoError(t, err)
		hc, err := HeightAt(at, pc)
		require.NoError(t, err)
		assert.InDelta(t, hc, hs, 1e-9, "at %v", at)
	}
}

func TestHeightAt_LunarTimeMatchesT(t *testing.T) {
	cfg := DefaultProfile().Config()
	// Drop the explicit coefficients so the catalog values are converted.
	for i := range cfg.Constituents {
		cfg.Constituents[i].DoodsonCoefficients = nil
		cfg.Constituents[i].EquilibriumOffsetDeg = nil
	}
	pt := MustNewProfile(cfg)
	cfg.ArgumentConvention = "tau"
	ptau := MustNewProfile(cfg)

	at := time.Date(2031, 9, 14, 5, 17, 0, 0, time.UTC)
	ht, err := HeightAt(at, pt)
	require.NoError(t, err)
	htau, err := HeightAt(at, ptau)
	require.NoError(t, err)
	assert.InDelta(t, ht, htau, 1e-8)
}

func TestHeightAt_UnknownConstituentFallback(t *testing.T) {
	p, err := NewProfile(ProfileConfig{
		Constituents: []ConstituentConfig{
			{ID: "X1", AmplitudeCm: 10, PhaseLagDeg: 30, DoodsonCoefficients: []int{2, 0, 0, 0, 0}},
		},
	})
	require.NoError(t, err)

	h, err := HeightAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p)
	require.NoError(t, err)
	// Identity nodal factor and no equilibrium offset: 10 cos(360 - 30).
	assert.InDelta(t, 10*math.Cos(Deg2Rad(330)), h, 1e-9)
}

func TestHeightAt_SeasonalAnomaly(t *testing.T) {
	p := s2Profile(t, func(c *ProfileConfig) {
		c.Constituents[0].AmplitudeCm = 0
		c.Z0Cm = 100
		c.SeasonalMeanModel = &SeasonalMeanModel{Annual: SeasonalComponent{AmpCm: 10}}
	})

	h, err := HeightAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p)
	require.NoError(t, err)
	assert.InDelta(t, 110.0, h, 1e-9)

	// Half a tropical year later the annual term is at its minimum.
	mid := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(tropicalYearDays / 2 * 24 * float64(time.Hour)))
	h, err = HeightAt(mid, p)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, h, 1e-6)
}

func TestSeasonalMeanModel_LocalOffset(t *testing.T) {
	m := SeasonalMeanModel{Semiannual: SeasonalComponent{AmpCm: 4, PhaseDeg: 0}, LocalOffsetMinutes: 9 * 60}
	// 15:00 UTC on Dec 31 is 00:00 local on Jan 1.
	got := m.Anomaly(time.Date(2024, 12, 31, 15, 0, 0, 0, time.UTC))
	assert.InDelta(t, 4.0, got, 1e-9)
}

func TestHeightAt_Deterministic(t *testing.T) {
	at := time.Date(2025, 7, 1, 13, 37, 11, 0, time.UTC)
	first, err := HeightAt(at, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := HeightAt(at, DefaultProfile())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// The same instant expressed in another zone.
	jst := time.FixedZone("JST", 9*60*60)
	local, err := HeightAt(at.In(jst), nil)
	require.NoError(t, err)
	assert.Equal(t, first, local)
}

func TestHeightAt_InvalidInstant(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
	}{
		{"zero time", time.Time{}},
		{"before 1901", time.Date(1900, 12, 31, 23, 0, 0, 0, time.UTC)},
		{"after 2099", time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := HeightAt(tt.at, nil)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestHeightAt_UnknownPhaseConvention(t *testing.T) {
	p := s2Profile(t, nil)
	p.phase = PhaseConvention(7)

	_, err := HeightAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = Series(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 60, 10, p)
	assert.ErrorIs(t, err, ErrConfiguration)
}

// TestSeries tests time series generation.
func TestSeries(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	samples, err := Series(start, 60, 10, nil)
	require.NoError(t, err)

	// 0:00, 0:10, ... 1:00
	require.Len(t, samples, 7)
	for i, s := range samples {
		expectedTime := start.Add(time.Duration(i) * 10 * time.Minute)
		if !s.Time.Equal(expectedTime) {
			t.Errorf("Sample %d: expected time %v, got %v", i, expectedTime, s.Time)
		}
	}
}

func TestSeries_Counts(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		duration, step float64
		want           int
	}{
		{0, 10, 1},
		{5, 10, 1},
		{65, 10, 7},
		{60, 0.5, 121},
		{1440, 60, 25},
	}

	for _, tt := range tests {
		samples, err := Series(start, tt.duration, tt.step, nil)
		require.NoError(t, err)
		assert.Len(t, samples, tt.want, "duration %v step %v", tt.duration, tt.step)
	}
}

func TestSeries_MatchesHeightAtAcrossMidnight(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	// 2024-02-29 07:00 JST is 22:00 UTC on the 28th; the series crosses two
	// UTC midnights including the leap day.
	start := time.Date(2024, 2, 29, 7, 0, 0, 0, jst)

	samples, err := Series(start, 26*60, 7, nil)
	require.NoError(t, err)

	want := make([]Sample, len(samples))
	for i := range samples {
		at := start.Add(time.Duration(i) * 7 * time.Minute).UTC()
		h, err := HeightAt(at, nil)
		require.NoError(t, err)
		want[i] = Sample{Time: at, HeightCm: h}
	}

	if diff := cmp.Diff(want, samples); diff != "" {
		t.Errorf("series differs from point predictions (-want +got):\n%s", diff)
	}
	for _, s := range samples {
		assert.Equal(t, time.UTC, s.Time.Location())
	}
}

func TestSeries_InvalidArguments(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		start          time.Time
		duration, step float64
	}{
		{"negative duration", now, -5, 10},
		{"zero step", now, 60, 0},
		{"negative step", now, 60, -1},
		{"nan duration", now, math.NaN(), 10},
		{"inf step", now, 60, math.Inf(1)},
		{"inf duration", now, math.Inf(1), 10},
		{"too many samples", now, MaxSeriesSamples, 1},
		{"zero start", time.Time{}, 60, 10},
		{"end past 2099", time.Date(2099, 12, 31, 23, 0, 0, 0, time.UTC), 120, 60},
		{"start before 1901", time.Date(1900, 12, 31, 23, 0, 0, 0, time.UTC), 120, 60},
		{"offset overflows", now, 1e12, 5e11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := Series(tt.start, tt.duration, tt.step, nil)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Nil(t, samples)
		})
	}
}

func TestSeries_SupportedRangeEdges(t *testing.T) {
	start := time.Date(2099, 12, 31, 22, 0, 0, 0, time.UTC)
	samples, err := Series(start, 110, 55, nil)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, time.Date(2099, 12, 31, 23, 50, 0, 0, time.UTC), samples[2].Time)

	for i, s := range samples {
		if i > 0 {
			assert.True(t, s.Time.After(samples[i-1].Time))
		}
		h, err := HeightAt(s.Time, nil)
		require.NoError(t, err)
		assert.Equal(t, h, s.HeightCm)
	}

	_, err = Series(start, 120, 60, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = HeightAt(start.Add(2*time.Hour), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestInstantFromUnixMillis(t *testing.T) {
	got, err := InstantFromUnixMillis(1.5)
	require.NoError(t, err)
	assert.Equal(t, time.Unix(0, 1_500_000).UTC(), got)

	got, err = InstantFromUnixMillis(-1)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(1969, 12, 31, 23, 59, 59, 999_000_000, time.UTC)))

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 8.64e15 + 1} {
		_, err := InstantFromUnixMillis(bad)
		assert.ErrorIs(t, err, ErrInvalidArgument, "%v", bad)
	}
}

// TestFindExtrema tests extrema detection.
func TestFindExtrema(t *testing.T) {
	// Create a simple sinusoidal pattern with known extrema
	refTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	heights := []float64{0, 50, 90, 100, 90, 50, 0, -50, -90, -100, -90, -50, 0}

	samples := make([]Sample, len(heights))
	for i, h := range heights {
		samples[i] = Sample{Time: refTime.Add(time.Duration(i) * time.Hour), HeightCm: h}
	}

	extrema := FindExtrema(samples)

	require.Len(t, extrema.Highs, 1)
	require.Len(t, extrema.Lows, 1)
	assert.True(t, extrema.Highs[0].Time.Equal(refTime.Add(3*time.Hour)))
	assert.Equal(t, 100.0, extrema.Highs[0].HeightCm)
	assert.True(t, extrema.Lows[0].Time.Equal(refTime.Add(9*time.Hour)))
	assert.Equal(t, -100.0, extrema.Lows[0].HeightCm)

	short := FindExtrema(samples[:2])
	assert.Empty(t, short.Highs)
	assert.Empty(t, short.Lows)
}

func TestRefineExtremum(t *testing.T) {
	ref := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// y = 100 - (x - 0.25)^2 sampled at x = -1, 0, 1 (hours).
	f := func(x float64) float64 { return 100 - (x-0.25)*(x-0.25) }
	before := Sample{Time: ref.Add(-time.Hour), HeightCm: f(-1)}
	peak := Sample{Time: ref, HeightCm: f(0)}
	after := Sample{Time: ref.Add(time.Hour), HeightCm: f(1)}

	got := RefineExtremum(before, peak, after)
	assert.True(t, got.Time.Equal(ref.Add(15*time.Minute)), "got %v", got.Time)
	assert.InDelta(t, 100.0, got.HeightCm, 1e-9)

	// Uneven spacing leaves the discrete peak untouched.
	uneven := Sample{Time: ref.Add(2 * time.Hour), HeightCm: f(2)}
	assert.Equal(t, peak, RefineExtremum(before, peak, uneven))
}

func TestRefineExtrema_Series(t *testing.T) {
	p := s2Profile(t, nil)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	samples, err := Series(start, 24*60, 17, p)
	require.NoError(t, err)

	refined := RefineExtrema(samples, FindExtrema(samples))
	// S2 peaks every 12 hours at 0:00 and 12:00 UTC; the first is an endpoint.
	require.NotEmpty(t, refined.Highs)
	for _, hi := range refined.Highs {
		assert.InDelta(t, 100.0, hi.HeightCm, 0.5)
	}
	require.NotEmpty(t, refined.Lows)
	for _, lo := range refined.Lows {
		assert.InDelta(t, -100.0, lo.HeightCm, 0.5)
	}
}

package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDayContext(t *testing.T) {
	p := DefaultProfile()
	at := time.Date(2025, 8, 9, 17, 45, 0, 0, time.UTC)

	dc := NewDayContext(at, p)
	assert.True(t, dc.Midnight.Equal(time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, BaseAnglesAt(at), dc.Base)
	require.Len(t, dc.Factors, len(p.Constituents()))

	for i, c := range p.Constituents() {
		assert.Equal(t, p.NodalFactor(c.ID, dc.Base.N), dc.Factors[i], c.ID)
	}
}

func TestDayContext_Covers(t *testing.T) {
	dc := NewDayContext(time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC), DefaultProfile())

	assert.True(t, dc.Covers(time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC)))
	assert.True(t, dc.Covers(time.Date(2025, 8, 9, 23, 59, 59, 999, time.UTC)))
	assert.False(t, dc.Covers(time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)))
	assert.False(t, dc.Covers(time.Date(2025, 8, 8, 23, 59, 0, 0, time.UTC)))

	// 08:00 JST on the 10th is still the 9th in UTC.
	jst := time.FixedZone("JST", 9*60*60)
	assert.True(t, dc.Covers(time.Date(2025, 8, 10, 8, 0, 0, 0, jst)))
}

func TestDayContext_ReusedWithinDay(t *testing.T) {
	p := DefaultProfile()
	dc := NewDayContext(time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC), p)

	for _, hh := range []int{0, 5, 11, 23} {
		at := time.Date(2025, 8, 9, hh, 30, 0, 0, time.UTC)
		got, err := dc.height(at, p)
		require.NoError(t, err)
		want, err := HeightAt(at, p)
		require.NoError(t, err)
		assert.Equal(t, want, got, "at %v", at)
	}
}

func TestDayContext_TermsReconstructHeight(t *testing.T) {
	p := DefaultProfile()
	at := time.Date(2025, 3, 14, 9, 26, 0, 0, time.UTC)
	dc := NewDayContext(at, p)

	terms, err := dc.Terms(at, p)
	require.NoError(t, err)
	require.Len(t, terms, len(p.Constituents()))

	sum := p.Z0Cm()
	if m, ok := p.SeasonalMeanModel(); ok {
		sum += m.Anomaly(at)
	}
	for i, c := range p.Constituents() {
		assert.Equal(t, c.ID, terms[i].ID)
		sum += terms[i].F * c.AmplitudeCm * math.Cos(Deg2Rad(terms[i].ArgumentDeg-c.PhaseLagDeg))
	}

	want, err := HeightAt(at, p)
	require.NoError(t, err)
	assert.InDelta(t, want, sum, 1e-9)
}

func TestDayContext_PhaseNormalizedOnce(t *testing.T) {
	p := MustNewProfile(ProfileConfig{
		Z0Cm: 20,
		Constituents: []ConstituentConfig{
			{ID: "M2", AmplitudeCm: 80, PhaseLagDeg: 725.5},
			{ID: "K1", AmplitudeCm: 30, PhaseLagDeg: -410},
		},
	})
	at := time.Date(2031, 7, 2, 17, 45, 0, 0, time.UTC)
	dc := NewDayContext(at, p)

	args := dc.Base.Advance(at.Sub(dc.Midnight).Hours())
	angles := args.Vector()
	angles[0] = Mod360(args.T)

	want := p.Z0Cm()
	for i, c := range p.Constituents() {
		v := 0.0
		for k, coef := range c.Doodson {
			v += float64(coef) * angles[k]
		}
		phase := Mod360(v + c.EquilibriumOffsetDeg + dc.Factors[i].U - c.PhaseLagDeg)
		want += dc.Factors[i].F * c.AmplitudeCm * math.Cos(Deg2Rad(phase))
	}

	got, err := dc.height(at, p)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

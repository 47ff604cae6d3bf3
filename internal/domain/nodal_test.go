package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodalFactorFor_Series(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		nDeg  float64
		wantF float64
		wantU float64
	}{
		{"M2 at N=0", "M2", 0, 1.0004 - 0.0373 + 0.0002, 0},
		{"M2 at N=90", "M2", 90, 1.0004 - 0.0002, -2.14},
		{"K1 at N=90", "K1", 90, 1.0060 + 0.0088, -8.86 + 0.07},
		{"O1 at N=0", "O1", 0, 1.0089 + 0.1871 - 0.0147 + 0.0014, 0},
		{"MM at N=180", "MM", 180, 1.0 + 0.1300 + 0.0013, 0},
		{"lower case id", "k1", 90, 1.0060 + 0.0088, -8.86 + 0.07},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NodalFactorFor(tt.id, tt.nDeg)
			assert.InDelta(t, tt.wantF, got.F, 1e-9)
			assert.InDelta(t, tt.wantU, got.U, 1e-9)
		})
	}
}

func TestNodalFactorFor_UnknownFallsBackToIdentity(t *testing.T) {
	for _, id := range []string{"S2", "P1", "SA", "X9", ""} {
		for _, n := range []float64{0, 45, 200} {
			got := NodalFactorFor(id, n)
			assert.Equal(t, NodalFactor{F: 1, U: 0}, got, "%s at N=%v", id, n)
		}
	}
}

func TestNodalFactorFor_Aliases(t *testing.T) {
	n := 137.0
	m2 := NodalFactorFor("M2", n)
	for _, id := range []string{"N2", "2N2", "MU2", "NU2"} {
		assert.Equal(t, m2, NodalFactorFor(id, n), id)
	}
	assert.Equal(t, NodalFactorFor("O1", n), NodalFactorFor("Q1", n))
}

func TestNodalFactorFor_Compound(t *testing.T) {
	n := 61.0
	m2 := NodalFactorFor("M2", n)
	k1 := NodalFactorFor("K1", n)

	m4 := NodalFactorFor("M4", n)
	assert.InDelta(t, m2.F*m2.F, m4.F, 1e-12)
	assert.InDelta(t, 2*m2.U, m4.U, 1e-12)

	mk3 := NodalFactorFor("MK3", n)
	assert.InDelta(t, m2.F*k1.F, mk3.F, 1e-12)
	assert.InDelta(t, m2.U+k1.U, mk3.U, 1e-12)

	sm := NodalFactorFor("2SM2", n)
	assert.InDelta(t, m2.F, sm.F, 1e-12)
	assert.InDelta(t, -m2.U, sm.U, 1e-12)
}

func TestNodalTable_Overrides(t *testing.T) {
	table, err := NewNodalTable([]NodalSeriesConfig{
		{ID: "m2", F: []float64{2}, U: []float64{10}},
		{ID: "S2", F: []float64{1.5, 0.5}},
	})
	require.NoError(t, err)

	got := table.FactorFor("M2", 90)
	assert.InDelta(t, 2.0, got.F, 1e-12)
	assert.InDelta(t, 10.0, got.U, 1e-12)

	// Aliases and compounds follow the override.
	assert.Equal(t, got, table.FactorFor("N2", 90))
	m4 := table.FactorFor("M4", 90)
	assert.InDelta(t, 4.0, m4.F, 1e-12)
	assert.InDelta(t, 20.0, m4.U, 1e-12)

	s2 := table.FactorFor("S2", 0)
	assert.InDelta(t, 2.0, s2.F, 1e-12)
	assert.True(t, table.Has("s2"))
	assert.False(t, table.Has("K1"))

	// Untouched entries keep the built-in series.
	assert.Equal(t, NodalFactorFor("K1", 33), table.FactorFor("K1", 33))
}

func TestNewNodalTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfgs []NodalSeriesConfig
	}{
		{"empty id", []NodalSeriesConfig{{F: []float64{1}}}},
		{"no f terms", []NodalSeriesConfig{{ID: "M2"}}},
		{"too many f terms", []NodalSeriesConfig{{ID: "M2", F: []float64{1, 2, 3, 4, 5}}}},
		{"too many u terms", []NodalSeriesConfig{{ID: "M2", F: []float64{1}, U: []float64{1, 2, 3, 4}}}},
		{"duplicate", []NodalSeriesConfig{{ID: "M2", F: []float64{1}}, {ID: "m2", F: []float64{1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNodalTable(tt.cfgs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestLoadNodalCoeffSet(t *testing.T) {
	body := `{"coeffs": [{"id": "K1", "f": [1.1, 0.1], "u": [-9]}]}`
	cfgs, err := LoadNodalCoeffSet(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	assert.Equal(t, "K1", cfgs[0].ID)
	assert.Equal(t, []float64{1.1, 0.1}, cfgs[0].F)

	_, err = LoadNodalCoeffSet(strings.NewReader(`{"coeffs": [`))
	assert.Error(t, err)

	_, err = LoadNodalCoeffSet(strings.NewReader(`{"coeffs": [{"id": "K1"}]}`))
	assert.ErrorIs(t, err, ErrConfiguration)
}

package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/tidecalc/internal/adapter/store"
	"go.ngs.io/tidecalc/internal/domain"
)

const kobeYAML = `
name: kobe
z0Cm: 92.5
phaseConvention: cos
referenceLongitudeDeg: 0
seasonalMeanModel:
  annual:
    ampCm: 11
    phaseDeg: 235
constituents:
  - id: M2
    amplitudeCm: 27.9
    phaseLagDeg: 218.4
  - id: K1
    amplitudeCm: 25.3
    phaseLagDeg: 198.1
  - id: X3
    amplitudeCm: 1.2
    phaseLagDeg: 10
    doodsonCoefficients: [3, -3, 3, 0, 0]
    equilibriumOffsetDeg: 180
nodalOverrides:
  - id: K1
    f: [1.0]
`

const moroJSON = `{
  "z0Cm": 40,
  "phaseConvention": "sin",
  "constituents": [{"id": "S2", "amplitudeCm": 5, "phaseLagDeg": 20}]
}`

func write(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadForStation_YAML(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "kobe.yaml", kobeYAML)

	p, err := NewProfileStore(dir).LoadForStation("KOBE")
	require.NoError(t, err)

	assert.Equal(t, "kobe", p.Name())
	assert.Equal(t, 92.5, p.Z0Cm())
	assert.Equal(t, []string{"M2", "K1", "X3"}, p.ConstituentIDs())

	m, ok := p.SeasonalMeanModel()
	require.True(t, ok)
	assert.Equal(t, 11.0, m.Annual.AmpCm)
	assert.Equal(t, 235.0, m.Annual.PhaseDeg)

	x3 := p.Constituents()[2]
	assert.Equal(t, [5]int{3, -3, 3, 0, 0}, x3.Doodson)
	assert.Equal(t, 180.0, x3.EquilibriumOffsetDeg)

	assert.Equal(t, domain.NodalFactor{F: 1, U: 0}, p.NodalFactor("K1", 77))
}

func TestLoadForStation_JSONUsesFileName(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "moro.json", moroJSON)

	p, err := NewProfileStore(dir).LoadForStation("moro")
	require.NoError(t, err)
	assert.Equal(t, "moro", p.Name())
	assert.Equal(t, domain.PhaseSine, p.PhaseConvention())
}

func TestLoadForStation_Errors(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "broken.yaml", "constituents: []\n")

	s := NewProfileStore(dir)

	_, err := s.LoadForStation("missing")
	assert.ErrorIs(t, err, store.ErrStationNotFound)

	_, err = s.LoadForStation("../broken")
	assert.ErrorIs(t, err, store.ErrStationNotFound)

	_, err = s.LoadForStation("broken")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = s.LoadForLocation(1, 2)
	assert.ErrorIs(t, err, store.ErrUnsupported)
}

func TestListStations(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "kobe.yaml", kobeYAML)
	write(t, dir, "moro.json", moroJSON)
	write(t, dir, "notes.txt", "x")

	got, err := NewProfileStore(dir).ListStations()
	require.NoError(t, err)
	assert.Equal(t, []string{"kobe", "moro"}, got)
}

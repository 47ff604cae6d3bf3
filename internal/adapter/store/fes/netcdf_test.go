package fes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/tidecalc/internal/adapter/store"
	"go.ngs.io/tidecalc/internal/domain"
)

// createCombinedNC writes a 2x2 grid on lat {35, 36}, lon {139, 140} with two
// float variables named a and b.
func createCombinedNC(t *testing.T, path, a, b string, va, vb [][]float32) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	latDim, err := f.AddDim("lat", 2)
	require.NoError(t, err)
	lonDim, err := f.AddDim("lon", 2)
	require.NoError(t, err)
	vlat, err := f.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	require.NoError(t, err)
	vlon, err := f.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	require.NoError(t, err)
	v1, err := f.AddVar(a, netcdf.FLOAT, []netcdf.Dim{latDim, lonDim})
	require.NoError(t, err)
	v2, err := f.AddVar(b, netcdf.FLOAT, []netcdf.Dim{latDim, lonDim})
	require.NoError(t, err)
	require.NoError(t, f.EndDef())

	require.NoError(t, vlat.WriteFloat64s([]float64{35.0, 36.0}))
	require.NoError(t, vlon.WriteFloat64s([]float64{139.0, 140.0}))
	require.NoError(t, v1.WriteFloat32s([]float32{va[0][0], va[0][1], va[1][0], va[1][1]}))
	require.NoError(t, v2.WriteFloat32s([]float32{vb[0][0], vb[0][1], vb[1][0], vb[1][1]}))
}

func TestAvailableConstituents_Recursive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ocean_tide"), 0o755))
	for _, name := range []string{"m2_amplitude.nc", "m2_phase.nc", "ocean_tide/m4.nc", "ocean_tide/ms4.nc", "zz9.nc", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{}, 0o600))
	}

	got, err := NewStore(dir).AvailableConstituents()
	require.NoError(t, err)
	assert.Equal(t, []string{"M2", "M4", "MS4"}, got)
}

func TestAvailableConstituents_MissingDir(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "absent")).AvailableConstituents()
	assert.Error(t, err)
}

func TestLoadConstituent_OceanTideAmplitudeInCm(t *testing.T) {
	dir := t.TempDir()
	createCombinedNC(t, filepath.Join(dir, "ocean_tide", "s4.nc"), "amplitude", "phase",
		[][]float32{{100, 200}, {300, 400}},
		[][]float32{{10, 20}, {30, 40}},
	)

	s := NewStore(dir)
	grid, err := s.loadConstituent("S4")
	require.NoError(t, err)
	assert.Equal(t, 100.0, grid.Amplitude.Values[0][0])
	assert.Equal(t, 400.0, grid.Amplitude.Values[1][1])
	assert.Equal(t, 20.0, grid.Phase.Values[0][1])

	again, err := s.loadConstituent("S4")
	require.NoError(t, err)
	assert.Same(t, grid, again, "second load is served from the cache")
}

func TestLoadConstituent_MetersConvertedToCm(t *testing.T) {
	dir := t.TempDir()
	createCombinedNC(t, filepath.Join(dir, "k1.nc"), "amplitude", "phase",
		[][]float32{{0.5, 0.25}, {1, 2}},
		[][]float32{{0, 0}, {0, 0}},
	)

	grid, err := NewStore(dir).loadConstituent("K1")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, grid.Amplitude.Values[0][0], 1e-9)
	assert.InDelta(t, 200.0, grid.Amplitude.Values[1][1], 1e-9)
}

func TestLoadConstituent_ComplexPair(t *testing.T) {
	dir := t.TempDir()
	// hypot -> [[5, 13], [17, 25]] cm.
	createCombinedNC(t, filepath.Join(dir, "ocean_tide", "m6.nc"), "hRe", "hIm",
		[][]float32{{3, 5}, {8, 7}},
		[][]float32{{4, 12}, {15, 24}},
	)

	grid, err := NewStore(dir).loadConstituent("M6")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, grid.Amplitude.Values[0][0], 1e-6)
	assert.InDelta(t, 25.0, grid.Amplitude.Values[1][1], 1e-6)
	assert.InDelta(t, domain.Rad2Deg(0.9272952180016122), grid.Phase.Values[0][0], 1e-4)
}

func TestLoadConstituent_Missing(t *testing.T) {
	_, err := NewStore(t.TempDir()).loadConstituent("M2")
	assert.Error(t, err)
}

func TestWriteProfileGrids_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := domain.MustNewProfile(domain.ProfileConfig{
		Name: "src",
		Constituents: []domain.ConstituentConfig{
			{ID: "M2", AmplitudeCm: 48.6, PhaseLagDeg: 156},
			{ID: "K1", AmplitudeCm: 24.7, PhaseLagDeg: 191},
			{ID: "X2", AmplitudeCm: 1, DoodsonCoefficients: []int{2, 0, 0, 0, 0}},
		},
	})
	region := Region{LatMin: 34, LatMax: 36, LonMin: 139, LonMax: 141, Resolution: 0.5}

	written, err := WriteProfileGrids(dir, region, p, nil)
	require.NoError(t, err)
	assert.Len(t, written, 4, "non-catalog constituents are skipped")

	loaded, err := NewStore(dir).LoadForLocation(35.3, 139.8)
	require.NoError(t, err)

	got := map[string]domain.Constituent{}
	for _, c := range loaded.Constituents() {
		got[c.ID] = c
	}
	require.Len(t, got, 2)
	assert.InDelta(t, 48.6, got["M2"].AmplitudeCm, 1e-9)
	assert.InDelta(t, 156.0, got["M2"].PhaseLagDeg, 1e-9)
	assert.InDelta(t, 24.7, got["K1"].AmplitudeCm, 1e-9)
	assert.InDelta(t, 191.0, got["K1"].PhaseLagDeg, 1e-9)
}

func TestWriteProfileGrids_Taper(t *testing.T) {
	dir := t.TempDir()
	p := domain.MustNewProfile(domain.ProfileConfig{
		Constituents: []domain.ConstituentConfig{{ID: "M2", AmplitudeCm: 40, PhaseLagDeg: 100}},
	})
	region := Region{LatMin: 30, LatMax: 40, LonMin: 130, LonMax: 145, Resolution: 1}

	_, err := WriteProfileGrids(dir, region, p, &Taper{RefLat: 35, RefLon: 139})
	require.NoError(t, err)

	grid, err := NewStore(dir).loadConstituent("M2")
	require.NoError(t, err)
	require.Len(t, grid.Amplitude.Y, 11)
	require.Len(t, grid.Amplitude.X, 16)

	for _, row := range grid.Amplitude.Values {
		for _, a := range row {
			assert.Greater(t, a, 0.0)
		}
	}
	assert.NotEqual(t, grid.Amplitude.Values[0][0], grid.Amplitude.Values[10][15])
}

func TestRegion_Validate(t *testing.T) {
	assert.NoError(t, Regions["japan"].Validate())
	assert.NoError(t, Regions["global"].Validate())
	assert.Error(t, Region{LatMin: 0, LatMax: 1, LonMin: 0, LonMax: 1}.Validate())
	assert.Error(t, Region{LatMin: 1, LatMax: 0, LonMin: 0, LonMax: 1, Resolution: 0.1}.Validate())
	assert.Error(t, Region{LatMin: -95, LatMax: 0, LonMin: 0, LonMax: 1, Resolution: 0.1}.Validate())
}

func TestLoadForLocation_Errors(t *testing.T) {
	s := NewStore(t.TempDir())

	_, err := s.LoadForLocation(91, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = s.LoadForLocation(35, 139)
	assert.Error(t, err, "empty directory")

	_, err = s.LoadForStation("tokyo")
	assert.ErrorIs(t, err, store.ErrUnsupported)
}

func TestLoadForLocation_OutsideGrid(t *testing.T) {
	dir := t.TempDir()
	createCombinedNC(t, filepath.Join(dir, "ocean_tide", "m2.nc"), "amplitude", "phase",
		[][]float32{{50, 52}, {54, 56}},
		[][]float32{{150, 152}, {154, 156}},
	)
	s := NewStore(dir)

	p, err := s.LoadForLocation(35.5, 139.5)
	require.NoError(t, err)
	assert.InDelta(t, 53.0, p.Constituents()[0].AmplitudeCm, 0.1)

	_, err = s.LoadForLocation(40, 139.5)
	assert.ErrorIs(t, err, store.ErrNoCoverage)
	assert.NotErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = s.LoadForLocation(35.5, 150)
	assert.ErrorIs(t, err, store.ErrNoCoverage)
}

func TestLonForAxis(t *testing.T) {
	east := []float64{0, 1}
	signed := []float64{-180, 0}

	assert.Equal(t, 350.0, lonForAxis(-10, east))
	assert.Equal(t, -10.0, lonForAxis(-10, signed))
	assert.Equal(t, -10.0, lonForAxis(350, signed))
	assert.Equal(t, 139.5, lonForAxis(139.5, signed))
	assert.Equal(t, 139.5, lonForAxis(499.5, east))
}

// Package fes provides access to FES2014/2022 style NetCDF tidal constituent
// grids.
package fes

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"go.ngs.io/tidecalc/internal/adapter/interp"
	"go.ngs.io/tidecalc/internal/adapter/store"
	"go.ngs.io/tidecalc/internal/domain"
)

// DefaultCacheSize is the number of constituent grids kept in memory.
const DefaultCacheSize = 32

var (
	latNames  = []string{"lat", "latitude", "y"}
	lonNames  = []string{"lon", "longitude", "x"}
	ampNames  = []string{"amplitude", "Amplitude", "amp", "Amp", "HA", "Ha", "ha", "H", "h"}
	phaNames  = []string{"phase", "Phase", "pha", "Pha", "Hg", "HG", "hg", "g", "G", "phi", "phase_deg"}
	reNames   = []string{"hRe", "Hre", "hre", "Re", "RE", "real", "Real"}
	imNames   = []string{"hIm", "Him", "him", "Im", "IM", "imag", "Imag"}
	ampSuffix = []string{".nc", "_amplitude.nc", "_amp.nc"}
	phaSuffix = []string{".nc", "_phase.nc", "_pha.nc"}
)

// Grid holds amplitude (cm) and phase lag (degrees) grids for a constituent.
type Grid struct {
	ID        string
	Amplitude *interp.Grid2D
	Phase     *interp.Grid2D
}

// Store provides profiles interpolated from NetCDF grids.
type Store struct {
	dataDir string
	cache   *lru.Cache[string, *Grid]
}

// Option configures a Store.
type Option func(*Store)

// WithCacheSize bounds the number of cached constituent grids.
func WithCacheSize(n int) Option {
	return func(s *Store) {
		if n <= 0 {
			n = DefaultCacheSize
		}
		s.cache, _ = lru.New[string, *Grid](n)
	}
}

// NewStore creates a new FES NetCDF store.
func NewStore(dataDir string, opts ...Option) *Store {
	s := &Store{dataDir: dataDir}
	WithCacheSize(DefaultCacheSize)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadForLocation builds a profile for (lat, lon) by interpolating every
// available constituent grid. Constituents whose grids fail to load are
// skipped; locations outside a grid wrap store.ErrNoCoverage.
func (s *Store) LoadForLocation(lat, lon float64) (*domain.Profile, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("latitude %v out of range: %w", lat, domain.ErrInvalidArgument)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return nil, fmt.Errorf("longitude %v out of range: %w", lon, domain.ErrInvalidArgument)
	}

	ids, err := s.AvailableConstituents()
	if err != nil {
		return nil, fmt.Errorf("failed to get available constituents: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no FES NetCDF files found in %s", s.dataDir)
	}

	cfg := domain.ProfileConfig{Name: fmt.Sprintf("fes:%.4f,%.4f", lat, lon)}
	for _, id := range ids {
		grid, err := s.loadConstituent(id)
		if err != nil {
			log.Warn().Err(err).Str("constituent", id).Msg("skipping FES constituent")
			continue
		}

		x := lonForAxis(lon, grid.Amplitude.X)
		amp, phase, err := interp.InterpolateHarmonic(grid.Amplitude, grid.Phase, x, lat)
		if errors.Is(err, interp.ErrOutOfRange) {
			return nil, fmt.Errorf("(%.4f, %.4f) is outside the %s grid: %w", lat, lon, id, store.ErrNoCoverage)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to interpolate %s at (%.4f, %.4f): %w", id, lat, lon, err)
		}

		cfg.Constituents = append(cfg.Constituents, domain.ConstituentConfig{
			ID:          id,
			AmplitudeCm: amp,
			PhaseLagDeg: phase,
		})
	}

	if len(cfg.Constituents) == 0 {
		return nil, fmt.Errorf("no valid constituents found for location (%.4f, %.4f)", lat, lon)
	}
	return domain.NewProfile(cfg)
}

// lonForAxis wraps lon into the convention of a grid's longitude axis:
// [0, 360) normally, [-180, 180) when the axis starts below zero.
func lonForAxis(lon float64, axis []float64) float64 {
	lon = domain.Mod360(lon)
	if len(axis) > 0 && axis[0] < 0 && lon >= 180 {
		lon -= 360
	}
	return lon
}

// LoadForStation is not supported by the FES store.
func (s *Store) LoadForStation(_ string) (*domain.Profile, error) {
	return nil, fmt.Errorf("FES store answers lat/lon queries only: %w", store.ErrUnsupported)
}

// ListStations returns nothing; FES grids are not station based.
func (s *Store) ListStations() ([]string, error) {
	return []string{}, nil
}

// AvailableConstituents returns the catalog constituents that have NetCDF
// files anywhere under the data directory, sorted by id.
func (s *Store) AvailableConstituents() ([]string, error) {
	if _, err := os.Stat(s.dataDir); err != nil {
		return nil, fmt.Errorf("FES data directory: %w", err)
	}

	found := make(map[string]bool)
	err := filepath.WalkDir(s.dataDir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".nc") {
			return nil
		}
		base := strings.TrimSuffix(strings.ToLower(d.Name()), ".nc")
		for _, suffix := range []string{"_amplitude", "_amp", "_phase", "_pha"} {
			base = strings.TrimSuffix(base, suffix)
		}
		if _, ok := domain.LookupConstituent(base); ok {
			found[domain.NormalizeConstituentID(base)] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk FES directory: %w", err)
	}

	ids := make([]string, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// loadConstituent loads amplitude and phase grids for a constituent.
func (s *Store) loadConstituent(id string) (*Grid, error) {
	if grid, ok := s.cache.Get(id); ok {
		return grid, nil
	}

	lower := strings.ToLower(id)
	ampPath, err := s.findFirst(lower, ampSuffix)
	if err != nil {
		return nil, fmt.Errorf("amplitude file for constituent %s: %w", id, err)
	}
	phaPath, err := s.findFirst(lower, phaSuffix)
	if err != nil {
		return nil, fmt.Errorf("phase file for constituent %s: %w", id, err)
	}

	ampGrid, err := loadNetCDFGrid(ampPath, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load amplitude for %s: %w", id, err)
	}
	phaGrid, err := loadNetCDFGrid(phaPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load phase for %s: %w", id, err)
	}
	if !ampGrid.SameShape(phaGrid) {
		return nil, fmt.Errorf("amplitude and phase grids for %s do not share coordinates", id)
	}

	grid := &Grid{ID: id, Amplitude: ampGrid, Phase: phaGrid}
	s.cache.Add(id, grid)
	log.Debug().Str("constituent", id).Int("lat", len(ampGrid.Y)).Int("lon", len(ampGrid.X)).Msg("loaded FES grid")
	return grid, nil
}

var errFound = errors.New("found")

// findFirst searches the data directory for base+suffix, trying suffixes in
// order.
func (s *Store) findFirst(base string, suffixes []string) (string, error) {
	for _, suffix := range suffixes {
		target := base + suffix
		var match string
		err := filepath.WalkDir(s.dataDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(d.Name(), target) {
				match = path
				return errFound
			}
			return nil
		})
		if errors.Is(err, errFound) {
			return match, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fs.ErrNotExist
}

// loadNetCDFGrid reads a 2D amplitude (cm) or phase (degrees) grid. Files
// holding a complex pair (real/imaginary) are converted to amplitude or phase.
func loadNetCDFGrid(path string, amplitude bool) (*interp.Grid2D, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	latData, err := readAxis(nc, latNames)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lonData, err := readAxis(nc, lonNames)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	nLat, nLon := len(latData), len(lonData)

	names := phaNames
	if amplitude {
		names = ampNames
	}

	var values [][]float64
	var unitsVar netcdf.Var
	if v, ok := firstVar(nc, names); ok {
		if values, err = readGrid(v, nLat, nLon); err != nil {
			return nil, err
		}
		unitsVar = v
	} else {
		reVar, okRe := firstVar(nc, reNames)
		imVar, okIm := firstVar(nc, imNames)
		if !okRe || !okIm {
			return nil, fmt.Errorf("data variable not found (tried: %v), and no complex pair detected", names)
		}
		re, err := readGrid(reVar, nLat, nLon)
		if err != nil {
			return nil, fmt.Errorf("failed to read real component: %w", err)
		}
		im, err := readGrid(imVar, nLat, nLon)
		if err != nil {
			return nil, fmt.Errorf("failed to read imag component: %w", err)
		}
		values = make([][]float64, nLat)
		for i := range values {
			values[i] = make([]float64, nLon)
			for j := range values[i] {
				if amplitude {
					values[i][j] = math.Hypot(re[i][j], im[i][j])
				} else {
					values[i][j] = domain.Mod360(domain.Rad2Deg(math.Atan2(im[i][j], re[i][j])))
				}
			}
		}
		unitsVar = reVar
	}

	if amplitude {
		if scale := amplitudeScale(unitsVar, path); scale != 1 {
			for i := range values {
				for j := range values[i] {
					values[i][j] *= scale
				}
			}
		}
	}

	grid := &interp.Grid2D{X: lonData, Y: latData, Values: values}
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}
	return grid, nil
}

// amplitudeScale returns the factor converting stored amplitudes to cm.
// A units attribute wins; otherwise FES ocean_tide files are taken to be in
// centimeters and everything else in meters.
func amplitudeScale(v netcdf.Var, path string) float64 {
	switch strings.ToLower(readTextAttr(v, "units")) {
	case "cm", "centimeters", "centimetres":
		return 1
	case "m", "meters", "metres":
		return 100
	case "mm", "millimeters", "millimetres":
		return 0.1
	}
	if strings.Contains(strings.ToLower(path), "ocean_tide") {
		return 1
	}
	return 100
}

func firstVar(nc netcdf.Dataset, names []string) (netcdf.Var, bool) {
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			return v, true
		}
	}
	return netcdf.Var{}, false
}

func readAxis(nc netcdf.Dataset, names []string) ([]float64, error) {
	v, ok := firstVar(nc, names)
	if !ok {
		return nil, fmt.Errorf("variable not found (tried: %v)", names)
	}
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}
	n, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	return readFloat64s(v, int(n))
}

// readGrid reads a [lat, lon] or [lon, lat] variable as rows of latitude,
// replacing fill values with zero.
func readGrid(v netcdf.Var, nLat, nLon int) ([][]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("expected 2D data, got %dD", len(dims))
	}
	d0, err := dims[0].Len()
	if err != nil {
		return nil, fmt.Errorf("failed to get dim0 length: %w", err)
	}
	d1, err := dims[1].Len()
	if err != nil {
		return nil, fmt.Errorf("failed to get dim1 length: %w", err)
	}

	flat, err := readFloat64s(v, int(d0*d1))
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	if fv, ok := fillValue(v); ok {
		for i, val := range flat {
			if val == fv {
				flat[i] = 0
			}
		}
	}

	switch {
	case d0 == uint64(nLat) && d1 == uint64(nLon):
		return reshape(flat, nLat, nLon), nil
	case d0 == uint64(nLon) && d1 == uint64(nLat):
		return transpose2D(reshape(flat, nLon, nLat)), nil
	default:
		return nil, fmt.Errorf("dimension mismatch: data is [%d, %d], expected [%d, %d] or [%d, %d]",
			d0, d1, nLat, nLon, nLon, nLat)
	}
}

// readFloat64s reads n values of any numeric NetCDF type as float64.
func readFloat64s(v netcdf.Var, n int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}

	out := make([]float64, n)
	switch t {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
	case netcdf.FLOAT:
		tmp := make([]float32, n)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, n)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, n)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
	return out, nil
}

// fillValue returns the _FillValue or missing_value attribute if present.
func fillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		if n, err := a.Len(); err != nil || n == 0 {
			continue
		}
		buf64 := make([]float64, 1)
		if err := a.ReadFloat64s(buf64); err == nil {
			return buf64[0], true
		}
		buf32 := make([]float32, 1)
		if err := a.ReadFloat32s(buf32); err == nil {
			return float64(buf32[0]), true
		}
		bufi := make([]int32, 1)
		if err := a.ReadInt32s(bufi); err == nil {
			return float64(bufi[0]), true
		}
	}
	return 0, false
}

func readTextAttr(v netcdf.Var, name string) string {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(string(buf), "\x00"))
}

func reshape(flat []float64, nRows, nCols int) [][]float64 {
	values := make([][]float64, nRows)
	for i := range values {
		values[i] = flat[i*nCols : (i+1)*nCols]
	}
	return values
}

// transpose2D transposes a 2D array.
func transpose2D(data [][]float64) [][]float64 {
	if len(data) == 0 {
		return data
	}

	nRows := len(data)
	nCols := len(data[0])

	transposed := make([][]float64, nCols)
	for i := 0; i < nCols; i++ {
		transposed[i] = make([]float64, nRows)
		for j := 0; j < nRows; j++ {
			transposed[i][j] = data[j][i]
		}
	}

	return transposed
}

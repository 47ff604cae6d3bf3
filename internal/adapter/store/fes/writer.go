package fes

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/tidecalc/internal/domain"
)

// Region defines the geographic bounds and resolution of an exported grid.
type Region struct {
	LatMin     float64
	LatMax     float64
	LonMin     float64
	LonMax     float64
	Resolution float64 // Degrees.
}

// Regions are the named export regions.
var Regions = map[string]Region{
	"japan":  {LatMin: 20, LatMax: 50, LonMin: 120, LonMax: 150, Resolution: 0.1},
	"global": {LatMin: -90, LatMax: 90, LonMin: -180, LonMax: 180, Resolution: 0.5},
}

// Validate checks that the region spans at least one cell.
func (r Region) Validate() error {
	if !(r.Resolution > 0) || math.IsInf(r.Resolution, 0) {
		return fmt.Errorf("resolution must be > 0, got %v", r.Resolution)
	}
	if !(r.LatMax > r.LatMin) || r.LatMin < -90 || r.LatMax > 90 {
		return fmt.Errorf("latitude bounds [%v, %v] are invalid", r.LatMin, r.LatMax)
	}
	if !(r.LonMax > r.LonMin) {
		return fmt.Errorf("longitude bounds [%v, %v] are invalid", r.LonMin, r.LonMax)
	}
	return nil
}

func (r Region) axes() (lat, lon []float64) {
	nLat := int(math.Round((r.LatMax-r.LatMin)/r.Resolution)) + 1
	nLon := int(math.Round((r.LonMax-r.LonMin)/r.Resolution)) + 1

	lat = make([]float64, nLat)
	for i := range lat {
		lat[i] = r.LatMin + float64(i)*r.Resolution
	}
	lon = make([]float64, nLon)
	for i := range lon {
		lon[i] = r.LonMin + float64(i)*r.Resolution
	}
	return lat, lon
}

// Taper adds smooth spatial variation around a reference point so that
// exported grids can exercise interpolation. A nil Taper writes uniform
// grids.
type Taper struct {
	RefLat float64
	RefLon float64
}

// at returns the amplitude factor and phase shift (degrees) at (lat, lon):
// a cosine fall-off with distance, floored at 50%, plus low-order waves.
func (t *Taper) at(lat, lon float64) (float64, float64) {
	if t == nil {
		return 1, 0
	}
	dLat, dLon := lat-t.RefLat, lon-t.RefLon
	dist := math.Hypot(dLat, dLon)

	factor := math.Max(0.5, math.Cos(dist*math.Pi/20.0))
	factor *= 1.0 +
		0.15*math.Sin(lat*math.Pi/15.0) +
		0.1*math.Cos(lon*math.Pi/20.0) +
		0.05*math.Sin((lat+lon)*math.Pi/25.0)

	shift := dist*2.0 +
		10.0*math.Sin(lat*math.Pi/30.0) +
		8.0*math.Cos(lon*math.Pi/40.0)
	return factor, shift
}

// WriteProfileGrids writes <id>_amplitude.nc and <id>_phase.nc for every
// catalog constituent of p into dir and returns the written paths. The
// profile's constants sit at every node, modulated by taper when non-nil.
// Constituents outside the catalog are skipped since the reader could not
// recover their Doodson numbers.
func WriteProfileGrids(dir string, region Region, p *domain.Profile, taper *Taper) ([]string, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	lat, lon := region.axes()
	written := make([]string, 0, 2*len(p.Constituents()))
	for _, c := range p.Constituents() {
		if _, ok := domain.LookupConstituent(c.ID); !ok {
			continue
		}

		amp := make([]float64, len(lat)*len(lon))
		pha := make([]float64, len(lat)*len(lon))
		for i := range lat {
			for j := range lon {
				factor, shift := taper.at(lat[i], lon[j])
				amp[i*len(lon)+j] = c.AmplitudeCm * factor
				pha[i*len(lon)+j] = domain.Mod360(c.PhaseLagDeg + shift)
			}
		}

		base := strings.ToLower(c.ID)
		ampPath := filepath.Join(dir, base+"_amplitude.nc")
		if err := WriteConstituentGrid(ampPath, lat, lon, amp, "amplitude", "cm", c.ID); err != nil {
			return written, err
		}
		written = append(written, ampPath)

		phaPath := filepath.Join(dir, base+"_phase.nc")
		if err := WriteConstituentGrid(phaPath, lat, lon, pha, "phase", "degrees", c.ID); err != nil {
			return written, err
		}
		written = append(written, phaPath)
	}
	return written, nil
}

// WriteConstituentGrid writes one [lat, lon] data variable with its
// coordinate variables to a new NetCDF file.
func WriteConstituentGrid(path string, lat, lon, data []float64, varName, units, constituent string) error {
	if len(data) != len(lat)*len(lon) {
		return fmt.Errorf("data has %d values, expected %d", len(data), len(lat)*len(lon))
	}

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = ds.Close() }()

	latDim, err := ds.AddDim("lat", uint64(len(lat)))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim("lon", uint64(len(lon)))
	if err != nil {
		return err
	}

	latVar, err := ds.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := ds.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}
	dataVar, err := ds.AddVar(varName, netcdf.DOUBLE, []netcdf.Dim{latDim, lonDim})
	if err != nil {
		return err
	}

	if err := latVar.Attr("units").WriteBytes([]byte("degrees_north")); err != nil {
		return err
	}
	if err := lonVar.Attr("units").WriteBytes([]byte("degrees_east")); err != nil {
		return err
	}
	if err := dataVar.Attr("units").WriteBytes([]byte(units)); err != nil {
		return err
	}
	if err := dataVar.Attr("constituent").WriteBytes([]byte(constituent)); err != nil {
		return err
	}

	if err := ds.EndDef(); err != nil {
		return err
	}

	if err := latVar.WriteFloat64s(lat); err != nil {
		return fmt.Errorf("write lat: %w", err)
	}
	if err := lonVar.WriteFloat64s(lon); err != nil {
		return fmt.Errorf("write lon: %w", err)
	}
	if err := dataVar.WriteFloat64s(data); err != nil {
		return fmt.Errorf("write %s: %w", varName, err)
	}
	return nil
}

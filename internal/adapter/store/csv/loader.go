// Package csv provides CSV-based station profile loading.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"go.ngs.io/tidecalc/internal/adapter/store"
	"go.ngs.io/tidecalc/internal/domain"
)

const (
	fileSuffix = "_constituents.csv"
	// meanLevelRow names the row carrying the mean level Z0 in centimeters.
	meanLevelRow = "Z0"
)

var expectedHeaders = []string{"constituent", "amplitude_cm", "phase_deg"}

// ProfileStore reads one CSV file of harmonic constants per station.
//
//	constituent,amplitude_cm,phase_deg
//	Z0,110.0,0
//	M2,48.6,156.0
type ProfileStore struct {
	dataDir string
}

// NewProfileStore creates a new CSV-based profile store.
func NewProfileStore(dataDir string) *ProfileStore {
	return &ProfileStore{
		dataDir: dataDir,
	}
}

// LoadForStation loads the profile of a named station.
func (s *ProfileStore) LoadForStation(stationID string) (*domain.Profile, error) {
	id := strings.ToLower(strings.TrimSpace(stationID))
	if !validStationID(id) {
		return nil, fmt.Errorf("station %q: %w", stationID, store.ErrStationNotFound)
	}

	filename := filepath.Join(s.dataDir, id+fileSuffix)

	//nolint:gosec // G304: File path constructed from dataDir (config) and a validated station id.
	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("station %s: %w", stationID, store.ErrStationNotFound)
		}
		return nil, fmt.Errorf("failed to open CSV file for station %s: %w", stationID, err)
	}
	defer func() { _ = file.Close() }()

	cfg, err := ParseProfile(file)
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", stationID, err)
	}
	cfg.Name = id

	p, err := domain.NewProfile(cfg)
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", stationID, err)
	}

	log.Debug().Str("station", id).Int("constituents", len(cfg.Constituents)).Msg("loaded CSV profile")
	return p, nil
}

// ParseProfile reads harmonic constants from r into a profile configuration.
// Doodson coefficients come from the standard catalog, so every id other
// than Z0 must be a known constituent.
func ParseProfile(r io.Reader) (domain.ProfileConfig, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err != nil {
		return domain.ProfileConfig{}, fmt.Errorf("failed to read CSV header: %w", err)
	}

	if len(header) != len(expectedHeaders) {
		return domain.ProfileConfig{}, fmt.Errorf("invalid CSV header: expected %v, got %v", expectedHeaders, header)
	}
	for i, h := range header {
		if strings.TrimSpace(h) != expectedHeaders[i] {
			return domain.ProfileConfig{}, fmt.Errorf("invalid CSV header: expected column %d to be %s, got %s", i, expectedHeaders[i], h)
		}
	}

	var cfg domain.ProfileConfig
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.ProfileConfig{}, fmt.Errorf("failed to read CSV record: %w", err)
		}

		name := strings.TrimSpace(record[0])
		amplitude, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return domain.ProfileConfig{}, fmt.Errorf("invalid amplitude for constituent %s: %w", name, err)
		}
		phase, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return domain.ProfileConfig{}, fmt.Errorf("invalid phase for constituent %s: %w", name, err)
		}

		if strings.EqualFold(name, meanLevelRow) {
			cfg.Z0Cm = amplitude
			continue
		}
		if _, ok := domain.LookupConstituent(name); !ok {
			return domain.ProfileConfig{}, fmt.Errorf("unknown constituent: %s", name)
		}

		cfg.Constituents = append(cfg.Constituents, domain.ConstituentConfig{
			ID:          domain.NormalizeConstituentID(name),
			AmplitudeCm: amplitude,
			PhaseLagDeg: phase,
		})
	}

	if len(cfg.Constituents) == 0 {
		return domain.ProfileConfig{}, fmt.Errorf("no constituents found in CSV")
	}

	return cfg, nil
}

// LoadForLocation is not supported by the CSV store.
func (s *ProfileStore) LoadForLocation(_ /* lat */, _ /* lon */ float64) (*domain.Profile, error) {
	return nil, fmt.Errorf("CSV store cannot answer lat/lon queries: %w", store.ErrUnsupported)
}

// ListStations returns available station IDs.
func (s *ProfileStore) ListStations() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	stations := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, fileSuffix) {
			stations = append(stations, strings.TrimSuffix(name, fileSuffix))
		}
	}
	sort.Strings(stations)

	return stations, nil
}

func validStationID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

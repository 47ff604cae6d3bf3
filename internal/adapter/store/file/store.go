// Package file loads complete station profiles from YAML, JSON or TOML files.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"go.ngs.io/tidecalc/internal/adapter/store"
	"go.ngs.io/tidecalc/internal/domain"
)

// Extensions are tried in this order for each station.
var extensions = []string{".yaml", ".yml", ".json", ".toml"}

// ProfileStore reads <station>.<ext> profile documents from a directory.
type ProfileStore struct {
	dir string
}

// NewProfileStore creates a store rooted at dir.
func NewProfileStore(dir string) *ProfileStore {
	return &ProfileStore{dir: dir}
}

// LoadForStation loads and validates the profile document of stationID.
func (s *ProfileStore) LoadForStation(stationID string) (*domain.Profile, error) {
	id := strings.ToLower(strings.TrimSpace(stationID))
	if id == "" || strings.ContainsAny(id, `/\.`) {
		return nil, fmt.Errorf("station %q: %w", stationID, store.ErrStationNotFound)
	}

	for _, ext := range extensions {
		path := filepath.Join(s.dir, id+ext)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("station %s: %w", stationID, err)
		}

		cfg, err := ReadProfileConfig(path)
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", stationID, err)
		}
		if cfg.Name == "" {
			cfg.Name = id
		}
		p, err := domain.NewProfile(cfg)
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", stationID, err)
		}
		log.Debug().Str("station", id).Str("path", path).Msg("loaded profile document")
		return p, nil
	}

	return nil, fmt.Errorf("station %s: %w", stationID, store.ErrStationNotFound)
}

// ReadProfileConfig decodes a profile document. The format follows the file
// extension.
func ReadProfileConfig(path string) (domain.ProfileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return domain.ProfileConfig{}, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var cfg domain.ProfileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.ProfileConfig{}, fmt.Errorf("failed to decode profile %s: %w", path, err)
	}
	return cfg, nil
}

// LoadForLocation is not supported by the file store.
func (s *ProfileStore) LoadForLocation(_, _ float64) (*domain.Profile, error) {
	return nil, fmt.Errorf("profile files cannot answer lat/lon queries: %w", store.ErrUnsupported)
}

// ListStations returns the station ids that have a profile document.
func (s *ProfileStore) ListStations() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile directory: %w", err)
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, want := range extensions {
			if ext == want {
				seen[strings.ToLower(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))] = true
			}
		}
	}

	stations := make([]string, 0, len(seen))
	for id := range seen {
		stations = append(stations, id)
	}
	sort.Strings(stations)
	return stations, nil
}

// Package store defines where station profiles come from.
package store

import (
	"errors"

	"go.ngs.io/tidecalc/internal/domain"
)

var (
	// ErrStationNotFound is returned when no data exists for a station id.
	ErrStationNotFound = errors.New("station not found")
	// ErrUnsupported is returned when a loader cannot answer a kind of query.
	ErrUnsupported = errors.New("query not supported by this store")
	// ErrNoCoverage is returned when a location lies outside a loader's data.
	ErrNoCoverage = errors.New("location outside data coverage")
)

// ProfileLoader loads validated station profiles.
type ProfileLoader interface {
	// LoadForStation loads the profile of a named station (e.g., "tokyo").
	LoadForStation(stationID string) (*domain.Profile, error)

	// LoadForLocation builds a profile for a lat/lon location (interpolated for FES).
	LoadForLocation(lat, lon float64) (*domain.Profile, error)

	// ListStations returns the station ids the loader can serve.
	ListStations() ([]string, error)
}

package usecase

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"go.ngs.io/tidecalc/internal/adapter/store"
	"go.ngs.io/tidecalc/internal/domain"
	"go.ngs.io/tidecalc/internal/metrics"
)

// ErrNotFound is returned when no store knows the requested station or
// location.
var ErrNotFound = errors.New("not found")

// Request limits.
const (
	MinStepMinutes     = 1.0
	MaxStepMinutes     = 360.0
	MaxDurationMinutes = 366 * 24 * 60.0
	DefaultMaxSamples  = 10000
	defaultCacheSize   = 128
)

// Sources name where a profile came from.
const (
	SourceDefault = "default"
	SourceInline  = "inline"
	SourceFES     = "fes"
)

// ProfileSelector picks the profile of a request. At most one of StationID,
// Lat/Lon and Profile may be set; none selects the default profile.
type ProfileSelector struct {
	Lat       *float64
	Lon       *float64
	StationID *string
	Profile   *domain.ProfileConfig
}

// PredictionRequest encapsulates a tide series request.
type PredictionRequest struct {
	ProfileSelector

	Start time.Time
	// End, when set, overrides DurationMinutes.
	End             time.Time
	DurationMinutes float64
	StepMinutes     float64
}

// HeightRequest asks for the height at a single instant.
type HeightRequest struct {
	ProfileSelector

	At time.Time
}

// PredictionResponse contains the tide prediction results.
type PredictionResponse struct {
	Source       string            `json:"source"`
	Profile      string            `json:"profile"`
	Timezone     string            `json:"timezone"`
	StepMinutes  float64           `json:"step_minutes"`
	Constituents []string          `json:"constituents"`
	Predictions  []PredictionPoint `json:"predictions"`
	Extrema      ExtremaResponse   `json:"extrema"`
	Meta         map[string]string `json:"meta"`
}

// HeightResponse is the height at a single instant.
type HeightResponse struct {
	Source   string  `json:"source"`
	Profile  string  `json:"profile"`
	Time     string  `json:"time"`
	HeightCm float64 `json:"height_cm"`
}

// PredictionPoint represents a single tide height prediction.
type PredictionPoint struct {
	Time     string  `json:"time"`
	HeightCm float64 `json:"height_cm"`
}

// ExtremaResponse contains high and low tides.
type ExtremaResponse struct {
	Highs []PredictionPoint `json:"highs"`
	Lows  []PredictionPoint `json:"lows"`
}

type stationSource struct {
	name   string
	loader store.ProfileLoader
}

type cachedProfile struct {
	profile *domain.Profile
	source  string
}

// PredictionUseCase orchestrates tide prediction.
type PredictionUseCase struct {
	stations   []stationSource
	locations  store.ProfileLoader
	cache      *lru.Cache[string, cachedProfile]
	maxSamples int
}

// Option configures a PredictionUseCase.
type Option func(*PredictionUseCase)

// WithStationLoader adds a station source. Sources are tried in the order
// they are added.
func WithStationLoader(name string, l store.ProfileLoader) Option {
	return func(uc *PredictionUseCase) {
		uc.stations = append(uc.stations, stationSource{name: name, loader: l})
	}
}

// WithLocationLoader sets the source of lat/lon profiles.
func WithLocationLoader(l store.ProfileLoader) Option {
	return func(uc *PredictionUseCase) {
		uc.locations = l
	}
}

// WithProfileCacheSize bounds the station profile cache.
func WithProfileCacheSize(n int) Option {
	return func(uc *PredictionUseCase) {
		if n <= 0 {
			n = defaultCacheSize
		}
		uc.cache, _ = lru.New[string, cachedProfile](n)
	}
}

// WithMaxSamples bounds the samples a single request may produce.
func WithMaxSamples(n int) Option {
	return func(uc *PredictionUseCase) {
		if n > 0 {
			uc.maxSamples = n
		}
	}
}

// NewPredictionUseCase creates a new prediction use case.
func NewPredictionUseCase(opts ...Option) *PredictionUseCase {
	uc := &PredictionUseCase{maxSamples: DefaultMaxSamples}
	WithProfileCacheSize(defaultCacheSize)(uc)
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Validate checks the profile selector.
func (s ProfileSelector) Validate() error {
	if (s.Lat == nil) != (s.Lon == nil) {
		return invalid("lat and lon must be given together")
	}

	n := 0
	if s.Lat != nil {
		n++
		if math.IsNaN(*s.Lat) || *s.Lat < -90 || *s.Lat > 90 {
			return invalid("latitude must be between -90 and 90")
		}
		if math.IsNaN(*s.Lon) || *s.Lon < -180 || *s.Lon > 360 {
			return invalid("longitude must be between -180 and 360")
		}
	}
	if s.StationID != nil && *s.StationID != "" {
		n++
	}
	if s.Profile != nil {
		n++
	}
	if n > 1 {
		return invalid("lat/lon, station_id and profile are mutually exclusive")
	}
	return nil
}

// Validate checks the request and resolves End into DurationMinutes.
func (r *PredictionRequest) Validate(maxSamples int) error {
	if err := r.ProfileSelector.Validate(); err != nil {
		return err
	}
	if r.Start.IsZero() {
		return invalid("start time is required")
	}

	if !r.End.IsZero() {
		if !r.Start.Before(r.End) {
			return invalid("start time must be before end time")
		}
		r.DurationMinutes = r.End.Sub(r.Start).Minutes()
	}

	if r.StepMinutes == 0 {
		r.StepMinutes = domain.DefaultStepMinutes
	}
	if math.IsNaN(r.StepMinutes) || r.StepMinutes < MinStepMinutes || r.StepMinutes > MaxStepMinutes {
		return invalid("step must be between %.0f and %.0f minutes", MinStepMinutes, MaxStepMinutes)
	}
	if math.IsNaN(r.DurationMinutes) || r.DurationMinutes < 0 || r.DurationMinutes > MaxDurationMinutes {
		return invalid("duration must be between 0 and %.0f minutes", MaxDurationMinutes)
	}

	if n := math.Floor(r.DurationMinutes/r.StepMinutes) + 1; n > float64(maxSamples) {
		return invalid("too many prediction points (%.0f) - reduce time range or increase step", n)
	}
	return nil
}

// Execute performs the tide prediction.
func (uc *PredictionUseCase) Execute(req PredictionRequest) (*PredictionResponse, error) {
	if err := req.Validate(uc.maxSamples); err != nil {
		return nil, err
	}

	profile, source, err := uc.resolveProfile(req.ProfileSelector)
	if err != nil {
		return nil, err
	}

	samples, err := domain.Series(req.Start, req.DurationMinutes, req.StepMinutes, profile)
	if err != nil {
		return nil, err
	}
	metrics.AddSamples(len(samples))

	extrema := domain.RefineExtrema(samples, domain.FindExtrema(samples))

	return &PredictionResponse{
		Source:       source,
		Profile:      profile.Name(),
		Timezone:     "+00:00",
		StepMinutes:  req.StepMinutes,
		Constituents: profile.ConstituentIDs(),
		Predictions:  toPoints(samples),
		Extrema: ExtremaResponse{
			Highs: toPoints(extrema.Highs),
			Lows:  toPoints(extrema.Lows),
		},
		Meta: map[string]string{
			"model":             "harmonic_v1",
			"phase_convention":  profile.PhaseConvention().String(),
			"argument":          profile.ArgumentConvention().String(),
			"height_resolution": "0.1cm",
		},
	}, nil
}

// HeightAt returns the height at a single instant.
func (uc *PredictionUseCase) HeightAt(req HeightRequest) (*HeightResponse, error) {
	if err := req.ProfileSelector.Validate(); err != nil {
		return nil, err
	}

	profile, source, err := uc.resolveProfile(req.ProfileSelector)
	if err != nil {
		return nil, err
	}

	h, err := domain.HeightAt(req.At, profile)
	if err != nil {
		return nil, err
	}
	metrics.AddSamples(1)

	return &HeightResponse{
		Source:   source,
		Profile:  profile.Name(),
		Time:     req.At.UTC().Format(time.RFC3339Nano),
		HeightCm: roundToDecimal(h, 1),
	}, nil
}

// Stations lists the station ids of every station source.
func (uc *PredictionUseCase) Stations() map[string][]string {
	out := make(map[string][]string, len(uc.stations))
	for _, s := range uc.stations {
		ids, err := s.loader.ListStations()
		if err != nil {
			log.Warn().Err(err).Str("source", s.name).Msg("listing stations failed")
			continue
		}
		out[s.name] = ids
	}
	return out
}

// GetAllConstituents returns all standard constituents.
func (uc *PredictionUseCase) GetAllConstituents() []domain.ConstituentInfo {
	return domain.AllConstituents()
}

func (uc *PredictionUseCase) resolveProfile(sel ProfileSelector) (*domain.Profile, string, error) {
	switch {
	case sel.Profile != nil:
		p, err := domain.NewProfile(*sel.Profile)
		if err != nil {
			return nil, "", err
		}
		return p, SourceInline, nil

	case sel.StationID != nil && *sel.StationID != "":
		return uc.loadStation(*sel.StationID)

	case sel.Lat != nil:
		if uc.locations == nil {
			return nil, "", fmt.Errorf("no location source configured: %w", ErrNotFound)
		}
		p, err := uc.locations.LoadForLocation(*sel.Lat, *sel.Lon)
		if errors.Is(err, store.ErrNoCoverage) {
			return nil, "", fmt.Errorf("%w: %w", err, ErrNotFound)
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to load profile for location (%.4f, %.4f): %w", *sel.Lat, *sel.Lon, err)
		}
		return p, SourceFES, nil

	default:
		return domain.DefaultProfile(), SourceDefault, nil
	}
}

func (uc *PredictionUseCase) loadStation(stationID string) (*domain.Profile, string, error) {
	key := strings.ToLower(strings.TrimSpace(stationID))
	if cached, ok := uc.cache.Get(key); ok {
		metrics.ProfileCacheHit()
		return cached.profile, cached.source, nil
	}
	metrics.ProfileCacheMiss()

	for _, s := range uc.stations {
		p, err := s.loader.LoadForStation(key)
		if errors.Is(err, store.ErrStationNotFound) || errors.Is(err, store.ErrUnsupported) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to load profile for station %s: %w", stationID, err)
		}
		uc.cache.Add(key, cachedProfile{profile: p, source: s.name})
		log.Debug().Str("station", key).Str("source", s.name).Msg("cached station profile")
		return p, s.name, nil
	}
	return nil, "", fmt.Errorf("station %s: %w", stationID, ErrNotFound)
}

func toPoints(samples []domain.Sample) []PredictionPoint {
	points := make([]PredictionPoint, len(samples))
	for i, s := range samples {
		points[i] = PredictionPoint{
			Time:     s.Time.UTC().Format(time.RFC3339),
			HeightCm: roundToDecimal(s.HeightCm, 1),
		}
	}
	return points
}

// roundToDecimal rounds half away from zero.
func roundToDecimal(val float64, precision int) float64 {
	multiplier := math.Pow(10, float64(precision))
	return math.Round(val*multiplier) / multiplier
}

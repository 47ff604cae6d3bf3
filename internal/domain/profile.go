package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// PhaseConvention selects the trigonometric function applied to each
// constituent phase.
//   - PhaseCosine: h = f A cos(V + E + u - κ)
//   - PhaseSine:   h = f A sin(V + E + u - κ)
type PhaseConvention int

const (
	// PhaseCosine combines phases with cosine.
	PhaseCosine PhaseConvention = iota
	// PhaseSine combines phases with sine.
	PhaseSine
)

func (c PhaseConvention) String() string {
	switch c {
	case PhaseCosine:
		return "cos"
	case PhaseSine:
		return "sin"
	default:
		return fmt.Sprintf("PhaseConvention(%d)", int(c))
	}
}

// ParsePhaseConvention parses "cos" or "sin". The empty string means cosine.
func ParsePhaseConvention(s string) (PhaseConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cos", "cosine":
		return PhaseCosine, nil
	case "sin", "sine":
		return PhaseSine, nil
	default:
		return 0, newFieldError("phaseConvention", fmt.Sprintf("unknown convention %q (want cos or sin)", s))
	}
}

// ArgumentConvention selects the angle the first Doodson coefficient
// multiplies and the target of the longitude and phase-origin shifts.
type ArgumentConvention int

const (
	// ArgumentT uses the time-varying base angle T (180° at 0:00 UTC).
	ArgumentT ArgumentConvention = iota
	// ArgumentLunarTime uses mean lunar time τ = T - s + h.
	ArgumentLunarTime
)

func (c ArgumentConvention) String() string {
	switch c {
	case ArgumentT:
		return "T"
	case ArgumentLunarTime:
		return "tau"
	default:
		return fmt.Sprintf("ArgumentConvention(%d)", int(c))
	}
}

// ParseArgumentConvention parses "T" or "tau". The empty string means T.
func ParseArgumentConvention(s string) (ArgumentConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "t":
		return ArgumentT, nil
	case "tau", "lunar":
		return ArgumentLunarTime, nil
	default:
		return 0, newFieldError("argumentConvention", fmt.Sprintf("unknown convention %q (want T or tau)", s))
	}
}

// SeasonalComponent is one harmonic of the seasonal mean-level anomaly.
type SeasonalComponent struct {
	AmpCm    float64 `json:"ampCm" mapstructure:"ampCm"`
	PhaseDeg float64 `json:"phaseDeg" mapstructure:"phaseDeg"`
}

// SeasonalMeanModel produces an additive mean-level anomaly from the day of
// year. LocalOffsetMinutes shifts the instant before the day of year is taken.
type SeasonalMeanModel struct {
	Annual             SeasonalComponent `json:"annual" mapstructure:"annual"`
	Semiannual         SeasonalComponent `json:"semiannual" mapstructure:"semiannual"`
	LocalOffsetMinutes float64           `json:"localOffsetMinutes" mapstructure:"localOffsetMinutes"`
}

// tropicalYearDays is the length of the mean tropical year.
const tropicalYearDays = 365.2422

// Anomaly returns the seasonal mean-level anomaly at t in centimeters.
func (m SeasonalMeanModel) Anomaly(t time.Time) float64 {
	local := t.UTC().Add(time.Duration(m.LocalOffsetMinutes * float64(time.Minute)))
	midnight := UTCMidnight(local)
	day := float64(local.YearDay()-1) + local.Sub(midnight).Hours()/24.0

	omega := 360.0 / tropicalYearDays
	annual := m.Annual.AmpCm * math.Cos(Deg2Rad(Mod360(omega*day-m.Annual.PhaseDeg)))
	semi := m.Semiannual.AmpCm * math.Cos(Deg2Rad(Mod360(2*omega*day-m.Semiannual.PhaseDeg)))
	return annual + semi
}

// Constituent is one harmonic term of a station profile.
type Constituent struct {
	ID                   string
	AmplitudeCm          float64
	PhaseLagDeg          float64
	EquilibriumOffsetDeg float64
	Doodson              [5]int
}

// ConstituentConfig configures a constituent. When DoodsonCoefficients is
// empty the coefficients and the equilibrium offset come from the standard
// catalog; an explicit EquilibriumOffsetDeg always wins.
type ConstituentConfig struct {
	ID                   string   `json:"id" mapstructure:"id"`
	AmplitudeCm          float64  `json:"amplitudeCm" mapstructure:"amplitudeCm"`
	PhaseLagDeg          float64  `json:"phaseLagDeg" mapstructure:"phaseLagDeg"`
	EquilibriumOffsetDeg *float64 `json:"equilibriumOffsetDeg,omitempty" mapstructure:"equilibriumOffsetDeg"`
	DoodsonCoefficients  []int    `json:"doodsonCoefficients,omitempty" mapstructure:"doodsonCoefficients"`
}

// ProfileConfig is the configuration object a Profile is built from.
//
// Defaults: phaseConvention "cos", argumentConvention "T", no shifts, no
// seasonal model, built-in nodal series.
type ProfileConfig struct {
	Name                  string              `json:"name" mapstructure:"name"`
	Z0Cm                  float64             `json:"z0Cm" mapstructure:"z0Cm"`
	PhaseConvention       string              `json:"phaseConvention,omitempty" mapstructure:"phaseConvention"`
	ArgumentConvention    string              `json:"argumentConvention,omitempty" mapstructure:"argumentConvention"`
	ReferenceLongitudeDeg float64             `json:"referenceLongitudeDeg,omitempty" mapstructure:"referenceLongitudeDeg"`
	PhaseOriginOffsetDeg  float64             `json:"phaseOriginOffsetDeg,omitempty" mapstructure:"phaseOriginOffsetDeg"`
	SeasonalMeanModel     *SeasonalMeanModel  `json:"seasonalMeanModel,omitempty" mapstructure:"seasonalMeanModel"`
	Constituents          []ConstituentConfig `json:"constituents" mapstructure:"constituents"`
	NodalOverrides        []NodalSeriesConfig `json:"nodalOverrides,omitempty" mapstructure:"nodalOverrides"`
}

// Profile is an immutable, validated station configuration. It is safe for
// concurrent use.
type Profile struct {
	name         string
	z0Cm         float64
	phase        PhaseConvention
	argument     ArgumentConvention
	refLonDeg    float64
	originDeg    float64
	seasonal     *SeasonalMeanModel
	constituents []Constituent
	nodal        *NodalTable
	nodalCfg     []NodalSeriesConfig
}

// NewProfile validates cfg and builds a Profile. All failures wrap
// ErrConfiguration.
func NewProfile(cfg ProfileConfig) (*Profile, error) {
	phase, err := ParsePhaseConvention(cfg.PhaseConvention)
	if err != nil {
		return nil, err
	}
	argument, err := ParseArgumentConvention(cfg.ArgumentConvention)
	if err != nil {
		return nil, err
	}

	if !finite(cfg.Z0Cm) {
		return nil, newFieldError("z0Cm", "must be finite")
	}
	if !finite(cfg.ReferenceLongitudeDeg) {
		return nil, newFieldError("referenceLongitudeDeg", "must be finite")
	}
	if !finite(cfg.PhaseOriginOffsetDeg) {
		return nil, newFieldError("phaseOriginOffsetDeg", "must be finite")
	}

	var seasonal *SeasonalMeanModel
	if cfg.SeasonalMeanModel != nil {
		m := *cfg.SeasonalMeanModel
		if !finite(m.Annual.AmpCm, m.Annual.PhaseDeg, m.Semiannual.AmpCm, m.Semiannual.PhaseDeg, m.LocalOffsetMinutes) {
			return nil, newFieldError("seasonalMeanModel", "values must be finite")
		}
		seasonal = &m
	}

	if len(cfg.Constituents) == 0 {
		return nil, newFieldError("constituents", "at least one constituent is required")
	}

	seen := make(map[string]bool, len(cfg.Constituents))
	constituents := make([]Constituent, 0, len(cfg.Constituents))
	for i, cc := range cfg.Constituents {
		c, err := buildConstituent(i, cc, argument)
		if err != nil {
			return nil, err
		}
		key := NormalizeConstituentID(c.ID)
		if seen[key] {
			return nil, newFieldError(fmt.Sprintf("constituents[%d].id", i), fmt.Sprintf("duplicate constituent %s", c.ID))
		}
		seen[key] = true
		constituents = append(constituents, c)
	}

	nodal, err := NewNodalTable(cfg.NodalOverrides)
	if err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = "unnamed"
	}

	return &Profile{
		name:         name,
		z0Cm:         cfg.Z0Cm,
		phase:        phase,
		argument:     argument,
		refLonDeg:    cfg.ReferenceLongitudeDeg,
		originDeg:    cfg.PhaseOriginOffsetDeg,
		seasonal:     seasonal,
		constituents: constituents,
		nodal:        nodal,
		nodalCfg:     copyNodalConfigs(cfg.NodalOverrides),
	}, nil
}

// MustNewProfile is like NewProfile but panics on error. It is intended for
// package-level profiles built from literals.
func MustNewProfile(cfg ProfileConfig) *Profile {
	p, err := NewProfile(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

func buildConstituent(i int, cc ConstituentConfig, argument ArgumentConvention) (Constituent, error) {
	field := fmt.Sprintf("constituents[%d]", i)
	id := strings.TrimSpace(cc.ID)
	if id == "" {
		return Constituent{}, newFieldError(field+".id", "must not be empty")
	}
	if !finite(cc.AmplitudeCm) || cc.AmplitudeCm < 0 {
		return Constituent{}, newFieldError(field+".amplitudeCm", "must be finite and non-negative")
	}
	if !finite(cc.PhaseLagDeg) {
		return Constituent{}, newFieldError(field+".phaseLagDeg", "must be finite")
	}

	c := Constituent{
		ID:          id,
		AmplitudeCm: cc.AmplitudeCm,
		PhaseLagDeg: cc.PhaseLagDeg,
	}

	switch len(cc.DoodsonCoefficients) {
	case 0:
		info, ok := LookupConstituent(id)
		if !ok {
			return Constituent{}, newFieldError(field+".doodsonCoefficients", fmt.Sprintf("required for non-standard constituent %s", id))
		}
		c.Doodson = info.Doodson
		if argument == ArgumentLunarTime {
			// Re-express c0 T + c1 s + c2 h with T = τ + s - h.
			c.Doodson[1] += info.Doodson[0]
			c.Doodson[2] -= info.Doodson[0]
		}
		c.EquilibriumOffsetDeg = info.EquilibriumOffsetDeg
	case 5:
		copy(c.Doodson[:], cc.DoodsonCoefficients)
	default:
		return Constituent{}, newFieldError(field+".doodsonCoefficients", fmt.Sprintf("want 5 coefficients, got %d", len(cc.DoodsonCoefficients)))
	}

	if cc.EquilibriumOffsetDeg != nil {
		if !finite(*cc.EquilibriumOffsetDeg) {
			return Constituent{}, newFieldError(field+".equilibriumOffsetDeg", "must be finite")
		}
		c.EquilibriumOffsetDeg = *cc.EquilibriumOffsetDeg
	}
	return c, nil
}

// Name returns the profile label.
func (p *Profile) Name() string { return p.name }

// Z0Cm returns the mean level above datum.
func (p *Profile) Z0Cm() float64 { return p.z0Cm }

// PhaseConvention returns the trigonometric convention.
func (p *Profile) PhaseConvention() PhaseConvention { return p.phase }

// ArgumentConvention returns the base-angle convention.
func (p *Profile) ArgumentConvention() ArgumentConvention { return p.argument }

// ReferenceLongitudeDeg returns the reference-longitude shift.
func (p *Profile) ReferenceLongitudeDeg() float64 { return p.refLonDeg }

// PhaseOriginOffsetDeg returns the phase-origin shift.
func (p *Profile) PhaseOriginOffsetDeg() float64 { return p.originDeg }

// SeasonalMeanModel returns the seasonal model, if configured.
func (p *Profile) SeasonalMeanModel() (SeasonalMeanModel, bool) {
	if p.seasonal == nil {
		return SeasonalMeanModel{}, false
	}
	return *p.seasonal, true
}

// Constituents returns a copy of the constituent list.
func (p *Profile) Constituents() []Constituent {
	out := make([]Constituent, len(p.constituents))
	copy(out, p.constituents)
	return out
}

// ConstituentIDs returns the constituent ids in profile order.
func (p *Profile) ConstituentIDs() []string {
	ids := make([]string, len(p.constituents))
	for i, c := range p.constituents {
		ids[i] = c.ID
	}
	return ids
}

// Config returns a configuration that rebuilds an equivalent profile.
func (p *Profile) Config() ProfileConfig {
	cfg := ProfileConfig{
		Name:                  p.name,
		Z0Cm:                  p.z0Cm,
		PhaseConvention:       p.phase.String(),
		ArgumentConvention:    p.argument.String(),
		ReferenceLongitudeDeg: p.refLonDeg,
		PhaseOriginOffsetDeg:  p.originDeg,
		NodalOverrides:        copyNodalConfigs(p.nodalCfg),
	}
	if p.seasonal != nil {
		m := *p.seasonal
		cfg.SeasonalMeanModel = &m
	}
	cfg.Constituents = make([]ConstituentConfig, len(p.constituents))
	for i, c := range p.constituents {
		offset := c.EquilibriumOffsetDeg
		cfg.Constituents[i] = ConstituentConfig{
			ID:                   c.ID,
			AmplitudeCm:          c.AmplitudeCm,
			PhaseLagDeg:          c.PhaseLagDeg,
			EquilibriumOffsetDeg: &offset,
			DoodsonCoefficients:  append([]int(nil), c.Doodson[:]...),
		}
	}
	return cfg
}

// NodalFactor returns the nodal factor of constituent id at node longitude
// nDeg, honoring the profile's overrides.
func (p *Profile) NodalFactor(id string, nDeg float64) NodalFactor {
	return p.nodal.FactorFor(id, nDeg)
}

func copyNodalConfigs(in []NodalSeriesConfig) []NodalSeriesConfig {
	if len(in) == 0 {
		return nil
	}
	out := make([]NodalSeriesConfig, len(in))
	for i, c := range in {
		out[i] = NodalSeriesConfig{
			ID: c.ID,
			F:  append([]float64(nil), c.F...),
			U:  append([]float64(nil), c.U...),
		}
	}
	return out
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

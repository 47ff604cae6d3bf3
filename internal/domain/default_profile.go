package domain

// defaultProfileConfig is a demonstration profile with the eight major
// constituents of a mixed semidiurnal station (Tokyo Bay magnitudes).
// Phase lags are Greenwich-referenced.
//
//nolint:gochecknoglobals // Read-only configuration literal.
var defaultProfileConfig = ProfileConfig{
	Name:            "tokyo",
	Z0Cm:            110.0,
	PhaseConvention: "cos",
	SeasonalMeanModel: &SeasonalMeanModel{
		Annual:     SeasonalComponent{AmpCm: 12.0, PhaseDeg: 240.0},
		Semiannual: SeasonalComponent{AmpCm: 3.0, PhaseDeg: 100.0},
	},
	Constituents: []ConstituentConfig{
		{ID: "M2", AmplitudeCm: 48.6, PhaseLagDeg: 156.0},
		{ID: "S2", AmplitudeCm: 23.4, PhaseLagDeg: 183.0},
		{ID: "N2", AmplitudeCm: 9.1, PhaseLagDeg: 148.0},
		{ID: "K2", AmplitudeCm: 6.5, PhaseLagDeg: 180.0},
		{ID: "K1", AmplitudeCm: 24.7, PhaseLagDeg: 191.0},
		{ID: "O1", AmplitudeCm: 19.6, PhaseLagDeg: 172.0},
		{ID: "P1", AmplitudeCm: 7.9, PhaseLagDeg: 189.0},
		{ID: "Q1", AmplitudeCm: 3.9, PhaseLagDeg: 163.0},
	},
}

//nolint:gochecknoglobals // Immutable; built once at init.
var defaultProfile = MustNewProfile(defaultProfileConfig)

// DefaultProfile returns the built-in demonstration profile. The profile is
// immutable and shared.
func DefaultProfile() *Profile {
	return defaultProfile
}

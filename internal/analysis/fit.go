// Package analysis recovers harmonic constants from observed heights and
// scores profiles against observations.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"go.ngs.io/tidecalc/internal/domain"
)

// DefaultConstituents are fitted when FitOptions names none.
var DefaultConstituents = []string{"M2", "S2", "N2", "K2", "K1", "O1", "P1", "Q1", "M4", "MS4"}

// FitOptions selects the model a fit solves for.
type FitOptions struct {
	Name                  string
	Constituents          []string
	ReferenceLongitudeDeg float64
	ArgumentConvention    string
}

// Fit solves for the mean level and the amplitude and phase lag of each
// constituent by least squares:
//
//	h(t) = Z0 + Σ f_k (a_k cos θ_k + b_k sin θ_k),  A_k = |(a_k, b_k)|, κ_k = atan2(b_k, a_k)
//
// where θ_k = V + E + u is the argument HeightAt uses. The result uses the
// cosine convention, so HeightAt of the fitted profile reproduces the
// noise-free part of the observations.
func Fit(samples []domain.Sample, opts FitOptions) (domain.ProfileConfig, error) {
	ids, err := fitIDs(opts.Constituents)
	if err != nil {
		return domain.ProfileConfig{}, err
	}

	template := domain.ProfileConfig{
		Name:                  opts.Name,
		PhaseConvention:       "cos",
		ArgumentConvention:    opts.ArgumentConvention,
		ReferenceLongitudeDeg: opts.ReferenceLongitudeDeg,
	}
	for _, id := range ids {
		template.Constituents = append(template.Constituents, domain.ConstituentConfig{ID: id})
	}
	model, err := domain.NewProfile(template)
	if err != nil {
		return domain.ProfileConfig{}, err
	}

	params := 1 + 2*len(ids)
	if len(samples) <= params {
		return domain.ProfileConfig{}, invalid("need more than %d samples to fit %d constituents, got %d", params, len(ids), len(samples))
	}
	sorted, err := sortedSamples(samples, model)
	if err != nil {
		return domain.ProfileConfig{}, err
	}

	normal := make([][]float64, params)
	for i := range normal {
		normal[i] = make([]float64, params)
	}
	rhs := make([]float64, params)
	features := make([]float64, params)

	var dc *domain.DayContext
	for _, s := range sorted {
		if dc == nil || !dc.Covers(s.Time) {
			dc = domain.NewDayContext(s.Time, model)
		}
		terms, err := dc.Terms(s.Time, model)
		if err != nil {
			return domain.ProfileConfig{}, err
		}

		features[0] = 1
		for k, term := range terms {
			theta := domain.Deg2Rad(term.ArgumentDeg)
			features[1+2*k] = term.F * math.Cos(theta)
			features[2+2*k] = term.F * math.Sin(theta)
		}
		for i := 0; i < params; i++ {
			rhs[i] += features[i] * s.HeightCm
			for j := 0; j <= i; j++ {
				normal[i][j] += features[i] * features[j]
			}
		}
	}
	for i := 0; i < params; i++ {
		for j := 0; j < i; j++ {
			normal[j][i] = normal[i][j]
		}
	}

	coeffs, err := solveSPD(normal, rhs)
	if err != nil {
		return domain.ProfileConfig{}, invalid("observations cannot separate the constituents: %v", err)
	}

	cfg := template
	cfg.Z0Cm = coeffs[0]
	for k := range cfg.Constituents {
		a, b := coeffs[1+2*k], coeffs[2+2*k]
		cfg.Constituents[k].AmplitudeCm = math.Hypot(a, b)
		cfg.Constituents[k].PhaseLagDeg = domain.Mod360(domain.Rad2Deg(math.Atan2(b, a)))
	}
	return cfg, nil
}

func fitIDs(names []string) ([]string, error) {
	if len(names) == 0 {
		names = DefaultConstituents
	}

	seen := make(map[string]bool, len(names))
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id := domain.NormalizeConstituentID(name)
		if id == "" || seen[id] {
			continue
		}
		if _, ok := domain.LookupConstituent(id); !ok {
			return nil, invalid("unknown constituent %q", name)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, invalid("no constituents to fit")
	}
	return ids, nil
}

// sortedSamples returns samples in time order after checking that every
// instant can be evaluated.
func sortedSamples(samples []domain.Sample, p *domain.Profile) ([]domain.Sample, error) {
	sorted := make([]domain.Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	for _, s := range sorted {
		if math.IsNaN(s.HeightCm) || math.IsInf(s.HeightCm, 0) {
			return nil, invalid("height at %s is not finite", s.Time)
		}
	}
	// Supported years form one interval, so checking the ends suffices.
	for _, s := range []domain.Sample{sorted[0], sorted[len(sorted)-1]} {
		if _, err := domain.HeightAt(s.Time, p); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}

// solveSPD solves mat x = rhs for a symmetric positive definite mat by
// Cholesky decomposition.
func solveSPD(mat [][]float64, rhs []float64) ([]float64, error) {
	n := len(rhs)
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := mat[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}
			if i == j {
				if sum <= 1e-10*mat[i][i] {
					return nil, fmt.Errorf("matrix not positive definite")
				}
				L[i][j] = math.Sqrt(sum)
			} else {
				L[i][j] = sum / L[j][j]
			}
		}
	}

	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := rhs[i]
		for k := 0; k < i; k++ {
			sum -= L[i][k] * y[k]
		}
		y[i] = sum / L[i][i]
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= L[k][i] * x[k]
		}
		x[i] = sum / L[i][i]
	}
	return x, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

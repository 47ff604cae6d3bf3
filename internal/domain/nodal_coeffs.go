package domain

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// NodalSeriesConfig holds series coefficients in N (degrees) for f and u.
//
//	f(N) = F[0] + F[1] cos N + F[2] cos 2N + F[3] cos 3N
//	u(N) = U[0] sin N + U[1] sin 2N + U[2] sin 3N
//
// Missing trailing terms are zero.
type NodalSeriesConfig struct {
	ID string    `json:"id" mapstructure:"id"`
	F  []float64 `json:"f" mapstructure:"f"`
	U  []float64 `json:"u,omitempty" mapstructure:"u"`
}

// NodalCoeffSet is the on-disk layout of a nodal coefficient file.
type NodalCoeffSet struct {
	Coeffs []NodalSeriesConfig `json:"coeffs"`
}

// LoadNodalCoeffSet decodes a JSON coefficient file.
func LoadNodalCoeffSet(r io.Reader) ([]NodalSeriesConfig, error) {
	var set NodalCoeffSet
	if err := json.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("invalid nodal coeff json: %w", err)
	}
	if _, err := NewNodalTable(set.Coeffs); err != nil {
		return nil, err
	}
	return set.Coeffs, nil
}

// NewNodalTable validates override series and builds a table.
func NewNodalTable(cfgs []NodalSeriesConfig) (*NodalTable, error) {
	t := &NodalTable{overrides: make(map[string]nodalSeries, len(cfgs))}
	for i, c := range cfgs {
		field := fmt.Sprintf("nodalOverrides[%d]", i)
		key := NormalizeConstituentID(c.ID)
		if key == "" {
			return nil, newFieldError(field+".id", "must not be empty")
		}
		if _, dup := t.overrides[key]; dup {
			return nil, newFieldError(field+".id", fmt.Sprintf("duplicate override for %s", c.ID))
		}
		if len(c.F) == 0 || len(c.F) > 4 {
			return nil, newFieldError(field+".f", "must have 1 to 4 terms")
		}
		if len(c.U) > 3 {
			return nil, newFieldError(field+".u", "must have at most 3 terms")
		}

		var s nodalSeries
		for k, v := range c.F {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, newFieldError(field+".f", "must be finite")
			}
			s.F[k] = v
		}
		for k, v := range c.U {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, newFieldError(field+".u", "must be finite")
			}
			s.U[k+1] = v
		}
		t.overrides[key] = s
	}
	return t, nil
}

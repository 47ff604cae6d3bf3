package analysis

import (
	"math"

	"go.ngs.io/tidecalc/internal/domain"
)

// Stats summarizes observed minus predicted heights.
type Stats struct {
	N            int     `json:"n"`
	MeanOffsetCm float64 `json:"mean_offset_cm"`

	// RMSECm and MaxAbsCm are taken after removing the mean offset.
	RMSECm   float64 `json:"rmse_cm"`
	MaxAbsCm float64 `json:"max_abs_cm"`
}

// Compare predicts every sample instant with p and reports the residuals.
// MeanOffsetCm is the datum shift that would best align p with the
// observations.
func Compare(samples []domain.Sample, p *domain.Profile) (Stats, error) {
	if len(samples) == 0 {
		return Stats{}, invalid("no samples to compare")
	}

	diffs := make([]float64, len(samples))
	var sum float64
	for i, s := range samples {
		h, err := domain.HeightAt(s.Time, p)
		if err != nil {
			return Stats{}, err
		}
		diffs[i] = s.HeightCm - h
		sum += diffs[i]
	}

	st := Stats{N: len(diffs), MeanOffsetCm: sum / float64(len(diffs))}
	var sse float64
	for _, d := range diffs {
		dd := d - st.MeanOffsetCm
		sse += dd * dd
		st.MaxAbsCm = math.Max(st.MaxAbsCm, math.Abs(dd))
	}
	st.RMSECm = math.Sqrt(sse / float64(len(diffs)))
	return st, nil
}

// Package interp interpolates harmonic constants on regular lat/lon grids.
package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrOutOfRange is returned when a point lies outside a cell or grid.
var ErrOutOfRange = errors.New("point outside grid")

// GridCell represents a cell in a regular grid with four corner values.
type GridCell struct {
	X0, X1 float64 // Longitude bounds.
	Y0, Y1 float64 // Latitude bounds.

	// V00 at (X0, Y0), V10 at (X1, Y0), V01 at (X0, Y1), V11 at (X1, Y1).
	V00, V10, V01, V11 float64
}

// weights returns the normalized cell coordinates of (x, y).
func (c GridCell) weights(x, y float64) (float64, float64, error) {
	if c.X1 <= c.X0 {
		return 0, 0, fmt.Errorf("invalid grid cell: X1 must be > X0")
	}
	if c.Y1 <= c.Y0 {
		return 0, 0, fmt.Errorf("invalid grid cell: Y1 must be > Y0")
	}

	const epsilon = 1e-9
	if x < c.X0-epsilon || x > c.X1+epsilon {
		return 0, 0, fmt.Errorf("x coordinate %.6f is outside grid cell [%.6f, %.6f]: %w", x, c.X0, c.X1, ErrOutOfRange)
	}
	if y < c.Y0-epsilon || y > c.Y1+epsilon {
		return 0, 0, fmt.Errorf("y coordinate %.6f is outside grid cell [%.6f, %.6f]: %w", y, c.Y0, c.Y1, ErrOutOfRange)
	}

	t := (x - c.X0) / (c.X1 - c.X0)
	u := (y - c.Y0) / (c.Y1 - c.Y0)
	return clamp01(t), clamp01(u), nil
}

// BilinearInterpolate performs bilinear interpolation within a grid cell:
//
//	f(x,y) ≈ (1-t)(1-u)f(x0,y0) + t(1-u)f(x1,y0) + (1-t)u*f(x0,y1) + tu*f(x1,y1)
//
// where t = (x - x0) / (x1 - x0) and u = (y - y0) / (y1 - y0).
func BilinearInterpolate(cell GridCell, x, y float64) (float64, error) {
	t, u, err := cell.weights(x, y)
	if err != nil {
		return 0, err
	}
	return blend(t, u, cell.V00, cell.V10, cell.V01, cell.V11), nil
}

func blend(t, u, v00, v10, v01, v11 float64) float64 {
	return (1-t)*(1-u)*v00 +
		t*(1-u)*v10 +
		(1-t)*u*v01 +
		t*u*v11
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Grid2D represents a regular 2D grid for interpolation.
type Grid2D struct {
	X      []float64   // Longitudes, strictly increasing.
	Y      []float64   // Latitudes, strictly increasing.
	Values [][]float64 // Values[i][j] corresponds to (X[j], Y[i]).
}

// Validate checks if the grid is valid.
func (g *Grid2D) Validate() error {
	if len(g.X) < 2 {
		return fmt.Errorf("grid must have at least 2 X coordinates")
	}
	if len(g.Y) < 2 {
		return fmt.Errorf("grid must have at least 2 Y coordinates")
	}
	if len(g.Values) != len(g.Y) {
		return fmt.Errorf("number of value rows (%d) must match Y coordinates (%d)", len(g.Values), len(g.Y))
	}

	for i, row := range g.Values {
		if len(row) != len(g.X) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(g.X))
		}
	}

	for i := 1; i < len(g.X); i++ {
		if g.X[i] <= g.X[i-1] {
			return fmt.Errorf("X coordinates must be strictly increasing")
		}
	}
	for i := 1; i < len(g.Y); i++ {
		if g.Y[i] <= g.Y[i-1] {
			return fmt.Errorf("Y coordinates must be strictly increasing")
		}
	}

	return nil
}

// SameShape reports whether o shares g's coordinate axes.
func (g *Grid2D) SameShape(o *Grid2D) bool {
	if len(g.X) != len(o.X) || len(g.Y) != len(o.Y) {
		return false
	}
	for i := range g.X {
		if g.X[i] != o.X[i] {
			return false
		}
	}
	for i := range g.Y {
		if g.Y[i] != o.Y[i] {
			return false
		}
	}
	return true
}

// cellIndex returns i such that axis[i] <= v <= axis[i+1].
func cellIndex(axis []float64, v float64) int {
	n := len(axis)
	if v < axis[0] || v > axis[n-1] {
		return -1
	}
	i := sort.SearchFloat64s(axis, v)
	if i > 0 && (i == n || axis[i] > v) {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	return i
}

// Cell returns the grid cell containing (x, y).
func (g *Grid2D) Cell(x, y float64) (GridCell, error) {
	xIdx := cellIndex(g.X, x)
	if xIdx == -1 {
		return GridCell{}, fmt.Errorf("x coordinate %.6f is outside grid range [%.6f, %.6f]: %w", x, g.X[0], g.X[len(g.X)-1], ErrOutOfRange)
	}
	yIdx := cellIndex(g.Y, y)
	if yIdx == -1 {
		return GridCell{}, fmt.Errorf("y coordinate %.6f is outside grid range [%.6f, %.6f]: %w", y, g.Y[0], g.Y[len(g.Y)-1], ErrOutOfRange)
	}

	return GridCell{
		X0:  g.X[xIdx],
		X1:  g.X[xIdx+1],
		Y0:  g.Y[yIdx],
		Y1:  g.Y[yIdx+1],
		V00: g.Values[yIdx][xIdx],
		V10: g.Values[yIdx][xIdx+1],
		V01: g.Values[yIdx+1][xIdx],
		V11: g.Values[yIdx+1][xIdx+1],
	}, nil
}

// InterpolateAt performs bilinear interpolation at a given point.
func (g *Grid2D) InterpolateAt(x, y float64) (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, fmt.Errorf("invalid grid: %w", err)
	}
	cell, err := g.Cell(x, y)
	if err != nil {
		return 0, err
	}
	return BilinearInterpolate(cell, x, y)
}

// InterpolateHarmonic interpolates an amplitude grid and a phase grid (degrees)
// at (x, y). Corners are blended as phasors A·e^{iφ} so that phases near the
// 0/360 seam do not average to the opposite side of the circle. The returned
// phase is in [0, 360).
func InterpolateHarmonic(amp, phase *Grid2D, x, y float64) (float64, float64, error) {
	if err := amp.Validate(); err != nil {
		return 0, 0, fmt.Errorf("invalid amplitude grid: %w", err)
	}
	if !amp.SameShape(phase) {
		return 0, 0, fmt.Errorf("amplitude and phase grids must share coordinates")
	}

	ac, err := amp.Cell(x, y)
	if err != nil {
		return 0, 0, err
	}
	pc, err := phase.Cell(x, y)
	if err != nil {
		return 0, 0, err
	}
	t, u, err := ac.weights(x, y)
	if err != nil {
		return 0, 0, err
	}

	re := func(a, p float64) float64 { return a * math.Cos(p*math.Pi/180) }
	im := func(a, p float64) float64 { return a * math.Sin(p*math.Pi/180) }

	r := blend(t, u, re(ac.V00, pc.V00), re(ac.V10, pc.V10), re(ac.V01, pc.V01), re(ac.V11, pc.V11))
	i := blend(t, u, im(ac.V00, pc.V00), im(ac.V10, pc.V10), im(ac.V01, pc.V01), im(ac.V11, pc.V11))

	a := math.Hypot(r, i)
	if a == 0 {
		return 0, 0, nil
	}
	deg := math.Atan2(i, r) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return a, deg, nil
}

// Package terrain derives slope and aspect from an elevation model and turns
// them into per-edge fire spread multipliers.
package terrain

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"wildfire-ca/internal/core"
	"wildfire-ca/internal/sims/fire"
	pcore "wildfire-ca/pkg/core"
)

// MaxCoefficient caps the combined terrain multiplier.
const MaxCoefficient = 3.0

// DefaultResolution is the synthetic DEM cell size in metres.
const DefaultResolution = 30.0

// DefaultWindDirection is used when no wind bearing is supplied.
const DefaultWindDirection = 180.0

var ErrShape = errors.New("terrain: elevation does not match lattice")

// Model is a digital elevation model with its derived slope and aspect.
type Model struct {
	grid       core.Lattice
	resolution float64
	elevation  []float64
	slope      []float64 // degrees
	aspect     []float64 // degrees clockwise from north
}

// New builds a model from row-major elevations.
func New(rows, cols int, elevation []float64, resolution float64) (*Model, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	if len(elevation) != rows*cols {
		return nil, fmt.Errorf("%w: have %d values for %dx%d", ErrShape, len(elevation), rows, cols)
	}
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	m := &Model{
		grid:       core.Lattice{Rows: rows, Cols: cols},
		resolution: resolution,
		elevation:  append([]float64(nil), elevation...),
	}
	m.derive()
	return m, nil
}

// Synthetic generates a hilly landscape with a central peak and gaussian
// noise drawn from seed.
func Synthetic(rows, cols int, seed uint64) (*Model, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	rng := pcore.NewRNG(seed)
	elev := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		y := linspace(r, rows, 10)
		for c := 0; c < cols; c++ {
			x := linspace(c, cols, 10)
			h := 100*math.Sin(x)*math.Cos(y) +
				50*math.Sin(2*x)*math.Sin(2*y) +
				200*math.Exp(-((x-5)*(x-5)+(y-5)*(y-5))/4) +
				rng.NormFloat64()*5
			elev[r*cols+c] = math.Max(0, h)
		}
	}
	return New(rows, cols, elev, DefaultResolution)
}

func linspace(i, n int, hi float64) float64 {
	if n <= 1 {
		return 0
	}
	return hi * float64(i) / float64(n-1)
}

// derive fills slope and aspect using central differences in the interior
// and one-sided differences at the edges.
func (m *Model) derive() {
	n := m.grid.Len()
	m.slope = make([]float64, n)
	m.aspect = make([]float64, n)
	for r := 0; r < m.grid.Rows; r++ {
		for c := 0; c < m.grid.Cols; c++ {
			gy := m.gradient(r, c, 1, 0)
			gx := m.gradient(r, c, 0, 1)
			i := m.grid.Index(r, c)
			m.slope[i] = math.Atan(math.Hypot(gx, gy)) * 180 / math.Pi
			a := math.Atan2(-gx, gy) * 180 / math.Pi
			m.aspect[i] = math.Mod(a+360, 360)
		}
	}
}

func (m *Model) gradient(r, c, dr, dc int) float64 {
	extent := m.grid.Rows
	pos := r
	if dc != 0 {
		extent = m.grid.Cols
		pos = c
	}
	if extent < 2 {
		return 0
	}
	at := func(k int) float64 {
		if dc != 0 {
			return m.elevation[m.grid.Index(r, k)]
		}
		return m.elevation[m.grid.Index(k, c)]
	}
	switch pos {
	case 0:
		return (at(1) - at(0)) / m.resolution
	case extent - 1:
		return (at(extent-1) - at(extent-2)) / m.resolution
	}
	return (at(pos+1) - at(pos-1)) / (2 * m.resolution)
}

// Lattice returns the model dimensions.
func (m *Model) Lattice() core.Lattice { return m.grid }

// ElevationField returns a copy of the row-major elevation grid.
func (m *Model) ElevationField() []float64 { return slices.Clone(m.elevation) }

// Resolution returns the cell size in metres.
func (m *Model) Resolution() float64 { return m.resolution }

// Elevation returns the elevation at cell.
func (m *Model) Elevation(c fire.Cell) float64 { return m.elevation[m.index(c)] }

// Slope returns the slope in degrees at cell.
func (m *Model) Slope(c fire.Cell) float64 { return m.slope[m.index(c)] }

// Aspect returns the downslope bearing in degrees at cell.
func (m *Model) Aspect(c fire.Cell) float64 { return m.aspect[m.index(c)] }

func (m *Model) index(c fire.Cell) int {
	return m.grid.Index(m.grid.Clamp(c.Row, c.Col))
}

// SlopeEffect favours uphill runs and slows downhill ones.
func (m *Model) SlopeEffect(from, to fire.Cell) float64 {
	dz := m.Elevation(to) - m.Elevation(from)
	avg := (m.Slope(from) + m.Slope(to)) / 2
	var f float64
	if dz > 0 {
		f = 1 + avg/45*0.5
	} else {
		f = 1 - avg/90*0.2
	}
	return math.Max(0.1, f)
}

// AspectEffect rewards slopes facing the wind.
func (m *Model) AspectEffect(from, to fire.Cell, windDirection float64) float64 {
	avg := (m.Aspect(from) + m.Aspect(to)) / 2
	d := math.Mod(math.Abs(avg-windDirection), 360)
	if d > 180 {
		d = 360 - d
	}
	switch {
	case d <= 45:
		return 1.2
	case d >= 135:
		return 0.9
	}
	return 1.0
}

// ElevationEffect scales by the target cell's altitude band.
func (m *Model) ElevationEffect(to fire.Cell) float64 {
	h := m.Elevation(to)
	switch {
	case h > 1000:
		return 1.3
	case h > 500:
		return 1.1
	case h > 200:
		return 1.0
	}
	return 0.9
}

// Coefficient is the combined multiplier, capped at MaxCoefficient.
func (m *Model) Coefficient(from, to fire.Cell, windDirection float64) float64 {
	v := m.SlopeEffect(from, to) * m.AspectEffect(from, to, windDirection) * m.ElevationEffect(to)
	return math.Min(v, MaxCoefficient)
}

// Func adapts the model to the engine. windDirection is read on every call so
// weather changes apply immediately; nil means DefaultWindDirection.
func (m *Model) Func(windDirection func() float64) fire.TerrainFunc {
	return func(from, to fire.Cell) float64 {
		dir := DefaultWindDirection
		if windDirection != nil {
			dir = windDirection()
		}
		return m.Coefficient(from, to, dir)
	}
}

// HazardMap averages the outgoing coefficient over each cell's Moore
// neighbours, giving a static picture of where terrain accelerates fire.
func (m *Model) HazardMap(windDirection float64) []float64 {
	out := make([]float64, m.grid.Len())
	for r := 0; r < m.grid.Rows; r++ {
		for c := 0; c < m.grid.Cols; c++ {
			from := fire.Cell{Row: r, Col: c}
			sum, n := 0.0, 0
			for _, off := range core.MooreOffsets {
				rr, cc := r+off.DR, c+off.DC
				if !m.grid.InBounds(rr, cc) {
					continue
				}
				sum += m.Coefficient(from, fire.Cell{Row: rr, Col: cc}, windDirection)
				n++
			}
			if n > 0 {
				out[m.grid.Index(r, c)] = sum / float64(n)
			}
		}
	}
	return out
}

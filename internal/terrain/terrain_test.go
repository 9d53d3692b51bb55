package terrain

import (
	"errors"
	"math"
	"strings"
	"testing"

	"wildfire-ca/internal/sims/fire"
)

// ramp rises by step metres per row.
func ramp(rows, cols int, step float64) []float64 {
	out := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[r*cols+c] = float64(r) * step
		}
	}
	return out
}

func TestFlatTerrain(t *testing.T) {
	m, err := New(4, 4, make([]float64, 16), 30)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a, b := fire.Cell{Row: 1, Col: 1}, fire.Cell{Row: 1, Col: 2}
	if s := m.Slope(a); s != 0 {
		t.Fatalf("flat slope = %v", s)
	}
	if got := m.SlopeEffect(a, b); got != 1 {
		t.Fatalf("flat slope effect = %v", got)
	}
	if got := m.ElevationEffect(b); got != 0.9 {
		t.Fatalf("low elevation effect = %v", got)
	}
}

func TestRampSlopeAndAspect(t *testing.T) {
	// 30 m rise per 30 m cell is a 45 degree slope.
	m, err := New(5, 5, ramp(5, 5, 30), 30)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mid := fire.Cell{Row: 2, Col: 2}
	if s := m.Slope(mid); math.Abs(s-45) > 1e-9 {
		t.Fatalf("slope = %v, want 45", s)
	}
	// gx=0, gy>0: atan2(-0, gy) = 0.
	if a := m.Aspect(mid); math.Abs(a) > 1e-9 && math.Abs(a-360) > 1e-9 {
		t.Fatalf("aspect = %v, want 0", a)
	}
	up := m.SlopeEffect(mid, fire.Cell{Row: 3, Col: 2})
	down := m.SlopeEffect(mid, fire.Cell{Row: 1, Col: 2})
	if math.Abs(up-1.5) > 1e-9 || math.Abs(down-0.9) > 1e-9 {
		t.Fatalf("up=%v down=%v, want 1.5 and 0.9", up, down)
	}
}

func TestCoefficientCapped(t *testing.T) {
	m, err := New(3, 3, ramp(3, 3, 3000), 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := m.Coefficient(fire.Cell{Row: 1, Col: 1}, fire.Cell{Row: 2, Col: 1}, 0)
	if got > MaxCoefficient {
		t.Fatalf("coefficient %v exceeds cap", got)
	}
	if got != MaxCoefficient {
		t.Fatalf("steep high slope should hit the cap, got %v", got)
	}
}

func TestShapeMismatch(t *testing.T) {
	if _, err := New(2, 2, []float64{1}, 30); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
}

func TestSyntheticDeterministic(t *testing.T) {
	a, err := Synthetic(20, 30, 7)
	if err != nil {
		t.Fatalf("Synthetic: %v", err)
	}
	b, _ := Synthetic(20, 30, 7)
	for r := 0; r < 20; r++ {
		for c := 0; c < 30; c++ {
			cell := fire.Cell{Row: r, Col: c}
			if a.Elevation(cell) != b.Elevation(cell) {
				t.Fatalf("elevation differs at %v", cell)
			}
			if a.Elevation(cell) < 0 {
				t.Fatalf("negative elevation at %v", cell)
			}
		}
	}
}

func TestFuncFollowsWind(t *testing.T) {
	m, _ := Synthetic(10, 10, 3)
	dir := 0.0
	fn := m.Func(func() float64 { return dir })
	from, to := fire.Cell{Row: 4, Col: 4}, fire.Cell{Row: 4, Col: 5}
	if got, want := fn(from, to), m.Coefficient(from, to, 0); got != want {
		t.Fatalf("Func = %v, want %v", got, want)
	}
	dir = 180
	if got, want := fn(from, to), m.Coefficient(from, to, 180); got != want {
		t.Fatalf("Func after wind change = %v, want %v", got, want)
	}
	if got := m.Func(nil)(from, to); got != m.Coefficient(from, to, DefaultWindDirection) {
		t.Fatalf("nil wind should use default bearing")
	}
}

func TestHazardMapBounds(t *testing.T) {
	m, _ := Synthetic(8, 8, 11)
	for i, v := range m.HazardMap(90) {
		if v <= 0 || v > MaxCoefficient {
			t.Fatalf("hazard[%d] = %v out of range", i, v)
		}
	}
}

func TestReadASCIIGrid(t *testing.T) {
	src := `ncols 3
nrows 2
xllcorner 0
yllcorner 0
cellsize 10
NODATA_value -9999
1 2 3
4 -9999 6
`
	m, err := ReadASCIIGrid(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadASCIIGrid: %v", err)
	}
	if l := m.Lattice(); l.Rows != 2 || l.Cols != 3 {
		t.Fatalf("lattice = %+v", l)
	}
	if m.Resolution() != 10 {
		t.Fatalf("resolution = %v", m.Resolution())
	}
	if got := m.Elevation(fire.Cell{Row: 1, Col: 1}); got != 0 {
		t.Fatalf("nodata cell = %v, want 0", got)
	}
	if got := m.Elevation(fire.Cell{Row: 1, Col: 2}); got != 6 {
		t.Fatalf("cell (1,2) = %v, want 6", got)
	}
	if _, err := ReadASCIIGrid(strings.NewReader("ncols 2\nnrows 2\n1 2 3")); !errors.Is(err, ErrShape) {
		t.Fatalf("short grid error = %v", err)
	}
}

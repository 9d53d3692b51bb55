package fire

import (
	"fmt"
	"strings"

	"wildfire-ca/internal/core"
)

// CellState is the lifecycle stage of a single cell. The numeric values are
// the ones written to persisted grids.
type CellState uint8

const (
	Empty CellState = iota
	Fuel
	Burning
	Burned
	Wet
	stateCount
)

var stateNames = [stateCount]string{"empty", "fuel", "burning", "burned", "wet"}

func (s CellState) String() string {
	if s < stateCount {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Valid reports whether s is one of the five defined states.
func (s CellState) Valid() bool { return s < stateCount }

// Neighborhood selects which adjacent cells a burning cell can ignite.
type Neighborhood uint8

const (
	Moore Neighborhood = iota
	VonNeumann
)

func (n Neighborhood) String() string {
	if n == VonNeumann {
		return "von_neumann"
	}
	return "moore"
}

// ParseNeighborhood accepts "moore", "von_neumann", "vonneumann" or "vn".
func ParseNeighborhood(s string) (Neighborhood, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "moore", "8":
		return Moore, nil
	case "von_neumann", "vonneumann", "von-neumann", "vn", "4":
		return VonNeumann, nil
	}
	return Moore, &ConfigError{Field: "neighborhood", Reason: fmt.Sprintf("unknown neighborhood %q", s)}
}

func (n Neighborhood) offsets() []core.Offset {
	if n == VonNeumann {
		return core.VonNeumannOffsets
	}
	return core.MooreOffsets
}

// Cell addresses one lattice position.
type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// layers holds one complete buffer of the per-tick dynamic state. The engine
// owns exactly two of them and swaps the pointers after every tick.
type layers struct {
	state         []CellState
	burnTimer     []uint16
	moistureTimer []uint16
	heat          []float32
}

func newLayers(n int) *layers {
	return &layers{
		state:         make([]CellState, n),
		burnTimer:     make([]uint16, n),
		moistureTimer: make([]uint16, n),
		heat:          make([]float32, n),
	}
}

func (l *layers) copyFrom(src *layers) {
	copy(l.state, src.state)
	copy(l.burnTimer, src.burnTimer)
	copy(l.moistureTimer, src.moistureTimer)
	copy(l.heat, src.heat)
}

func (l *layers) reset() {
	clear(l.state)
	clear(l.burnTimer)
	clear(l.moistureTimer)
	clear(l.heat)
}

// ignite puts cell i into Burning with a fresh timer. Heat is left to the
// caller.
func (l *layers) ignite(i int) {
	l.state[i] = Burning
	l.burnTimer[i] = 0
	l.moistureTimer[i] = 0
}

// burnOut moves cell i into the absorbing Burned state.
func (l *layers) burnOut(i int) {
	l.state[i] = Burned
	l.burnTimer[i] = 0
	l.moistureTimer[i] = 0
	l.heat[i] = 0
}

func (l *layers) wet(i int, ticks uint16) {
	l.state[i] = Wet
	l.burnTimer[i] = 0
	l.moistureTimer[i] = ticks
}

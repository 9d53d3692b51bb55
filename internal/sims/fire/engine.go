package fire

import (
	"fmt"

	"wildfire-ca/internal/core"
	prng "wildfire-ca/pkg/core"
)

// IgnitionSource records an externally placed ignition.
type IgnitionSource struct {
	Row       int     `json:"row"`
	Col       int     `json:"col"`
	Intensity float64 `json:"intensity"`
	Tick      int     `json:"tick"`
}

// Engine is one probabilistic wildfire automaton. It owns its lattice, its
// random stream and all per-run logs; nothing is shared between engines.
// An Engine is not safe for concurrent use.
type Engine struct {
	params  Params
	grid    core.Lattice
	nb      Neighborhood
	offsets []core.Offset
	seed    uint64
	rng     *prng.RNG

	curr, next *layers
	scratch    []float32

	fuel         []FuelCode
	fuelTable    FuelTable
	fuelMoisture []float32

	terrain  TerrainFunc
	wind     WindFunc
	humidity HumidityFunc
	weather  WeatherConditions
	hasWx    bool

	initialized bool
	stepCount   int
	ignitions   []IgnitionSource
	spots       []SpotEvent
	schedule    []scheduledEvent
}

// New returns an engine with default parameters for a rows x cols lattice.
func New(rows, cols int, nb Neighborhood, seed uint64) (*Engine, error) {
	cfg := DefaultConfig()
	cfg.Rows = rows
	cfg.Cols = cols
	cfg.Neighborhood = nb
	cfg.Seed = seed
	return NewWithConfig(cfg)
}

// NewWithConfig returns an engine configured from cfg. The lattice starts
// empty; call Initialize before stepping.
func NewWithConfig(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.Rows * cfg.Cols
	e := &Engine{
		params:    cfg.Params,
		grid:      core.Lattice{Rows: cfg.Rows, Cols: cfg.Cols},
		nb:        cfg.Neighborhood,
		offsets:   cfg.Neighborhood.offsets(),
		seed:      cfg.Seed,
		rng:       prng.NewRNG(cfg.Seed),
		curr:      newLayers(n),
		next:      newLayers(n),
		scratch:   make([]float32, n),
		fuel:      make([]FuelCode, n),
		fuelTable: DefaultFuelTable(),
	}
	return e, nil
}

// Lattice reports the grid shape.
func (e *Engine) Lattice() core.Lattice { return e.grid }

// Neighborhood reports the spread neighborhood.
func (e *Engine) Neighborhood() Neighborhood { return e.nb }

// Params returns the active parameters.
func (e *Engine) Params() Params { return e.params }

// SetParams replaces the parameters between ticks.
func (e *Engine) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p
	return nil
}

// StepCount is the number of completed ticks.
func (e *Engine) StepCount() int { return e.stepCount }

// Initialize samples every cell as Fuel with probability treeDensity, else
// Empty, then clears the firebreak bands. It resets timers, heat, logs and
// the tick counter, but keeps the random stream position.
func (e *Engine) Initialize(treeDensity float64, firebreaks []Firebreak) error {
	if treeDensity != treeDensity || treeDensity < 0 || treeDensity > 1 {
		return &ConfigError{Field: "tree_density", Reason: fmt.Sprintf("%v outside [0,1]", treeDensity)}
	}
	e.curr.reset()
	e.next.reset()
	for i := range e.curr.state {
		if e.rng.Chance(treeDensity) {
			e.curr.state[i] = Fuel
		}
	}
	for _, fb := range firebreaks {
		width := fb.Width
		if width <= 0 {
			width = e.params.FirebreakWidth
		}
		e.stampLine(fb.Start, fb.End, width, func(i int) {
			e.curr.state[i] = Empty
		})
	}
	e.stepCount = 0
	e.ignitions = nil
	e.spots = nil
	e.schedule = nil
	e.initialized = true
	return nil
}

// Initialized reports whether Initialize (or Restore) has run.
func (e *Engine) Initialized() bool { return e.initialized }

// SetFuelMap attaches a row-major fuel code per cell.
func (e *Engine) SetFuelMap(codes []FuelCode) error {
	if len(codes) != e.grid.Len() {
		return &ConfigError{Field: "fuel_map", Reason: fmt.Sprintf("got %d cells, want %d", len(codes), e.grid.Len())}
	}
	for i, c := range codes {
		if c >= fuelCodeCount {
			r, col := e.grid.Coord(i)
			return &ConfigError{Field: "fuel_map", Reason: fmt.Sprintf("invalid code %d at (%d,%d)", c, r, col)}
		}
	}
	copy(e.fuel, codes)
	return nil
}

// FuelMap exposes the fuel layer. Callers must not modify it.
func (e *Engine) FuelMap() []FuelCode { return e.fuel }

// SetFuelProperties replaces the fuel property table.
func (e *Engine) SetFuelProperties(t FuelTable) { e.fuelTable = t }

// FuelProperties returns the active fuel table.
func (e *Engine) FuelProperties() FuelTable { return e.fuelTable }

// SetFuelMoisture attaches a per-cell fuel moisture fraction (0-1). A nil
// slice detaches the field.
func (e *Engine) SetFuelMoisture(values []float32) error {
	if values == nil {
		e.fuelMoisture = nil
		return nil
	}
	if len(values) != e.grid.Len() {
		return &ConfigError{Field: "fuel_moisture", Reason: fmt.Sprintf("got %d cells, want %d", len(values), e.grid.Len())}
	}
	e.fuelMoisture = make([]float32, len(values))
	for i, v := range values {
		e.fuelMoisture[i] = float32(clip(float64(v), 0, 1))
	}
	return nil
}

// FuelMoisture exposes the moisture field, or nil when none is attached.
func (e *Engine) FuelMoisture() []float32 { return e.fuelMoisture }

// MoistureModel describes how GenerateFuelMoisture derives a moisture field.
type MoistureModel struct {
	Base      map[FuelCode]float64 // per-fuel baseline; missing codes use 0.15
	Variation float64              // std dev of the microclimate factor
	Seasonal  float64              // multiplier, 1 when zero
	Elevation []float64            // optional metres per cell
}

// GenerateFuelMoisture fills the moisture field from the model using the
// engine's random stream. Values are clipped to [0.05, 0.5].
func (e *Engine) GenerateFuelMoisture(m MoistureModel) error {
	if m.Elevation != nil && len(m.Elevation) != e.grid.Len() {
		return &ConfigError{Field: "elevation", Reason: fmt.Sprintf("got %d cells, want %d", len(m.Elevation), e.grid.Len())}
	}
	seasonal := m.Seasonal
	if seasonal == 0 {
		seasonal = 1
	}
	field := make([]float32, e.grid.Len())
	for i := range field {
		base, ok := m.Base[e.fuel[i]]
		if !ok {
			base = 0.15
		}
		elev := 1.0
		if m.Elevation != nil {
			elev = 1 + (m.Elevation[i]-500)/1000*0.1
		}
		micro := 1 + e.rng.NormFloat64()*m.Variation
		field[i] = float32(clip(base*elev*micro*seasonal, 0.05, 0.5))
	}
	e.fuelMoisture = field
	return nil
}

// AttachTerrain installs the terrain spread multiplier.
func (e *Engine) AttachTerrain(fn TerrainFunc) { e.terrain = fn }

// AttachWeather installs the weather snapshot and its effect functions.
// Either function may be nil, in which case its factor is 1.
func (e *Engine) AttachWeather(w WeatherConditions, wind WindFunc, humidity HumidityFunc) {
	e.weather = w
	e.wind = wind
	e.humidity = humidity
	e.hasWx = true
}

// UpdateWeather swaps the weather snapshot between ticks. The effect
// functions stay attached.
func (e *Engine) UpdateWeather(w WeatherConditions) {
	e.weather = w
	e.hasWx = true
}

// Weather returns the current snapshot and whether weather is attached.
func (e *Engine) Weather() (WeatherConditions, bool) { return e.weather, e.hasWx }

// AddIgnitionPoint sets a Fuel cell burning with heat equal to intensity.
// Cells outside the lattice, or not currently Fuel, are skipped and false is
// returned.
func (e *Engine) AddIgnitionPoint(row, col int, intensity float64) bool {
	if !e.initialized || !e.grid.InBounds(row, col) {
		return false
	}
	i := e.grid.Index(row, col)
	if e.curr.state[i] != Fuel || !e.fuel[i].Combustible() {
		return false
	}
	if intensity != intensity || intensity < 0 {
		intensity = 0
	}
	e.curr.ignite(i)
	e.curr.heat[i] = float32(intensity)
	e.ignitions = append(e.ignitions, IgnitionSource{Row: row, Col: col, Intensity: intensity, Tick: e.stepCount})
	return true
}

// IgnitionSources returns the ignition log.
func (e *Engine) IgnitionSources() []IgnitionSource { return e.ignitions }

// StateAt returns the state of one cell.
func (e *Engine) StateAt(row, col int) (CellState, error) {
	if !e.grid.InBounds(row, col) {
		return Empty, fmt.Errorf("(%d,%d): %w", row, col, ErrOutOfBounds)
	}
	return e.curr.state[e.grid.Index(row, col)], nil
}

// BurnTimerAt returns the burn timer of one cell.
func (e *Engine) BurnTimerAt(row, col int) (int, error) {
	if !e.grid.InBounds(row, col) {
		return 0, fmt.Errorf("(%d,%d): %w", row, col, ErrOutOfBounds)
	}
	return int(e.curr.burnTimer[e.grid.Index(row, col)]), nil
}

// States exposes the current state layer. Callers must not modify it.
func (e *Engine) States() []CellState { return e.curr.state }

// Heat exposes the current heat layer. Callers must not modify it.
func (e *Engine) Heat() []float32 { return e.curr.heat }

// IsComplete reports whether no cell is burning.
func (e *Engine) IsComplete() bool {
	for _, s := range e.curr.state {
		if s == Burning {
			return false
		}
	}
	return true
}

func (e *Engine) burnDuration(i int) int {
	if p, ok := e.fuelTable.Lookup(e.fuel[i]); ok {
		return p.BurnDuration
	}
	return e.params.FuelConsumptionTime
}

func (e *Engine) heatOutput(i int) float32 {
	if p, ok := e.fuelTable.Lookup(e.fuel[i]); ok {
		return float32(p.HeatOutput)
	}
	return 1
}

// moistureDamping is the fuel moisture multiplier of cell i.
func (e *Engine) moistureDamping(i int) float64 {
	if e.fuelMoisture == nil {
		return 1
	}
	return clip(1-2*float64(e.fuelMoisture[i]), 0.1, 1)
}

package fire

import (
	"fmt"
	"math"
)

// ScheduledSpec is a pending suppression event in persisted form.
type ScheduledSpec struct {
	Tick  int       `json:"tick"`
	Event EventSpec `json:"event"`
}

// State is the persisted form of an engine. Restoring it with the same
// providers attached reproduces the remainder of the run exactly.
type State struct {
	StepCount       int              `json:"step_count"`
	Grid            [][]int          `json:"grid"`
	HeatMap         [][]float32      `json:"heat_map"`
	BurnTimer       [][]int          `json:"burn_timer"`
	MoistureTimer   [][]int          `json:"moisture_timer"`
	IgnitionSources []IgnitionSource `json:"ignition_sources"`
	Params          Params           `json:"params"`

	Neighborhood   string                      `json:"neighborhood"`
	Seed           uint64                      `json:"seed"`
	RNG            string                      `json:"rng_state"`
	FuelMap        [][]FuelCode                `json:"fuel_map,omitempty"`
	FuelProperties map[FuelCode]FuelProperties `json:"fuel_properties"`
	FuelMoisture   [][]float32                 `json:"fuel_moisture,omitempty"`
	Weather        *WeatherConditions          `json:"weather,omitempty"`
	Schedule       []ScheduledSpec             `json:"schedule,omitempty"`
	SpotEvents     []SpotEvent                 `json:"spot_events,omitempty"`
}

// State captures the engine for persistence.
func (e *Engine) State() (State, error) {
	if !e.initialized {
		return State{}, ErrNotInitialized
	}
	rngText, err := e.rng.MarshalText()
	if err != nil {
		return State{}, fmt.Errorf("fire: capture rng: %w", err)
	}
	st := State{
		StepCount:       e.stepCount,
		Grid:            rowsOf(e, func(i int) int { return int(e.curr.state[i]) }),
		HeatMap:         rowsOf(e, func(i int) float32 { return e.curr.heat[i] }),
		BurnTimer:       rowsOf(e, func(i int) int { return int(e.curr.burnTimer[i]) }),
		MoistureTimer:   rowsOf(e, func(i int) int { return int(e.curr.moistureTimer[i]) }),
		IgnitionSources: append([]IgnitionSource{}, e.ignitions...),
		Params:          e.params,
		Neighborhood:    e.nb.String(),
		Seed:            e.seed,
		RNG:             string(rngText),
		FuelProperties:  e.fuelTable.Entries(),
		SpotEvents:      append([]SpotEvent(nil), e.spots...),
	}
	for _, c := range e.fuel {
		if c != FuelUnassigned {
			st.FuelMap = rowsOf(e, func(i int) FuelCode { return e.fuel[i] })
			break
		}
	}
	if e.fuelMoisture != nil {
		st.FuelMoisture = rowsOf(e, func(i int) float32 { return e.fuelMoisture[i] })
	}
	if e.hasWx {
		w := e.weather
		st.Weather = &w
	}
	for _, s := range e.schedule {
		st.Schedule = append(st.Schedule, ScheduledSpec{Tick: s.tick, Event: SpecOf(s.ev)})
	}
	return st, nil
}

func rowsOf[T any](e *Engine, at func(i int) T) [][]T {
	out := make([][]T, e.grid.Rows)
	for r := range out {
		row := make([]T, e.grid.Cols)
		for c := range row {
			row[c] = at(e.grid.Index(r, c))
		}
		out[r] = row
	}
	return out
}

// Restore rebuilds an engine from a persisted state. Terrain and weather
// effect functions are not persisted and must be attached again; the weather
// snapshot itself is restored.
func Restore(st State) (*Engine, error) {
	rows := len(st.Grid)
	if rows == 0 || len(st.Grid[0]) == 0 {
		return nil, &ConfigError{Field: "grid", Reason: "empty grid"}
	}
	cols := len(st.Grid[0])
	nb, err := ParseNeighborhood(st.Neighborhood)
	if err != nil {
		return nil, err
	}
	e, err := NewWithConfig(Config{Rows: rows, Cols: cols, Neighborhood: nb, Seed: st.Seed, Params: st.Params})
	if err != nil {
		return nil, err
	}
	if st.RNG != "" {
		if err := e.rng.UnmarshalText([]byte(st.RNG)); err != nil {
			return nil, &ConfigError{Field: "rng_state", Reason: err.Error()}
		}
	}

	if err := fillRows(e, "grid", st.Grid, func(i, v int) error {
		if v < 0 || !CellState(v).Valid() {
			return fmt.Errorf("invalid state %d", v)
		}
		e.curr.state[i] = CellState(v)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := fillRows(e, "heat_map", st.HeatMap, func(i int, v float32) error {
		if v < 0 || math.IsNaN(float64(v)) {
			return fmt.Errorf("invalid heat %v", v)
		}
		e.curr.heat[i] = v
		return nil
	}); err != nil {
		return nil, err
	}
	if err := fillRows(e, "burn_timer", st.BurnTimer, func(i, v int) error {
		if v < 0 || v > math.MaxUint16 {
			return fmt.Errorf("invalid timer %d", v)
		}
		if v > 0 && e.curr.state[i] != Burning {
			return fmt.Errorf("burn timer %d on %s cell", v, e.curr.state[i])
		}
		e.curr.burnTimer[i] = uint16(v)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := fillRows(e, "moisture_timer", st.MoistureTimer, func(i, v int) error {
		if v < 0 || v > math.MaxUint16 {
			return fmt.Errorf("invalid timer %d", v)
		}
		if v > 0 && e.curr.state[i] != Wet {
			return fmt.Errorf("moisture timer %d on %s cell", v, e.curr.state[i])
		}
		e.curr.moistureTimer[i] = uint16(v)
		return nil
	}); err != nil {
		return nil, err
	}
	if st.FuelMap != nil {
		if err := fillRows(e, "fuel_map", st.FuelMap, func(i int, v FuelCode) error {
			e.fuel[i] = v
			return nil
		}); err != nil {
			return nil, err
		}
	}
	// A missing key keeps the default table; an empty map means no entries.
	if st.FuelProperties != nil {
		e.fuelTable = FuelTableFromMap(st.FuelProperties)
	}
	if st.FuelMoisture != nil {
		e.fuelMoisture = make([]float32, e.grid.Len())
		if err := fillRows(e, "fuel_moisture", st.FuelMoisture, func(i int, v float32) error {
			e.fuelMoisture[i] = v
			return nil
		}); err != nil {
			return nil, err
		}
	}
	if st.Weather != nil {
		e.UpdateWeather(*st.Weather)
	}
	for _, s := range st.Schedule {
		ev, err := s.Event.Event()
		if err != nil {
			return nil, err
		}
		e.schedule = append(e.schedule, scheduledEvent{tick: s.Tick, ev: ev})
	}
	e.stepCount = st.StepCount
	e.ignitions = append([]IgnitionSource(nil), st.IgnitionSources...)
	e.spots = append([]SpotEvent(nil), st.SpotEvents...)
	e.initialized = true
	return e, nil
}

func fillRows[T any](e *Engine, field string, rows [][]T, set func(i int, v T) error) error {
	if len(rows) != e.grid.Rows {
		return &ConfigError{Field: field, Reason: fmt.Sprintf("got %d rows, want %d", len(rows), e.grid.Rows)}
	}
	for r, row := range rows {
		if len(row) != e.grid.Cols {
			return &ConfigError{Field: field, Reason: fmt.Sprintf("row %d has %d cells, want %d", r, len(row), e.grid.Cols)}
		}
		for c, v := range row {
			if err := set(e.grid.Index(r, c), v); err != nil {
				return &ConfigError{Field: field, Reason: fmt.Sprintf("(%d,%d): %v", r, c, err)}
			}
		}
	}
	return nil
}

package fire

import (
	"errors"
	"fmt"
	"strconv"

	"wildfire-ca/internal/core"
)

func init() {
	core.Register("wildfire", func(cfg map[string]string) core.Sim {
		return NewWorld(FromMap(cfg), SetupFromMap(cfg))
	})
}

// Setup describes how an interactive World seeds each reset.
type Setup struct {
	TreeDensity float64
	Firebreaks  []Firebreak
	Ignitions   []Cell
	Intensity   float64
	Weather     *WeatherConditions
}

// DefaultSetup ignites the lattice centre of a 70% forest.
func DefaultSetup() Setup {
	return Setup{TreeDensity: 0.7, Intensity: 1}
}

// SetupFromMap reads "tree_density", "wind_speed", "wind_direction" and
// "humidity" overrides.
func SetupFromMap(cfg map[string]string) Setup {
	s := DefaultSetup()
	if v, ok := cfg["tree_density"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			s.TreeDensity = parsed
		}
	}
	wx := DefaultWeather()
	touched := false
	if v, ok := cfg["wind_speed"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			wx.WindSpeed = parsed
			touched = true
		}
	}
	if v, ok := cfg["wind_direction"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			wx.WindDirection = parsed
			touched = true
		}
	}
	if v, ok := cfg["humidity"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			wx.RelativeHumidity = parsed
			touched = true
		}
	}
	if touched {
		s.Weather = &wx
	}
	return s
}

// Drive is one engine handed to a World by its Driver, with the function
// that advances it and an optional elevation field for overlays.
type Drive struct {
	Engine    *Engine
	Step      func() (StepStats, error)
	Elevation []float64
}

// Driver builds a fresh Drive for a seed.
type Driver func(seed uint64) (Drive, error)

// WorldOption configures a World at construction, before the first Reset.
type WorldOption func(*World)

// WithWeatherEffects sets the builder of effect functions for the setup's
// weather snapshot. Without it, weather only drives spotting and behavior
// metrics.
func WithWeatherEffects(fn func(WeatherConditions) (WindFunc, HumidityFunc)) WorldOption {
	return func(w *World) { w.weatherFx = fn }
}

// World adapts an Engine to the core.Sim contract used by the viewers.
type World struct {
	cfg       Config
	setup     Setup
	driver    Driver
	weatherFx func(WeatherConditions) (WindFunc, HumidityFunc)

	eng       *Engine
	step      func() (StepStats, error)
	elevation []float64
	display   []uint8
	last      StepStats
	err       error
}

// NewWorld returns a World; the engine is built on Reset.
func NewWorld(cfg Config, setup Setup, opts ...WorldOption) *World {
	return newWorld(cfg, setup, nil, opts)
}

// NewDrivenWorld returns a World whose engines come from d. cfg supplies the
// lattice shape and the default seed.
func NewDrivenWorld(cfg Config, d Driver, opts ...WorldOption) *World {
	return newWorld(cfg, DefaultSetup(), d, opts)
}

func newWorld(cfg Config, setup Setup, d Driver, opts []WorldOption) *World {
	if cfg.Rows <= 0 {
		cfg.Rows = 1
	}
	if cfg.Cols <= 0 {
		cfg.Cols = 1
	}
	w := &World{cfg: cfg, setup: setup, driver: d, display: make([]uint8, cfg.Rows*cfg.Cols)}
	for _, opt := range opts {
		opt(w)
	}
	w.Reset(0)
	return w
}

// Name returns the simulation identifier.
func (w *World) Name() string { return "wildfire" }

// Size reports the grid dimensions.
func (w *World) Size() core.Size { return core.Size{W: w.cfg.Cols, H: w.cfg.Rows} }

// Cells exposes the current display buffer.
func (w *World) Cells() []uint8 { return w.display }

// Engine exposes the underlying engine.
func (w *World) Engine() *Engine { return w.eng }

// Stats returns the statistics of the last tick.
func (w *World) Stats() StepStats { return w.last }

// Err reports why the last Reset fell back to a default engine, or nil.
func (w *World) Err() error { return w.err }

// Reset rebuilds the engine. A zero seed reuses the configured one. When the
// driver or the setup fails, the world falls back to a default engine and
// the cause is kept for Err.
func (w *World) Reset(seed int64) {
	cfg := w.cfg
	if seed != 0 {
		cfg.Seed = uint64(seed)
	}
	w.err = nil
	if w.driver != nil {
		d, err := w.driver(cfg.Seed)
		switch {
		case err != nil:
			w.err = fmt.Errorf("fire: driver: %w", err)
		case d.Engine == nil || d.Engine.Lattice().Len() != len(w.display):
			w.err = &ConfigError{Field: "driver", Reason: "engine does not match the world lattice"}
		default:
			w.eng, w.step, w.elevation = d.Engine, d.Step, d.Elevation
			w.last = w.eng.Stats()
			w.refreshDisplay()
			return
		}
	}
	w.step, w.elevation = nil, nil
	eng, err := NewWithConfig(cfg)
	if err != nil {
		w.err = errors.Join(w.err, err)
		cfg.Params = DefaultParams()
		if eng, err = NewWithConfig(cfg); err != nil {
			w.err = errors.Join(w.err, err)
			return
		}
	}
	w.eng = eng
	if err := eng.Initialize(w.setup.TreeDensity, w.setup.Firebreaks); err != nil {
		w.err = errors.Join(w.err, err)
		if err := eng.Initialize(DefaultSetup().TreeDensity, nil); err != nil {
			w.err = errors.Join(w.err, err)
		}
	}
	if w.setup.Weather != nil {
		var wind WindFunc
		var hum HumidityFunc
		if w.weatherFx != nil {
			wind, hum = w.weatherFx(*w.setup.Weather)
		}
		eng.AttachWeather(*w.setup.Weather, wind, hum)
	}
	ignitions := w.setup.Ignitions
	if len(ignitions) == 0 {
		ignitions = []Cell{{Row: cfg.Rows / 2, Col: cfg.Cols / 2}}
	}
	for _, c := range ignitions {
		eng.AddIgnitionPoint(c.Row, c.Col, w.setup.Intensity)
	}
	w.last = eng.Stats()
	w.refreshDisplay()
}

// Step advances one tick. Without a driver the world stays still once the
// fire is out.
func (w *World) Step() {
	step := w.step
	if step == nil {
		if w.eng.IsComplete() {
			return
		}
		step = w.eng.Step
	}
	st, err := step()
	if err != nil {
		return
	}
	w.last = st
	w.refreshDisplay()
}

// Package scenario loads YAML run descriptions and assembles a ready engine
// with its terrain, weather and schedules.
package scenario

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"wildfire-ca/internal/runner"
	"wildfire-ca/internal/sims/fire"
	"wildfire-ca/internal/terrain"
	"wildfire-ca/internal/weather"
	pcore "wildfire-ca/pkg/core"
)

// Scenario is one complete run description.
type Scenario struct {
	Name         string             `yaml:"name"`
	Rows         int                `yaml:"rows"`
	Cols         int                `yaml:"cols"`
	Neighborhood string             `yaml:"neighborhood"`
	Seed         uint64             `yaml:"seed"`
	TreeDensity  float64            `yaml:"tree_density"`
	Params       map[string]float64 `yaml:"params,omitempty"`
	MaxSteps     int                `yaml:"max_steps"`

	Fuel     *FuelSpec     `yaml:"fuel,omitempty"`
	Moisture *MoistureSpec `yaml:"moisture,omitempty"`
	Terrain  *TerrainSpec  `yaml:"terrain,omitempty"`

	Weather        *fire.WeatherConditions `yaml:"weather,omitempty"`
	WeatherUpdates weather.Timeline        `yaml:"weather_updates,omitempty"`
	Risk           *RiskSpec               `yaml:"risk,omitempty"`

	Firebreaks  []fire.Firebreak  `yaml:"firebreaks,omitempty"`
	Ignitions   []runner.Ignition `yaml:"ignitions,omitempty"`
	Suppression []Suppression     `yaml:"suppression,omitempty"`
}

// FuelSpec assigns fuel codes. Rows wins over Weights, which wins over
// Uniform.
type FuelSpec struct {
	Uniform    string                         `yaml:"uniform,omitempty"`
	Weights    map[string]float64             `yaml:"weights,omitempty"`
	Rows       []string                       `yaml:"rows,omitempty"`
	Properties map[string]fire.FuelProperties `yaml:"properties,omitempty"`
}

// MoistureSpec generates a fuel moisture field.
type MoistureSpec struct {
	Base         map[string]float64 `yaml:"base,omitempty"`
	Variation    float64            `yaml:"variation"`
	Seasonal     float64            `yaml:"seasonal"`
	UseElevation bool               `yaml:"use_elevation"`
}

// TerrainSpec selects a DEM. DEM names an ESRI ASCII grid; otherwise a
// synthetic landscape is generated.
type TerrainSpec struct {
	DEM  string `yaml:"dem,omitempty"`
	Seed uint64 `yaml:"seed,omitempty"`
}

// RiskSpec enables risk-scaled spread probability.
type RiskSpec struct {
	Start time.Time     `yaml:"start"`
	Tick  time.Duration `yaml:"tick"`
}

// Suppression is a suppression event scheduled for a tick.
type Suppression struct {
	Tick  int            `yaml:"tick"`
	Event fire.EventSpec `yaml:"event"`
}

// Default returns the scenario used when no file is given: a 70% forest
// ignited at its centre.
func Default() Scenario {
	cfg := fire.DefaultConfig()
	return Scenario{
		Name:         "default",
		Rows:         cfg.Rows,
		Cols:         cfg.Cols,
		Neighborhood: cfg.Neighborhood.String(),
		Seed:         cfg.Seed,
		TreeDensity:  0.7,
		MaxSteps:     200,
		Ignitions:    []runner.Ignition{{Row: cfg.Rows / 2, Col: cfg.Cols / 2, Intensity: 1}},
	}
}

// Load reads a scenario file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Scenario, error) {
	s := Default()
	if strings.TrimSpace(path) == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	s, err = Parse(b)
	if err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	if s.Terrain != nil && s.Terrain.DEM != "" && !filepath.IsAbs(s.Terrain.DEM) {
		s.Terrain.DEM = filepath.Join(filepath.Dir(path), s.Terrain.DEM)
	}
	return s, nil
}

// Parse decodes YAML over the defaults and validates the result. Ignitions
// given in the document replace the default centre ignition.
func Parse(b []byte) (Scenario, error) {
	s := Default()
	s.Ignitions = nil
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, err
	}
	if len(s.Ignitions) == 0 {
		s.Ignitions = []runner.Ignition{{Row: s.Rows / 2, Col: s.Cols / 2, Intensity: 1}}
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks everything that can be checked without building.
func (s Scenario) Validate() error {
	if _, err := s.Config(); err != nil {
		return err
	}
	if s.TreeDensity < 0 || s.TreeDensity > 1 {
		return &fire.ConfigError{Field: "tree_density", Reason: fmt.Sprintf("%v outside [0,1]", s.TreeDensity)}
	}
	for i, sup := range s.Suppression {
		if _, err := sup.Event.Event(); err != nil {
			return fmt.Errorf("suppression[%d]: %w", i, err)
		}
	}
	return nil
}

// Config derives the engine configuration.
func (s Scenario) Config() (fire.Config, error) {
	cfg := fire.DefaultConfig()
	cfg.Rows, cfg.Cols, cfg.Seed = s.Rows, s.Cols, s.Seed
	nb, err := fire.ParseNeighborhood(s.Neighborhood)
	if err != nil {
		return cfg, err
	}
	cfg.Neighborhood = nb
	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := cfg.Params.Set(k, s.Params[k]); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

// Built is an assembled scenario.
type Built struct {
	Engine  *fire.Engine
	Terrain *terrain.Model
	Weather *weather.Provider
	Runner  *runner.Runner
}

// Build constructs the engine and its runner. Extra runner options (logger,
// observers) are appended after the scenario's own.
func (s Scenario) Build(opts ...runner.Option) (*Built, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	eng, err := fire.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	b := &Built{Engine: eng}

	if s.Terrain != nil {
		if b.Terrain, err = s.Terrain.model(cfg.Rows, cfg.Cols, cfg.Seed); err != nil {
			return nil, err
		}
	}
	if s.Fuel != nil {
		if err := s.Fuel.apply(eng, cfg.Seed); err != nil {
			return nil, err
		}
	}
	if err := eng.Initialize(s.TreeDensity, s.Firebreaks); err != nil {
		return nil, err
	}
	if s.Moisture != nil {
		if err := s.Moisture.apply(eng, b.Terrain); err != nil {
			return nil, err
		}
	}

	var ropts []runner.Option
	if s.Weather != nil {
		b.Weather = weather.NewProvider(*s.Weather)
		ropts = append(ropts, runner.WithWeather(b.Weather, s.WeatherUpdates))
		if s.Risk != nil {
			tick := s.Risk.Tick
			if tick <= 0 {
				tick = time.Minute
			}
			ropts = append(ropts, runner.WithRiskAdjustment(s.Risk.Start, tick))
		}
	}
	if b.Terrain != nil {
		var dir func() float64
		if b.Weather != nil {
			dir = b.Weather.WindDirection
		}
		eng.AttachTerrain(b.Terrain.Func(dir))
	}
	for _, sup := range s.Suppression {
		ev, err := sup.Event.Event()
		if err != nil {
			return nil, err
		}
		eng.ScheduleSuppression(sup.Tick, ev)
	}
	ropts = append(ropts, runner.WithIgnitions(s.Ignitions))
	b.Runner = runner.New(eng, append(ropts, opts...)...)
	return b, nil
}

func (t *TerrainSpec) model(rows, cols int, seed uint64) (*terrain.Model, error) {
	if t.DEM == "" {
		ts := t.Seed
		if ts == 0 {
			ts = seed
		}
		return terrain.Synthetic(rows, cols, ts)
	}
	m, err := terrain.LoadASCIIGrid(t.DEM)
	if err != nil {
		return nil, err
	}
	if l := m.Lattice(); l.Rows != rows || l.Cols != cols {
		return nil, &fire.ConfigError{Field: "terrain.dem", Reason: fmt.Sprintf("DEM is %dx%d, lattice is %dx%d", l.Rows, l.Cols, rows, cols)}
	}
	return m, nil
}

func (f *FuelSpec) apply(eng *fire.Engine, seed uint64) error {
	if len(f.Properties) > 0 {
		table := eng.FuelProperties()
		for name, p := range f.Properties {
			code, err := fire.ParseFuelCode(name)
			if err != nil {
				return err
			}
			table.Set(code, p)
		}
		eng.SetFuelProperties(table)
	}
	lat := eng.Lattice()
	switch {
	case len(f.Rows) > 0:
		rows := make([][]string, len(f.Rows))
		for i, line := range f.Rows {
			rows[i] = strings.Fields(line)
		}
		if len(rows) != lat.Rows {
			return &fire.ConfigError{Field: "fuel.rows", Reason: fmt.Sprintf("got %d rows, want %d", len(rows), lat.Rows)}
		}
		for i, row := range rows {
			if len(row) != lat.Cols {
				return &fire.ConfigError{Field: "fuel.rows", Reason: fmt.Sprintf("row %d has %d cells, want %d", i, len(row), lat.Cols)}
			}
		}
		codes, err := fire.ParseFuelMap(rows)
		if err != nil {
			return err
		}
		return eng.SetFuelMap(codes)
	case len(f.Weights) > 0:
		codes, err := weightedFuel(f.Weights, lat.Len(), seed)
		if err != nil {
			return err
		}
		return eng.SetFuelMap(codes)
	case f.Uniform != "":
		code, err := fire.ParseFuelCode(f.Uniform)
		if err != nil {
			return err
		}
		codes := make([]fire.FuelCode, lat.Len())
		for i := range codes {
			codes[i] = code
		}
		return eng.SetFuelMap(codes)
	}
	return nil
}

// weightedFuel samples codes from their relative weights using a stream
// separate from the engine's.
func weightedFuel(weights map[string]float64, n int, seed uint64) ([]fire.FuelCode, error) {
	names := make([]string, 0, len(weights))
	for k := range weights {
		names = append(names, k)
	}
	sort.Strings(names)
	codes := make([]fire.FuelCode, len(names))
	cum := make([]float64, len(names))
	total := 0.0
	for i, name := range names {
		code, err := fire.ParseFuelCode(name)
		if err != nil {
			return nil, err
		}
		w := weights[name]
		if w < 0 {
			return nil, &fire.ConfigError{Field: "fuel.weights", Reason: fmt.Sprintf("%s has negative weight", name)}
		}
		total += w
		codes[i], cum[i] = code, total
	}
	if total <= 0 {
		return nil, &fire.ConfigError{Field: "fuel.weights", Reason: "weights sum to zero"}
	}
	rng := pcore.NewRNG(seed ^ 0x9e3779b97f4a7c15)
	out := make([]fire.FuelCode, n)
	for i := range out {
		x := rng.Float64() * total
		k := sort.SearchFloat64s(cum, x)
		if k >= len(codes) || cum[k] == x {
			k = min(k+1, len(codes)-1)
		}
		out[i] = codes[k]
	}
	return out, nil
}

func (m *MoistureSpec) apply(eng *fire.Engine, t *terrain.Model) error {
	model := fire.MoistureModel{Variation: m.Variation, Seasonal: m.Seasonal}
	if len(m.Base) > 0 {
		model.Base = make(map[fire.FuelCode]float64, len(m.Base))
		for name, v := range m.Base {
			code, err := fire.ParseFuelCode(name)
			if err != nil {
				return err
			}
			model.Base[code] = v
		}
	}
	if m.UseElevation && t != nil {
		lat := t.Lattice()
		model.Elevation = make([]float64, lat.Len())
		for i := range model.Elevation {
			r, c := lat.Coord(i)
			model.Elevation[i] = t.Elevation(fire.Cell{Row: r, Col: c})
		}
	}
	return eng.GenerateFuelMoisture(model)
}

// Override applies a "key=value" parameter override, as given on the
// command line. The Params map is copied so other scenario values sharing it
// are unaffected.
func (s *Scenario) Override(kv string) error {
	key, raw, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("override %q: want key=value", kv)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("override %q: %w", kv, err)
	}
	params := maps.Clone(s.Params)
	if params == nil {
		params = map[string]float64{}
	}
	params[key] = v
	next := *s
	next.Params = params
	if _, err := next.Config(); err != nil {
		return err
	}
	*s = next
	return nil
}

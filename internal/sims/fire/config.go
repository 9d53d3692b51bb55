package fire

import (
	"fmt"
	"sort"
	"strconv"
)

// Params holds the tunable probabilities and timings of the automaton.
type Params struct {
	BaseSpreadProb       float64 `json:"base_spread_prob" yaml:"base_spread_prob"`
	IgnitionProb         float64 `json:"ignition_prob" yaml:"ignition_prob"`
	ExtinguishProb       float64 `json:"extinguish_prob" yaml:"extinguish_prob"`
	FuelConsumptionTime  int     `json:"fuel_consumption_time" yaml:"fuel_consumption_time"`
	MoistureRecoveryTime int     `json:"moisture_recovery_time" yaml:"moisture_recovery_time"`
	FirebreakWidth       int     `json:"firebreak_width" yaml:"firebreak_width"`
	MaxSpotDistance      float64 `json:"max_spot_distance" yaml:"max_spot_distance"` // metres

	CellSize          float64 `json:"cell_size" yaml:"cell_size"`                     // metres per cell
	SpotWindThreshold float64 `json:"spot_wind_threshold" yaml:"spot_wind_threshold"` // m/s
	HeatCooling       float64 `json:"heat_cooling" yaml:"heat_cooling"`
}

// DefaultParams returns the standard parameter set.
func DefaultParams() Params {
	return Params{
		BaseSpreadProb:       0.15,
		IgnitionProb:         0.001,
		ExtinguishProb:       0.05,
		FuelConsumptionTime:  3,
		MoistureRecoveryTime: 10,
		FirebreakWidth:       2,
		MaxSpotDistance:      1000,
		CellSize:             30,
		SpotWindThreshold:    5,
		HeatCooling:          0.9,
	}
}

// Config controls the dimensions and randomness of one engine.
type Config struct {
	Rows         int
	Cols         int
	Neighborhood Neighborhood
	Seed         uint64

	Params Params
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Rows:         128,
		Cols:         128,
		Neighborhood: Moore,
		Seed:         1337,
		Params:       DefaultParams(),
	}
}

// Validate checks shape and parameter ranges.
func (c Config) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return &ConfigError{Field: "grid", Reason: fmt.Sprintf("shape %dx%d must be positive", c.Rows, c.Cols)}
	}
	if c.Neighborhood != Moore && c.Neighborhood != VonNeumann {
		return &ConfigError{Field: "neighborhood", Reason: "unknown neighborhood"}
	}
	return c.Params.Validate()
}

// Validate rejects values no formula can use.
func (p Params) Validate() error {
	probs := []struct {
		key string
		v   float64
	}{
		{"base_spread_prob", p.BaseSpreadProb},
		{"ignition_prob", p.IgnitionProb},
		{"extinguish_prob", p.ExtinguishProb},
	}
	for _, pr := range probs {
		if pr.v < 0 || pr.v > 1 || pr.v != pr.v {
			return &ConfigError{Field: pr.key, Reason: fmt.Sprintf("%v outside [0,1]", pr.v)}
		}
	}
	switch {
	case p.FuelConsumptionTime < 0 || p.FuelConsumptionTime > 0xffff:
		return &ConfigError{Field: "fuel_consumption_time", Reason: "must be in [0,65535]"}
	case p.MoistureRecoveryTime < 0 || p.MoistureRecoveryTime > 0xffff:
		return &ConfigError{Field: "moisture_recovery_time", Reason: "must be in [0,65535]"}
	case p.FirebreakWidth < 0:
		return &ConfigError{Field: "firebreak_width", Reason: "must not be negative"}
	case p.MaxSpotDistance < 0:
		return &ConfigError{Field: "max_spot_distance", Reason: "must not be negative"}
	case p.CellSize <= 0:
		return &ConfigError{Field: "cell_size", Reason: "must be positive"}
	case p.HeatCooling < 0 || p.HeatCooling > 1:
		return &ConfigError{Field: "heat_cooling", Reason: "must be in [0,1]"}
	}
	return nil
}

type paramField struct {
	isInt bool
	get   func(p *Params) float64
	set   func(p *Params, v float64)
}

var paramFields = map[string]paramField{
	"base_spread_prob": {get: func(p *Params) float64 { return p.BaseSpreadProb }, set: func(p *Params, v float64) { p.BaseSpreadProb = v }},
	"ignition_prob":    {get: func(p *Params) float64 { return p.IgnitionProb }, set: func(p *Params, v float64) { p.IgnitionProb = v }},
	"extinguish_prob":  {get: func(p *Params) float64 { return p.ExtinguishProb }, set: func(p *Params, v float64) { p.ExtinguishProb = v }},
	"fuel_consumption_time": {isInt: true,
		get: func(p *Params) float64 { return float64(p.FuelConsumptionTime) }, set: func(p *Params, v float64) { p.FuelConsumptionTime = int(v) }},
	"moisture_recovery_time": {isInt: true,
		get: func(p *Params) float64 { return float64(p.MoistureRecoveryTime) }, set: func(p *Params, v float64) { p.MoistureRecoveryTime = int(v) }},
	"firebreak_width": {isInt: true,
		get: func(p *Params) float64 { return float64(p.FirebreakWidth) }, set: func(p *Params, v float64) { p.FirebreakWidth = int(v) }},
	"max_spot_distance":   {get: func(p *Params) float64 { return p.MaxSpotDistance }, set: func(p *Params, v float64) { p.MaxSpotDistance = v }},
	"cell_size":           {get: func(p *Params) float64 { return p.CellSize }, set: func(p *Params, v float64) { p.CellSize = v }},
	"spot_wind_threshold": {get: func(p *Params) float64 { return p.SpotWindThreshold }, set: func(p *Params, v float64) { p.SpotWindThreshold = v }},
	"heat_cooling":        {get: func(p *Params) float64 { return p.HeatCooling }, set: func(p *Params, v float64) { p.HeatCooling = v }},
}

// ParamKeys lists the recognised parameter keys in sorted order.
func ParamKeys() []string {
	keys := make([]string, 0, len(paramFields))
	for k := range paramFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns a parameter by key. Integer parameters truncate v.
func (p *Params) Set(key string, v float64) error {
	f, ok := paramFields[key]
	if !ok {
		return unknownParam(key)
	}
	f.set(p, v)
	return nil
}

// Get reads a parameter by key.
func (p *Params) Get(key string) (float64, error) {
	f, ok := paramFields[key]
	if !ok {
		return 0, unknownParam(key)
	}
	return f.get(p), nil
}

func unknownParam(key string) error {
	reason := fmt.Sprintf("unknown parameter %q", key)
	if best := closestName(key, ParamKeys()); best != "" {
		reason += fmt.Sprintf(" (did you mean %s?)", best)
	}
	return &ConfigError{Field: "params", Reason: reason}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Unparseable values are ignored and leave the default in place.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Cols = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Rows = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["neighborhood"]; ok {
		if nb, err := ParseNeighborhood(v); err == nil {
			c.Neighborhood = nb
		}
	}
	for key, f := range paramFields {
		v, ok := cfg[key]
		if !ok {
			continue
		}
		if f.isInt {
			if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
				f.set(&c.Params, float64(parsed))
			}
			continue
		}
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			f.set(&c.Params, parsed)
		}
	}
	return c
}

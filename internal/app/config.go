package app

import (
	"flag"
	"fmt"
)

// Config holds the viewer's command-line options.
type Config struct {
	Sim      string
	Scenario string
	Scale    int
	TPS      int
	Seed     int64
	HUDWidth int
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{Scale: 5, TPS: 8, HUDWidth: 240}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "registered simulation to run with its defaults instead of a scenario")
	fs.StringVar(&c.Scenario, "scenario", c.Scenario, "scenario YAML file (empty for the built-in default)")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixels per cell")
	fs.IntVar(&c.TPS, "tps", c.TPS, "simulation ticks per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "override the scenario seed (0 keeps it)")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "side panel width in pixels (0 hides it)")
}

// Validate rejects unusable values.
func (c *Config) Validate() error {
	switch {
	case c.Scale < 1:
		return fmt.Errorf("scale must be at least 1, got %d", c.Scale)
	case c.TPS < 1:
		return fmt.Errorf("tps must be at least 1, got %d", c.TPS)
	case c.HUDWidth < 0:
		return fmt.Errorf("hud width must not be negative, got %d", c.HUDWidth)
	}
	return nil
}

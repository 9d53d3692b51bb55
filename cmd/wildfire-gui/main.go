//go:build ebiten

package main

import (
	"errors"
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"

	"wildfire-ca/internal/app"
	"wildfire-ca/internal/core"
	"wildfire-ca/internal/runner"
	"wildfire-ca/internal/scenario"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "wildfire-gui"})
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid flags", "err", err)
	}
	sim, title := buildSim(cfg, logger)
	game := app.New(sim, cfg)
	size := sim.Size()

	ebiten.SetWindowTitle("wildfire - " + title)
	ebiten.SetWindowSize(size.W*cfg.Scale+cfg.HUDWidth, size.H*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal("gui", "err", err)
	}
}

// buildSim picks a registered simulation when -sim is given, otherwise the
// scenario file.
func buildSim(cfg *app.Config, logger *log.Logger) (core.Sim, string) {
	if cfg.Sim != "" {
		factory, err := core.Lookup(cfg.Sim)
		if err != nil {
			logger.Fatal("sim", "err", err)
		}
		sim := factory(nil)
		sim.Reset(cfg.Seed)
		return sim, sim.Name()
	}
	sc, err := scenario.Load(cfg.Scenario)
	if err != nil {
		logger.Fatal("loading scenario", "err", err)
	}
	if cfg.Seed != 0 {
		sc.Seed = uint64(cfg.Seed)
	}
	world, err := sc.World(runner.WithLogger(logger))
	if err != nil {
		logger.Fatal("building scenario", "err", err)
	}
	return world, sc.Name
}

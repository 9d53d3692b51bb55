// Command wildfire-tui watches a scenario burn in the terminal.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"wildfire-ca/internal/runner"
	"wildfire-ca/internal/scenario"
	"wildfire-ca/internal/tui"
)

func main() {
	path := flag.String("scenario", "", "scenario YAML file (empty for the built-in default)")
	tps := flag.Int("tps", 8, "simulation ticks per second")
	seed := flag.Uint64("seed", 0, "override the scenario seed (0 keeps it)")
	logPath := flag.String("log", "", "write logs to this file (the terminal is taken by the viewer)")
	flag.Parse()

	var sink io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatal("opening log", "err", err)
		}
		defer f.Close()
		sink = f
	}
	logger := log.NewWithOptions(sink, log.Options{ReportTimestamp: true, Prefix: "wildfire-tui"})

	sc, err := scenario.Load(*path)
	if err != nil {
		log.Fatal("loading scenario", "err", err)
	}
	if *seed != 0 {
		sc.Seed = *seed
	}
	world, err := sc.World(runner.WithLogger(logger))
	if err != nil {
		log.Fatal("building scenario", "err", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal("terminal", "err", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal("terminal", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = tui.New(screen, world, *tps, logger).Run(ctx)
	stop()
	screen.Fini()
	if err != nil {
		log.Fatal("viewer", "err", err)
	}
}

// Command wildfire runs a scenario headless, optionally recording it and
// streaming it to websocket clients.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"wildfire-ca/internal/persistence/runindex"
	"wildfire-ca/internal/persistence/snapshot"
	"wildfire-ca/internal/persistence/steplog"
	"wildfire-ca/internal/render"
	"wildfire-ca/internal/runner"
	"wildfire-ca/internal/scenario"
	"wildfire-ca/internal/sims/fire"
	"wildfire-ca/internal/stream"
)

type kvList []string

func (l *kvList) String() string { return strings.Join(*l, ",") }

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

type options struct {
	scenario   string
	resume     string
	steps      int
	seed       uint64
	overrides  kvList
	out        string
	logDir     string
	index      string
	serve      string
	grid       bool
	linger     time.Duration
	frames     string
	frameEvery int
	frameScale int
	logLevel   string
}

func main() {
	var o options
	flag.StringVar(&o.scenario, "scenario", "", "scenario YAML file (empty for the built-in default)")
	flag.StringVar(&o.resume, "resume", "", "continue from a snapshot instead of building the scenario")
	flag.IntVar(&o.steps, "steps", 0, "ticks to run (0 uses the scenario's max_steps; negative runs until the fire is out)")
	flag.Uint64Var(&o.seed, "seed", 0, "override the scenario seed (0 keeps it)")
	flag.Var(&o.overrides, "set", "parameter override in key=value form (repeatable)")
	flag.StringVar(&o.out, "out", "", "write a snapshot here when the run ends (.zst compresses)")
	flag.StringVar(&o.logDir, "log-dir", "", "directory for the compressed per-tick log")
	flag.StringVar(&o.index, "index", "", "SQLite run index to record into")
	flag.StringVar(&o.serve, "serve", "", "address for the live HTTP/websocket feed, e.g. :8080")
	flag.BoolVar(&o.grid, "grid", false, "include the full lattice in streamed frames")
	flag.DurationVar(&o.linger, "linger", 0, "keep serving this long after the run ends")
	flag.StringVar(&o.frames, "frames", "", "directory for PNG frames")
	flag.IntVar(&o.frameEvery, "frame-every", 1, "write every nth frame")
	flag.IntVar(&o.frameScale, "frame-scale", 4, "pixels per cell in PNG frames")
	flag.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, TimeFormat: time.Kitchen, Prefix: "wildfire"})
	if lvl, err := log.ParseLevel(o.logLevel); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warn("unknown log level, using info", "level", o.logLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("stopped by signal")
			os.Exit(130)
		}
		logger.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, logger *log.Logger) error {
	sc, err := scenario.Load(o.scenario)
	if err != nil {
		return err
	}
	if o.seed != 0 {
		sc.Seed = o.seed
	}
	for _, kv := range o.overrides {
		if err := sc.Override(kv); err != nil {
			return err
		}
	}
	steps := o.steps
	if steps == 0 {
		steps = sc.MaxSteps
	}

	var ropts []runner.Option
	ropts = append(ropts, runner.WithLogger(logger), runner.WithStopWhenComplete())

	runID := steplog.NewRunID()
	if o.logDir != "" {
		w, err := steplog.Create(o.logDir, runID)
		if err != nil {
			return err
		}
		defer w.Close()
		ropts = append(ropts, runner.WithObserver(w))
		logger.Info("recording ticks", "path", w.Path())
	}

	var ix *runindex.Index
	if o.index != "" {
		if ix, err = runindex.Open(o.index); err != nil {
			return err
		}
		defer func() {
			ix.Close()
			if n := ix.Dropped(); n > 0 {
				logger.Warn("run index dropped tick rows", "rows", n)
			}
		}()
		ropts = append(ropts, runner.WithObserver(ix.Observer(runID)))
	}

	r, eng, err := assemble(sc, o.resume, ropts)
	if err != nil {
		return err
	}

	if o.frames != "" {
		l := eng.Lattice()
		fw := &render.FrameWriter{Dir: o.frames, W: l.Cols, H: l.Rows, Scale: o.frameScale, Palette: fire.Palette(), Every: o.frameEvery}
		var display []uint8
		r.AddObserver(runner.ObserverFunc(func(tick int, _ fire.StepStats, _ []fire.SpotEvent) error {
			display = eng.Display(display)
			return fw.Write(tick, display)
		}))
	}

	var srv *http.Server
	if o.serve != "" {
		hub := stream.NewHub(eng, logger, o.grid)
		defer hub.Close()
		r.AddObserver(hub)
		srv = &http.Server{Addr: o.serve, Handler: hub.Router(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("feed server stopped", "err", err)
			}
		}()
		logger.Info("serving live feed", "addr", o.serve)
	}

	if ix != nil {
		l := eng.Lattice()
		rec := runindex.Run{ID: runID, Scenario: sc.Name, Seed: sc.Seed, Rows: l.Rows, Cols: l.Cols, StartedAt: time.Now()}
		if o.logDir != "" {
			rec.LogPath = o.logDir
		}
		if err := ix.BeginRun(ctx, rec); err != nil {
			return err
		}
	}

	sum, runErr := r.Run(ctx, steps)
	logger.Info("summary", "run", runID, "steps", sum.Steps, "burned", sum.Final.Burned,
		"burn_ratio", fmt.Sprintf("%.3f", sum.Final.BurnRatio), "peak_burning", sum.PeakBurning,
		"peak_tick", sum.PeakTick, "spot_events", sum.SpotEvents, "completed", sum.Completed,
		"wall", sum.WallDuration.Round(time.Millisecond))

	if ix != nil {
		if err := ix.FinishRun(context.Background(), runID, sum); err != nil {
			logger.Error("finishing run index entry", "err", err)
		}
	}
	if o.out != "" {
		if err := snapshot.Save(o.out, eng); err != nil {
			return err
		}
		logger.Info("snapshot written", "path", o.out)
	}
	if srv != nil {
		if runErr == nil && o.linger > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.linger):
			}
		}
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}
	return runErr
}

// assemble builds the scenario, or restores a snapshot when resume is set.
// A resumed engine keeps its own schedule but not the scenario's weather
// timeline or ignitions.
func assemble(sc scenario.Scenario, resume string, ropts []runner.Option) (*runner.Runner, *fire.Engine, error) {
	if resume != "" {
		eng, err := snapshot.Load(resume)
		if err != nil {
			return nil, nil, err
		}
		return runner.New(eng, ropts...), eng, nil
	}
	b, err := sc.Build(ropts...)
	if err != nil {
		return nil, nil, err
	}
	return b.Runner, b.Engine, nil
}

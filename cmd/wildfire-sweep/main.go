// Command wildfire-sweep evaluates a scenario over a grid or random sample
// of parameter values and ranks the outcomes by burned fraction.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"wildfire-ca/internal/batch"
	"wildfire-ca/internal/scenario"
)

type kvList []string

func (l *kvList) String() string { return strings.Join(*l, ",") }

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	path := flag.String("scenario", "", "scenario YAML file (empty for the built-in default)")
	steps := flag.Int("steps", 0, "ticks per run (0 uses the scenario's max_steps)")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel runs")
	reps := flag.Int("reps", 3, "replicates per parameter point")
	seed := flag.Uint64("seed", 1337, "base seed; job i runs with seed+i")
	random := flag.Int("random", 0, "sample this many random points from the -range flags instead of a grid")
	top := flag.Int("top", 5, "number of ranked points to print")
	out := flag.String("json", "", "write all point summaries as JSON here")
	var axes, ranges, overrides kvList
	flag.Var(&axes, "axis", "grid axis in key=v1,v2,... form (repeatable)")
	flag.Var(&ranges, "range", "random range in key=min:max form (repeatable)")
	flag.Var(&overrides, "set", "fixed parameter override in key=value form (repeatable)")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "sweep"})

	sc, err := scenario.Load(*path)
	if err != nil {
		logger.Fatal("loading scenario", "err", err)
	}
	for _, kv := range overrides {
		if err := sc.Override(kv); err != nil {
			logger.Fatal("override", "err", err)
		}
	}

	var points []batch.Point
	if *random > 0 {
		rs, err := parseRanges(ranges)
		if err != nil {
			logger.Fatal("parsing ranges", "err", err)
		}
		points = batch.RandomSearch(rs, *random, *seed)
	} else {
		as, err := parseAxes(axes)
		if err != nil {
			logger.Fatal("parsing axes", "err", err)
		}
		points = batch.GridSearch(as)
	}
	if len(points) == 0 {
		points = []batch.Point{{}}
	}

	jobs := batch.Jobs(points, *reps, *seed)
	fmt.Printf("Sweeping %d points x %d replicates (%d workers, %d steps)\n", len(points), *reps, *workers, *steps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	start := time.Now()
	results, err := batch.Sweep{Scenario: sc, Steps: *steps, Workers: *workers, Logger: logger}.Run(ctx, jobs)
	if err != nil {
		logger.Fatal("sweep", "err", err)
	}
	ranked := batch.Rank(batch.Summarize(results), true)

	fmt.Printf("\nTop %d results (elapsed %s):\n", min(*top, len(ranked)), time.Since(start).Round(time.Millisecond))
	for i := 0; i < len(ranked) && i < *top; i++ {
		ps := ranked[i]
		fmt.Printf("%2d) burn=%.3f±%.3f peak=%.0f steps=%.0f spots=%.1f failed=%d params=%s\n",
			i+1, ps.BurnRatio.Mean, ps.BurnRatio.Std, ps.PeakBurning.Mean, ps.Steps.Mean, ps.SpotEvents.Mean, ps.Failed, ps.Params)
	}

	if *out != "" {
		b, err := json.MarshalIndent(ranked, "", "  ")
		if err != nil {
			logger.Fatal("encoding summaries", "err", err)
		}
		if err := os.WriteFile(*out, b, 0o644); err != nil {
			logger.Fatal("writing summaries", "err", err)
		}
		logger.Info("summaries written", "path", *out)
	}
}

// parseAxes reads "key=v1,v2,..." flags.
func parseAxes(specs []string) ([]batch.Axis, error) {
	var out []batch.Axis
	for _, spec := range specs {
		key, list, ok := strings.Cut(spec, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("axis %q: want key=v1,v2", spec)
		}
		ax := batch.Axis{Key: key}
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("axis %q: %w", spec, err)
			}
			ax.Values = append(ax.Values, v)
		}
		out = append(out, ax)
	}
	return out, nil
}

// parseRanges reads "key=min:max" flags.
func parseRanges(specs []string) (map[string]batch.Range, error) {
	out := map[string]batch.Range{}
	for _, spec := range specs {
		key, bounds, ok := strings.Cut(spec, "=")
		lo, hi, ok2 := strings.Cut(bounds, ":")
		if !ok || !ok2 || key == "" {
			return nil, fmt.Errorf("range %q: want key=min:max", spec)
		}
		minV, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", spec, err)
		}
		maxV, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", spec, err)
		}
		if maxV < minV {
			return nil, fmt.Errorf("range %q: max below min", spec)
		}
		out[key] = batch.Range{Min: minV, Max: maxV}
	}
	return out, nil
}

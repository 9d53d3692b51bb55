// Package batch runs many independent simulations of one scenario across
// parameter points and seeds, in parallel, and summarises the outcomes.
package batch

import (
	"context"
	"fmt"
	"io"
	"maps"
	"runtime"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	channerics "github.com/niceyeti/channerics/channels"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"wildfire-ca/internal/runner"
	"wildfire-ca/internal/scenario"
	pcore "wildfire-ca/pkg/core"
)

// Point is one assignment of parameter overrides.
type Point map[string]float64

func (p Point) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.4g", k, p[k])
	}
	return strings.Join(parts, " ")
}

// Axis is one swept parameter.
type Axis struct {
	Key    string
	Values []float64
}

// Range bounds a randomly sampled parameter.
type Range struct {
	Min, Max float64
}

// GridSearch returns the cartesian product of the axes. The last axis varies
// fastest.
func GridSearch(axes []Axis) []Point {
	points := []Point{{}}
	for _, ax := range axes {
		var next []Point
		for _, p := range points {
			for _, v := range ax.Values {
				q := maps.Clone(p)
				q[ax.Key] = v
				next = append(next, q)
			}
		}
		points = next
	}
	if len(axes) == 0 {
		return nil
	}
	return points
}

// RandomSearch draws n points uniformly from the ranges.
func RandomSearch(ranges map[string]Range, n int, seed uint64) []Point {
	keys := make([]string, 0, len(ranges))
	for k := range ranges {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rng := pcore.NewRNG(seed)
	out := make([]Point, n)
	for i := range out {
		p := make(Point, len(keys))
		for _, k := range keys {
			r := ranges[k]
			p[k] = rng.Uniform(r.Min, r.Max)
		}
		out[i] = p
	}
	return out
}

// Job is one simulation: a point, a replicate and the seed derived for it.
type Job struct {
	Index     int
	Point     int
	Replicate int
	Seed      uint64
	Params    Point
}

// Jobs expands points into replicates. Job i runs with seed baseSeed + i.
func Jobs(points []Point, replicates int, baseSeed uint64) []Job {
	if replicates < 1 {
		replicates = 1
	}
	jobs := make([]Job, 0, len(points)*replicates)
	for pi, p := range points {
		for r := 0; r < replicates; r++ {
			i := len(jobs)
			jobs = append(jobs, Job{Index: i, Point: pi, Replicate: r, Seed: baseSeed + uint64(i), Params: p})
		}
	}
	return jobs
}

// Result is the outcome of one job.
type Result struct {
	Job
	Summary runner.Summary
	Err     error
}

// Sweep evaluates jobs against a base scenario.
type Sweep struct {
	Scenario scenario.Scenario
	Steps    int
	Workers  int
	Logger   *log.Logger
}

// Run evaluates every job and returns results ordered by job index. The
// order and content do not depend on the worker count.
func (s Sweep) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	logger := s.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(jobs), 1))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := ctx.Done()

	feed := make(chan Job)
	go func() {
		defer close(feed)
		for _, j := range jobs {
			select {
			case feed <- j:
			case <-done:
				return
			}
		}
	}()

	outs := make([]<-chan Result, workers)
	for i := range outs {
		outs[i] = channerics.Convert(done, feed, func(j Job) Result { return s.evaluate(ctx, j) })
	}

	results := make([]Result, 0, len(jobs))
	for res := range channerics.Merge(done, outs...) {
		if res.Err != nil {
			logger.Warn("job failed", "job", res.Index, "seed", res.Seed, "err", res.Err)
		} else {
			logger.Debug("job finished", "job", res.Index, "params", res.Params, "burn_ratio", res.Summary.Final.BurnRatio)
		}
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	if err := ctx.Err(); err != nil && len(results) < len(jobs) {
		return results, err
	}
	return results, nil
}

func (s Sweep) evaluate(ctx context.Context, j Job) Result {
	sc := s.Scenario
	sc.Seed = j.Seed
	sc.Params = maps.Clone(s.Scenario.Params)
	if sc.Params == nil {
		sc.Params = map[string]float64{}
	}
	maps.Copy(sc.Params, j.Params)
	b, err := sc.Build()
	if err != nil {
		return Result{Job: j, Err: err}
	}
	steps := s.Steps
	if steps == 0 {
		steps = sc.MaxSteps
	}
	sum, err := b.Runner.Run(ctx, steps)
	return Result{Job: j, Summary: sum, Err: err}
}

// Stats summarises one metric over replicates.
type Stats struct {
	Mean, Std, Median, Min, Max float64
}

func describe(xs []float64) Stats {
	if len(xs) == 0 {
		return Stats{}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = 0
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return Stats{Mean: mean, Std: std, Median: median, Min: floats.Min(xs), Max: floats.Max(xs)}
}

// PointSummary aggregates the replicates of one point.
type PointSummary struct {
	Point       int
	Params      Point
	Runs        int
	Failed      int
	BurnRatio   Stats
	PeakBurning Stats
	Steps       Stats
	SpotEvents  Stats
}

// Summarize groups results by point, in point order.
func Summarize(results []Result) []PointSummary {
	byPoint := map[int][]Result{}
	var order []int
	for _, r := range results {
		if _, ok := byPoint[r.Point]; !ok {
			order = append(order, r.Point)
		}
		byPoint[r.Point] = append(byPoint[r.Point], r)
	}
	sort.Ints(order)
	out := make([]PointSummary, 0, len(order))
	for _, pi := range order {
		rs := byPoint[pi]
		ps := PointSummary{Point: pi, Params: rs[0].Params}
		var burn, peak, steps, spots []float64
		for _, r := range rs {
			ps.Runs++
			if r.Err != nil {
				ps.Failed++
				continue
			}
			burn = append(burn, r.Summary.Final.BurnRatio)
			peak = append(peak, float64(r.Summary.PeakBurning))
			steps = append(steps, float64(r.Summary.Steps))
			spots = append(spots, float64(r.Summary.SpotEvents))
		}
		ps.BurnRatio = describe(burn)
		ps.PeakBurning = describe(peak)
		ps.Steps = describe(steps)
		ps.SpotEvents = describe(spots)
		out = append(out, ps)
	}
	return out
}

// Rank orders summaries by mean burn ratio, highest first when desc is set.
func Rank(sums []PointSummary, desc bool) []PointSummary {
	out := append([]PointSummary(nil), sums...)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].BurnRatio.Mean > out[j].BurnRatio.Mean
		}
		return out[i].BurnRatio.Mean < out[j].BurnRatio.Mean
	})
	return out
}

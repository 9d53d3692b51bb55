// Package runner drives an engine tick by tick, applying scheduled weather
// changes and delayed ignitions and fanning per-tick stats out to observers.
package runner

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"wildfire-ca/internal/sims/fire"
	"wildfire-ca/internal/weather"
)

// Ignition is a point ignition applied once Tick ticks have completed.
type Ignition struct {
	Tick      int     `yaml:"tick" json:"tick"`
	Row       int     `yaml:"row" json:"row"`
	Col       int     `yaml:"col" json:"col"`
	Intensity float64 `yaml:"intensity" json:"intensity"`
}

// Observer receives the statistics of every completed tick.
type Observer interface {
	OnStep(tick int, stats fire.StepStats, spots []fire.SpotEvent) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(tick int, stats fire.StepStats, spots []fire.SpotEvent) error

func (f ObserverFunc) OnStep(tick int, stats fire.StepStats, spots []fire.SpotEvent) error {
	return f(tick, stats, spots)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithWeather attaches p to the engine and schedules timeline changes.
func WithWeather(p *weather.Provider, timeline weather.Timeline) Option {
	return func(r *Runner) {
		r.weather = p
		r.timeline = timeline.Sorted()
	}
}

// WithIgnitions schedules delayed ignitions.
func WithIgnitions(ign []Ignition) Option {
	return func(r *Runner) {
		r.ignitions = append(r.ignitions, ign...)
	}
}

// WithObserver adds an observer. Observers run in registration order.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// WithRiskAdjustment scales base_spread_prob by 1 + RiskScore on every
// weather change. start is the wall-clock time of tick 0 and tick the
// simulated duration of one step.
func WithRiskAdjustment(start time.Time, tick time.Duration) Option {
	return func(r *Runner) {
		r.risk = &riskAdjust{start: start, tick: tick}
	}
}

// WithStopWhenComplete ends the run as soon as no cell is burning.
func WithStopWhenComplete(stop bool) Option {
	return func(r *Runner) { r.stopWhenComplete = stop }
}

type riskAdjust struct {
	start time.Time
	tick  time.Duration
	base  float64
}

// Runner owns the tick loop for one engine.
type Runner struct {
	eng              *fire.Engine
	log              *log.Logger
	weather          *weather.Provider
	timeline         weather.Timeline
	ignitions        []Ignition
	observers        []Observer
	risk             *riskAdjust
	stopWhenComplete bool

	summary Summary
}

// Summary describes a finished run.
type Summary struct {
	Steps        int            `json:"steps"`
	Final        fire.StepStats `json:"final"`
	PeakBurning  int            `json:"peak_burning"`
	PeakTick     int            `json:"peak_tick"`
	SpotEvents   int            `json:"spot_events"`
	Suppressed   int            `json:"suppressed"`
	Completed    bool           `json:"completed"`
	Interrupted  bool           `json:"interrupted"`
	WallDuration time.Duration  `json:"wall_duration_ns"`
}

// New returns a runner for an initialized engine.
func New(eng *fire.Engine, opts ...Option) *Runner {
	r := &Runner{eng: eng, log: log.New(io.Discard)}
	for _, opt := range opts {
		opt(r)
	}
	sort.SliceStable(r.ignitions, func(i, j int) bool { return r.ignitions[i].Tick < r.ignitions[j].Tick })
	if r.risk != nil {
		r.risk.base = eng.Params().BaseSpreadProb
	}
	if r.weather != nil {
		r.weather.Attach(eng)
		r.adjustForRisk()
	}
	return r
}

// Engine returns the driven engine.
func (r *Runner) Engine() *fire.Engine { return r.eng }

// Summary returns the running summary.
func (r *Runner) Summary() Summary { return r.summary }

// Run steps the engine up to maxSteps ticks. A non-positive maxSteps runs
// until the fire is out. ctx is checked between ticks; cancellation returns
// the partial summary along with ctx.Err().
func (r *Runner) Run(ctx context.Context, maxSteps int) (Summary, error) {
	began := time.Now()
	defer func() { r.summary.WallDuration += time.Since(began) }()
	stopOnComplete := r.stopWhenComplete || maxSteps <= 0

	r.log.Info("run starting", "rows", r.eng.Lattice().Rows, "cols", r.eng.Lattice().Cols,
		"max_steps", maxSteps, "neighborhood", r.eng.Neighborhood())
	for i := 0; maxSteps <= 0 || i < maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			r.summary.Interrupted = true
			r.log.Warn("run interrupted", "tick", r.eng.StepCount(), "err", err)
			return r.summary, err
		}
		r.beforeTick()
		if stopOnComplete && r.eng.IsComplete() && !r.pendingWork() {
			r.summary.Completed = true
			break
		}
		if err := r.Tick(); err != nil {
			return r.summary, err
		}
	}
	if r.eng.IsComplete() {
		r.summary.Completed = true
	}
	r.log.Info("run finished", "steps", r.summary.Steps, "burned", r.summary.Final.Burned,
		"burn_ratio", r.summary.Final.BurnRatio, "peak_burning", r.summary.PeakBurning)
	return r.summary, nil
}

// Tick advances exactly one tick and notifies observers.
func (r *Runner) Tick() error {
	stats, err := r.eng.Step()
	if err != nil {
		return err
	}
	tick := r.eng.StepCount()
	spots := r.eng.SpotEvents()
	var fresh []fire.SpotEvent
	if stats.SpotEvents > 0 && len(spots) >= stats.SpotEvents {
		fresh = spots[len(spots)-stats.SpotEvents:]
	}

	r.summary.Steps++
	r.summary.Final = stats
	r.summary.SpotEvents += stats.SpotEvents
	r.summary.Suppressed += stats.Suppressed
	if stats.Burning > r.summary.PeakBurning {
		r.summary.PeakBurning = stats.Burning
		r.summary.PeakTick = tick
	}
	r.log.Debug("tick", "tick", tick, "burning", stats.Burning, "burned", stats.Burned,
		"perimeter", stats.Perimeter, "spots", stats.SpotEvents)
	for _, o := range r.observers {
		if err := o.OnStep(tick, stats, fresh); err != nil {
			return err
		}
	}
	return nil
}

// AddObserver registers o after construction.
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Advance applies whatever is due at the current tick and then steps once.
// Interactive viewers call it in place of Run.
func (r *Runner) Advance() (fire.StepStats, error) {
	r.beforeTick()
	if err := r.Tick(); err != nil {
		return r.summary.Final, err
	}
	return r.summary.Final, nil
}

// beforeTick applies weather changes and ignitions due at the current count.
func (r *Runner) beforeTick() {
	now := r.eng.StepCount()
	if r.weather != nil {
		if c, ok := r.timeline.At(now); ok {
			r.weather.Update(r.eng, c)
			r.adjustForRisk()
			r.log.Info("weather changed", "tick", now, "wind_speed", c.WindSpeed,
				"wind_direction", c.WindDirection, "humidity", c.RelativeHumidity)
		}
	}
	for len(r.ignitions) > 0 && r.ignitions[0].Tick <= now {
		ig := r.ignitions[0]
		r.ignitions = r.ignitions[1:]
		if !r.eng.AddIgnitionPoint(ig.Row, ig.Col, ig.Intensity) {
			r.log.Warn("ignition skipped", "tick", now, "row", ig.Row, "col", ig.Col)
		}
	}
}

func (r *Runner) pendingWork() bool {
	if len(r.ignitions) > 0 || r.eng.PendingSuppression() > 0 {
		return true
	}
	now := r.eng.StepCount()
	for _, ch := range r.timeline {
		if ch.Tick > now {
			return true
		}
	}
	return false
}

func (r *Runner) adjustForRisk() {
	if r.risk == nil || r.weather == nil {
		return
	}
	at := r.risk.start.Add(time.Duration(r.eng.StepCount()) * r.risk.tick)
	score := weather.RiskScore(r.weather.Conditions(), at)
	p := r.eng.Params()
	p.BaseSpreadProb = min(r.risk.base*(1+score), 1)
	if err := r.eng.SetParams(p); err != nil {
		r.log.Error("risk adjustment rejected", "err", err)
		return
	}
	r.log.Debug("spread adjusted for risk", "risk", score, "base_spread_prob", p.BaseSpreadProb)
}

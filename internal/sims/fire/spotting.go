package fire

import (
	"fmt"
	"math"
)

// FireBehavior classifies the dominant fire type at a burning cell.
type FireBehavior uint8

const (
	Surface FireBehavior = iota
	Crown
	Ground
	Spotting
	EmberStorm
	behaviorCount
)

var behaviorNames = [behaviorCount]string{"surface", "crown", "ground", "spotting", "ember_storm"}

func (b FireBehavior) String() string {
	if b < behaviorCount {
		return behaviorNames[b]
	}
	return fmt.Sprintf("behavior(%d)", uint8(b))
}

// MarshalText writes the behavior name.
func (b FireBehavior) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// ClassifyBehavior applies the intensity (kW/m), flame length (m) and wind
// speed (m/s) thresholds. Precedence runs EmberStorm, Crown, Spotting, Ground,
// Surface so that every class is reachable.
func ClassifyBehavior(intensity, flameLength, windSpeed float64) FireBehavior {
	switch {
	case windSpeed > 25 && intensity > 8000 && flameLength > 5.0:
		return EmberStorm
	case intensity > 4000 && flameLength > 3.5:
		return Crown
	case intensity > 2000 && flameLength > 2.0:
		return Spotting
	case intensity > 0 && intensity < 500:
		return Ground
	}
	return Surface
}

// FlameLength is Byram's relation L = 0.0775 I^0.46.
func FlameLength(intensity float64) float64 {
	if intensity <= 0 {
		return 0
	}
	return 0.0775 * math.Pow(intensity, 0.46)
}

// BehaviorMetrics describes the fire at one cell.
type BehaviorMetrics struct {
	Intensity      float64      `json:"intensity"`
	FlameLength    float64      `json:"flame_length"`
	EmberPotential float64      `json:"ember_potential"`
	Behavior       FireBehavior `json:"behavior"`
}

// SpotEvent records one successful ember ignition.
type SpotEvent struct {
	Tick          int     `json:"tick"`
	Source        Cell    `json:"source"`
	Landing       Cell    `json:"landing"`
	Distance      float64 `json:"distance"` // metres
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection float64 `json:"wind_direction"`
}

const (
	maxSpotProbability     = 0.10
	emberCountMax          = 5
	emberDirectionJitter   = 30.0
	landingBaseProbability = 0.3
	maxLandingProbability  = 0.95
)

// intensity is the fire line intensity (kW/m) a burning cell i would have.
func (e *Engine) intensity(i int) float64 {
	v := behaviorOf(e.fuel[i]).baseIntensity * e.moistureDamping(i)
	if e.hasWx {
		v *= 1 + e.weather.WindSpeed/20
		v *= clip(1-e.weather.RelativeHumidity/200, 0.3, 1)
	}
	return v
}

func (e *Engine) metrics(i int) BehaviorMetrics {
	in := e.intensity(i)
	fl := FlameLength(in)
	ember := in * fl * 0.001
	if behaviorOf(e.fuel[i]).emberProne {
		ember *= 2
	}
	ws := 0.0
	if e.hasWx {
		ws = e.weather.WindSpeed
	}
	return BehaviorMetrics{Intensity: in, FlameLength: fl, EmberPotential: ember, Behavior: ClassifyBehavior(in, fl, ws)}
}

// FireBehaviorAt returns the behavior metrics of a cell. Cells that are not
// burning report zero intensity.
func (e *Engine) FireBehaviorAt(row, col int) (BehaviorMetrics, error) {
	if !e.grid.InBounds(row, col) {
		return BehaviorMetrics{}, fmt.Errorf("(%d,%d): %w", row, col, ErrOutOfBounds)
	}
	i := e.grid.Index(row, col)
	if e.curr.state[i] != Burning {
		return BehaviorMetrics{}, nil
	}
	return e.metrics(i), nil
}

// BehaviorCounts tallies the behavior class of every burning cell.
func (e *Engine) BehaviorCounts() map[FireBehavior]int {
	out := make(map[FireBehavior]int)
	for i, s := range e.curr.state {
		if s == Burning {
			out[e.metrics(i).Behavior]++
		}
	}
	return out
}

// spotProbability is the chance that burning cell i launches embers this tick.
func (e *Engine) spotProbability(ember float64) float64 {
	w := e.weather
	windFactor := math.Min(w.WindSpeed/30, 1)
	humidityFactor := 1 - w.RelativeHumidity/100
	p := ember * 0.01 * windFactor * humidityFactor * w.StabilityClass.SpottingFactor()
	return clip(p, 0, maxSpotProbability)
}

func (e *Engine) landingProbability(j int) float64 {
	p := landingBaseProbability * e.moistureDamping(j) * behaviorOf(e.fuel[j]).ignitability
	return clip(p, 0, maxLandingProbability)
}

// spot runs the ember pass over the current buffer and returns the number of
// new spot fires. Only cells burning before the pass can launch embers.
func (e *Engine) spot() int {
	if !e.hasWx || e.weather.WindSpeed <= e.params.SpotWindThreshold {
		return 0
	}
	l := e.curr
	var sources []int
	for i, s := range l.state {
		if s == Burning {
			sources = append(sources, i)
		}
	}
	w := e.weather
	ignited := 0
	for _, i := range sources {
		m := e.metrics(i)
		if !e.rng.Chance(e.spotProbability(m.EmberPotential)) {
			continue
		}
		r, c := e.grid.Coord(i)
		embers := 1 + e.rng.IntN(emberCountMax)
		for k := 0; k < embers; k++ {
			size := e.rng.Uniform(0.5, 2.0)
			dist := w.WindSpeed * 10 / size * e.rng.Uniform(0.5, 1.5)
			dist = math.Min(dist, e.params.MaxSpotDistance)
			dir := (w.WindDirection + e.rng.Uniform(-emberDirectionJitter, emberDirectionJitter)) * math.Pi / 180
			cells := dist / e.params.CellSize
			lr := r + int(cells*math.Cos(dir))
			lc := c + int(cells*math.Sin(dir))
			if !e.grid.InBounds(lr, lc) {
				continue
			}
			j := e.grid.Index(lr, lc)
			if l.state[j] != Fuel || !e.fuel[j].Combustible() {
				continue
			}
			if !e.rng.Chance(e.landingProbability(j)) {
				continue
			}
			l.ignite(j)
			l.heat[j] = e.heatOutput(j)
			ignited++
			e.spots = append(e.spots, SpotEvent{
				Tick:          e.stepCount,
				Source:        Cell{Row: r, Col: c},
				Landing:       Cell{Row: lr, Col: lc},
				Distance:      math.Hypot(float64(lr-r), float64(lc-c)) * e.params.CellSize,
				WindSpeed:     w.WindSpeed,
				WindDirection: w.WindDirection,
			})
		}
	}
	return ignited
}

// SpotEvents returns the spotting log.
func (e *Engine) SpotEvents() []SpotEvent { return e.spots }

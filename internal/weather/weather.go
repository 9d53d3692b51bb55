// Package weather turns weather snapshots into the wind and humidity
// multipliers consumed by the fire engine.
package weather

import (
	"math"
	"sort"
	"time"

	"wildfire-ca/internal/core"
	"wildfire-ca/internal/sims/fire"
)

// The registered wildfire world gains wind and humidity effects whenever
// this package is linked in.
func init() {
	core.Register("wildfire", func(cfg map[string]string) core.Sim {
		return fire.NewWorld(fire.FromMap(cfg), fire.SetupFromMap(cfg), fire.WithWeatherEffects(Effects))
	})
}

// WindEffect is the multiplier for fire spreading from one cell to another
// under the given wind. Directions are compass degrees; the spread bearing is
// atan2(dRow, -dCol).
func WindEffect(c fire.WeatherConditions, from, to fire.Cell) float64 {
	dr := float64(to.Row - from.Row)
	dc := float64(to.Col - from.Col)
	if dr == 0 && dc == 0 {
		return 1
	}
	bearing := math.Atan2(dr, -dc) * 180 / math.Pi
	if bearing < 0 {
		bearing += 360
	}
	diff := AngleDiff(c.WindDirection, bearing)
	ws := c.WindSpeed
	switch {
	case diff <= 45:
		return 1 + 0.1*ws
	case diff >= 135:
		return math.Max(0.5, 1-0.05*ws)
	}
	return 1 + 0.02*ws
}

// AngleDiff is the absolute difference of two bearings folded into [0, 180].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// HumidityEffect maps relative humidity to a combustibility multiplier.
func HumidityEffect(c fire.WeatherConditions) float64 {
	rh := c.RelativeHumidity
	switch {
	case rh > 80:
		return 0.3
	case rh > 60:
		return 0.6
	case rh > 40:
		return 0.8
	case rh > 20:
		return 1.0
	}
	return 1.3
}

// FireDangerIndex is a 0-100 danger rating from temperature, humidity, wind
// and precipitation.
func FireDangerIndex(c fire.WeatherConditions) float64 {
	idx := 0.0
	switch {
	case c.Temperature > 30:
		idx += 30
	case c.Temperature > 20:
		idx += 20
	case c.Temperature > 10:
		idx += 10
	}
	switch {
	case c.RelativeHumidity < 30:
		idx += 25
	case c.RelativeHumidity < 50:
		idx += 15
	case c.RelativeHumidity < 70:
		idx += 5
	}
	idx += math.Min(c.WindSpeed*3, 20)
	idx = math.Max(0, idx-c.Precipitation*10)
	return math.Min(idx, 100)
}

// SeasonalFactor scales fire risk by season (northern hemisphere).
func SeasonalFactor(t time.Time) float64 {
	switch t.Month() {
	case time.March, time.April, time.May:
		return 1.2
	case time.June, time.July, time.August:
		return 0.8
	case time.September, time.October, time.November:
		return 1.5
	}
	return 0.5
}

// TimeOfDayFactor scales fire risk by the hour.
func TimeOfDayFactor(t time.Time) float64 {
	h := t.Hour()
	switch {
	case h >= 5 && h < 7:
		return 0.7
	case h >= 7 && h < 12:
		return 0.9
	case h >= 12 && h < 18:
		return 1.3
	case h >= 18 && h < 22:
		return 1.0
	}
	return 0.6
}

// RiskScore combines danger index, season, time of day and humidity into a
// 0-1 score.
func RiskScore(c fire.WeatherConditions, at time.Time) float64 {
	r := FireDangerIndex(c) / 100 * SeasonalFactor(at) * TimeOfDayFactor(at) * HumidityEffect(c) / 3
	return math.Min(r, 1)
}

// Provider holds the current weather and hands the engine effect functions
// that always read it.
type Provider struct {
	cond fire.WeatherConditions
}

// NewProvider returns a provider for c. A zero FireWeatherIndex is filled
// from FireDangerIndex.
func NewProvider(c fire.WeatherConditions) *Provider {
	p := &Provider{}
	p.set(c)
	return p
}

func (p *Provider) set(c fire.WeatherConditions) {
	if c.FireWeatherIndex == 0 {
		c.FireWeatherIndex = FireDangerIndex(c)
	}
	if c.StabilityClass == "" {
		c.StabilityClass = fire.StabilityD
	}
	p.cond = c
}

// Conditions returns the current snapshot.
func (p *Provider) Conditions() fire.WeatherConditions { return p.cond }

// Wind is a fire.WindFunc over the current snapshot.
func (p *Provider) Wind(from, to fire.Cell) float64 { return WindEffect(p.cond, from, to) }

// Humidity is a fire.HumidityFunc over the current snapshot.
func (p *Provider) Humidity() float64 { return HumidityEffect(p.cond) }

// WindDirection reports the current wind bearing.
func (p *Provider) WindDirection() float64 { return p.cond.WindDirection }

// Attach installs the provider on e.
func (p *Provider) Attach(e *fire.Engine) {
	e.AttachWeather(p.cond, p.Wind, p.Humidity)
}

// Update swaps in new conditions between ticks and forwards them to e.
func (p *Provider) Update(e *fire.Engine, c fire.WeatherConditions) {
	p.set(c)
	if e != nil {
		e.UpdateWeather(p.cond)
	}
}

// Effects builds the effect functions for fire.WithWeatherEffects.
func Effects(c fire.WeatherConditions) (fire.WindFunc, fire.HumidityFunc) {
	p := NewProvider(c)
	return p.Wind, p.Humidity
}

// Change is a scheduled weather update.
type Change struct {
	Tick       int                    `yaml:"tick" json:"tick"`
	Conditions fire.WeatherConditions `yaml:"conditions" json:"conditions"`
}

// Timeline is a tick-ordered list of weather changes.
type Timeline []Change

// Sorted returns a copy ordered by tick.
func (t Timeline) Sorted() Timeline {
	out := append(Timeline(nil), t...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out
}

// At returns the last change scheduled exactly at tick.
func (t Timeline) At(tick int) (fire.WeatherConditions, bool) {
	var found bool
	var c fire.WeatherConditions
	for _, ch := range t {
		if ch.Tick == tick {
			c, found = ch.Conditions, true
		}
	}
	return c, found
}

package fire

import (
	"fmt"
	"math"
	"strings"
)

// StabilityClass is the Pasquill atmospheric stability class, "A" (very
// unstable) to "F" (stable).
type StabilityClass string

const (
	StabilityA StabilityClass = "A"
	StabilityB StabilityClass = "B"
	StabilityC StabilityClass = "C"
	StabilityD StabilityClass = "D"
	StabilityE StabilityClass = "E"
	StabilityF StabilityClass = "F"
)

// ParseStabilityClass accepts A-F in either case.
func ParseStabilityClass(s string) (StabilityClass, error) {
	c := StabilityClass(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case StabilityA, StabilityB, StabilityC, StabilityD, StabilityE, StabilityF:
		return c, nil
	case "":
		return StabilityD, nil
	}
	return StabilityD, &ConfigError{Field: "stability_class", Reason: fmt.Sprintf("unknown class %q", s)}
}

// SpottingFactor scales ember lofting: unstable air lifts embers further.
func (c StabilityClass) SpottingFactor() float64 {
	switch c {
	case StabilityA, StabilityB:
		return 1.5
	case StabilityE, StabilityF:
		return 0.5
	}
	return 1.0
}

// WeatherConditions is an immutable snapshot of the ambient weather for a tick.
type WeatherConditions struct {
	Temperature      float64        `json:"temperature" yaml:"temperature"`             // °C
	RelativeHumidity float64        `json:"relative_humidity" yaml:"relative_humidity"` // %
	WindSpeed        float64        `json:"wind_speed" yaml:"wind_speed"`               // m/s
	WindDirection    float64        `json:"wind_direction" yaml:"wind_direction"`       // degrees
	Pressure         float64        `json:"pressure" yaml:"pressure"`                   // hPa
	SolarRadiation   float64        `json:"solar_radiation" yaml:"solar_radiation"`     // W/m²
	Precipitation    float64        `json:"precipitation" yaml:"precipitation"`         // mm
	DroughtIndex     float64        `json:"drought_index" yaml:"drought_index"`
	FireWeatherIndex float64        `json:"fire_weather_index" yaml:"fire_weather_index"`
	StabilityClass   StabilityClass `json:"stability_class" yaml:"stability_class"`
}

// DefaultWeather is calm, mild weather.
func DefaultWeather() WeatherConditions {
	return WeatherConditions{
		Temperature:      20,
		RelativeHumidity: 50,
		Pressure:         1013.25,
		StabilityClass:   StabilityD,
	}
}

// TerrainFunc returns the terrain spread multiplier for fire moving from one
// cell to an adjacent one.
type TerrainFunc func(from, to Cell) float64

// WindFunc returns the wind alignment multiplier for a spread edge.
type WindFunc func(from, to Cell) float64

// HumidityFunc returns the ambient humidity multiplier.
type HumidityFunc func() float64

// maxFactor bounds any single provider factor so products stay finite.
const maxFactor = 1e6

// sanitizeFactor maps NaN to neutral and clamps the rest to [0, maxFactor].
func sanitizeFactor(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 1
	case v < 0:
		return 0
	case v > maxFactor:
		return maxFactor
	}
	return v
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

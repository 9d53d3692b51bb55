package weather

import (
	"math"
	"testing"
	"time"

	"wildfire-ca/internal/core"
	"wildfire-ca/internal/sims/fire"
)

func TestWindEffectAlignment(t *testing.T) {
	c := fire.WeatherConditions{WindSpeed: 10}
	origin := fire.Cell{Row: 5, Col: 5}
	cases := []struct {
		dir  float64
		to   fire.Cell
		want float64
	}{
		// bearing of (0,-1) is atan2(0, 1) = 0
		{0, fire.Cell{Row: 5, Col: 4}, 2.0},
		{180, fire.Cell{Row: 5, Col: 4}, 0.5},
		{90, fire.Cell{Row: 5, Col: 4}, 1.2},
		// bearing of (+1,0) is atan2(1, 0) = 90
		{90, fire.Cell{Row: 6, Col: 5}, 2.0},
		{0, origin, 1.0},
	}
	for _, tc := range cases {
		c.WindDirection = tc.dir
		if got := WindEffect(c, origin, tc.to); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("WindEffect(dir=%v, to=%v) = %v, want %v", tc.dir, tc.to, got, tc.want)
		}
	}
	c.WindSpeed = 2
	c.WindDirection = 180
	if got := WindEffect(c, origin, fire.Cell{Row: 5, Col: 4}); math.Abs(got-0.9) > 1e-9 {
		t.Fatalf("headwind at 2 m/s = %v, want 0.9", got)
	}
}

func TestAngleDiffWraps(t *testing.T) {
	if d := AngleDiff(350, 10); d != 20 {
		t.Fatalf("AngleDiff(350,10) = %v", d)
	}
	if d := AngleDiff(-90, 270); d != 0 {
		t.Fatalf("AngleDiff(-90,270) = %v", d)
	}
}

func TestHumidityBands(t *testing.T) {
	cases := map[float64]float64{90: 0.3, 70: 0.6, 50: 0.8, 30: 1.0, 10: 1.3, 80: 0.6, 20: 1.3}
	for rh, want := range cases {
		if got := HumidityEffect(fire.WeatherConditions{RelativeHumidity: rh}); got != want {
			t.Fatalf("HumidityEffect(%v) = %v, want %v", rh, got, want)
		}
	}
}

func TestFireDangerIndex(t *testing.T) {
	hot := fire.WeatherConditions{Temperature: 35, RelativeHumidity: 15, WindSpeed: 12}
	if got := FireDangerIndex(hot); got != 75 {
		t.Fatalf("hot dry windy = %v, want 75", got)
	}
	wet := hot
	wet.Precipitation = 20
	if got := FireDangerIndex(wet); got != 0 {
		t.Fatalf("heavy rain = %v, want 0", got)
	}
}

func TestRiskScoreBounded(t *testing.T) {
	c := fire.WeatherConditions{Temperature: 40, RelativeHumidity: 5, WindSpeed: 30}
	at := time.Date(2024, time.October, 1, 14, 0, 0, 0, time.UTC)
	r := RiskScore(c, at)
	want := 0.75 * 1.5 * 1.3 * 1.3 / 3
	if math.Abs(r-want) > 1e-9 {
		t.Fatalf("RiskScore = %v, want %v", r, want)
	}
	if r > 1 || r < 0 {
		t.Fatalf("risk %v out of range", r)
	}
}

func TestProviderUpdateReachesEngine(t *testing.T) {
	e, err := fire.New(5, 5, fire.Moore, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := NewProvider(fire.WeatherConditions{WindSpeed: 3, RelativeHumidity: 50})
	p.Attach(e)
	if got := p.Conditions().FireWeatherIndex; got == 0 {
		t.Fatal("fire weather index not derived")
	}
	p.Update(e, fire.WeatherConditions{WindSpeed: 20, WindDirection: 90, RelativeHumidity: 10})
	w, ok := e.Weather()
	if !ok || w.WindSpeed != 20 || w.StabilityClass != fire.StabilityD {
		t.Fatalf("engine weather = %+v (attached=%v)", w, ok)
	}
	if p.Humidity() != 1.3 {
		t.Fatalf("humidity effect not refreshed: %v", p.Humidity())
	}
}

func TestRegisteredWorldCarriesWindEffect(t *testing.T) {
	factory, err := core.Lookup("wildfire")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	opts := map[string]string{"w": "40", "h": "40", "seed": "3", "tree_density": "1", "wind_speed": "30", "wind_direction": "90"}
	withWind, ok := factory(opts).(*fire.World)
	if !ok {
		t.Fatal("factory did not build a fire world")
	}
	bare := fire.NewWorld(fire.FromMap(opts), fire.SetupFromMap(opts))
	if withWind.Err() != nil || bare.Err() != nil {
		t.Fatalf("reset errors: %v / %v", withWind.Err(), bare.Err())
	}
	for i := 0; i < 8; i++ {
		withWind.Step()
		bare.Step()
	}
	if withWind.Stats() == bare.Stats() {
		t.Fatal("wind effect made no difference to the spread")
	}
}

func TestTimelineAt(t *testing.T) {
	tl := Timeline{
		{Tick: 10, Conditions: fire.WeatherConditions{WindSpeed: 2}},
		{Tick: 3, Conditions: fire.WeatherConditions{WindSpeed: 9}},
	}.Sorted()
	if tl[0].Tick != 3 {
		t.Fatalf("timeline not sorted: %+v", tl)
	}
	if c, ok := tl.At(10); !ok || c.WindSpeed != 2 {
		t.Fatalf("At(10) = %+v, %v", c, ok)
	}
	if _, ok := tl.At(4); ok {
		t.Fatal("At(4) should find nothing")
	}
}

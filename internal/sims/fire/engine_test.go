package fire

import (
	"encoding/json"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
)

func newTestEngine(t *testing.T, rows, cols int, nb Neighborhood, tune func(*Params)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Rows = rows
	cfg.Cols = cols
	cfg.Neighborhood = nb
	cfg.Seed = 7
	if tune != nil {
		tune(&cfg.Params)
	}
	e, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	return e
}

func certainSpread(p *Params) {
	p.BaseSpreadProb = 1
	p.IgnitionProb = 0
	p.ExtinguishProb = 0
}

func mustStep(t *testing.T, e *Engine) StepStats {
	t.Helper()
	st, err := e.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	return st
}

func stateAt(t *testing.T, e *Engine, r, c int) CellState {
	t.Helper()
	s, err := e.StateAt(r, c)
	if err != nil {
		t.Fatalf("StateAt(%d,%d): %v", r, c, err)
	}
	return s
}

func TestVonNeumannScenario(t *testing.T) {
	e := newTestEngine(t, 5, 5, VonNeumann, certainSpread)
	if err := e.Initialize(1.0, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !e.AddIgnitionPoint(2, 2, 1.0) {
		t.Fatal("expected ignition at (2,2)")
	}

	mustStep(t, e)
	for _, c := range []Cell{{1, 2}, {3, 2}, {2, 1}, {2, 3}} {
		if got := stateAt(t, e, c.Row, c.Col); got != Burning {
			t.Fatalf("cell %v = %s after one tick, want burning", c, got)
		}
	}
	if got := stateAt(t, e, 2, 2); got != Burning {
		t.Fatalf("origin = %s after one tick, want burning", got)
	}
	if timer, _ := e.BurnTimerAt(2, 2); timer != 1 {
		t.Fatalf("origin burn timer = %d, want 1", timer)
	}
	if got := stateAt(t, e, 1, 1); got != Fuel {
		t.Fatalf("diagonal cell = %s, von Neumann must not spread diagonally", got)
	}

	duration := e.Params().FuelConsumptionTime
	for tick := 2; tick < duration; tick++ {
		mustStep(t, e)
		if got := stateAt(t, e, 2, 2); got != Burning {
			t.Fatalf("origin = %s at tick %d, want burning", got, tick)
		}
	}
	mustStep(t, e)
	if got := stateAt(t, e, 2, 2); got != Burned {
		t.Fatalf("origin = %s after %d ticks, want burned", got, duration)
	}
	if timer, _ := e.BurnTimerAt(2, 2); timer != 0 {
		t.Fatalf("burned cell keeps timer %d", timer)
	}
	mustStep(t, e)
	if got := stateAt(t, e, 2, 2); got != Burned {
		t.Fatalf("burned cell changed to %s", got)
	}
}

func TestStepBeforeInitialize(t *testing.T) {
	e := newTestEngine(t, 4, 4, Moore, nil)
	if _, err := e.Step(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Step before Initialize returned %v", err)
	}
	if e.AddIgnitionPoint(1, 1, 1) {
		t.Fatal("ignition accepted before Initialize")
	}
}

func TestNewRejectsBadShape(t *testing.T) {
	_, err := New(0, 10, Moore, 1)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestConservationAbsorptionAndInvariants(t *testing.T) {
	e := newTestEngine(t, 40, 40, Moore, func(p *Params) {
		p.BaseSpreadProb = 0.45
		p.IgnitionProb = 0.002
		p.ExtinguishProb = 0.05
		p.MoistureRecoveryTime = 4
	})
	if err := e.Initialize(0.8, []Firebreak{{Start: Cell{0, 30}, End: Cell{39, 30}, Width: 1}}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	e.AttachWeather(WeatherConditions{WindSpeed: 20, WindDirection: 90, RelativeHumidity: 20, StabilityClass: StabilityA}, nil, nil)
	e.AddIgnitionPoint(20, 20, 2)
	e.AddIgnitionPoint(5, 5, 2)
	e.ScheduleSuppression(4, WaterDrop{Center: Cell{20, 20}, Radius: 4, Effectiveness: 0.9})
	e.ScheduleSuppression(6, GroundCrew{Center: Cell{5, 5}, Radius: 2, Effectiveness: 0.5})

	total := 40 * 40
	burned := make([]bool, total)
	for tick := 0; tick < 80; tick++ {
		st := mustStep(t, e)
		if st.Total() != total {
			t.Fatalf("tick %d: counts sum to %d, want %d", tick, st.Total(), total)
		}
		if e.IsComplete() != (st.Burning == 0) {
			t.Fatalf("tick %d: IsComplete disagrees with burning count %d", tick, st.Burning)
		}
		for i, s := range e.curr.state {
			if burned[i] && s != Burned {
				t.Fatalf("tick %d: burned cell %d became %s", tick, i, s)
			}
			if s == Burned {
				burned[i] = true
			}
			if e.curr.burnTimer[i] > 0 && s != Burning {
				t.Fatalf("tick %d: cell %d has burn timer on %s", tick, i, s)
			}
			if e.curr.moistureTimer[i] > 0 && s != Wet {
				t.Fatalf("tick %d: cell %d has moisture timer on %s", tick, i, s)
			}
			if h := e.curr.heat[i]; h < 0 || math.IsNaN(float64(h)) {
				t.Fatalf("tick %d: cell %d heat %v", tick, i, h)
			}
		}
	}
}

func runTrace(t *testing.T, seed uint64, ticks int) [][]CellState {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols, cfg.Seed = 30, 30, seed
	cfg.Params.BaseSpreadProb = 0.6
	e, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	if err := e.Initialize(0.75, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	fuel := make([]FuelCode, 30*30)
	codes := []FuelCode{TL2, TU3, GS1, GR1, SB2}
	for i := range fuel {
		fuel[i] = codes[i%len(codes)]
	}
	if err := e.SetFuelMap(fuel); err != nil {
		t.Fatalf("SetFuelMap: %v", err)
	}
	e.AttachWeather(WeatherConditions{WindSpeed: 18, WindDirection: 45, RelativeHumidity: 25, StabilityClass: StabilityB},
		func(from, to Cell) float64 { return 1.2 }, func() float64 { return 1.0 })
	e.AddIgnitionPoint(15, 15, 1)
	e.AddIgnitionPoint(3, 27, 1)
	var trace [][]CellState
	for i := 0; i < ticks; i++ {
		mustStep(t, e)
		trace = append(trace, slices.Clone(e.States()))
	}
	return trace
}

func TestDeterministicRuns(t *testing.T) {
	a := runTrace(t, 99, 40)
	b := runTrace(t, 99, 40)
	for tick := range a {
		if !slices.Equal(a[tick], b[tick]) {
			t.Fatalf("runs diverged at tick %d", tick)
		}
	}
}

func TestProbabilityBoundsUnderAdversarialProviders(t *testing.T) {
	factors := []float64{1e9, math.Inf(1), math.NaN(), -3, 0}
	for _, f := range factors {
		e := newTestEngine(t, 6, 6, Moore, certainSpread)
		if err := e.Initialize(1, nil); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		e.AddIgnitionPoint(3, 3, 1e30)
		factor := f
		e.AttachTerrain(func(from, to Cell) float64 { return factor })
		e.AttachWeather(DefaultWeather(), func(from, to Cell) float64 { return factor }, func() float64 { return factor })
		for _, off := range e.offsets {
			p := e.SpreadProbability(Cell{3, 3}, Cell{3 + off.DR, 3 + off.DC})
			if p < 0 || p > 1 || math.IsNaN(p) {
				t.Fatalf("factor %v: probability %v out of range", f, p)
			}
		}
		for i := 0; i < 5; i++ {
			mustStep(t, e)
		}
	}

	e := newTestEngine(t, 3, 3, Moore, nil)
	e.AttachWeather(WeatherConditions{WindSpeed: 30, RelativeHumidity: -500, StabilityClass: StabilityA}, nil, nil)
	if p := e.spotProbability(1e12); p < 0 || p > maxSpotProbability {
		t.Fatalf("spot probability %v exceeds ceiling", p)
	}
	if p := e.landingProbability(0); p < 0 || p > maxLandingProbability {
		t.Fatalf("landing probability %v exceeds ceiling", p)
	}
}

func TestNegativeTerrainStopsSpread(t *testing.T) {
	e := newTestEngine(t, 5, 5, Moore, certainSpread)
	if err := e.Initialize(1, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	e.AttachTerrain(func(from, to Cell) float64 { return -1 })
	e.AddIgnitionPoint(2, 2, 1)
	st := mustStep(t, e)
	if st.Burning != 1 {
		t.Fatalf("burning = %d, negative terrain factor must block spread", st.Burning)
	}
}

func TestCertainExtinguishTerminatesInOneTick(t *testing.T) {
	e := newTestEngine(t, 8, 8, Moore, func(p *Params) {
		p.BaseSpreadProb = 0
		p.IgnitionProb = 0
		p.ExtinguishProb = 1
	})
	if err := e.Initialize(1, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	e.AddIgnitionPoint(4, 4, 1)
	if e.IsComplete() {
		t.Fatal("engine complete with a burning cell")
	}
	st := mustStep(t, e)
	if !e.IsComplete() || st.Burning != 0 || st.Burned != 1 {
		t.Fatalf("unexpected stats after one tick: %+v", st)
	}
}

func TestFirebreakWidth(t *testing.T) {
	for _, width := range []int{1, 2, 3, 4, 5} {
		e := newTestEngine(t, 20, 20, Moore, nil)
		if err := e.Initialize(1, []Firebreak{{Start: Cell{0, 10}, End: Cell{19, 10}, Width: width}}); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		for _, r := range []int{0, 5, 19} {
			empty := 0
			for c := 0; c < 20; c++ {
				if stateAt(t, e, r, c) == Empty {
					empty++
				}
			}
			if empty != width {
				t.Fatalf("width %d: row %d has %d empty cells", width, r, empty)
			}
		}
	}
}

func TestFirebreakContainment(t *testing.T) {
	e := newTestEngine(t, 20, 20, Moore, certainSpread)
	if err := e.Initialize(1, []Firebreak{{Start: Cell{0, 10}, End: Cell{19, 10}, Width: 2}}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for r := 0; r < 20; r++ {
		for c := 10; c <= 11; c++ {
			if got := stateAt(t, e, r, c); got != Empty {
				t.Fatalf("firebreak cell (%d,%d) = %s", r, c, got)
			}
		}
		for _, c := range []int{9, 12} {
			if got := stateAt(t, e, r, c); got != Fuel {
				t.Fatalf("cell (%d,%d) beside the break = %s, want fuel", r, c, got)
			}
		}
	}
	if !e.AddIgnitionPoint(10, 3, 1) {
		t.Fatal("ignition rejected")
	}
	for tick := 0; tick < 200 && !e.IsComplete(); tick++ {
		mustStep(t, e)
		for r := 0; r < 20; r++ {
			for c := 12; c < 20; c++ {
				if s := stateAt(t, e, r, c); s == Burning || s == Burned {
					t.Fatalf("tick %d: fire crossed the break at (%d,%d)", tick, r, c)
				}
			}
		}
	}
	if !e.IsComplete() {
		t.Fatal("fire did not burn out")
	}
	if got := stateAt(t, e, 0, 0); got != Burned {
		t.Fatalf("near side corner = %s, want burned", got)
	}
}

func TestAddIgnitionPointSkipsInvalidCells(t *testing.T) {
	e := newTestEngine(t, 5, 5, Moore, nil)
	if err := e.Initialize(1, []Firebreak{{Start: Cell{0, 0}, End: Cell{0, 4}, Width: 1}}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for _, c := range []Cell{{-1, 2}, {2, 5}, {9, 9}, {0, 2}} {
		if e.AddIgnitionPoint(c.Row, c.Col, 1) {
			t.Fatalf("ignition accepted at %v", c)
		}
	}
	if len(e.IgnitionSources()) != 0 {
		t.Fatalf("rejected ignitions were logged: %v", e.IgnitionSources())
	}
	if !e.AddIgnitionPoint(3, 3, 2.5) {
		t.Fatal("valid ignition rejected")
	}
	src := e.IgnitionSources()
	if len(src) != 1 || src[0] != (IgnitionSource{Row: 3, Col: 3, Intensity: 2.5, Tick: 0}) {
		t.Fatalf("unexpected ignition log %+v", src)
	}
	if _, err := e.StateAt(7, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("StateAt out of bounds returned %v", err)
	}
}

func TestFuelMapDrivesBurnDuration(t *testing.T) {
	e := newTestEngine(t, 1, 3, Moore, certainSpread)
	if err := e.Initialize(1, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := e.SetFuelMap([]FuelCode{TU3, GS1, NB9}); err != nil {
		t.Fatalf("SetFuelMap: %v", err)
	}
	e.AddIgnitionPoint(0, 0, 1)
	for tick := 1; tick <= 5; tick++ {
		mustStep(t, e)
		if tick < 5 && stateAt(t, e, 0, 0) != Burning {
			t.Fatalf("TU3 cell burned out early at tick %d", tick)
		}
	}
	if got := stateAt(t, e, 0, 0); got != Burned {
		t.Fatalf("TU3 cell = %s after 5 ticks", got)
	}
	if got := stateAt(t, e, 0, 2); got != Fuel {
		t.Fatalf("NB9 cell = %s, bare ground must never ignite", got)
	}
	if err := e.SetFuelMap([]FuelCode{TL1}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("short fuel map accepted: %v", err)
	}
}

func TestParseFuelCodeSuggestsNearest(t *testing.T) {
	if c, err := ParseFuelCode(" tu2 "); err != nil || c != TU2 {
		t.Fatalf("ParseFuelCode(tu2) = %v, %v", c, err)
	}
	_, err := ParseFuelCode("GS4")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("unknown code accepted: %v", err)
	}
	if !strings.Contains(err.Error(), "did you mean GS1") {
		t.Fatalf("missing suggestion: %v", err)
	}
	if _, err := ParseFuelCode("zzzzzz"); err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("implausible suggestion for garbage: %v", err)
	}
}

func TestParamsSetSuggestsKey(t *testing.T) {
	p := DefaultParams()
	if err := p.Set("extinguish_prob", 0.2); err != nil || p.ExtinguishProb != 0.2 {
		t.Fatalf("Set extinguish_prob: %v (%v)", err, p.ExtinguishProb)
	}
	err := p.Set("extingush_prob", 0.3)
	if err == nil || !strings.Contains(err.Error(), "did you mean extinguish_prob") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestFromMapParsesOverrides(t *testing.T) {
	cfg := FromMap(map[string]string{
		"w": "12", "h": "9", "seed": "5", "neighborhood": "vn",
		"base_spread_prob": "0.4", "fuel_consumption_time": "6", "max_spot_distance": "bad",
	})
	if cfg.Cols != 12 || cfg.Rows != 9 || cfg.Seed != 5 || cfg.Neighborhood != VonNeumann {
		t.Fatalf("unexpected shape/seed: %+v", cfg)
	}
	if cfg.Params.BaseSpreadProb != 0.4 || cfg.Params.FuelConsumptionTime != 6 {
		t.Fatalf("overrides not applied: %+v", cfg.Params)
	}
	if cfg.Params.MaxSpotDistance != DefaultParams().MaxSpotDistance {
		t.Fatalf("bad value must leave default, got %v", cfg.Params.MaxSpotDistance)
	}
}

func TestClassifyBehavior(t *testing.T) {
	cases := []struct {
		intensity, flame, wind float64
		want                   FireBehavior
	}{
		{0, 0, 0, Surface},
		{300, FlameLength(300), 0, Ground},
		{800, FlameLength(800), 0, Surface},
		{2500, 2.5, 0, Spotting},
		{5000, 4.0, 0, Crown},
		{9000, 6.0, 10, Crown},
		{9000, 6.0, 30, EmberStorm},
	}
	for _, tc := range cases {
		if got := ClassifyBehavior(tc.intensity, tc.flame, tc.wind); got != tc.want {
			t.Fatalf("ClassifyBehavior(%v,%v,%v) = %s, want %s", tc.intensity, tc.flame, tc.wind, got, tc.want)
		}
	}
	if fl := FlameLength(1000); math.Abs(fl-0.0775*math.Pow(1000, 0.46)) > 1e-12 {
		t.Fatalf("FlameLength(1000) = %v", fl)
	}
}

func TestSpottingRequiresWind(t *testing.T) {
	e := newTestEngine(t, 60, 60, Moore, func(p *Params) {
		p.BaseSpreadProb = 0
		p.IgnitionProb = 0
		p.ExtinguishProb = 0
		p.FuelConsumptionTime = 1000
	})
	if err := e.Initialize(1, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for r := 25; r < 35; r++ {
		for c := 25; c < 35; c++ {
			e.AddIgnitionPoint(r, c, 1)
		}
	}
	e.AttachWeather(WeatherConditions{WindSpeed: 5, RelativeHumidity: 0, StabilityClass: StabilityA}, nil, nil)
	for i := 0; i < 20; i++ {
		if st := mustStep(t, e); st.SpotEvents != 0 {
			t.Fatalf("spotting at threshold wind: %+v", st)
		}
	}
	if len(e.SpotEvents()) != 0 {
		t.Fatal("spot events logged below threshold")
	}

	e.UpdateWeather(WeatherConditions{WindSpeed: 40, WindDirection: 90, RelativeHumidity: 0, StabilityClass: StabilityA})
	e.params.MaxSpotDistance = 600
	for i := 0; i < 200 && len(e.SpotEvents()) == 0; i++ {
		mustStep(t, e)
	}
	events := e.SpotEvents()
	if len(events) == 0 {
		t.Fatal("expected spot fires in strong wind")
	}
	for _, ev := range events {
		if !e.grid.InBounds(ev.Landing.Row, ev.Landing.Col) {
			t.Fatalf("landing out of bounds: %+v", ev)
		}
		if ev.Distance > 600 {
			t.Fatalf("distance %v exceeds cap", ev.Distance)
		}
		dr := float64(ev.Landing.Row - ev.Source.Row)
		dc := float64(ev.Landing.Col - ev.Source.Col)
		if want := math.Hypot(dr, dc) * e.params.CellSize; math.Abs(ev.Distance-want) > 1e-9 {
			t.Fatalf("distance %v, landing offset gives %v", ev.Distance, want)
		}
		if s := stateAt(t, e, ev.Landing.Row, ev.Landing.Col); s != Burning {
			t.Fatalf("landing cell %v is %s", ev.Landing, s)
		}
	}
}

func TestStatsPerimeter(t *testing.T) {
	e := newTestEngine(t, 7, 7, Moore, nil)
	if err := e.Initialize(1, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for r := 1; r <= 5; r++ {
		for c := 1; c <= 5; c++ {
			e.AddIgnitionPoint(r, c, 1)
		}
	}
	st := e.Stats()
	if st.Burning != 25 || st.Perimeter != 16 {
		t.Fatalf("burning=%d perimeter=%d, want 25 and 16", st.Burning, st.Perimeter)
	}
	if st.MaxHeat != 1 || st.TotalHeat != 25 {
		t.Fatalf("heat totals %v/%v", st.TotalHeat, st.MaxHeat)
	}
}

func TestRestoreResumesIdenticalRun(t *testing.T) {
	build := func() *Engine {
		e := newTestEngine(t, 24, 24, Moore, func(p *Params) { p.BaseSpreadProb = 0.5 })
		if err := e.Initialize(0.8, nil); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		fuel := make([]FuelCode, 24*24)
		for i := range fuel {
			fuel[i] = []FuelCode{TL3, GS2, TU2}[i%3]
		}
		if err := e.SetFuelMap(fuel); err != nil {
			t.Fatalf("SetFuelMap: %v", err)
		}
		if err := e.GenerateFuelMoisture(MoistureModel{Variation: 0.05}); err != nil {
			t.Fatalf("GenerateFuelMoisture: %v", err)
		}
		e.AttachWeather(WeatherConditions{WindSpeed: 16, WindDirection: 180, RelativeHumidity: 30, StabilityClass: StabilityC}, nil, nil)
		e.AddIgnitionPoint(12, 12, 1)
		e.ScheduleSuppression(9, AerialDrop{Center: Cell{12, 12}, Radius: 3, Effectiveness: 0.7})
		e.ScheduleSuppression(11, Retardant{Cells: []Cell{{10, 10}, {10, 11}}, Effectiveness: 0.5})
		return e
	}
	a := build()
	for i := 0; i < 5; i++ {
		mustStep(t, a)
	}
	st, err := a.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded State
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	b, err := Restore(decoded)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if b.StepCount() != 5 || b.PendingSuppression() != 2 {
		t.Fatalf("restored step=%d pending=%d", b.StepCount(), b.PendingSuppression())
	}
	for i := 0; i < 25; i++ {
		sa := mustStep(t, a)
		sb := mustStep(t, b)
		if sa != sb {
			t.Fatalf("tick %d stats diverged: %+v vs %+v", i, sa, sb)
		}
		if !slices.Equal(a.States(), b.States()) || !slices.Equal(a.Heat(), b.Heat()) {
			t.Fatalf("tick %d grids diverged", i)
		}
	}
	if len(a.SpotEvents()) != len(b.SpotEvents()) {
		t.Fatalf("spot logs diverged: %d vs %d", len(a.SpotEvents()), len(b.SpotEvents()))
	}
}

func TestRestoreKeepsEmptyFuelTable(t *testing.T) {
	a := newTestEngine(t, 16, 16, Moore, func(p *Params) { p.BaseSpreadProb = 0.6 })
	if err := a.Initialize(1, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	fuel := make([]FuelCode, 16*16)
	for i := range fuel {
		fuel[i] = TL1
	}
	if err := a.SetFuelMap(fuel); err != nil {
		t.Fatalf("SetFuelMap: %v", err)
	}
	a.SetFuelProperties(FuelTable{})
	a.AddIgnitionPoint(8, 8, 1)

	st, err := a.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"fuel_properties":{}`) {
		t.Fatal("empty fuel table not written")
	}
	var decoded State
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	b, err := Restore(decoded)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	table := b.FuelProperties()
	if _, ok := table.Lookup(TL1); ok {
		t.Fatal("restored engine picked up default fuel entries")
	}
	for i := 0; i < 20; i++ {
		sa := mustStep(t, a)
		sb := mustStep(t, b)
		if sa != sb || !slices.Equal(a.States(), b.States()) {
			t.Fatalf("tick %d diverged: %+v vs %+v", i, sa, sb)
		}
	}
}

func TestRestoreRejectsInconsistentTimers(t *testing.T) {
	e := newTestEngine(t, 2, 2, Moore, nil)
	if err := e.Initialize(1, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	st, err := e.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	st.BurnTimer[0][0] = 3
	if _, err := Restore(st); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("burn timer on a fuel cell accepted: %v", err)
	}
}

package fire

import (
	"errors"
	"slices"
	"testing"

	"wildfire-ca/internal/core"
)

func TestWorldRegistered(t *testing.T) {
	factory, ok := core.Sims()["wildfire"]
	if !ok {
		t.Fatal("wildfire sim not registered")
	}
	sim := factory(map[string]string{"w": "16", "h": "12", "tree_density": "1", "base_spread_prob": "1"})
	if sz := sim.Size(); sz.W != 16 || sz.H != 12 {
		t.Fatalf("size = %+v", sz)
	}
	if len(sim.Cells()) != 16*12 {
		t.Fatalf("display has %d cells", len(sim.Cells()))
	}
	sim.Step()
	w := sim.(*World)
	if w.Stats().Step != 1 || w.Stats().Burning == 0 {
		t.Fatalf("unexpected stats after one step: %+v", w.Stats())
	}
}

func TestWorldResetDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols, cfg.Seed = 24, 32, 99
	w := NewWorld(cfg, DefaultSetup())
	for i := 0; i < 10; i++ {
		w.Step()
	}
	first := slices.Clone(w.Cells())

	w.Cells()[0] = 42
	w.Reset(0)
	for i := 0; i < 10; i++ {
		w.Step()
	}
	if !slices.Equal(first, w.Cells()) {
		t.Fatal("Reset(0) must replay the same run")
	}

	w.Reset(12345)
	for i := 0; i < 10; i++ {
		w.Step()
	}
	if slices.Equal(first, w.Cells()) {
		t.Fatal("a different seed should produce a different run")
	}
}

func TestWorldDisplayMatchesPalette(t *testing.T) {
	w := NewWorld(DefaultConfig(), DefaultSetup())
	palette := w.Palette()
	for i := 0; i < 20; i++ {
		w.Step()
	}
	for i, v := range w.Cells() {
		if int(v) >= len(palette) {
			t.Fatalf("cell %d display value %d outside palette", i, v)
		}
	}
	if DisplayValue(Burning, 2) != displayHeatHot || DisplayValue(Burned, 9) != uint8(Burned) {
		t.Fatal("unexpected display encoding")
	}
}

func TestWorldParameterControls(t *testing.T) {
	w := NewWorld(DefaultConfig(), DefaultSetup())
	if !w.SetFloatParameter("base_spread_prob", 0.8) {
		t.Fatal("SetFloatParameter rejected a valid value")
	}
	if got := w.Engine().Params().BaseSpreadProb; got != 0.8 {
		t.Fatalf("base_spread_prob = %v", got)
	}
	if w.SetFloatParameter("base_spread_prob", 3) {
		t.Fatal("probability above 1 accepted")
	}
	if !w.SetIntParameter("fuel_consumption_time", 5) || w.Engine().Params().FuelConsumptionTime != 5 {
		t.Fatal("SetIntParameter failed")
	}
	if w.SetIntParameter("no_such_key", 1) {
		t.Fatal("unknown key accepted")
	}
	found := false
	for _, g := range w.Parameters().Groups {
		for _, p := range g.Params {
			if p.Key == "fuel_consumption_time" && p.Value == "5" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("parameter snapshot does not reflect the update")
	}
	params := w.Engine().Params()
	for _, c := range w.ParameterControls() {
		if _, err := params.Get(c.Key); err != nil {
			t.Fatalf("control %q has no parameter: %v", c.Key, err)
		}
	}
}

func TestDrivenWorld(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols = 10, 10
	var seeds []uint64
	steps := 0
	w := NewDrivenWorld(cfg, func(seed uint64) (Drive, error) {
		seeds = append(seeds, seed)
		eng, err := New(10, 10, Moore, seed)
		if err != nil {
			return Drive{}, err
		}
		if err := eng.Initialize(1, nil); err != nil {
			return Drive{}, err
		}
		elev := make([]float64, 100)
		elev[0] = 7
		return Drive{
			Engine: eng,
			Step: func() (StepStats, error) {
				steps++
				return eng.Step()
			},
			Elevation: elev,
		}, nil
	})
	if len(seeds) != 1 || seeds[0] != cfg.Seed {
		t.Fatalf("driver seeds = %v", seeds)
	}
	w.Step()
	w.Step()
	if steps != 2 || w.Stats().Step != 2 {
		t.Fatalf("steps = %d, stats = %+v", steps, w.Stats())
	}
	if f := w.ElevationField(); len(f) != 100 || f[0] != 7 {
		t.Fatal("elevation field not handed over")
	}
	w.Reset(5)
	if len(seeds) != 2 || seeds[1] != 5 || w.Engine().StepCount() != 0 {
		t.Fatalf("reset did not rebuild through the driver: %v", seeds)
	}
}

func TestDrivenWorldFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols = 8, 8
	w := NewDrivenWorld(cfg, func(uint64) (Drive, error) {
		return Drive{}, ErrInvalidConfig
	})
	if w.Engine() == nil || w.Engine().Lattice().Len() != 64 {
		t.Fatal("expected the configured engine when the driver fails")
	}
	if w.ElevationField() != nil {
		t.Fatal("fallback world has no elevation")
	}
	if !errors.Is(w.Err(), ErrInvalidConfig) {
		t.Fatalf("Err() = %v, want the driver failure", w.Err())
	}
}

func TestWorldReportsBadSetup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols = 8, 8
	w := NewWorld(cfg, Setup{TreeDensity: 3, Intensity: 1})
	if w.Err() == nil {
		t.Fatal("invalid tree density went unreported")
	}
	if w.Engine() == nil || !w.Engine().Initialized() {
		t.Fatal("fallback engine not initialized")
	}
}

func TestWorldWeatherEffectsOnFirstReset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols = 10, 10
	setup := DefaultSetup()
	wx := DefaultWeather()
	wx.WindSpeed = 12
	setup.Weather = &wx
	var seen []float64
	w := NewWorld(cfg, setup, WithWeatherEffects(func(c WeatherConditions) (WindFunc, HumidityFunc) {
		seen = append(seen, c.WindSpeed)
		return nil, nil
	}))
	if len(seen) != 1 || seen[0] != 12 {
		t.Fatalf("effects built %v times on construction", seen)
	}
	if got, ok := w.Engine().Weather(); !ok || got.WindSpeed != 12 {
		t.Fatalf("weather not attached: %+v", got)
	}
	w.Reset(9)
	if len(seen) != 2 || w.Err() != nil {
		t.Fatalf("reset: effects=%v err=%v", seen, w.Err())
	}
}

func TestWorldOverlays(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols = 12, 12
	w := NewWorld(cfg, DefaultSetup())
	for i := 0; i < 3; i++ {
		w.Step()
	}
	for i, v := range w.HeatMask() {
		if v < 0 || v > 1 {
			t.Fatalf("heat mask %d = %v", i, v)
		}
	}
	if _, _, ok := w.WindVector(); ok {
		t.Fatal("no weather attached, expected no wind vector")
	}

	wx := DefaultWeather()
	wx.WindSpeed, wx.WindDirection = 10, 0
	w.Engine().AttachWeather(wx, nil, nil)
	vx, vy, ok := w.WindVector()
	if !ok || vx > -0.49 || vx < -0.51 || vy > 1e-9 || vy < -1e-9 {
		t.Fatalf("wind vector = (%v, %v, %v)", vx, vy, ok)
	}
}

func TestEngineDisplay(t *testing.T) {
	e, err := New(4, 4, Moore, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(1, nil); err != nil {
		t.Fatal(err)
	}
	e.AddIgnitionPoint(1, 1, 2)
	d := e.Display(nil)
	if len(d) != 16 || d[5] != displayHeatHot || d[0] != uint8(Fuel) {
		t.Fatalf("display = %v", d)
	}
	if again := e.Display(d); &again[0] != &d[0] {
		t.Fatal("a correctly sized buffer should be reused")
	}
	if len(Palette()) <= int(displayHeatHot) {
		t.Fatal("palette misses the heat bands")
	}
}

func TestWorldSwitchesNeighborhood(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols = 10, 10
	w := NewWorld(cfg, DefaultSetup())
	if !w.SetStringParameter("neighborhood", "von_neumann") {
		t.Fatal("neighborhood switch rejected")
	}
	if w.Engine().Neighborhood() != VonNeumann || w.Engine().StepCount() != 0 {
		t.Fatal("engine not rebuilt with the new neighborhood")
	}
	if p, ok := w.Parameters().Lookup("neighborhood"); !ok || p.Value != "von_neumann" {
		t.Fatalf("snapshot neighborhood = %+v", p)
	}
	if w.SetStringParameter("neighborhood", "hex") || w.SetStringParameter("seed", "4") {
		t.Fatal("accepted an invalid string parameter")
	}
}

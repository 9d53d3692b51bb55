package fire

import (
	"strconv"

	"wildfire-ca/internal/core"
)

// Parameters reports the world and engine settings grouped for display.
func (w *World) Parameters() core.ParameterSnapshot {
	params := w.eng.Params()
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				intParam("w", "Width", w.cfg.Cols),
				intParam("h", "Height", w.cfg.Rows),
				uintParam("seed", "Seed", w.cfg.Seed),
				{Key: "neighborhood", Label: "Neighborhood", Type: core.ParamTypeString, Value: w.cfg.Neighborhood.String()},
				floatParam("tree_density", "Tree density", w.setup.TreeDensity),
			},
		},
		{
			Name: "Spread",
			Params: []core.Parameter{
				floatParam("base_spread_prob", "Base spread probability", params.BaseSpreadProb),
				floatParam("ignition_prob", "Spontaneous ignition", params.IgnitionProb),
				floatParam("extinguish_prob", "Natural extinguish", params.ExtinguishProb),
				intParam("fuel_consumption_time", "Burn duration", params.FuelConsumptionTime),
				floatParam("heat_cooling", "Heat cooling", params.HeatCooling),
			},
		},
		{
			Name: "Suppression",
			Params: []core.Parameter{
				intParam("moisture_recovery_time", "Moisture recovery", params.MoistureRecoveryTime),
				intParam("firebreak_width", "Firebreak width", params.FirebreakWidth),
			},
		},
		{
			Name: "Spotting",
			Params: []core.Parameter{
				floatParam("max_spot_distance", "Max spot distance (m)", params.MaxSpotDistance),
				floatParam("spot_wind_threshold", "Spot wind threshold (m/s)", params.SpotWindThreshold),
				floatParam("cell_size", "Cell size (m)", params.CellSize),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the HUD-adjustable parameters.
func (w *World) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "base_spread_prob", Label: "Spread", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: "extinguish_prob", Label: "Extinguish", Type: core.ParamTypeFloat, Step: 0.01, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: "ignition_prob", Label: "Ignition", Type: core.ParamTypeFloat, Step: 0.001, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: "fuel_consumption_time", Label: "Burn ticks", Type: core.ParamTypeInt, Step: 1, Min: 0, HasMin: true},
		{Key: "moisture_recovery_time", Label: "Wet ticks", Type: core.ParamTypeInt, Step: 1, Min: 0, HasMin: true},
		{Key: "neighborhood", Label: "Neighbors", Type: core.ParamTypeString, Choices: []string{Moore.String(), VonNeumann.String()}},
	}
}

// SetStringParameter switches the neighborhood and restarts the run with the
// current seed. Worlds fed by a driver keep the driver's lattice rules.
func (w *World) SetStringParameter(key, value string) bool {
	if key != "neighborhood" || w.driver != nil {
		return false
	}
	nb, err := ParseNeighborhood(value)
	if err != nil {
		return false
	}
	w.cfg.Neighborhood = nb
	w.Reset(int64(w.cfg.Seed))
	return w.err == nil
}

// SetFloatParameter updates a float parameter on the live engine.
func (w *World) SetFloatParameter(key string, value float64) bool {
	p := w.eng.Params()
	if err := p.Set(key, value); err != nil {
		return false
	}
	if err := w.eng.SetParams(p); err != nil {
		return false
	}
	w.cfg.Params = p
	return true
}

// SetIntParameter updates an integer parameter on the live engine.
func (w *World) SetIntParameter(key string, value int) bool {
	return w.SetFloatParameter(key, float64(value))
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func uintParam(key, label string, value uint64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatUint(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}

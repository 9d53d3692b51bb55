package fire

import "math"

// windArrowScale is the wind speed (m/s) drawn as a full-length arrow.
const windArrowScale = 20.0

// HeatMask returns per-cell heat normalised to [0,1] against the hottest
// cell, floored at the hot display band.
func (w *World) HeatMask() []float32 {
	heat := w.eng.Heat()
	peak := float32(hotHeat)
	for _, h := range heat {
		if h > peak {
			peak = h
		}
	}
	out := make([]float32, len(heat))
	for i, h := range heat {
		if h > 0 {
			out[i] = h / peak
		}
	}
	return out
}

// MoistureMask returns the fuel moisture field, or nil when none is attached.
func (w *World) MoistureMask() []float32 { return w.eng.FuelMoisture() }

// WindVector returns the direction the fire is pushed in lattice units,
// x along columns and y along rows, scaled so that windArrowScale m/s has
// unit length. ok is false without attached weather or with calm air.
func (w *World) WindVector() (vx, vy float64, ok bool) {
	wx, has := w.eng.Weather()
	if !has || wx.WindSpeed <= 0 {
		return 0, 0, false
	}
	rad := wx.WindDirection * math.Pi / 180
	mag := math.Min(wx.WindSpeed/windArrowScale, 1)
	return -math.Cos(rad) * mag, math.Sin(rad) * mag, true
}

// ElevationField returns the elevation handed over by the driver, or nil.
func (w *World) ElevationField() []float64 { return w.elevation }

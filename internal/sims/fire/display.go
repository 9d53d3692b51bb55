package fire

import "image/color"

const (
	displayHeatWarm = 5
	displayHeatHot  = 6
	hotHeat         = 1.5
	warmHeat        = 0.75
)

var firePalette = []color.RGBA{
	Empty:           {R: 70, G: 52, B: 32, A: 255},
	Fuel:            {R: 40, G: 100, B: 55, A: 255},
	Burning:         {R: 255, G: 130, B: 40, A: 255},
	Burned:          {R: 35, G: 35, B: 35, A: 255},
	Wet:             {R: 60, G: 110, B: 200, A: 255},
	displayHeatWarm: {R: 255, G: 180, B: 60, A: 255},
	displayHeatHot:  {R: 255, G: 240, B: 170, A: 255},
}

// Palette is the color palette indexed by DisplayValue.
func Palette() []color.RGBA { return firePalette }

// Palette exposes the color palette used for rendering the wildfire world.
func (w *World) Palette() []color.RGBA { return firePalette }

// DisplayValue encodes a cell for the palette. Burning cells brighten with
// heat.
func DisplayValue(s CellState, heat float32) uint8 {
	if s == Burning {
		switch {
		case heat >= hotHeat:
			return displayHeatHot
		case heat >= warmHeat:
			return displayHeatWarm
		}
	}
	return uint8(s)
}

// Display encodes every cell with DisplayValue into dst, reallocating it
// when the length does not match.
func (e *Engine) Display(dst []uint8) []uint8 {
	st, heat := e.States(), e.Heat()
	if len(dst) != len(st) {
		dst = make([]uint8, len(st))
	}
	for i := range dst {
		dst[i] = DisplayValue(st[i], heat[i])
	}
	return dst
}

func (w *World) refreshDisplay() {
	w.display = w.eng.Display(w.display)
}

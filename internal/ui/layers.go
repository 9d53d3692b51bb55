package ui

import (
	"image/color"
	"math"
)

// Tints for the per-cell mask layers.
var (
	HeatTint     = color.RGBA{R: 255, G: 96, B: 24}
	MoistureTint = color.RGBA{R: 64, G: 164, B: 223}
)

// WindSample is one arrow anchor, in cell (cx, cy) and screen (sx, sy)
// coordinates.
type WindSample struct {
	CX, CY float64
	SX, SY float64
}

// WindSamples lays an evenly spaced arrow grid over a w*h lattice drawn at
// scale. span is the pixel distance between neighbouring arrows.
func WindSamples(w, h, scale int) (samples []WindSample, span float64) {
	if w <= 0 || h <= 0 {
		return nil, 0
	}
	scale = max(scale, 1)

	const (
		targetSamples = 360.0
		minSpacing    = 6
		maxSpacing    = 20
	)
	spacing := int(math.Sqrt(float64(w*h) / targetSamples))
	spacing = min(max(spacing, minSpacing), maxSpacing)

	countX := max((w+spacing-1)/spacing, 1)
	countY := max((h+spacing-1)/spacing, 1)
	startX := max((w-1-(countX-1)*spacing)/2, 0)
	startY := max((h-1-(countY-1)*spacing)/2, 0)

	for yi := 0; yi < countY; yi++ {
		cy := float64(min(startY+yi*spacing, h-1)) + 0.5
		for xi := 0; xi < countX; xi++ {
			cx := float64(min(startX+xi*spacing, w-1)) + 0.5
			samples = append(samples, WindSample{CX: cx, CY: cy, SX: cx * float64(scale), SY: cy * float64(scale)})
		}
	}
	return samples, float64(spacing * scale)
}

// FillMask writes a translucent tint for every cell of mask into buf.
// Intensities are clamped to [0,1]; zero cells are transparent.
func FillMask(buf []byte, mask []float32, tint color.RGBA) {
	const (
		maxAlpha      = 140.0
		glowBase      = 0.35
		glowRange     = 0.65
		intensityBias = 0.75
	)
	for i, m := range mask {
		base := i * 4
		intensity := clamp01(float64(m))
		if intensity == 0 {
			buf[base+0], buf[base+1], buf[base+2], buf[base+3] = 0, 0, 0, 0
			continue
		}
		glow := glowBase + glowRange*math.Sqrt(intensity)
		buf[base+0] = scaleColorComponent(tint.R, glow)
		buf[base+1] = scaleColorComponent(tint.G, glow)
		buf[base+2] = scaleColorComponent(tint.B, glow)
		buf[base+3] = uint8(math.Round(maxAlpha * math.Pow(intensity, intensityBias)))
	}
}

// FillElevation shades a w*h elevation field as hypsometric tints, with
// steeper cells drawn more opaque. It reports false on a shape mismatch.
func FillElevation(buf []byte, field []float64, w, h int) bool {
	total := w * h
	if total == 0 || len(field) != total || len(buf) < 4*total {
		return false
	}
	lo, hi := field[0], field[0]
	for _, v := range field {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			col := elevationColor((field[idx] - lo) / span)
			alpha := float64(col.A)
			if hi > lo {
				v := field[idx]
				diff := 0.0
				if x > 0 {
					diff = math.Max(diff, math.Abs(v-field[idx-1]))
				}
				if x+1 < w {
					diff = math.Max(diff, math.Abs(v-field[idx+1]))
				}
				if y > 0 {
					diff = math.Max(diff, math.Abs(v-field[idx-w]))
				}
				if y+1 < h {
					diff = math.Max(diff, math.Abs(v-field[idx+w]))
				}
				alpha *= 0.55 + 0.45*clamp01(diff/span)
			}
			base := idx * 4
			buf[base+0] = col.R
			buf[base+1] = col.G
			buf[base+2] = col.B
			buf[base+3] = uint8(math.Round(clamp(alpha, 0, 255)))
		}
	}
	return true
}

// arrowColor brightens with wind strength t in [0,1].
func arrowColor(t float64) color.RGBA {
	t = clamp01(t)
	return color.RGBA{
		R: uint8(math.Round(230 + 25*t)),
		G: uint8(math.Round(200 - 90*t)),
		B: uint8(math.Round(120 - 80*t)),
		A: uint8(math.Round(150 + 90*t)),
	}
}

func elevationColor(t float64) color.RGBA {
	t = clamp01(t)
	stops := []struct {
		t   float64
		col color.RGBA
	}{
		{0.0, color.RGBA{R: 40, G: 60, B: 120, A: 150}},
		{0.25, color.RGBA{R: 70, G: 105, B: 160, A: 165}},
		{0.5, color.RGBA{R: 90, G: 150, B: 100, A: 185}},
		{0.75, color.RGBA{R: 190, G: 160, B: 80, A: 205}},
		{1.0, color.RGBA{R: 240, G: 235, B: 215, A: 215}},
	}
	for i := 1; i < len(stops); i++ {
		curr := stops[i]
		if t <= curr.t {
			prev := stops[i-1]
			local := 0.0
			if span := curr.t - prev.t; span > 0 {
				local = (t - prev.t) / span
			}
			return lerpRGBA(prev.col, curr.col, local)
		}
	}
	return stops[len(stops)-1].col
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	return color.RGBA{
		R: lerpComponent(a.R, b.R, t),
		G: lerpComponent(a.G, b.G, t),
		B: lerpComponent(a.B, b.B, t),
		A: lerpComponent(a.A, b.A, t),
	}
}

func lerpComponent(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func scaleColorComponent(value uint8, factor float64) uint8 {
	return uint8(clamp(math.Round(float64(value)*factor), 0, 255))
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

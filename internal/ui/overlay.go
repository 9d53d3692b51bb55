//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"wildfire-ca/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type heatProvider interface {
	HeatMask() []float32
}

type moistureProvider interface {
	MoistureMask() []float32
}

type windProvider interface {
	WindVector() (vx, vy float64, ok bool)
}

type elevationProvider interface {
	ElevationField() []float64
}

// Overlay draws toggleable layers over the lattice: 1 heat, 2 fuel
// moisture, 3 wind, 4 elevation.
type Overlay struct {
	sim   core.Sim
	scale int

	showHeat     bool
	showMoisture bool
	showWind     bool
	showElev     bool

	layer    *ebiten.Image
	layerBuf []byte
	pixel    *ebiten.Image

	samples     []WindSample
	sampleSpan  float64
	sampleW     int
	sampleH     int
	sampleScale int
}

// NewOverlay constructs an overlay for sim drawn at scale.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	o := &Overlay{sim: sim, scale: max(scale, 1), showWind: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update handles the layer toggles.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showHeat = !o.showHeat
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showMoisture = !o.showMoisture
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit3) {
		o.showWind = !o.showWind
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit4) {
		o.showElev = !o.showElev
	}
}

// Draw renders the enabled layers onto screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	size := o.sim.Size()
	if size.Cells() == 0 {
		return
	}
	if o.showElev {
		if p, ok := o.sim.(elevationProvider); ok {
			o.ensureLayer(size)
			if FillElevation(o.layerBuf, p.ElevationField(), size.W, size.H) {
				o.blitLayer(screen)
			}
		}
	}
	if o.showMoisture {
		if p, ok := o.sim.(moistureProvider); ok {
			o.drawMask(screen, size, p.MoistureMask(), MoistureTint)
		}
	}
	if o.showHeat {
		if p, ok := o.sim.(heatProvider); ok {
			o.drawMask(screen, size, p.HeatMask(), HeatTint)
		}
	}
	if o.showWind {
		if p, ok := o.sim.(windProvider); ok {
			if vx, vy, ok := p.WindVector(); ok {
				o.drawWind(screen, size, vx, vy)
			}
		}
	}
}

func (o *Overlay) ensureLayer(size core.Size) {
	if o.layer == nil || o.layer.Bounds().Dx() != size.W || o.layer.Bounds().Dy() != size.H {
		o.layer = ebiten.NewImage(size.W, size.H)
		o.layerBuf = make([]byte, 4*size.Cells())
	}
}

func (o *Overlay) drawMask(screen *ebiten.Image, size core.Size, mask []float32, tint color.RGBA) {
	if len(mask) != size.Cells() {
		return
	}
	o.ensureLayer(size)
	FillMask(o.layerBuf, mask, tint)
	o.blitLayer(screen)
}

func (o *Overlay) blitLayer(screen *ebiten.Image) {
	o.layer.WritePixels(o.layerBuf)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(o.scale), float64(o.scale))
	screen.DrawImage(o.layer, op)
}

// drawWind draws the uniform wind field as an arrow grid.
func (o *Overlay) drawWind(screen *ebiten.Image, size core.Size, vx, vy float64) {
	if o.sampleW != size.W || o.sampleH != size.H || o.sampleScale != o.scale {
		o.samples, o.sampleSpan = WindSamples(size.W, size.H, o.scale)
		o.sampleW, o.sampleH, o.sampleScale = size.W, size.H, o.scale
	}
	speed := math.Hypot(vx, vy)
	if speed == 0 || len(o.samples) == 0 {
		return
	}

	const headAngle = math.Pi / 6
	nx, ny := vx/speed, vy/speed
	strength := clamp01(speed)
	length := o.sampleSpan * (0.35 + 0.35*math.Sqrt(strength))
	headLength := math.Min(length*0.3, float64(o.scale)*4.5)
	thickness := math.Max(float64(o.scale)*(0.65+0.4*strength), 1)
	col := arrowColor(strength)
	angle := math.Atan2(ny, nx)

	for _, s := range o.samples {
		tail := length * 0.4
		tipX, tipY := s.SX+nx*(length-tail), s.SY+ny*(length-tail)
		o.drawLine(screen, s.SX-nx*tail, s.SY-ny*tail, tipX-nx*headLength, tipY-ny*headLength, thickness, col)
		o.drawLine(screen, tipX, tipY, tipX-math.Cos(angle+headAngle)*headLength, tipY-math.Sin(angle+headAngle)*headLength, thickness*0.85, col)
		o.drawLine(screen, tipX, tipY, tipX-math.Cos(angle-headAngle)*headLength, tipY-math.Sin(angle-headAngle)*headLength, thickness*0.85, col)
	}
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 || thickness <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

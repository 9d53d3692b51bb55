//go:build ebiten

package ui

import (
	"image"
	"image/color"
	"strconv"

	"wildfire-ca/internal/core"
	"wildfire-ca/internal/sims/fire"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type statsProvider interface {
	Stats() fire.StepStats
}

var (
	panelBG     = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	titleColor  = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	textColor   = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	mutedColor  = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	statusColor = color.RGBA{R: 255, G: 190, B: 120, A: 255}
)

// HUD renders the run status and the parameter controls to the right of the
// lattice.
type HUD struct {
	sim   core.Sim
	width int
	panel *ebiten.Image
	pixel *ebiten.Image

	controls     []controlState
	intSetter    core.IntParameterSetter
	floatSetter  core.FloatParameterSetter
	strSetter    core.StringParameterSetter
	panelOffsetX int
	status       []string
}

type controlState struct {
	control  core.ParameterControl
	value    float64
	text     string
	hasValue bool

	top       int
	minusRect image.Rectangle
	plusRect  image.Rectangle
}

// NewHUD constructs a HUD for sim with a panel width in pixels.
func NewHUD(sim core.Sim, width int) *HUD {
	h := &HUD{sim: sim, width: max(width, 0)}
	if h.width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	if p, ok := sim.(core.ParameterControlsProvider); ok {
		for _, ctrl := range p.ParameterControls() {
			h.controls = append(h.controls, controlState{control: ctrl})
		}
	}
	h.intSetter, _ = sim.(core.IntParameterSetter)
	h.floatSetter, _ = sim.(core.FloatParameterSetter)
	h.strSetter, _ = sim.(core.StringParameterSetter)
	h.layoutControls()
	return h
}

// Update refreshes status and values and handles clicks on the panel.
func (h *HUD) Update(panelOffsetX int) {
	if h == nil {
		return
	}
	h.panelOffsetX = panelOffsetX
	if p, ok := h.sim.(statsProvider); ok {
		h.status = StatusLines(p.Stats())
	}
	h.refreshValues()
	h.handleInput()
}

// Draw paints the panel at offsetX.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	height := h.sim.Size().H * max(scale, 1)
	if height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(panelBG)

	face := basicfont.Face7x13
	y := panelPadding + headerBaseline
	text.Draw(h.panel, h.sim.Name(), face, panelPadding, y, titleColor)
	for _, line := range h.status {
		y += statusLine
		text.Draw(h.panel, line, face, panelPadding, y, statusColor)
	}
	if len(h.controls) == 0 {
		text.Draw(h.panel, "No adjustable parameters", face, panelPadding, y+infoSpacing, mutedColor)
	}
	for i := range h.controls {
		h.drawControl(&h.controls[i])
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func (h *HUD) refreshValues() {
	p, ok := h.sim.(core.ParameterProvider)
	if !ok {
		return
	}
	values := p.Parameters().Values()
	for i := range h.controls {
		st := &h.controls[i]
		raw, found := values[st.control.Key]
		if st.control.Type == core.ParamTypeString {
			st.text, st.hasValue = raw, found
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		st.value, st.hasValue = v, err == nil
	}
}

func (h *HUD) handleInput() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	px := mx - h.panelOffsetX
	if px < 0 {
		return
	}
	for i := range h.controls {
		st := &h.controls[i]
		switch {
		case !st.hasValue:
		case image.Pt(px, my).In(st.minusRect):
			h.apply(st, -1)
			return
		case image.Pt(px, my).In(st.plusRect):
			h.apply(st, 1)
			return
		}
	}
}

func (h *HUD) apply(st *controlState, dir int) {
	if st.control.Type == core.ParamTypeString {
		next, ok := st.control.Cycle(st.text, dir)
		if ok && h.strSetter != nil && h.strSetter.SetStringParameter(st.control.Key, next) {
			st.text = next
		}
		return
	}
	target, ok := st.control.Nudge(st.value, dir)
	if !ok {
		return
	}
	switch st.control.Type {
	case core.ParamTypeInt:
		if h.intSetter != nil && h.intSetter.SetIntParameter(st.control.Key, int(target)) {
			st.value = target
		}
	case core.ParamTypeFloat:
		if h.floatSetter != nil && h.floatSetter.SetFloatParameter(st.control.Key, target) {
			st.value = target
		}
	}
}

func (h *HUD) drawControl(st *controlState) {
	face := basicfont.Face7x13
	y := st.top + labelBaseline
	text.Draw(h.panel, st.control.Label, face, panelPadding, y, textColor)

	value, col := "--", mutedColor
	switch {
	case !st.hasValue:
	case st.control.Type == core.ParamTypeString:
		value, col = st.text, textColor
	default:
		value, col = st.control.Format(st.value), textColor
	}
	w := text.BoundString(face, value).Dx()
	text.Draw(h.panel, value, face, st.minusRect.Min.X-buttonGap-w, y, col)

	canDown, canUp := true, true
	if st.control.Type != core.ParamTypeString {
		_, canDown = st.control.Nudge(st.value, -1)
		_, canUp = st.control.Nudge(st.value, 1)
	}
	h.drawButton(st.minusRect, "-", st.hasValue && canDown)
	h.drawButton(st.plusRect, "+", st.hasValue && canUp)
}

func (h *HUD) drawButton(rect image.Rectangle, label string, enabled bool) {
	bg := color.RGBA{R: 54, G: 56, B: 64, A: 255}
	fg := color.RGBA{R: 230, G: 230, B: 240, A: 255}
	if !enabled {
		bg = color.RGBA{R: 32, G: 34, B: 40, A: 255}
		fg = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(rect.Dx()), float64(rect.Dy()))
	op.GeoM.Translate(float64(rect.Min.X), float64(rect.Min.Y))
	op.ColorScale.ScaleWithColor(bg)
	h.panel.DrawImage(h.pixel, op)

	face := basicfont.Face7x13
	b := text.BoundString(face, label)
	x := rect.Min.X + (rect.Dx()-b.Dx())/2
	y := rect.Min.Y + (rect.Dy()-b.Dy())/2 + b.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}

// layoutControls stacks the controls below the status block.
func (h *HUD) layoutControls() {
	if h.width <= 0 {
		return
	}
	for i := range h.controls {
		top := controlsTop + i*lineHeight
		buttonY := top + (lineHeight-buttonSize)/2
		plus := image.Rect(h.width-panelPadding-buttonSize, buttonY, h.width-panelPadding, buttonY+buttonSize)
		minus := image.Rect(plus.Min.X-buttonGap-buttonSize, buttonY, plus.Min.X-buttonGap, buttonY+buttonSize)
		h.controls[i].top, h.controls[i].minusRect, h.controls[i].plusRect = top, minus, plus
	}
}

const (
	panelPadding   = 12
	lineHeight     = 36
	buttonSize     = 24
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 24
	infoSpacing    = 36
	statusLine     = 16
	statusRows     = 7
	controlsTop    = panelPadding + headerBaseline + statusRows*statusLine + 20
)

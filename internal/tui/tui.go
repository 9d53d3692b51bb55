// Package tui draws a running wildfire in a terminal.
package tui

import (
	"context"
	"image/color"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	channerics "github.com/niceyeti/channerics/channels"

	"wildfire-ca/internal/core"
	"wildfire-ca/internal/sims/fire"
	"wildfire-ca/internal/ui"
)

const (
	frameInterval = 50 * time.Millisecond
	panelWidth    = 22
)

var (
	styleBase   = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleHeader = styleBase.Foreground(tcell.ColorOrange).Bold(true)
	styleStatus = styleBase.Foreground(tcell.ColorSilver)
	stylePaused = styleBase.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	styleHelp   = styleBase.Foreground(tcell.ColorGray)
)

// glyphs per palette index: empty, fuel, burning, burned, wet, warm, hot.
var glyphs = []rune{'·', '♣', '▲', '░', '≈', '▲', '█'}

// Viewer renders a World onto a tcell screen and steps it on a timer.
type Viewer struct {
	screen tcell.Screen
	world  *fire.World
	timer  *core.FixedStep
	log    *log.Logger
	styles []tcell.Style
	seed   int64
}

// New returns a viewer stepping world at tps ticks per second.
func New(screen tcell.Screen, world *fire.World, tps int, logger *log.Logger) *Viewer {
	if logger == nil {
		logger = log.Default()
	}
	return &Viewer{
		screen: screen,
		world:  world,
		timer:  core.NewFixedStep(tps),
		log:    logger,
		styles: Styles(world.Palette()),
	}
}

// Styles maps a palette to cell styles.
func Styles(palette []color.RGBA) []tcell.Style {
	out := make([]tcell.Style, len(palette))
	for i, c := range palette {
		fg := tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
		out[i] = styleBase.Foreground(fg)
	}
	return out
}

// Glyph returns the rune drawn for a display value.
func Glyph(v uint8) rune {
	if int(v) < len(glyphs) {
		return glyphs[v]
	}
	return '?'
}

// Viewport is the part of a w*h lattice that fits a screen of sw*sh cells
// next to the side panel.
func Viewport(sw, sh, w, h int) (vw, vh int) {
	return max(min(w, sw-panelWidth), 0), max(min(h, sh), 0)
}

// Run handles input and redraws until ctx ends or the user quits.
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	frames := channerics.NewTicker(ctx.Done(), frameInterval)
	v.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !v.handle(ev) {
				return nil
			}
			v.draw()
		case <-frames:
			if v.timer.ShouldStep() {
				v.world.Step()
			}
			v.draw()
		}
	}
}

// handle applies one input event; false means quit.
func (v *Viewer) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		return v.handleKey(ev.Key(), ev.Rune())
	}
	return true
}

func (v *Viewer) handleKey(key tcell.Key, r rune) bool {
	if key == tcell.KeyEscape || key == tcell.KeyCtrlC {
		return false
	}
	if key == tcell.KeyRune {
		switch r {
		case 'q':
			return false
		case ' ':
			v.timer.SetPaused(!v.timer.Paused())
		case 'n':
			v.world.Step()
		case 'r':
			v.world.Reset(v.seed)
			v.log.Info("reset", "seed", v.seed)
		case 's':
			v.seed = time.Now().UnixNano()
			v.world.Reset(v.seed)
			v.log.Info("reseeded", "seed", v.seed)
		case '+', '=':
			v.timer.SetTPS(v.timer.TPS() * 2)
		case '-':
			v.timer.SetTPS(max(v.timer.TPS()/2, 1))
		}
	}
	return true
}

func (v *Viewer) draw() {
	v.screen.Clear()
	sw, sh := v.screen.Size()
	size := v.world.Size()
	vw, vh := Viewport(sw, sh, size.W, size.H)
	cells := v.world.Cells()
	for y := 0; y < vh; y++ {
		for x := 0; x < vw; x++ {
			d := cells[y*size.W+x]
			style := styleBase
			if int(d) < len(v.styles) {
				style = v.styles[d]
			}
			v.screen.SetContent(x, y, Glyph(d), nil, style)
		}
	}

	px := vw + 1
	putString(v.screen, px, 0, v.world.Name(), styleHeader)
	for i, line := range ui.StatusLines(v.world.Stats()) {
		putString(v.screen, px, i+2, line, styleStatus)
	}
	if v.timer.Paused() {
		putString(v.screen, px, 10, " PAUSED ", stylePaused)
	}
	putString(v.screen, px, sh-1, "q quit  spc pause  n step", styleHelp)
	v.screen.Show()
}

func putString(s tcell.Screen, x, y int, str string, style tcell.Style) {
	for _, r := range str {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

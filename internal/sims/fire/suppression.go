package fire

import (
	"fmt"
	"math"
	"sort"
)

// SuppressionKind names a suppression variant.
type SuppressionKind string

const (
	KindGroundCrew SuppressionKind = "ground_crew"
	KindAerialDrop SuppressionKind = "aerial_drop"
	KindFirebreak  SuppressionKind = "firebreak"
	KindRetardant  SuppressionKind = "retardant"
	KindWaterDrop  SuppressionKind = "water_drop"
)

// SuppressionEvent is one operator intervention. The concrete types are
// GroundCrew, AerialDrop, Firebreak, Retardant and WaterDrop.
type SuppressionEvent interface {
	Kind() SuppressionKind
	apply(e *Engine) SuppressionResult
}

// SuppressionResult counts the cells an event changed.
type SuppressionResult struct {
	Extinguished int `json:"extinguished"`
	Wetted       int `json:"wetted"`
	FuelRemoved  int `json:"fuel_removed"`
}

func (r *SuppressionResult) add(o SuppressionResult) {
	r.Extinguished += o.Extinguished
	r.Wetted += o.Wetted
	r.FuelRemoved += o.FuelRemoved
}

// GroundCrew extinguishes burning cells within a Chebyshev radius, each with
// probability Effectiveness.
type GroundCrew struct {
	Center        Cell
	Radius        int
	Effectiveness float64
}

// AerialDrop extinguishes burning cells within a Euclidean radius with
// probability Effectiveness x (1 - 0.3 d/r).
type AerialDrop struct {
	Center        Cell
	Radius        int
	Effectiveness float64
}

// Firebreak clears a line of cells Width/2 either side of the segment. Used at
// setup it leaves Empty cells; applied as suppression it burns out fire on the
// line and strips the fuel so it can never reignite.
type Firebreak struct {
	Start Cell `json:"start" yaml:"start"`
	End   Cell `json:"end" yaml:"end"`
	Width int  `json:"width" yaml:"width"`
}

// Retardant extinguishes burning listed cells with probability Effectiveness
// and raises their fuel moisture.
type Retardant struct {
	Cells         []Cell
	Effectiveness float64
}

// WaterDrop wets burning and unburned fuel within a Euclidean radius with
// probability Effectiveness x (1 - d/r). Wetted cells recover to Fuel after
// moisture_recovery_time ticks.
type WaterDrop struct {
	Center        Cell
	Radius        int
	Effectiveness float64
}

func (GroundCrew) Kind() SuppressionKind { return KindGroundCrew }
func (AerialDrop) Kind() SuppressionKind { return KindAerialDrop }
func (Firebreak) Kind() SuppressionKind  { return KindFirebreak }
func (Retardant) Kind() SuppressionKind  { return KindRetardant }
func (WaterDrop) Kind() SuppressionKind  { return KindWaterDrop }

const (
	retardantMoistureBoost = 0.2
	retardantMoistureCap   = 0.5
	aerialDecay            = 0.3
)

func (g GroundCrew) apply(e *Engine) SuppressionResult {
	var res SuppressionResult
	cr, cc := e.grid.Clamp(g.Center.Row, g.Center.Col)
	rad := max(g.Radius, 0)
	for r := max(cr-rad, 0); r <= min(cr+rad, e.grid.Rows-1); r++ {
		for c := max(cc-rad, 0); c <= min(cc+rad, e.grid.Cols-1); c++ {
			i := e.grid.Index(r, c)
			if e.curr.state[i] == Burning && e.rng.Chance(g.Effectiveness) {
				e.curr.burnOut(i)
				res.Extinguished++
			}
		}
	}
	return res
}

func (a AerialDrop) apply(e *Engine) SuppressionResult {
	var res SuppressionResult
	e.forEachInRadius(a.Center, a.Radius, func(i int, frac float64) {
		if e.curr.state[i] != Burning {
			return
		}
		if e.rng.Chance(a.Effectiveness * (1 - aerialDecay*frac)) {
			e.curr.burnOut(i)
			res.Extinguished++
		}
	})
	return res
}

func (f Firebreak) apply(e *Engine) SuppressionResult {
	var res SuppressionResult
	width := f.Width
	if width <= 0 {
		width = e.params.FirebreakWidth
	}
	e.stampLine(f.Start, f.End, width, func(i int) {
		if e.curr.state[i] == Burning {
			e.curr.burnOut(i)
			res.Extinguished++
		}
		if e.fuel[i] != NB9 {
			e.fuel[i] = NB9
			res.FuelRemoved++
		}
	})
	return res
}

func (rt Retardant) apply(e *Engine) SuppressionResult {
	var res SuppressionResult
	for _, cell := range rt.Cells {
		if !e.grid.InBounds(cell.Row, cell.Col) {
			continue
		}
		i := e.grid.Index(cell.Row, cell.Col)
		if e.curr.state[i] == Burning && e.rng.Chance(rt.Effectiveness) {
			e.curr.burnOut(i)
			res.Extinguished++
		}
		if e.fuelMoisture == nil {
			e.fuelMoisture = make([]float32, e.grid.Len())
		}
		e.fuelMoisture[i] = float32(math.Min(retardantMoistureCap, float64(e.fuelMoisture[i])+retardantMoistureBoost))
	}
	return res
}

func (w WaterDrop) apply(e *Engine) SuppressionResult {
	var res SuppressionResult
	ticks := uint16(e.params.MoistureRecoveryTime)
	e.forEachInRadius(w.Center, w.Radius, func(i int, frac float64) {
		s := e.curr.state[i]
		if s != Burning && s != Fuel {
			return
		}
		if !e.rng.Chance(w.Effectiveness * (1 - frac)) {
			return
		}
		if s == Burning {
			e.curr.heat[i] = 0
			res.Extinguished++
		}
		e.curr.wet(i, ticks)
		res.Wetted++
	})
	return res
}

// forEachInRadius visits cells within Euclidean radius of the clamped center
// in row-major order, passing d/radius (0 when radius is 0).
func (e *Engine) forEachInRadius(center Cell, radius int, fn func(i int, frac float64)) {
	cr, cc := e.grid.Clamp(center.Row, center.Col)
	rad := max(radius, 0)
	for r := max(cr-rad, 0); r <= min(cr+rad, e.grid.Rows-1); r++ {
		for c := max(cc-rad, 0); c <= min(cc+rad, e.grid.Cols-1); c++ {
			d := math.Hypot(float64(r-cr), float64(c-cc))
			if d > float64(rad) {
				continue
			}
			frac := 0.0
			if rad > 0 {
				frac = d / float64(rad)
			}
			fn(e.grid.Index(r, c), frac)
		}
	}
}

// bresenham returns the cells of the segment a-b inclusive.
func bresenham(a, b Cell) []Cell {
	dr := abs(b.Row - a.Row)
	dc := -abs(b.Col - a.Col)
	sr, sc := 1, 1
	if a.Row > b.Row {
		sr = -1
	}
	if a.Col > b.Col {
		sc = -1
	}
	var out []Cell
	r, c := a.Row, a.Col
	err := dr + dc
	for {
		out = append(out, Cell{Row: r, Col: c})
		if r == b.Row && c == b.Col {
			return out
		}
		e2 := 2 * err
		if e2 >= dc {
			err += dc
			r += sr
		}
		if e2 <= dr {
			err += dr
			c += sc
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// stampLine visits every in-bounds cell of a width x width square centred on
// each point of the segment start-end, so the band is exactly width cells
// across. Even widths extend one cell further down and right. Endpoints are
// clamped to the lattice. A cell may be visited more than once.
func (e *Engine) stampLine(start, end Cell, width int, fn func(i int)) {
	sr, sc := e.grid.Clamp(start.Row, start.Col)
	er, ec := e.grid.Clamp(end.Row, end.Col)
	width = max(width, 1)
	lo, hi := -(width-1)/2, width/2
	for _, p := range bresenham(Cell{Row: sr, Col: sc}, Cell{Row: er, Col: ec}) {
		for dr := lo; dr <= hi; dr++ {
			for dc := lo; dc <= hi; dc++ {
				r, c := p.Row+dr, p.Col+dc
				if e.grid.InBounds(r, c) {
					fn(e.grid.Index(r, c))
				}
			}
		}
	}
}

// ApplySuppression applies ev to the current state immediately.
func (e *Engine) ApplySuppression(ev SuppressionEvent) (SuppressionResult, error) {
	if !e.initialized {
		return SuppressionResult{}, ErrNotInitialized
	}
	if ev == nil {
		return SuppressionResult{}, &ConfigError{Field: "suppression", Reason: "nil event"}
	}
	return ev.apply(e), nil
}

type scheduledEvent struct {
	tick int
	ev   SuppressionEvent
}

// ScheduleSuppression queues ev to run right after the core update of tick.
// Ticks already in the past run after the next update.
func (e *Engine) ScheduleSuppression(tick int, ev SuppressionEvent) {
	if ev == nil {
		return
	}
	e.schedule = append(e.schedule, scheduledEvent{tick: tick, ev: ev})
	sort.SliceStable(e.schedule, func(a, b int) bool { return e.schedule[a].tick < e.schedule[b].tick })
}

// PendingSuppression reports how many scheduled events have not run yet.
func (e *Engine) PendingSuppression() int { return len(e.schedule) }

func (e *Engine) applyScheduled() SuppressionResult {
	var res SuppressionResult
	n := 0
	for n < len(e.schedule) && e.schedule[n].tick <= e.stepCount {
		res.add(e.schedule[n].ev.apply(e))
		n++
	}
	e.schedule = e.schedule[n:]
	return res
}

// EventSpec is the flat, serialisable form of a SuppressionEvent used by
// scenario files and persisted state.
type EventSpec struct {
	Kind          SuppressionKind `json:"kind" yaml:"kind"`
	Center        *Cell           `json:"center,omitempty" yaml:"center,omitempty"`
	Radius        int             `json:"radius,omitempty" yaml:"radius,omitempty"`
	Effectiveness float64         `json:"effectiveness,omitempty" yaml:"effectiveness,omitempty"`
	Start         *Cell           `json:"start,omitempty" yaml:"start,omitempty"`
	End           *Cell           `json:"end,omitempty" yaml:"end,omitempty"`
	Width         int             `json:"width,omitempty" yaml:"width,omitempty"`
	Cells         []Cell          `json:"cells,omitempty" yaml:"cells,omitempty"`
}

// SpecOf flattens ev.
func SpecOf(ev SuppressionEvent) EventSpec {
	switch v := ev.(type) {
	case GroundCrew:
		c := v.Center
		return EventSpec{Kind: KindGroundCrew, Center: &c, Radius: v.Radius, Effectiveness: v.Effectiveness}
	case AerialDrop:
		c := v.Center
		return EventSpec{Kind: KindAerialDrop, Center: &c, Radius: v.Radius, Effectiveness: v.Effectiveness}
	case WaterDrop:
		c := v.Center
		return EventSpec{Kind: KindWaterDrop, Center: &c, Radius: v.Radius, Effectiveness: v.Effectiveness}
	case Firebreak:
		s, en := v.Start, v.End
		return EventSpec{Kind: KindFirebreak, Start: &s, End: &en, Width: v.Width}
	case Retardant:
		return EventSpec{Kind: KindRetardant, Cells: append([]Cell(nil), v.Cells...), Effectiveness: v.Effectiveness}
	}
	return EventSpec{}
}

// Event rebuilds the typed event.
func (s EventSpec) Event() (SuppressionEvent, error) {
	switch s.Kind {
	case KindGroundCrew, KindAerialDrop, KindWaterDrop:
		if s.Center == nil {
			return nil, &ConfigError{Field: string(s.Kind), Reason: "missing center"}
		}
		switch s.Kind {
		case KindGroundCrew:
			return GroundCrew{Center: *s.Center, Radius: s.Radius, Effectiveness: s.Effectiveness}, nil
		case KindAerialDrop:
			return AerialDrop{Center: *s.Center, Radius: s.Radius, Effectiveness: s.Effectiveness}, nil
		}
		return WaterDrop{Center: *s.Center, Radius: s.Radius, Effectiveness: s.Effectiveness}, nil
	case KindFirebreak:
		if s.Start == nil || s.End == nil {
			return nil, &ConfigError{Field: string(s.Kind), Reason: "missing start or end"}
		}
		return Firebreak{Start: *s.Start, End: *s.End, Width: s.Width}, nil
	case KindRetardant:
		return Retardant{Cells: append([]Cell(nil), s.Cells...), Effectiveness: s.Effectiveness}, nil
	}
	return nil, &ConfigError{Field: "suppression", Reason: fmt.Sprintf("unknown kind %q", s.Kind)}
}

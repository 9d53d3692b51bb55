package fire

import "math"

var (
	blurOrthWeight = math.Exp(-2)
	blurDiagWeight = math.Exp(-4)
)

// Step advances the automaton one tick: the core update, any suppression
// scheduled for the new tick, ember spotting, then statistics.
func (e *Engine) Step() (StepStats, error) {
	if !e.initialized {
		return StepStats{}, ErrNotInitialized
	}
	e.advance()
	e.stepCount++
	sup := e.applyScheduled()
	spotted := e.spot()
	stats := e.Stats()
	stats.Suppressed = sup.Extinguished + sup.Wetted
	stats.SpotEvents = spotted
	return stats, nil
}

// advance computes next entirely from curr and swaps the buffers.
func (e *Engine) advance() {
	old, nxt := e.curr, e.next
	nxt.copyFrom(old)
	ambient := e.ambientFactor()
	n := len(old.state)

	// spread
	for i := 0; i < n; i++ {
		if old.state[i] != Burning {
			continue
		}
		r, c := e.grid.Coord(i)
		from := Cell{Row: r, Col: c}
		for _, off := range e.offsets {
			nr, nc := r+off.DR, c+off.DC
			if !e.grid.InBounds(nr, nc) {
				continue
			}
			j := e.grid.Index(nr, nc)
			if old.state[j] != Fuel || nxt.state[j] == Burning {
				continue
			}
			p := e.spreadProbability(old, i, j, from, Cell{Row: nr, Col: nc}, off.Diagonal, ambient)
			if e.rng.Chance(p) {
				nxt.ignite(j)
				nxt.heat[j] = e.heatOutput(j)
			}
		}
		if nxt.burnTimer[i] < math.MaxUint16 {
			nxt.burnTimer[i]++
		}
	}

	// burnout
	for i := 0; i < n; i++ {
		if old.state[i] == Burning && int(nxt.burnTimer[i]) >= e.burnDuration(i) {
			nxt.burnOut(i)
		}
	}

	// natural extinguish
	if e.params.ExtinguishProb > 0 {
		for i := 0; i < n; i++ {
			if old.state[i] == Burning && e.rng.Chance(e.params.ExtinguishProb) {
				nxt.burnOut(i)
			}
		}
	}

	// moisture recovery
	for i := 0; i < n; i++ {
		if old.state[i] != Wet {
			continue
		}
		t := old.moistureTimer[i]
		if t > 0 {
			t--
		}
		nxt.moistureTimer[i] = t
		if t == 0 {
			nxt.state[i] = Fuel
		}
	}

	e.diffuseHeat(nxt.heat)

	// spontaneous ignition
	if e.params.IgnitionProb > 0 {
		for i := 0; i < n; i++ {
			if old.state[i] != Fuel || nxt.state[i] != Fuel || !e.fuel[i].Combustible() {
				continue
			}
			if e.rng.Chance(e.params.IgnitionProb) {
				nxt.ignite(i)
			}
		}
	}

	e.curr, e.next = e.next, e.curr
}

// diffuseHeat blurs heat with a radius-one Gaussian over the engine's
// neighborhood, renormalised at the edges, then applies cooling.
func (e *Engine) diffuseHeat(heat []float32) {
	src := e.scratch
	copy(src, heat)
	cooling := e.params.HeatCooling
	for i := range heat {
		r, c := e.grid.Coord(i)
		sum := float64(src[i])
		weight := 1.0
		for _, off := range e.offsets {
			nr, nc := r+off.DR, c+off.DC
			if !e.grid.InBounds(nr, nc) {
				continue
			}
			w := blurOrthWeight
			if off.Diagonal {
				w = blurDiagWeight
			}
			sum += w * float64(src[e.grid.Index(nr, nc)])
			weight += w
		}
		v := sum / weight * cooling
		if v < 0 || v != v {
			v = 0
		}
		heat[i] = float32(v)
	}
}

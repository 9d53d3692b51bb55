package fire

// StepStats summarises the lattice after a tick.
type StepStats struct {
	Step      int     `json:"step"`
	Empty     int     `json:"empty_cells"`
	Fuel      int     `json:"fuel_cells"`
	Burning   int     `json:"burning_cells"`
	Burned    int     `json:"burned_cells"`
	Wet       int     `json:"wet_cells"`
	TotalHeat float64 `json:"total_heat"`
	MaxHeat   float64 `json:"max_heat"`
	Perimeter int     `json:"fire_perimeter"`
	BurnRatio float64 `json:"burn_ratio"`

	// Per-tick event counts; zero when computed on demand.
	Suppressed int `json:"suppressed"`
	SpotEvents int `json:"spot_events"`
}

// Total is the number of cells counted.
func (s StepStats) Total() int { return s.Empty + s.Fuel + s.Burning + s.Burned + s.Wet }

// Stats computes statistics for the current state.
func (e *Engine) Stats() StepStats {
	st := StepStats{Step: e.stepCount}
	l := e.curr
	for i, s := range l.state {
		switch s {
		case Empty:
			st.Empty++
		case Fuel:
			st.Fuel++
		case Burning:
			st.Burning++
			if e.onPerimeter(i) {
				st.Perimeter++
			}
		case Burned:
			st.Burned++
		case Wet:
			st.Wet++
		}
		h := float64(l.heat[i])
		st.TotalHeat += h
		if h > st.MaxHeat {
			st.MaxHeat = h
		}
	}
	if n := e.grid.Len(); n > 0 {
		st.BurnRatio = float64(st.Burned) / float64(n)
	}
	return st
}

// onPerimeter reports whether burning cell i is removed by a 4-connected binary
// erosion, i.e. it sits on the lattice border or touches a non-burning
// orthogonal neighbor.
func (e *Engine) onPerimeter(i int) bool {
	r, c := e.grid.Coord(i)
	for _, off := range []struct{ dr, dc int }{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		nr, nc := r+off.dr, c+off.dc
		if !e.grid.InBounds(nr, nc) {
			return true
		}
		if e.curr.state[e.grid.Index(nr, nc)] != Burning {
			return true
		}
	}
	return false
}

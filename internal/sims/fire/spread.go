package fire

const (
	heatFeedback   = 0.1
	diagonalFactor = 0.7
)

// baseProbability is the fuel term of the spread product for target cell j.
func (e *Engine) baseProbability(j int) float64 {
	code := e.fuel[j]
	if !code.Combustible() {
		return 0
	}
	p := e.params.BaseSpreadProb
	if props, ok := e.fuelTable.Lookup(code); ok {
		p = props.SpreadProb
	}
	return p * e.moistureDamping(j)
}

// ambientFactor is the humidity multiplier, constant for a tick.
func (e *Engine) ambientFactor() float64 {
	if !e.hasWx || e.humidity == nil {
		return 1
	}
	return sanitizeFactor(e.humidity())
}

// spreadProbability computes p(i->j) against the frozen buffer old. The result
// is always within [0, 1].
func (e *Engine) spreadProbability(old *layers, i, j int, from, to Cell, diagonal bool, ambient float64) float64 {
	p := e.baseProbability(j)
	if p <= 0 {
		return 0
	}
	if e.terrain != nil {
		p *= sanitizeFactor(e.terrain(from, to))
	}
	if e.hasWx && e.wind != nil {
		p *= sanitizeFactor(e.wind(from, to))
	}
	p *= ambient
	p *= 1 + heatFeedback*float64(old.heat[i])
	if diagonal {
		p *= diagonalFactor
	}
	return clamp01(p)
}

// SpreadProbability exposes p(from->to) for the current state, for analysis
// and tests. Non-adjacent or out-of-bounds pairs yield 0.
func (e *Engine) SpreadProbability(from, to Cell) float64 {
	if !e.grid.InBounds(from.Row, from.Col) || !e.grid.InBounds(to.Row, to.Col) {
		return 0
	}
	for _, off := range e.offsets {
		if from.Row+off.DR == to.Row && from.Col+off.DC == to.Col {
			i := e.grid.Index(from.Row, from.Col)
			j := e.grid.Index(to.Row, to.Col)
			return e.spreadProbability(e.curr, i, j, from, to, off.Diagonal, e.ambientFactor())
		}
	}
	return 0
}

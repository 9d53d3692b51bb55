package core

// Lattice describes a rows x cols grid stored in row-major order.
type Lattice struct {
	Rows, Cols int
}

// Len is the number of cells.
func (l Lattice) Len() int { return l.Rows * l.Cols }

// Index returns the linear slice index for (row, col).
func (l Lattice) Index(row, col int) int { return row*l.Cols + col }

// Coord is the inverse of Index.
func (l Lattice) Coord(i int) (row, col int) { return i / l.Cols, i % l.Cols }

// InBounds reports whether (row, col) lies on the lattice.
func (l Lattice) InBounds(row, col int) bool {
	return row >= 0 && row < l.Rows && col >= 0 && col < l.Cols
}

// Clamp pulls (row, col) onto the nearest edge cell.
func (l Lattice) Clamp(row, col int) (int, int) {
	return clampInt(row, 0, l.Rows-1), clampInt(col, 0, l.Cols-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Offset is a neighbor displacement.
type Offset struct {
	DR, DC   int
	Diagonal bool
}

// VonNeumannOffsets lists the four orthogonal neighbors.
var VonNeumannOffsets = []Offset{
	{DR: -1, DC: 0}, {DR: 0, DC: -1}, {DR: 0, DC: 1}, {DR: 1, DC: 0},
}

// MooreOffsets lists all eight neighbors in row-major order.
var MooreOffsets = []Offset{
	{DR: -1, DC: -1, Diagonal: true}, {DR: -1, DC: 0}, {DR: -1, DC: 1, Diagonal: true},
	{DR: 0, DC: -1}, {DR: 0, DC: 1},
	{DR: 1, DC: -1, Diagonal: true}, {DR: 1, DC: 0}, {DR: 1, DC: 1, Diagonal: true},
}

package core

import (
	"fmt"
	"sort"
	"sync"
)

// Size describes the dimensions of a lattice in cells.
type Size struct {
	W int
	H int
}

// Cells is the number of cells covered by the size.
func (s Size) Cells() int { return s.W * s.H }

// Sim is the contract the viewers drive: an automaton that can be reset,
// stepped and drawn as palette indices.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step()
	Cells() []uint8
}

// Factory constructs a Sim from string options such as "w", "h" or model
// parameters.
type Factory func(cfg map[string]string) Sim

var (
	simsMu sync.RWMutex
	sims   = map[string]Factory{}
)

// Register adds a simulation factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	simsMu.Lock()
	sims[name] = f
	simsMu.Unlock()
}

// Sims returns a copy of the registry.
func Sims() map[string]Factory {
	simsMu.RLock()
	defer simsMu.RUnlock()
	out := make(map[string]Factory, len(sims))
	for k, v := range sims {
		out[k] = v
	}
	return out
}

// SimNames lists registered simulations in order.
func SimNames() []string {
	simsMu.RLock()
	names := make([]string, 0, len(sims))
	for k := range sims {
		names = append(names, k)
	}
	simsMu.RUnlock()
	sort.Strings(names)
	return names
}

// Lookup finds a factory by name.
func Lookup(name string) (Factory, error) {
	simsMu.RLock()
	f, ok := sims[name]
	simsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown sim %q (have %v)", name, SimNames())
	}
	return f, nil
}

// HasSim reports whether name is registered.
func HasSim(name string) bool {
	_, err := Lookup(name)
	return err == nil
}

package core

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/rand/v2"
)

// RNG is the single random stream owned by one simulation. It is not safe for
// concurrent use; independent runs each own their own RNG.
type RNG struct {
	src *rand.PCG
	r   *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed uint64) *RNG {
	src := rand.NewPCG(seed, 0)
	return &RNG{src: src, r: rand.New(src)}
}

// Float64 returns a uniform value in [0, 1).
func (r *RNG) Float64() float64 { return r.r.Float64() }

// IntN returns a uniform value in [0, n). n <= 0 yields 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Uniform returns a uniform value in [lo, hi).
func (r *RNG) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*r.r.Float64()
}

// NormFloat64 returns a standard normal sample.
func (r *RNG) NormFloat64() float64 { return r.r.NormFloat64() }

// Chance performs a Bernoulli trial against p. Probabilities at or below zero
// (and NaN) never succeed and probabilities at or above one always succeed;
// neither consumes a draw.
func (r *RNG) Chance(p float64) bool {
	if math.IsNaN(p) || p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.r.Float64() < p
}

// MarshalText encodes the generator position so a run can be resumed.
func (r *RNG) MarshalText() ([]byte, error) {
	raw, err := r.src.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out, nil
}

// UnmarshalText restores a position produced by MarshalText.
func (r *RNG) UnmarshalText(text []byte) error {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(raw, text)
	if err != nil {
		return fmt.Errorf("rng state: %w", err)
	}
	if r.src == nil {
		r.src = rand.NewPCG(0, 0)
		r.r = rand.New(r.src)
	}
	if err := r.src.UnmarshalBinary(raw[:n]); err != nil {
		return fmt.Errorf("rng state: %w", err)
	}
	return nil
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }

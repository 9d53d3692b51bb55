package fire

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when the lattice has not been populated yet.
	ErrNotInitialized = errors.New("fire: engine not initialized")
	// ErrOutOfBounds is returned for coordinates outside the lattice.
	ErrOutOfBounds = errors.New("fire: cell out of bounds")
	// ErrInvalidConfig matches every *ConfigError via errors.Is.
	ErrInvalidConfig = errors.New("fire: invalid configuration")
)

// ConfigError reports a setup value the engine cannot accept.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "fire: " + e.Reason
	}
	return fmt.Sprintf("fire: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

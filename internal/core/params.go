package core

import (
	"math"
	"slices"
	"strconv"
)

// ParamType enumerates supported parameter value kinds.
type ParamType string

const (
	ParamTypeInt   ParamType = "int"
	ParamTypeFloat ParamType = "float"
	// ParamTypeString covers enumerated values; controls list them in Choices.
	ParamTypeString ParamType = "string"
)

const defaultFloatStep = 0.05

// Parameter is one tunable as shown to the viewers. Value holds the
// formatted current setting.
type Parameter struct {
	Key         string
	Label       string
	Type        ParamType
	Value       string
	Description string
}

// ParameterGroup clusters related parameters for presentation.
type ParameterGroup struct {
	Name    string
	Params  []Parameter
	Summary string
}

// ParameterSnapshot is the full set of tunables a sim exposes at one moment.
type ParameterSnapshot struct {
	Groups []ParameterGroup
}

// Lookup finds a parameter by key across all groups.
func (s ParameterSnapshot) Lookup(key string) (Parameter, bool) {
	for _, g := range s.Groups {
		for _, p := range g.Params {
			if p.Key == key {
				return p, true
			}
		}
	}
	return Parameter{}, false
}

// Values flattens the snapshot into key -> formatted value.
func (s ParameterSnapshot) Values() map[string]string {
	out := map[string]string{}
	for _, g := range s.Groups {
		for _, p := range g.Params {
			out[p.Key] = p.Value
		}
	}
	return out
}

// ParameterControl is a parameter the side panel can adjust. Numeric
// controls move by Step within the optional bounds; string controls cycle
// through Choices.
type ParameterControl struct {
	Key   string
	Label string
	Type  ParamType

	Step float64

	Min    float64
	Max    float64
	HasMin bool
	HasMax bool

	Choices []string
}

// Clamp pulls v inside the control's bounds, rounding int controls.
func (c ParameterControl) Clamp(v float64) float64 {
	if c.HasMin && v < c.Min {
		v = c.Min
	}
	if c.HasMax && v > c.Max {
		v = c.Max
	}
	if c.Type == ParamTypeInt {
		v = math.Round(v)
	}
	return v
}

func (c ParameterControl) step() float64 {
	switch c.Type {
	case ParamTypeInt:
		return math.Max(math.Round(c.Step), 1)
	case ParamTypeFloat:
		if c.Step > 0 {
			return c.Step
		}
		return defaultFloatStep
	}
	return 0
}

// Nudge returns the numeric value one step from current in direction dir.
// ok is false when the value cannot move that way or the control is not
// numeric.
func (c ParameterControl) Nudge(current float64, dir int) (target float64, ok bool) {
	step := c.step()
	if dir == 0 || step == 0 {
		return current, false
	}
	target = c.Clamp(current + float64(dir)*step)
	return target, math.Abs(target-current) > 1e-9
}

// Cycle returns the choice dir places after current, wrapping at either end.
// An unknown current value starts from the first choice.
func (c ParameterControl) Cycle(current string, dir int) (string, bool) {
	n := len(c.Choices)
	if c.Type != ParamTypeString || n == 0 || dir == 0 {
		return current, false
	}
	i := slices.Index(c.Choices, current)
	if i < 0 {
		return c.Choices[0], true
	}
	next := c.Choices[((i+dir)%n+n)%n]
	return next, next != current
}

// Format renders v with a precision matching the step.
func (c ParameterControl) Format(v float64) string {
	if c.Type == ParamTypeInt {
		return strconv.Itoa(int(math.Round(v)))
	}
	precision := 1
	switch step := c.step(); {
	case step < 0.001:
		precision = 4
	case step < 0.01:
		precision = 3
	case step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// ParameterProvider exposes the current parameter snapshot.
type ParameterProvider interface {
	Parameters() ParameterSnapshot
}

// ParameterControlsProvider exposes the list of panel-adjustable controls.
type ParameterControlsProvider interface {
	ParameterControls() []ParameterControl
}

// IntParameterSetter updates integer parameters.
type IntParameterSetter interface {
	SetIntParameter(key string, value int) bool
}

// FloatParameterSetter updates floating point parameters.
type FloatParameterSetter interface {
	SetFloatParameter(key string, value float64) bool
}

// StringParameterSetter updates enumerated parameters.
type StringParameterSetter interface {
	SetStringParameter(key, value string) bool
}

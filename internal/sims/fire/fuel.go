package fire

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// FuelCode identifies a fuel model. FuelUnassigned marks cells without fuel
// map data; they use the engine-wide base parameters.
type FuelCode uint8

const (
	FuelUnassigned FuelCode = iota
	TL1
	TL2
	TL3
	TU1
	TU2
	TU3
	TU4
	TU5
	GS1
	GS2
	GS3
	GR1
	GR2
	SB1
	SB2
	SH1
	NB1
	// NB9 is bare ground. It never ignites and is what firebreaks leave behind.
	NB9
	fuelCodeCount
)

var fuelNames = [fuelCodeCount]string{
	"", "TL1", "TL2", "TL3", "TU1", "TU2", "TU3", "TU4", "TU5",
	"GS1", "GS2", "GS3", "GR1", "GR2", "SB1", "SB2", "SH1", "NB1", "NB9",
}

func (c FuelCode) String() string {
	if c < fuelCodeCount {
		return fuelNames[c]
	}
	return fmt.Sprintf("fuel(%d)", uint8(c))
}

// Combustible reports whether the fuel can ever ignite.
func (c FuelCode) Combustible() bool { return c != NB9 && c < fuelCodeCount }

// MarshalText writes the fuel code name.
func (c FuelCode) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText parses a fuel code name.
func (c *FuelCode) UnmarshalText(b []byte) error {
	v, err := ParseFuelCode(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// FuelCodes lists every named fuel code.
func FuelCodes() []FuelCode {
	out := make([]FuelCode, 0, fuelCodeCount-1)
	for c := TL1; c < fuelCodeCount; c++ {
		out = append(out, c)
	}
	return out
}

// ParseFuelCode resolves a case-insensitive fuel name. An empty string maps to
// FuelUnassigned. Unknown names produce a *ConfigError naming the closest code.
func ParseFuelCode(s string) (FuelCode, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return FuelUnassigned, nil
	}
	for c := TL1; c < fuelCodeCount; c++ {
		if fuelNames[c] == name {
			return c, nil
		}
	}
	reason := fmt.Sprintf("unknown fuel code %q", s)
	if best := closestName(name, fuelNames[TL1:]); best != "" {
		reason += fmt.Sprintf(" (did you mean %s?)", best)
	}
	return FuelUnassigned, &ConfigError{Field: "fuel", Reason: reason}
}

// closestName returns the candidate nearest to name, or "" when nothing is
// close enough to be a plausible typo.
func closestName(name string, candidates []string) string {
	best, bestDist := "", -1
	for _, cand := range candidates {
		d := levenshtein.ComputeDistance(name, cand)
		if bestDist < 0 || d < bestDist {
			best, bestDist = cand, d
		}
	}
	limit := len(name) / 2
	if limit < 1 {
		limit = 1
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}

// ParseFuelMap converts rows of fuel names into a flat row-major slice.
func ParseFuelMap(rows [][]string) ([]FuelCode, error) {
	var out []FuelCode
	for r, row := range rows {
		for c, name := range row {
			code, err := ParseFuelCode(name)
			if err != nil {
				return nil, fmt.Errorf("fuel map (%d,%d): %w", r, c, err)
			}
			out = append(out, code)
		}
	}
	return out, nil
}

// FuelProperties drive the spread model for one fuel code.
type FuelProperties struct {
	SpreadProb   float64 `json:"spread_prob" yaml:"spread_prob"`
	BurnDuration int     `json:"burn_duration_ticks" yaml:"burn_duration_ticks"`
	HeatOutput   float64 `json:"heat_output" yaml:"heat_output"`
}

// FuelTable is a dense lookup indexed by FuelCode. Codes without an entry fall
// back to the engine parameters.
type FuelTable struct {
	props [fuelCodeCount]FuelProperties
	set   [fuelCodeCount]bool
}

// DefaultFuelTable returns the built-in spread properties.
func DefaultFuelTable() FuelTable {
	var t FuelTable
	t.Set(TL1, FuelProperties{SpreadProb: 0.10, BurnDuration: 2, HeatOutput: 1.0})
	t.Set(TL2, FuelProperties{SpreadProb: 0.12, BurnDuration: 3, HeatOutput: 1.1})
	t.Set(TL3, FuelProperties{SpreadProb: 0.13, BurnDuration: 3, HeatOutput: 1.2})
	t.Set(TU1, FuelProperties{SpreadProb: 0.18, BurnDuration: 4, HeatOutput: 1.5})
	t.Set(TU2, FuelProperties{SpreadProb: 0.20, BurnDuration: 4, HeatOutput: 1.6})
	t.Set(TU3, FuelProperties{SpreadProb: 0.22, BurnDuration: 5, HeatOutput: 1.7})
	t.Set(TU4, FuelProperties{SpreadProb: 0.20, BurnDuration: 4, HeatOutput: 1.6})
	t.Set(TU5, FuelProperties{SpreadProb: 0.25, BurnDuration: 5, HeatOutput: 1.8})
	t.Set(GS1, FuelProperties{SpreadProb: 0.30, BurnDuration: 1, HeatOutput: 0.8})
	t.Set(GR1, FuelProperties{SpreadProb: 0.35, BurnDuration: 1, HeatOutput: 0.6})
	t.Set(SH1, FuelProperties{SpreadProb: 0.28, BurnDuration: 2, HeatOutput: 0.9})
	t.Set(NB1, FuelProperties{SpreadProb: 0.01, BurnDuration: 0, HeatOutput: 0.1})
	t.Set(NB9, FuelProperties{})
	return t
}

// FuelTableFromMap builds a table holding only the given entries.
func FuelTableFromMap(m map[FuelCode]FuelProperties) FuelTable {
	var t FuelTable
	for code, p := range m {
		t.Set(code, p)
	}
	return t
}

// Set installs properties for code. Negative values are clamped to zero.
func (t *FuelTable) Set(code FuelCode, p FuelProperties) {
	if code >= fuelCodeCount || code == FuelUnassigned {
		return
	}
	if p.SpreadProb < 0 {
		p.SpreadProb = 0
	}
	if p.BurnDuration < 0 {
		p.BurnDuration = 0
	}
	if p.HeatOutput < 0 {
		p.HeatOutput = 0
	}
	t.props[code] = p
	t.set[code] = true
}

// Lookup returns the properties for code and whether an entry exists.
func (t *FuelTable) Lookup(code FuelCode) (FuelProperties, bool) {
	if code >= fuelCodeCount || !t.set[code] {
		return FuelProperties{}, false
	}
	return t.props[code], true
}

// Entries returns the populated entries keyed by code.
func (t *FuelTable) Entries() map[FuelCode]FuelProperties {
	out := make(map[FuelCode]FuelProperties)
	for c := FuelCode(0); c < fuelCodeCount; c++ {
		if t.set[c] {
			out[c] = t.props[c]
		}
	}
	return out
}

// fuelBehavior holds fixed per-fuel constants of the fire behavior and
// spotting model.
type fuelBehavior struct {
	baseIntensity float64 // kW/m
	ignitability  float64
	emberProne    bool
}

const (
	defaultBaseIntensity = 75.0
	defaultIgnitability  = 0.5
)

var fuelBehaviors = func() [fuelCodeCount]fuelBehavior {
	var b [fuelCodeCount]fuelBehavior
	for i := range b {
		b[i] = fuelBehavior{baseIntensity: defaultBaseIntensity, ignitability: defaultIgnitability}
	}
	b[FuelUnassigned].ignitability = 1.0
	b[TL1] = fuelBehavior{baseIntensity: 50, ignitability: 0.4}
	b[TL2] = fuelBehavior{baseIntensity: 100, ignitability: 0.6, emberProne: true}
	b[TL3] = fuelBehavior{baseIntensity: 200, ignitability: 0.7, emberProne: true}
	b[TU1] = fuelBehavior{baseIntensity: 80, ignitability: 0.5}
	b[TU2] = fuelBehavior{baseIntensity: 150, ignitability: 0.7, emberProne: true}
	b[TU3] = fuelBehavior{baseIntensity: 250, ignitability: 0.8, emberProne: true}
	b[GS1] = fuelBehavior{baseIntensity: 30, ignitability: 0.8}
	b[GS2] = fuelBehavior{baseIntensity: 60, ignitability: 0.9}
	b[GS3] = fuelBehavior{baseIntensity: 90, ignitability: 0.95}
	b[GR1] = fuelBehavior{baseIntensity: 40, ignitability: 0.9}
	b[GR2] = fuelBehavior{baseIntensity: 70, ignitability: 0.95}
	b[SB1] = fuelBehavior{baseIntensity: 120, ignitability: 0.7}
	b[SB2] = fuelBehavior{baseIntensity: 180, ignitability: 0.8, emberProne: true}
	b[NB9] = fuelBehavior{}
	return b
}()

func behaviorOf(c FuelCode) fuelBehavior {
	if c >= fuelCodeCount {
		return fuelBehavior{baseIntensity: defaultBaseIntensity, ignitability: defaultIgnitability}
	}
	return fuelBehaviors[c]
}

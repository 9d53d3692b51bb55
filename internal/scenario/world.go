package scenario

import (
	"wildfire-ca/internal/runner"
	"wildfire-ca/internal/sims/fire"
)

// World wraps the scenario in a fire.World for the interactive viewers.
// Every reset rebuilds the scenario with the new seed and steps it through
// a runner, so scheduled weather, ignitions and suppression still apply.
func (s Scenario) World(opts ...runner.Option) (*fire.World, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	if _, err := s.Build(opts...); err != nil {
		return nil, err
	}
	driver := func(seed uint64) (fire.Drive, error) {
		sc := s
		sc.Seed = seed
		b, err := sc.Build(opts...)
		if err != nil {
			return fire.Drive{}, err
		}
		d := fire.Drive{Engine: b.Engine, Step: b.Runner.Advance}
		if b.Terrain != nil {
			d.Elevation = b.Terrain.ElevationField()
		}
		return d, nil
	}
	return fire.NewDrivenWorld(cfg, driver), nil
}

package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mlmc-sim/mlmc-sim/mlmc"
	"github.com/mlmc-sim/mlmc-sim/mlmc/input"
	"github.com/mlmc-sim/mlmc-sim/usecases/springmass"
)

// Scenario holds a pilot-run configuration for the built-in spring-mass
// benchmark, loadable from a YAML file.
type Scenario struct {
	Statistic   string           `yaml:"statistic"`
	MaxBudget   float64          `yaml:"max_budget"`
	MinBudget   float64          `yaml:"min_budget"`
	Seed        int64            `yaml:"seed"`
	Parallelism int              `yaml:"parallelism"`
	Levels      []LevelScenario  `yaml:"levels"`
	Stiffness   DistributionSpec `yaml:"stiffness"`
}

// LevelScenario declares one fidelity level of the benchmark.
type LevelScenario struct {
	TimeStep       float64 `yaml:"time_step"`
	InitialSamples int     `yaml:"initial_samples"`
	SamplingRatio  float64 `yaml:"sampling_ratio"`
}

// DistributionSpec selects an uncertain-input distribution by name.
type DistributionSpec struct {
	Distribution string  `yaml:"distribution"`
	Min          float64 `yaml:"min"`
	Max          float64 `yaml:"max"`
	Mode         float64 `yaml:"mode"`
	Mu           float64 `yaml:"mu"`
	Sigma        float64 `yaml:"sigma"`
}

// ValidDistributions is the set of recognized distribution names.
var ValidDistributions = map[string]bool{
	"": true, "uniform": true, "normal": true, "lognormal": true, "triangular": true,
}

// LoadScenario reads and parses a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &scenario, nil
}

// Validate checks names and parameter ranges; budget and per-level ranges
// are revalidated by the pilot itself.
func (s *Scenario) Validate() error {
	if len(s.Levels) == 0 {
		return fmt.Errorf("a scenario needs at least one level")
	}
	for l, level := range s.Levels {
		if level.TimeStep <= 0 {
			return fmt.Errorf("level %d: time_step must be positive, got %v", l, level.TimeStep)
		}
		if l > 0 && level.TimeStep >= s.Levels[l-1].TimeStep {
			return fmt.Errorf("level %d: time steps must decrease with fidelity", l)
		}
	}
	if !ValidDistributions[s.Stiffness.Distribution] {
		return fmt.Errorf("unknown distribution %q", s.Stiffness.Distribution)
	}
	return nil
}

// New builds the stiffness distribution. The default is the
// reference triangular stiffness on [1, 3.5] with mode 2.25.
func (d DistributionSpec) New() (input.Distribution, error) {
	switch d.Distribution {
	case "":
		return input.Triangular(1.0, 3.5, 2.25), nil
	case "uniform":
		return input.Uniform(d.Min, d.Max), nil
	case "normal":
		return input.Normal(d.Mu, d.Sigma), nil
	case "lognormal":
		return input.LogNormal(d.Mu, d.Sigma), nil
	case "triangular":
		return input.Triangular(d.Min, d.Max, d.Mode), nil
	default:
		return nil, fmt.Errorf("unknown distribution %q", d.Distribution)
	}
}

// Build assembles the pilot configuration for the scenario.
func (s *Scenario) Build() (mlmc.Config, error) {
	if err := s.Validate(); err != nil {
		return mlmc.Config{}, err
	}
	dist, err := s.Stiffness.New()
	if err != nil {
		return mlmc.Config{}, err
	}
	cfg := mlmc.Config{
		MaxBudget:   s.MaxBudget,
		MinBudget:   s.MinBudget,
		Statistic:   mlmc.StatisticKind(s.Statistic),
		Seed:        s.Seed,
		Parallelism: s.Parallelism,
		Inputs:      input.NewSpace(input.Variable{Name: "stiffness", Dist: dist}),
	}
	for _, level := range s.Levels {
		model := springmass.NewModel(level.TimeStep)
		cfg.Levels = append(cfg.Levels, mlmc.LevelSpec{
			Model:          model.Evaluate,
			Cost:           model.Cost(),
			InitialSamples: level.InitialSamples,
			SamplingRatio:  level.SamplingRatio,
		})
	}
	return cfg, nil
}

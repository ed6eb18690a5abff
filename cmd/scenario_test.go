package cmd

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/mlmc-sim/mlmc-sim/mlmc"
)

func newQuietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing scenario file: %v", err)
	}
	return path
}

func TestLoadScenario_ValidYAML(t *testing.T) {
	yaml := `
statistic: mean
max_budget: 1000
min_budget: 50
seed: 42
parallelism: 4
levels:
  - time_step: 1.0
    initial_samples: 10
    sampling_ratio: 2.0
  - time_step: 0.1
    initial_samples: 10
    sampling_ratio: 2.0
stiffness:
  distribution: triangular
  min: 1.0
  max: 3.5
  mode: 2.25
`
	scenario, err := LoadScenario(writeTempYAML(t, yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scenario.Statistic != "mean" {
		t.Errorf("statistic: got %q, want %q", scenario.Statistic, "mean")
	}
	if scenario.MaxBudget != 1000 || scenario.MinBudget != 50 {
		t.Errorf("budgets: got %v/%v, want 1000/50", scenario.MaxBudget, scenario.MinBudget)
	}
	if scenario.Seed != 42 || scenario.Parallelism != 4 {
		t.Errorf("seed/parallelism: got %d/%d", scenario.Seed, scenario.Parallelism)
	}
	if len(scenario.Levels) != 2 || scenario.Levels[1].TimeStep != 0.1 {
		t.Fatalf("levels: got %+v", scenario.Levels)
	}
	if scenario.Stiffness.Distribution != "triangular" || scenario.Stiffness.Mode != 2.25 {
		t.Errorf("stiffness: got %+v", scenario.Stiffness)
	}
}

func TestLoadScenario_Failures(t *testing.T) {
	if _, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := LoadScenario(writeTempYAML(t, "levels: {not a list}")); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

func TestScenario_Validate(t *testing.T) {
	valid := func() *Scenario {
		return &Scenario{
			MaxBudget: 100,
			Levels: []LevelScenario{
				{TimeStep: 1.0},
				{TimeStep: 0.1},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"no levels", func(s *Scenario) { s.Levels = nil }},
		{"zero time step", func(s *Scenario) { s.Levels[0].TimeStep = 0 }},
		{"non-decreasing time steps", func(s *Scenario) { s.Levels[1].TimeStep = 1.0 }},
		{"increasing time steps", func(s *Scenario) { s.Levels[1].TimeStep = 2.0 }},
		{"unknown distribution", func(s *Scenario) { s.Stiffness.Distribution = "cauchy" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
	assert.NoError(t, valid().Validate())
}

func TestDistributionSpec_New(t *testing.T) {
	tests := []struct {
		name string
		spec DistributionSpec
		p    float64
		want float64
	}{
		{"default is the reference triangular", DistributionSpec{}, 0, 1.0},
		{"uniform", DistributionSpec{Distribution: "uniform", Min: 2, Max: 4}, 0.5, 3},
		{"normal", DistributionSpec{Distribution: "normal", Mu: 1, Sigma: 2}, 0.5, 1},
		{"lognormal", DistributionSpec{Distribution: "lognormal", Mu: 0, Sigma: 1}, 0.5, 1},
		{"triangular", DistributionSpec{Distribution: "triangular", Min: 0, Max: 2, Mode: 1}, 0.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, err := tt.spec.New()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := dist.Quantile(tt.p); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Quantile(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	_, err := DistributionSpec{Distribution: "cauchy"}.New()
	assert.Error(t, err)
}

func TestScenario_Build(t *testing.T) {
	s := &Scenario{
		Statistic: "variance",
		MaxBudget: 500,
		Seed:      7,
		Levels: []LevelScenario{
			{TimeStep: 1.0, InitialSamples: 20, SamplingRatio: 3.0},
			{TimeStep: 0.5},
		},
	}
	cfg, err := s.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if cfg.Statistic != mlmc.StatisticVariance {
		t.Errorf("statistic: got %q", cfg.Statistic)
	}
	if cfg.MaxBudget != 500 || cfg.Seed != 7 {
		t.Errorf("budget/seed: got %v/%d", cfg.MaxBudget, cfg.Seed)
	}
	if len(cfg.Levels) != 2 {
		t.Fatalf("levels: got %d", len(cfg.Levels))
	}
	// Model cost derives from the time step: 1/h evaluations worth of work.
	if cfg.Levels[0].Cost != 1.0 || cfg.Levels[1].Cost != 2.0 {
		t.Errorf("costs: got %v/%v, want 1/2", cfg.Levels[0].Cost, cfg.Levels[1].Cost)
	}
	if cfg.Levels[0].InitialSamples != 20 || cfg.Levels[0].SamplingRatio != 3.0 {
		t.Errorf("level 0 sampling: got %+v", cfg.Levels[0])
	}
	if cfg.Inputs == nil {
		t.Fatal("input sampler missing")
	}

	// The built configuration passes the pilot's own validation.
	if _, err := mlmc.NewPilot(buildableConfig(cfg)); err != nil {
		t.Errorf("built configuration rejected: %v", err)
	}
}

// buildableConfig silences the construction banner.
func buildableConfig(cfg mlmc.Config) mlmc.Config {
	logger := newQuietLogger()
	cfg.Logger = logger
	return cfg
}

func TestScenario_BuildRejectsInvalid(t *testing.T) {
	s := &Scenario{MaxBudget: 100, Levels: []LevelScenario{{TimeStep: -1}}}
	if _, err := s.Build(); err == nil {
		t.Error("expected a build error for an invalid scenario")
	}
}

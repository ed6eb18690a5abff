package mlmc

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Sentinel errors classifying pilot failures. All are fatal: the core
// performs no retries (retry policy, if any, belongs to the evaluation
// collaborator) and a failed run reports no partial statistics.
var (
	// ErrConfiguration wraps every configuration validation failure.
	ErrConfiguration = errors.New("invalid pilot configuration")
	// ErrEvaluation wraps any model-evaluation failure during warm-up or
	// adaptive sampling.
	ErrEvaluation = errors.New("model evaluation failed")
	// ErrBudgetExhausted marks a maximum budget too small to cover even
	// the warm-up batches.
	ErrBudgetExhausted = errors.New("budget exhausted before warm-up")
)

// Evaluator is a pure function from one random-input realization to a
// scalar or vector model output. Implementations must be safe for
// concurrent calls: batches are dispatched on a worker pool.
type Evaluator func(x []float64) ([]float64, error)

// InputSampler draws batches of input realizations. Implementations live
// in mlmc/input; any deterministic function of the supplied RNG works.
type InputSampler interface {
	// Batch returns n independent input realizations.
	Batch(rng *rand.Rand, n int) [][]float64
}

// LevelSpec declares one level of the telescoping sum, ordered by
// increasing fidelity and cost.
type LevelSpec struct {
	// Model is the level's model f_l.
	Model Evaluator

	// Cost is the declared cost of one f_l evaluation, in any unit shared
	// by all levels. Zero on every level enables empirical cost
	// measurement from wall-clock time.
	Cost float64

	// InitialSamples is the warm-up batch size n_l. Default 10.
	InitialSamples int

	// SamplingRatio r_l is the factor by which n_l is multiplied each
	// time the level is selected. Must be > 1. Default 2.0.
	SamplingRatio float64

	// ControlVariate is an optional surrogate g_l of the correction term,
	// sampled alongside the models to reduce the level's variance (MLCV).
	ControlVariate Evaluator

	// ControlVariateMean is the known expectation of g_l, required when
	// ControlVariate is set.
	ControlVariateMean []float64
}

// Config bundles everything a pilot run needs.
type Config struct {
	// Levels of the telescoping sum, coarsest first.
	Levels []LevelSpec

	// MaxBudget is the total sampling budget, in cost units.
	MaxBudget float64

	// MinBudget is the cost guaranteed to be spent before the adaptive
	// loop begins. Zero means "the warm-up cost"; a larger value tops up
	// the level-0 warm-up batch until the warm-up reaches it.
	MinBudget float64

	// Statistic selects the pilot statistic. Default StatisticMean.
	Statistic StatisticKind

	// Inputs draws the random-input realizations fed to the evaluators.
	Inputs InputSampler

	// Seed is the master seed for the per-level random streams.
	Seed int64

	// Parallelism bounds the evaluation worker pool. Default 1.
	Parallelism int

	// Logger receives the iteration log. Default logrus.StandardLogger().
	Logger *logrus.Logger
}

// withDefaults returns a copy of the config with per-level and global
// defaults filled in.
func (c Config) withDefaults() Config {
	levels := make([]LevelSpec, len(c.Levels))
	copy(levels, c.Levels)
	for l := range levels {
		if levels[l].InitialSamples == 0 {
			levels[l].InitialSamples = 10
		}
		if levels[l].SamplingRatio == 0 {
			levels[l].SamplingRatio = 2.0
		}
	}
	c.Levels = levels
	if c.Statistic == "" {
		c.Statistic = StatisticMean
	}
	if c.Parallelism == 0 {
		c.Parallelism = 1
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return c
}

// Validate checks the configuration. All failures wrap ErrConfiguration.
func (c Config) Validate() error {
	if len(c.Levels) == 0 {
		return fmt.Errorf("%w: at least one level is required", ErrConfiguration)
	}
	declared := 0
	for l, level := range c.Levels {
		if level.Model == nil {
			return fmt.Errorf("%w: level %d has no model", ErrConfiguration, l)
		}
		if level.Cost < 0 {
			return fmt.Errorf("%w: level %d has negative cost %v", ErrConfiguration, l, level.Cost)
		}
		if level.Cost > 0 {
			declared++
		}
		if level.InitialSamples < 0 {
			return fmt.Errorf("%w: level %d has negative initial samples", ErrConfiguration, l)
		}
		// A warm-up batch of fewer than 2 samples leaves the level's
		// variance undefined forever: the allocation policy would never
		// select it. Fail fast instead.
		if level.InitialSamples != 0 && level.InitialSamples < 2 {
			return fmt.Errorf("%w: level %d needs at least 2 initial samples, got %d",
				ErrConfiguration, l, level.InitialSamples)
		}
		if level.SamplingRatio != 0 && level.SamplingRatio <= 1 {
			return fmt.Errorf("%w: level %d sampling ratio must be > 1, got %v",
				ErrConfiguration, l, level.SamplingRatio)
		}
		if level.ControlVariate != nil && len(level.ControlVariateMean) == 0 {
			return fmt.Errorf("%w: level %d has a control variate without its mean",
				ErrConfiguration, l)
		}
	}
	if declared != 0 && declared != len(c.Levels) {
		return fmt.Errorf("%w: costs must be declared for every level or for none", ErrConfiguration)
	}
	if c.MaxBudget <= 0 {
		return fmt.Errorf("%w: maximum budget must be positive, got %v", ErrConfiguration, c.MaxBudget)
	}
	if c.MinBudget < 0 {
		return fmt.Errorf("%w: minimum budget must be non-negative, got %v", ErrConfiguration, c.MinBudget)
	}
	if c.MinBudget > c.MaxBudget {
		return fmt.Errorf("%w: minimum budget %v is greater than maximum budget %v",
			ErrConfiguration, c.MinBudget, c.MaxBudget)
	}
	if c.Statistic != "" {
		if _, ok := statisticRegistry[c.Statistic]; !ok {
			return fmt.Errorf("%w: unknown statistic %q", ErrConfiguration, c.Statistic)
		}
	}
	if c.Inputs == nil {
		return fmt.Errorf("%w: an input sampler is required", ErrConfiguration)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism must be non-negative", ErrConfiguration)
	}
	return nil
}

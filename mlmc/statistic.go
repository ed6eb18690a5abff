package mlmc

import (
	"fmt"
	"math"
	"sort"
)

// StatisticKind tags the closed set of pilot statistics. The pilot drives
// its allocation with the statistic's per-level weight V_l and reports the
// statistic's telescoping-sum estimate at the end of the run.
type StatisticKind string

const (
	// StatisticMean estimates E[Y] as sum_l mean(T_l).
	StatisticMean StatisticKind = "mean"
	// StatisticVariance estimates Var[Y] as sum_l var(Y_l) - var(Y_{l-1}).
	StatisticVariance StatisticKind = "variance"
)

// StatisticEstimator computes, from accumulator state only, the per-level
// allocation weight and the final telescoping-sum estimate. Estimators are
// stateless: all sampling state lives in the accumulators.
type StatisticEstimator interface {
	// Kind returns the estimator's registry tag.
	Kind() StatisticKind

	// Weight returns the allocation weight V_l of one level, or false
	// while the level has too few samples for the weight to exist.
	Weight(acc *LevelAccumulator) (float64, bool)

	// Estimate returns the statistic's telescoping-sum estimate, one
	// entry per output component.
	Estimate(accs []*LevelAccumulator) []float64
}

// statisticRegistry maps statistic tags to constructors. It is populated
// at process start by the init functions below and read at configuration
// time; there is no dynamic lookup by type name.
var statisticRegistry = map[StatisticKind]func() StatisticEstimator{}

func registerStatistic(kind StatisticKind, ctor func() StatisticEstimator) {
	statisticRegistry[kind] = ctor
}

// NewStatisticEstimator looks a statistic up in the registry.
func NewStatisticEstimator(kind StatisticKind) (StatisticEstimator, error) {
	ctor, ok := statisticRegistry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown statistic %q (known: %v)",
			ErrConfiguration, kind, RegisteredStatistics())
	}
	return ctor(), nil
}

// RegisteredStatistics returns the sorted registry tags.
func RegisteredStatistics() []StatisticKind {
	kinds := make([]StatisticKind, 0, len(statisticRegistry))
	for kind := range statisticRegistry {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func init() {
	registerStatistic(StatisticMean, func() StatisticEstimator { return meanEstimator{} })
	registerStatistic(StatisticVariance, func() StatisticEstimator { return varianceEstimator{} })
}

// === Mean ===

// meanEstimator drives the allocation with V_l = var(T_l) and estimates
// E[Y] = sum_l mean(T_l). When a level carries a control variate the
// corrected variance and corrected mean are used instead, which is the
// whole of the MLCV extension: the control flow never changes.
type meanEstimator struct{}

func (meanEstimator) Kind() StatisticKind { return StatisticMean }

func (meanEstimator) Weight(acc *LevelAccumulator) (float64, bool) {
	return acc.CorrectedVariance()
}

func (meanEstimator) Estimate(accs []*LevelAccumulator) []float64 {
	var out []float64
	for _, acc := range accs {
		mean := acc.CorrectedMean()
		if mean == nil {
			continue
		}
		if out == nil {
			out = make([]float64, len(mean))
		}
		for j := range mean {
			out[j] += mean[j]
		}
	}
	return out
}

// === Variance ===

// varianceEstimator drives the allocation with the fourth-moment bound
// V_l = sqrt(M4c(T_l) * M4c(S_l)) where S_l = Y_l + Y_{l-1}
// (Mycek and De Lozzo, 2019), and estimates
// Var[Y] = sum_l var(Y_l) - var(Y_{l-1}) on each level's own sample.
// Control variates are not defined for this statistic.
type varianceEstimator struct{}

func (varianceEstimator) Kind() StatisticKind { return StatisticVariance }

func (varianceEstimator) Weight(acc *LevelAccumulator) (float64, bool) {
	if acc.N() < 2 {
		return 0, false
	}
	return math.Sqrt(acc.deltaFourthCentral() * acc.sumFourthCentral()), true
}

func (varianceEstimator) Estimate(accs []*LevelAccumulator) []float64 {
	var out []float64
	for _, acc := range accs {
		gap := acc.varianceGap()
		if gap == nil {
			continue
		}
		if out == nil {
			out = make([]float64, len(gap))
		}
		for j := range gap {
			out[j] += gap[j]
		}
	}
	return out
}

package mlmc

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Candidate is one level's allocation diagnostics for a single decision:
// its selection score, its cost-optimal target sample count and the
// deficit against that target. Targets and deficits are recorded for
// diagnostics only; the selection itself ranks by score (the two orderings
// coincide, see the package documentation of the policy below).
type Candidate struct {
	Level   int
	Score   float64
	Target  int64
	Deficit int64
}

// Decision is the outcome of one allocation step: the chosen level, the
// increment sized by the doubling policy before any budget clamp, and the
// increment actually affordable.
type Decision struct {
	Level int

	// PlannedIncrement is floor((r_l - 1) * n_l), before the budget clamp.
	PlannedIncrement int64
	// PlannedN is n_l + PlannedIncrement.
	PlannedN int64

	// Increment is the affordable increment; equal to PlannedIncrement
	// unless the clamp fired.
	Increment int64
	// NextN is n_l + Increment.
	NextN int64

	// Clamped reports that the planned increment exceeded the remaining
	// budget; the iteration executing this decision is the last one.
	Clamped bool
	// Excess is the cost overshoot absorbed by the clamp.
	Excess float64

	Candidates []Candidate
}

// AllocationPolicy implements the greedy cost-aware level selection at the
// heart of the pilot. Each decision picks the level whose next increment
// most reduces the total estimator variance per unit of additional cost:
//
//	l* = argmax_l  V_l / (r_l * n_l^2 * pairCost_l)
//
// which is the Lagrangian variance/cost trade-off behind the classical
// MLMC optimal allocation n_l ~ sqrt(V_l / pairCost_l): ranking levels by
// this score is ranking them by how far below their cost-optimal sample
// count they sit. Ties break toward the lowest (cheapest) level.
//
// The chosen level's count is then multiplied by its sampling ratio
// rather than jumped straight to the optimum, bounding how much budget a
// single noisy variance estimate can commit before it is re-estimated.
type AllocationPolicy struct {
	ratios []float64
	logger *logrus.Logger
}

// NewAllocationPolicy creates a policy for the given per-level sampling ratios.
func NewAllocationPolicy(ratios []float64, logger *logrus.Logger) *AllocationPolicy {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AllocationPolicy{ratios: ratios, logger: logger}
}

// Decide selects the next level to sample and sizes its increment,
// clamping it to the remaining budget. The weights are the statistic's
// per-level V_l; consumed and remaining describe the budget state.
func (p *AllocationPolicy) Decide(
	accs []*LevelAccumulator,
	est StatisticEstimator,
	costs *CostModel,
	consumed, remaining float64,
) (Decision, error) {
	best := -1
	bestScore := math.Inf(-1)
	scores := make([]float64, len(accs))
	weights := make([]float64, len(accs))
	available := false
	for l, acc := range accs {
		weight, ok := est.Weight(acc)
		if !ok {
			// Fewer than 2 samples: the level cannot be scored. Warm-up
			// batch sizing guarantees this never holds for every level.
			scores[l] = math.Inf(-1)
			continue
		}
		available = true
		if weight == 0 {
			p.logger.Warnf("Level %d has a zero variance estimate; its deficit is treated as zero", l)
		}
		weights[l] = weight
		n := float64(accs[l].N())
		// Written as successive divisions: n^2 * pairCost can overflow
		// the useful float range late in long runs.
		scores[l] = weight / p.ratios[l] / n / n / costs.PairCost(l)
		if scores[l] > bestScore {
			bestScore = scores[l]
			best = l
		}
	}
	if !available || best < 0 {
		return Decision{}, fmt.Errorf("%w: no level has enough samples for a variance estimate",
			ErrConfiguration)
	}

	n := accs[best].N()
	planned := int64(math.Floor((p.ratios[best] - 1) * float64(n)))
	dec := Decision{
		Level:            best,
		PlannedIncrement: planned,
		PlannedN:         n + planned,
		Increment:        planned,
		NextN:            n + planned,
		Candidates:       p.candidates(accs, weights, scores, costs, consumed, planned, best),
	}

	// Budget clamp: shrink the increment to the largest count whose cost
	// still fits within the remaining budget.
	pairCost := costs.PairCost(best)
	posterior := remaining - float64(planned)*pairCost
	if posterior < 0 {
		dec.Clamped = true
		dec.Excess = -posterior
		dec.Increment = int64(math.Floor(float64(planned) + posterior/pairCost))
		if dec.Increment < 0 {
			dec.Increment = 0
		}
		dec.NextN = n + dec.Increment
	}
	return dec, nil
}

// candidates derives the diagnostic target counts and deficits. Targets
// follow the cost-optimal allocation n_l ~ sqrt(V_l / pairCost_l),
// normalized so that the implied total cost equals the budget consumed so
// far plus the cost of the planned increment.
func (p *AllocationPolicy) candidates(
	accs []*LevelAccumulator,
	weights, scores []float64,
	costs *CostModel,
	consumed float64,
	planned int64,
	chosen int,
) []Candidate {
	norm := 0.0
	for l := range accs {
		norm += math.Sqrt(weights[l] * costs.PairCost(l))
	}
	budgeted := consumed + float64(planned)*costs.PairCost(chosen)
	out := make([]Candidate, len(accs))
	for l := range accs {
		target := int64(0)
		if norm > 0 {
			target = int64(math.Round(budgeted / norm * math.Sqrt(weights[l]/costs.PairCost(l))))
		}
		deficit := target - accs[l].N()
		if deficit < 0 {
			deficit = 0
		}
		out[l] = Candidate{Level: l, Score: scores[l], Target: target, Deficit: deficit}
	}
	return out
}

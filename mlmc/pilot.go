package mlmc

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mlmc-sim/mlmc-sim/mlmc/trace"
)

// State is the pilot's lifecycle phase. Transitions run
// WARMUP -> ADAPTIVE -> DONE with no skips and no way back.
type State string

const (
	// StateWarmup draws the initial per-level batches.
	StateWarmup State = "warmup"
	// StateAdaptive iterates allocation, sampling and accumulation.
	StateAdaptive State = "adaptive"
	// StateDone means the budget is exhausted; the pilot cannot be rerun.
	StateDone State = "done"
)

// Pilot orchestrates one adaptive multilevel sampling run. A Pilot is
// created per estimation request, executed once from a single goroutine,
// and discarded; only the Result outlives it.
type Pilot struct {
	cfg    Config
	name   string
	est    StatisticEstimator
	costs  *CostModel
	budget *BudgetTracker
	accs   []*LevelAccumulator
	evals  []*pairEvaluator
	policy *AllocationPolicy
	rng    *PartitionedRNG
	trace  *trace.PilotTrace
	log    *logrus.Logger

	state    State
	initialN []int64
	executed bool
}

// NewPilot validates the configuration and assembles a ready-to-execute
// pilot. The configured minimum budget, when it exceeds the warm-up cost,
// tops up the level-0 initial batch so that at least the minimum is spent.
func NewPilot(cfg Config) (*Pilot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	nLevels := len(cfg.Levels)

	est, err := NewStatisticEstimator(cfg.Statistic)
	if err != nil {
		return nil, err
	}

	var costs *CostModel
	if cfg.Levels[0].Cost > 0 {
		perEval := make([]float64, nLevels)
		for l, level := range cfg.Levels {
			perEval[l] = level.Cost
		}
		costs = NewCostModel(perEval)
	} else {
		costs = NewEmpiricalCostModel(nLevels)
	}

	p := &Pilot{
		cfg:    cfg,
		name:   "MLMC",
		est:    est,
		costs:  costs,
		rng:    NewPartitionedRNG(NewRunKey(cfg.Seed)),
		trace:  trace.NewPilotTrace(),
		log:    cfg.Logger,
		state:  StateWarmup,
		policy: NewAllocationPolicy(samplingRatios(cfg.Levels), cfg.Logger),
	}

	p.initialN = make([]int64, nLevels)
	p.accs = make([]*LevelAccumulator, nLevels)
	p.evals = make([]*pairEvaluator, nLevels)
	hasCV := false
	for l := range cfg.Levels {
		p.initialN[l] = int64(cfg.Levels[l].InitialSamples)
		p.accs[l] = NewLevelAccumulator(l, cfg.Levels[l].ControlVariateMean)
		var coarser *LevelSpec
		if l > 0 {
			coarser = &cfg.Levels[l-1]
		}
		p.evals[l] = newPairEvaluator(l, &cfg.Levels[l], coarser, cfg.Parallelism)
		if cfg.Levels[l].ControlVariate != nil {
			hasCV = true
		}
	}
	if hasCV {
		p.name = "MLMC-MLCV"
	}

	warmupCost := p.warmupCost()
	if !costs.Empirical() && cfg.MinBudget > warmupCost {
		// Top up the cheapest level until the warm-up covers the minimum.
		extra := int64(math.Ceil((cfg.MinBudget - warmupCost) / costs.PairCost(0)))
		p.initialN[0] += extra
		warmupCost = p.warmupCost()
	}
	p.budget, err = NewBudgetTracker(warmupCost, cfg.MaxBudget)
	if err != nil {
		return nil, err
	}

	p.log.Infof("%s", p.describe())
	return p, nil
}

func samplingRatios(levels []LevelSpec) []float64 {
	ratios := make([]float64, len(levels))
	for l, level := range levels {
		ratios[l] = level.SamplingRatio
	}
	return ratios
}

// warmupCost is the cost of the initial per-level batches; zero until
// measured in empirical cost mode.
func (p *Pilot) warmupCost() float64 {
	cost := 0.0
	for l, n := range p.initialN {
		cost += float64(n) * p.costs.PairCost(l)
	}
	return cost
}

// State returns the pilot's lifecycle phase.
func (p *Pilot) State() State {
	return p.state
}

// Trace returns the iteration trace recorded so far.
func (p *Pilot) Trace() *trace.PilotTrace {
	return p.trace
}

// describe renders the configuration banner logged at construction.
func (p *Pilot) describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Algorithm %s\n", p.name)
	fmt.Fprintf(&b, "   Number of levels: %d\n", len(p.cfg.Levels))
	fmt.Fprintf(&b, "   Pilot statistic: %s\n", p.cfg.Statistic)
	fmt.Fprintf(&b, "   Budget\n")
	fmt.Fprintf(&b, "      Minimum: %v\n", p.budget.Minimum())
	fmt.Fprintf(&b, "      Maximum: %v\n", p.budget.Maximum())
	fmt.Fprintf(&b, "   Numbers of initial samples\n")
	for l, n := range p.initialN {
		fmt.Fprintf(&b, "      n_%d = %d\n", l, n)
	}
	fmt.Fprintf(&b, "   Evaluation costs of the models\n")
	for l := range p.cfg.Levels {
		fmt.Fprintf(&b, "      C_%d = %v\n", l, p.costs.CostPerEval(l))
	}
	fmt.Fprintf(&b, "   Evaluation costs of the levels\n")
	for l := range p.cfg.Levels {
		if l == 0 {
			fmt.Fprintf(&b, "      C_0 = %v\n", p.costs.PairCost(0))
		} else {
			fmt.Fprintf(&b, "      C_%d + C_%d = %v\n", l, l-1, p.costs.PairCost(l))
		}
	}
	fmt.Fprintf(&b, "   Sampling ratios:")
	for l := range p.cfg.Levels {
		fmt.Fprintf(&b, "\n      r_%d = %v", l, p.cfg.Levels[l].SamplingRatio)
	}
	return b.String()
}

// Execute runs the pilot to budget exhaustion and returns the final
// estimate with its diagnostics. The context is consulted only between
// iterations: a mid-iteration batch always completes or fails whole.
func (p *Pilot) Execute(ctx context.Context) (*Result, error) {
	if p.executed {
		return nil, fmt.Errorf("%w: pilot already executed", ErrConfiguration)
	}
	p.executed = true

	nLevels := len(p.cfg.Levels)
	deltaN := make([]int64, nLevels)
	copy(deltaN, p.initialN)
	levelsToSample := make([]int, nLevels)
	for l := range levelsToSample {
		levelsToSample[l] = l
	}

	isLast := false
	iteration := 0
	p.log.Infof("Start sampling with a total budget of %v", p.budget.Maximum())
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iteration++
		if isLast {
			p.log.Infof("   Iteration #%d (last iteration)", iteration)
		} else {
			p.log.Infof("   Iteration #%d", iteration)
		}

		cost, err := p.sample(ctx, levelsToSample, deltaN)
		if err != nil {
			return nil, err
		}
		if p.state == StateWarmup {
			p.state = StateAdaptive
		}

		record := trace.IterationRecord{
			Iteration: iteration,
			DeltaN:    append([]int64(nil), deltaN...),
			Cost:      cost,
			Remaining: p.budget.Remaining(),
			Last:      isLast,
			Chosen:    -1,
		}

		// Stop once the terminal increment has been sampled and folded in.
		if isLast {
			p.trace.Record(record)
			break
		}

		dec, err := p.policy.Decide(p.accs, p.est, p.costs, p.budget.Consumed(), p.budget.Remaining())
		if err != nil {
			return nil, err
		}
		p.log.Infof("      Find the next level to sample")
		p.log.Infof("         l_star = %d", dec.Level)
		p.log.Infof("         d_n_l_star = %d", dec.PlannedIncrement)
		p.log.Infof("         n_l_star = %d", dec.PlannedN)
		if dec.Clamped {
			// There is budget for at most one more iteration.
			isLast = true
			p.log.Infof("         Maximum budget exceeded by %v", dec.Excess)
			p.log.Infof("         Decrease d_n_l_star to respect the maximum budget")
			p.log.Infof("         d_n_l_star = %d", dec.Increment)
			p.log.Infof("         n_l_star = %d", dec.NextN)
		}

		record.Chosen = dec.Level
		record.PlannedIncrement = dec.PlannedIncrement
		record.PlannedN = dec.PlannedN
		record.ClampedIncrement = dec.Increment
		record.ClampedN = dec.NextN
		record.Clamped = dec.Clamped
		record.Candidates = candidateRecords(dec.Candidates)
		p.trace.Record(record)

		if dec.Increment == 0 {
			p.log.Infof("Stop the algorithm as sampling l_star is too expensive.")
			break
		}

		for l := range deltaN {
			deltaN[l] = 0
		}
		deltaN[dec.Level] = dec.Increment
		levelsToSample = []int{dec.Level}
	}
	p.state = StateDone
	p.log.Infof("Sampling completed")

	result := p.result()
	for _, line := range result.reportLines() {
		p.log.Infof("%s", line)
	}
	return result, nil
}

// sample draws and evaluates the scheduled increments, folds them into
// the level accumulators and charges the budget.
func (p *Pilot) sample(ctx context.Context, levels []int, deltaN []int64) (float64, error) {
	p.log.Infof("      Sampling")
	for l := range deltaN {
		p.log.Infof("         delta_n_%d = %d", l, deltaN[l])
	}
	for _, l := range levels {
		inputs := p.cfg.Inputs.Batch(p.rng.ForStream(StreamLevel(l)), int(deltaN[l]))
		start := time.Now()
		batch, err := p.evals[l].evaluate(ctx, inputs)
		if err != nil {
			return 0, err
		}
		p.costs.RecordElapsed(l, time.Since(start).Seconds())
		if err := p.accs[l].Ingest(batch); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrEvaluation, err)
		}
	}
	p.costs.Refresh()

	cost := 0.0
	for l := range deltaN {
		cost += float64(deltaN[l]) * p.costs.PairCost(l)
	}
	// Declared-cost increments are clamped by the policy before they get
	// here; measured costs may overrun, capped at the remaining budget.
	if remaining := p.budget.Remaining(); cost > remaining {
		cost = remaining
	}
	if err := p.budget.Consume(cost); err != nil {
		return 0, err
	}
	p.log.Infof("         Cost = %v", cost)
	p.log.Infof("         Remaining budget = %v", p.budget.Remaining())
	return cost, nil
}

func (p *Pilot) result() *Result {
	result := &Result{
		Statistic: p.est.Estimate(p.accs),
		Kind:      p.cfg.Statistic,
		Consumed:  p.budget.Consumed(),
		Remaining: p.budget.Remaining(),
		Trace:     p.trace,
	}
	for l, acc := range p.accs {
		weight, _ := p.est.Weight(acc)
		diag := LevelDiagnostics{
			Level:    l,
			N:        acc.N(),
			Variance: weight,
			PairCost: p.costs.PairCost(l),
		}
		result.TotalCost += float64(diag.N) * diag.PairCost
		result.Levels = append(result.Levels, diag)
	}
	for l := range result.Levels {
		if result.TotalCost > 0 {
			result.Levels[l].CostShare = float64(result.Levels[l].N) * result.Levels[l].PairCost / result.TotalCost
		}
	}
	return result
}

func candidateRecords(candidates []Candidate) []trace.CandidateRecord {
	out := make([]trace.CandidateRecord, len(candidates))
	for i, c := range candidates {
		out[i] = trace.CandidateRecord{
			Level:   c.Level,
			Score:   c.Score,
			Target:  c.Target,
			Deficit: c.Deficit,
		}
	}
	return out
}

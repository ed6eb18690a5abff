// Package trace provides iteration-record collection for pilot-run
// analysis. This package has no dependencies on mlmc/: it stores pure
// data types.
package trace

// CandidateRecord captures one level considered by an allocation decision,
// with its selection score and its deficit against the cost-optimal target.
// Runner-up candidates are kept for diagnostics only.
type CandidateRecord struct {
	Level   int
	Score   float64
	Target  int64
	Deficit int64
}

// IterationRecord captures a single pilot iteration: what was sampled and,
// unless the iteration was terminal, which level the policy chose next.
type IterationRecord struct {
	// Iteration is the 1-based iteration index.
	Iteration int

	// DeltaN holds the executed increment per level, 0 for levels not
	// sampled this iteration.
	DeltaN []int64

	// Cost is the cost incurred by this iteration's sampling.
	Cost float64

	// Remaining is the remaining budget after the increment.
	Remaining float64

	// Last marks the terminal iteration.
	Last bool

	// Chosen is the level selected for the next iteration, -1 when the
	// iteration was terminal and no selection was made.
	Chosen int

	// PlannedIncrement and PlannedN record the doubling-policy sizing
	// before any budget truncation; ClampedIncrement and ClampedN the
	// sizing actually scheduled. Downstream tooling depends on both.
	PlannedIncrement int64
	PlannedN         int64
	ClampedIncrement int64
	ClampedN         int64
	Clamped          bool

	// Candidates lists every level considered by the decision.
	Candidates []CandidateRecord
}

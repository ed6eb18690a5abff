package mlmc

import (
	"fmt"
	"strings"

	"github.com/mlmc-sim/mlmc-sim/mlmc/trace"
)

// LevelDiagnostics reports one level's final sampling state.
type LevelDiagnostics struct {
	Level     int
	N         int64
	Variance  float64 // the statistic's allocation weight V_l
	PairCost  float64
	CostShare float64 // (N * PairCost) / TotalCost
}

// Result is the outcome of a pilot run: the statistic estimate, per-level
// diagnostics and the full iteration trace.
type Result struct {
	// Statistic is the telescoping-sum estimate, one entry per output
	// component.
	Statistic []float64

	// Kind is the statistic that was estimated.
	Kind StatisticKind

	// TotalCost is sum_l n_l * pairCost_l.
	TotalCost float64

	// Consumed and Remaining report the final budget state.
	Consumed  float64
	Remaining float64

	Levels []LevelDiagnostics

	// Trace holds every iteration record, append-only.
	Trace *trace.PilotTrace
}

// Scalar returns the first component of the estimate, the whole of it for
// scalar-valued models.
func (r *Result) Scalar() float64 {
	if len(r.Statistic) == 0 {
		return 0
	}
	return r.Statistic[0]
}

// Report renders the Results block of the pilot log.
func (r *Result) Report() string {
	return strings.Join(r.reportLines(), "\n")
}

func (r *Result) reportLines() []string {
	lines := []string{
		"Results",
		fmt.Sprintf("   Pilot statistic = %s", formatValues(r.Statistic)),
		fmt.Sprintf("   Total cost = %v", r.TotalCost),
		"   Cost allocation",
	}
	for _, level := range r.Levels {
		lines = append(lines, fmt.Sprintf("      Level %d: %.1f%%", level.Level, level.CostShare*100))
	}
	lines = append(lines, "   n_l")
	for _, level := range r.Levels {
		lines = append(lines, fmt.Sprintf("       n_%d = %d", level.Level, level.N))
	}
	lines = append(lines, "   V_l")
	for _, level := range r.Levels {
		lines = append(lines, fmt.Sprintf("       V_%d = %.2e", level.Level, level.Variance))
	}
	return lines
}

// formatValues renders a scalar estimate bare and a vector one as a slice.
func formatValues(values []float64) string {
	if len(values) == 1 {
		return fmt.Sprintf("%v", values[0])
	}
	return fmt.Sprintf("%v", values)
}

package trace

// TraceSummary aggregates statistics from a PilotTrace.
type TraceSummary struct {
	Iterations        int
	TotalCost         float64
	FinalRemaining    float64
	ClampedIterations int
	SelectionCounts   map[int]int // level -> times chosen by the policy
	TotalDeltaN       map[int]int64
}

// Summarize computes aggregate statistics from a PilotTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(pt *PilotTrace) *TraceSummary {
	summary := &TraceSummary{
		SelectionCounts: make(map[int]int),
		TotalDeltaN:     make(map[int]int64),
	}
	if pt == nil {
		return summary
	}

	summary.Iterations = len(pt.Iterations)
	for _, rec := range pt.Iterations {
		summary.TotalCost += rec.Cost
		summary.FinalRemaining = rec.Remaining
		if rec.Clamped {
			summary.ClampedIterations++
		}
		if rec.Chosen >= 0 {
			summary.SelectionCounts[rec.Chosen]++
		}
		for level, delta := range rec.DeltaN {
			summary.TotalDeltaN[level] += delta
		}
	}
	return summary
}

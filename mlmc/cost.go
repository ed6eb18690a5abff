package mlmc

// CostModel holds the per-level evaluation costs and derives the unit
// sampling cost of each level of the telescoping sum. One realization of
// the correction term T_l = Y_l - Y_{l-1} needs two model calls above
// level 0, so the pair cost is C_0 at level 0 and C_l + C_{l-1} elsewhere.
//
// Costs are either declared by the caller (any positive unit) or, when
// empirical mode is enabled, measured from the wall-clock time of past
// evaluations and refreshed after every batch.
type CostModel struct {
	perEval   []float64
	empirical bool

	// cumulative evaluation seconds per model, empirical mode only
	elapsed []float64
}

// NewCostModel creates a CostModel from declared per-model costs.
func NewCostModel(costPerEval []float64) *CostModel {
	c := &CostModel{perEval: make([]float64, len(costPerEval))}
	copy(c.perEval, costPerEval)
	return c
}

// NewEmpiricalCostModel creates a CostModel that derives per-model costs
// from measured execution times. Until the first measurement arrives every
// cost reads as zero, so the pilot must record warm-up timings before the
// allocation policy consults the model.
func NewEmpiricalCostModel(nLevels int) *CostModel {
	return &CostModel{
		perEval:   make([]float64, nLevels),
		empirical: true,
		elapsed:   make([]float64, nLevels),
	}
}

// Empirical reports whether costs are measured rather than declared.
func (c *CostModel) Empirical() bool {
	return c.empirical
}

// Levels returns the number of levels covered by the cost table.
func (c *CostModel) Levels() int {
	return len(c.perEval)
}

// CostPerEval returns the cost of one evaluation of the level-l model alone.
func (c *CostModel) CostPerEval(level int) float64 {
	return c.perEval[level]
}

// PairCost returns the cost of one realization of the correction term at
// the given level: CostPerEval(0) at level 0, otherwise
// CostPerEval(level) + CostPerEval(level-1).
func (c *CostModel) PairCost(level int) float64 {
	if level == 0 {
		return c.perEval[0]
	}
	return c.perEval[level] + c.perEval[level-1]
}

// RecordElapsed adds measured execution seconds for the level-l model.
// No-op unless the model is empirical.
func (c *CostModel) RecordElapsed(level int, seconds float64) {
	if !c.empirical {
		return
	}
	c.elapsed[level] += seconds
}

// Refresh recomputes the empirical cost table, normalized so that the
// finest model has unit cost (matching the convention used for budgets
// expressed in finest-model evaluations). No-op unless empirical.
func (c *CostModel) Refresh() {
	if !c.empirical {
		return
	}
	finest := c.elapsed[len(c.elapsed)-1]
	if finest <= 0 {
		return
	}
	for l, secs := range c.elapsed {
		c.perEval[l] = secs / finest
	}
}

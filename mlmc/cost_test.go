package mlmc

import (
	"math"
	"testing"
)

func TestCostModel_PairCosts(t *testing.T) {
	c := NewCostModel([]float64{0.5, 1.0, 4.0})

	tests := []struct {
		level int
		want  float64
	}{
		{0, 0.5}, // level 0 evaluates the coarsest model alone
		{1, 1.5},
		{2, 5.0},
	}
	for _, tt := range tests {
		if got := c.PairCost(tt.level); got != tt.want {
			t.Errorf("PairCost(%d): got %v, want %v", tt.level, got, tt.want)
		}
	}
	if c.Empirical() {
		t.Error("declared cost model should not be empirical")
	}
	if c.Levels() != 3 {
		t.Errorf("Levels: got %d, want 3", c.Levels())
	}
}

func TestEmpiricalCostModel_NormalizesByFinestModel(t *testing.T) {
	c := NewEmpiricalCostModel(2)
	if !c.Empirical() {
		t.Fatal("expected an empirical cost model")
	}

	// Before any finest-model measurement costs stay at zero.
	c.RecordElapsed(0, 0.25)
	c.Refresh()
	if c.CostPerEval(0) != 0 {
		t.Errorf("cost before finest measurement: got %v, want 0", c.CostPerEval(0))
	}

	c.RecordElapsed(1, 1.0)
	c.Refresh()
	if got := c.CostPerEval(1); got != 1.0 {
		t.Errorf("finest cost: got %v, want 1.0", got)
	}
	if got := c.CostPerEval(0); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("coarse cost: got %v, want 0.25", got)
	}

	// Measurements accumulate; the table tracks the running totals.
	c.RecordElapsed(0, 0.75)
	c.RecordElapsed(1, 1.0)
	c.Refresh()
	if got := c.CostPerEval(0); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("refreshed coarse cost: got %v, want 0.5", got)
	}
}

func TestCostModel_RecordElapsedIgnoredWhenDeclared(t *testing.T) {
	c := NewCostModel([]float64{1, 2})
	c.RecordElapsed(0, 100)
	c.Refresh()
	if c.CostPerEval(0) != 1 || c.CostPerEval(1) != 2 {
		t.Errorf("declared costs drifted: C_0=%v C_1=%v", c.CostPerEval(0), c.CostPerEval(1))
	}
}

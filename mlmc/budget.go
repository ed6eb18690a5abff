package mlmc

import "fmt"

// BudgetTracker accounts for the computational cost consumed by a pilot run
// against a maximum budget. Consumed cost is non-decreasing and never
// exceeds the maximum; the minimum budget is the cost of the warm-up
// batches, which is guaranteed to be spent before the adaptive loop starts.
type BudgetTracker struct {
	minimum  float64
	maximum  float64
	consumed float64
}

// NewBudgetTracker creates a tracker for the given budgets.
// The minimum is the warm-up cost; it must not exceed the maximum.
func NewBudgetTracker(minimum, maximum float64) (*BudgetTracker, error) {
	if minimum > maximum {
		return nil, fmt.Errorf("%w: the minimum budget %v is greater than the total budget %v",
			ErrBudgetExhausted, minimum, maximum)
	}
	return &BudgetTracker{minimum: minimum, maximum: maximum}, nil
}

// Minimum returns the minimum budget (the warm-up cost).
func (b *BudgetTracker) Minimum() float64 {
	return b.minimum
}

// Maximum returns the maximum budget.
func (b *BudgetTracker) Maximum() float64 {
	return b.maximum
}

// Consumed returns the cost consumed so far.
func (b *BudgetTracker) Consumed() float64 {
	return b.consumed
}

// Remaining returns maximum - consumed.
func (b *BudgetTracker) Remaining() float64 {
	return b.maximum - b.consumed
}

// Consume records cost against the budget. It returns an error if the cost
// would drive the consumed total past the maximum: the allocation policy is
// responsible for clamping increments before they reach this point.
func (b *BudgetTracker) Consume(cost float64) error {
	if cost < 0 {
		return fmt.Errorf("negative cost %v", cost)
	}
	if b.consumed+cost > b.maximum+budgetEps*b.maximum {
		return fmt.Errorf("cost %v exceeds remaining budget %v", cost, b.Remaining())
	}
	b.consumed += cost
	if b.consumed > b.maximum {
		// floating-point slack only
		b.consumed = b.maximum
	}
	return nil
}

// budgetEps absorbs rounding noise from repeated cost additions.
const budgetEps = 1e-12

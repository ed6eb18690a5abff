package mlmc

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// pairEvaluator evaluates one level's correction-term realizations: the
// fine model f_l and the coarse model f_{l-1} (absent at level 0) on the
// same input realization, plus the level's control variate when one is
// configured.
//
// Batches run on a bounded worker pool. Inputs are drawn by the pilot
// loop before dispatch, so scheduling cannot perturb the random streams;
// results land positionally, so gathering order is irrelevant. Any
// evaluation error cancels the remaining work and aborts the batch:
// a partially accumulated batch would bias the variance estimates.
type pairEvaluator struct {
	level   int
	fine    Evaluator
	coarse  Evaluator // nil at level 0
	control Evaluator // nil without MLCV
	workers int
}

func newPairEvaluator(level int, spec, coarser *LevelSpec, workers int) *pairEvaluator {
	e := &pairEvaluator{
		level:   level,
		fine:    spec.Model,
		control: spec.ControlVariate,
		workers: workers,
	}
	if coarser != nil {
		e.coarse = coarser.Model
	}
	return e
}

// evaluate runs the batch and returns one Sample per input, in input order.
func (e *pairEvaluator) evaluate(ctx context.Context, inputs [][]float64) ([]Sample, error) {
	out := make([]Sample, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, x := range inputs {
		i, x := i, x
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fine, err := e.fine(x)
			if err != nil {
				return fmt.Errorf("level %d model: %w", e.level, err)
			}
			sample := Sample{Fine: fine}
			if e.coarse != nil {
				coarse, err := e.coarse(x)
				if err != nil {
					return fmt.Errorf("level %d coarse model: %w", e.level, err)
				}
				sample.Coarse = coarse
			}
			if e.control != nil {
				control, err := e.control(x)
				if err != nil {
					return fmt.Errorf("level %d control variate: %w", e.level, err)
				}
				sample.Control = control
			}
			out[i] = sample
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	return out, nil
}

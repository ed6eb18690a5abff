package mlmc

import (
	"errors"
	"math"
	"testing"
)

func TestStatisticRegistry(t *testing.T) {
	kinds := RegisteredStatistics()
	if len(kinds) != 2 || kinds[0] != StatisticMean || kinds[1] != StatisticVariance {
		t.Fatalf("registered statistics: got %v", kinds)
	}

	for _, kind := range kinds {
		est, err := NewStatisticEstimator(kind)
		if err != nil {
			t.Fatalf("NewStatisticEstimator(%q): %v", kind, err)
		}
		if est.Kind() != kind {
			t.Errorf("estimator for %q reports kind %q", kind, est.Kind())
		}
	}

	_, err := NewStatisticEstimator("median")
	if err == nil {
		t.Fatal("expected an error for an unknown statistic")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("error %v should wrap ErrConfiguration", err)
	}
}

func TestMeanEstimator_TelescopesLevelMeans(t *testing.T) {
	// Level 0 carries Y_0, level 1 the correction Y_1 - Y_0. The sum of
	// the level means is the mean of Y_1.
	acc0 := accumulatorWith(0, []float64{1, 2, 3, 4})
	acc1 := NewLevelAccumulator(1, nil)
	if err := acc1.Ingest(scalarBatch(
		[]float64{1.1, 2.1}, []float64{1.0, 2.0})); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	est := meanEstimator{}
	got := est.Estimate([]*LevelAccumulator{acc0, acc1})
	if len(got) != 1 {
		t.Fatalf("estimate dimension: got %d, want 1", len(got))
	}
	if want := 2.5 + 0.1; math.Abs(got[0]-want) > 1e-12 {
		t.Errorf("estimate: got %v, want %v", got[0], want)
	}

	w, ok := est.Weight(acc0)
	if !ok {
		t.Fatal("weight unavailable")
	}
	v, _ := acc0.Variance()
	if w != v {
		t.Errorf("mean weight: got %v, want the correction variance %v", w, v)
	}
}

func TestVarianceEstimator_TelescopesVarianceGaps(t *testing.T) {
	acc0 := accumulatorWith(0, []float64{0, 2, 4, 6})
	acc1 := NewLevelAccumulator(1, nil)
	if err := acc1.Ingest(scalarBatch(
		[]float64{0, 3, 6}, []float64{0, 2, 4})); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	est := varianceEstimator{}
	got := est.Estimate([]*LevelAccumulator{acc0, acc1})
	if len(got) != 1 {
		t.Fatalf("estimate dimension: got %d, want 1", len(got))
	}
	// var(Y_0) on level 0's sample plus var(Y_1) - var(Y_0) on level 1's.
	v0, _ := acc0.FineVariance()
	f1, _ := acc1.FineVariance()
	c1, _ := acc1.CoarseVariance()
	if want := v0 + f1 - c1; math.Abs(got[0]-want) > 1e-12 {
		t.Errorf("estimate: got %v, want %v", got[0], want)
	}
}

func TestVarianceEstimator_WeightIsFourthMomentBound(t *testing.T) {
	acc := NewLevelAccumulator(1, nil)
	if err := acc.Ingest(scalarBatch(
		[]float64{1, 4, 2, 8}, []float64{0.5, 3, 1.5, 7})); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	est := varianceEstimator{}
	w, ok := est.Weight(acc)
	if !ok {
		t.Fatal("weight unavailable")
	}
	want := math.Sqrt(acc.deltaFourthCentral() * acc.sumFourthCentral())
	if math.Abs(w-want) > 1e-12 {
		t.Errorf("variance weight: got %v, want %v", w, want)
	}

	if _, ok := est.Weight(NewLevelAccumulator(0, nil)); ok {
		t.Error("weight should be unavailable without samples")
	}
}

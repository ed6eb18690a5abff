package mlmc

import "fmt"

// Sample is one realization of a level's correction-term inputs: the fine
// model output Y_l, the coarse model output Y_{l-1} (nil at level 0, where
// Y_{-1} = 0) and, for MLCV runs, the paired control-variate output.
type Sample struct {
	Fine    []float64
	Coarse  []float64
	Control []float64
}

// moments carries the count, mean and central moment sums M2..M4 of a
// scalar stream. Sums (not averaged moments) are stored so that two
// aggregates combine exactly.
type moments struct {
	n    int64
	mean float64
	m2   float64
	m3   float64
	m4   float64
}

// momentsOf computes the aggregate of one batch in a single pass over the
// batch after its mean: two sweeps, no retained samples.
func momentsOf(xs []float64) moments {
	n := len(xs)
	if n == 0 {
		return moments{}
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(n)
	var m2, m3, m4 float64
	for _, x := range xs {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	return moments{n: int64(n), mean: mean, m2: m2, m3: m3, m4: m4}
}

// combine merges two aggregates (Pebay's parallel update formulas).
// The result matches momentsOf over the concatenated stream up to
// floating-point order-of-operation effects.
func (a moments) combine(b moments) moments {
	if a.n == 0 {
		return b
	}
	if b.n == 0 {
		return a
	}
	na, nb := float64(a.n), float64(b.n)
	n := na + nb
	d := b.mean - a.mean
	d2 := d * d

	out := moments{n: a.n + b.n}
	out.mean = a.mean + d*nb/n
	out.m2 = a.m2 + b.m2 + d2*na*nb/n
	out.m3 = a.m3 + b.m3 +
		d2*d*na*nb*(na-nb)/(n*n) +
		3*d*(na*b.m2-nb*a.m2)/n
	out.m4 = a.m4 + b.m4 +
		d2*d2*na*nb*(na*na-na*nb+nb*nb)/(n*n*n) +
		6*d2*(na*na*b.m2+nb*nb*a.m2)/(n*n) +
		4*d*(na*b.m3-nb*a.m3)/n
	return out
}

// variance returns the population variance M2/n. The second return is
// false with fewer than 2 samples, where the variance is undefined.
func (a moments) variance() (float64, bool) {
	if a.n < 2 {
		return 0, false
	}
	return a.m2 / float64(a.n), true
}

// fourthCentral returns the fourth central moment M4/n, or 0 below 2 samples.
func (a moments) fourthCentral() float64 {
	if a.n < 2 {
		return 0
	}
	return a.m4 / float64(a.n)
}

// comoments carries the count and centered cross-product sum of two
// paired scalar streams.
type comoments struct {
	n     int64
	meanX float64
	meanY float64
	c2    float64
}

func comomentsOf(xs, ys []float64) comoments {
	n := len(xs)
	if n == 0 {
		return comoments{}
	}
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/float64(n), sy/float64(n)
	var c2 float64
	for i := range xs {
		c2 += (xs[i] - mx) * (ys[i] - my)
	}
	return comoments{n: int64(n), meanX: mx, meanY: my, c2: c2}
}

func (a comoments) combine(b comoments) comoments {
	if a.n == 0 {
		return b
	}
	if b.n == 0 {
		return a
	}
	na, nb := float64(a.n), float64(b.n)
	n := na + nb
	dx := b.meanX - a.meanX
	dy := b.meanY - a.meanY
	return comoments{
		n:     a.n + b.n,
		meanX: a.meanX + dx*nb/n,
		meanY: a.meanY + dy*nb/n,
		c2:    a.c2 + b.c2 + dx*dy*na*nb/n,
	}
}

// covariance returns the population covariance C2/n.
func (a comoments) covariance() (float64, bool) {
	if a.n < 2 {
		return 0, false
	}
	return a.c2 / float64(a.n), true
}

// LevelAccumulator incrementally tracks the statistics of one level's
// correction term T_l = Y_l - Y_{l-1}. Batches are folded into running
// aggregates; no sample is ever retained. Vector-valued outputs get one
// aggregate per component, and the scalar quantities consumed by the
// allocation policy pool the components with the same combination rule.
type LevelAccumulator struct {
	level int
	dim   int // output dimension, fixed by the first batch

	delta  []moments // T_l = Y_l - Y_{l-1}
	sum    []moments // S_l = Y_l + Y_{l-1}, needed by the variance statistic
	fine   []moments // Y_l
	coarse []moments // Y_{l-1}

	hasCV  bool
	cv     []moments    // control-variate output
	cross  []comoments  // cov(T_l, CV_l) per component
	cvMean []float64    // declared E[CV_l]
}

// NewLevelAccumulator creates an accumulator for the given level index.
// cvMean is the declared control-variate expectation; nil disables the
// control-variate bookkeeping.
func NewLevelAccumulator(level int, cvMean []float64) *LevelAccumulator {
	return &LevelAccumulator{
		level:  level,
		hasCV:  cvMean != nil,
		cvMean: cvMean,
	}
}

// N returns the cumulative sample count n_l.
func (a *LevelAccumulator) N() int64 {
	if a.dim == 0 {
		return 0
	}
	return a.delta[0].n
}

// Dim returns the output dimension, 0 before the first batch.
func (a *LevelAccumulator) Dim() int {
	return a.dim
}

// Ingest folds k new independent realizations into the running aggregates.
// The result is identical, up to floating-point ordering, to recomputing
// every moment from the concatenated sample.
func (a *LevelAccumulator) Ingest(batch []Sample) error {
	if len(batch) == 0 {
		return nil
	}
	dim := len(batch[0].Fine)
	if dim == 0 {
		return fmt.Errorf("level %d: empty model output", a.level)
	}
	if a.dim == 0 {
		a.init(dim)
	} else if dim != a.dim {
		return fmt.Errorf("level %d: output dimension changed from %d to %d", a.level, a.dim, dim)
	}

	deltas := make([]float64, len(batch))
	sums := make([]float64, len(batch))
	fines := make([]float64, len(batch))
	coarses := make([]float64, len(batch))
	cvs := make([]float64, len(batch))
	for j := 0; j < dim; j++ {
		for i, s := range batch {
			if len(s.Fine) != dim {
				return fmt.Errorf("level %d: ragged batch", a.level)
			}
			y := s.Fine[j]
			var yc float64
			if s.Coarse != nil {
				yc = s.Coarse[j]
			}
			fines[i] = y
			coarses[i] = yc
			deltas[i] = y - yc
			sums[i] = y + yc
			if a.hasCV {
				if len(s.Control) != dim {
					return fmt.Errorf("level %d: control-variate output dimension mismatch", a.level)
				}
				cvs[i] = s.Control[j]
			}
		}
		a.delta[j] = a.delta[j].combine(momentsOf(deltas))
		a.sum[j] = a.sum[j].combine(momentsOf(sums))
		a.fine[j] = a.fine[j].combine(momentsOf(fines))
		a.coarse[j] = a.coarse[j].combine(momentsOf(coarses))
		if a.hasCV {
			a.cv[j] = a.cv[j].combine(momentsOf(cvs))
			a.cross[j] = a.cross[j].combine(comomentsOf(deltas, cvs))
		}
	}
	return nil
}

func (a *LevelAccumulator) init(dim int) {
	a.dim = dim
	a.delta = make([]moments, dim)
	a.sum = make([]moments, dim)
	a.fine = make([]moments, dim)
	a.coarse = make([]moments, dim)
	if a.hasCV {
		a.cv = make([]moments, dim)
		a.cross = make([]comoments, dim)
		if len(a.cvMean) == 1 && dim > 1 {
			// scalar declared mean broadcast over components
			mean := a.cvMean[0]
			a.cvMean = make([]float64, dim)
			for j := range a.cvMean {
				a.cvMean[j] = mean
			}
		}
	}
}

// pooled folds per-component aggregates into one scalar aggregate,
// equivalent to flattening the (n, dim) sample matrix.
func pooled(ms []moments) moments {
	var out moments
	for _, m := range ms {
		out = out.combine(m)
	}
	return out
}

func pooledCo(cs []comoments) comoments {
	var out comoments
	for _, c := range cs {
		out = out.combine(c)
	}
	return out
}

// Mean returns the running per-component mean of T_l, nil before any batch.
func (a *LevelAccumulator) Mean() []float64 {
	if a.dim == 0 {
		return nil
	}
	out := make([]float64, a.dim)
	for j, m := range a.delta {
		out[j] = m.mean
	}
	return out
}

// Variance returns the pooled variance estimate of T_l. The second return
// is false while fewer than 2 cumulative samples are available.
func (a *LevelAccumulator) Variance() (float64, bool) {
	if a.dim == 0 {
		return 0, false
	}
	return pooled(a.delta).variance()
}

// FineVariance returns the pooled variance of Y_l on this level's sample.
func (a *LevelAccumulator) FineVariance() (float64, bool) {
	if a.dim == 0 {
		return 0, false
	}
	return pooled(a.fine).variance()
}

// CoarseVariance returns the pooled variance of Y_{l-1} on this level's sample.
func (a *LevelAccumulator) CoarseVariance() (float64, bool) {
	if a.dim == 0 {
		return 0, false
	}
	return pooled(a.coarse).variance()
}

// varianceGap returns the per-component var(Y_l) - var(Y_{l-1}) on this
// level's own sample, the level's term in the variance telescoping sum.
// Nil before any batch.
func (a *LevelAccumulator) varianceGap() []float64 {
	if a.dim == 0 {
		return nil
	}
	out := make([]float64, a.dim)
	for j := range out {
		vf, _ := a.fine[j].variance()
		vc, _ := a.coarse[j].variance()
		out[j] = vf - vc
	}
	return out
}

// deltaFourthCentral and sumFourthCentral expose the pooled fourth central
// moments of T_l and S_l for the variance statistic's allocation weight.
func (a *LevelAccumulator) deltaFourthCentral() float64 {
	if a.dim == 0 {
		return 0
	}
	return pooled(a.delta).fourthCentral()
}

func (a *LevelAccumulator) sumFourthCentral() float64 {
	if a.dim == 0 {
		return 0
	}
	return pooled(a.sum).fourthCentral()
}

package mlmc

// Control-variate (MLCV) correction. A level may carry a surrogate g_l of
// its correction term with a known expectation; the accumulator tracks
// the covariance between T_l and g_l alongside the raw moments and the
// mean estimator substitutes the corrected quantities below wherever the
// raw mean and variance would appear. The pilot's state machine and the
// allocation control flow are untouched: the correction is entirely a
// statistic-estimator concern.

// HasControlVariate reports whether control-variate aggregates are kept.
func (a *LevelAccumulator) HasControlVariate() bool {
	return a.hasCV
}

// Alpha returns the control-variate coefficient
// alpha_l = cov(T_l, CV_l) / var(CV_l), or 0 when the control variate is
// degenerate (zero variance) or not configured.
func (a *LevelAccumulator) Alpha() float64 {
	if !a.hasCV || a.dim == 0 {
		return 0
	}
	cvVar, ok := pooled(a.cv).variance()
	if !ok || cvVar == 0 {
		return 0
	}
	cov, ok := pooledCo(a.cross).covariance()
	if !ok {
		return 0
	}
	return cov / cvVar
}

// CorrectedVariance returns the variance of the control-variate-corrected
// correction term, var(T_l) - cov(T_l, CV_l)^2 / var(CV_l), clamped at 0
// against rounding. Without a control variate it equals Variance().
// A perfectly correlated control variate drives this to zero, and with it
// the level's allocation score and any further sampling of the level.
func (a *LevelAccumulator) CorrectedVariance() (float64, bool) {
	v, ok := a.Variance()
	if !ok || !a.hasCV {
		return v, ok
	}
	cvVar, okCV := pooled(a.cv).variance()
	if !okCV || cvVar == 0 {
		return v, ok
	}
	cov, _ := pooledCo(a.cross).covariance()
	corrected := v - cov*cov/cvVar
	if corrected < 0 {
		corrected = 0
	}
	return corrected, true
}

// CorrectedMean returns the per-component control-variate-corrected mean,
// mean(T_l) - alpha_l * (mean(CV_l) - E[CV_l]). Without a control variate
// it equals Mean().
func (a *LevelAccumulator) CorrectedMean() []float64 {
	mean := a.Mean()
	if !a.hasCV || mean == nil {
		return mean
	}
	alpha := a.Alpha()
	out := make([]float64, a.dim)
	for j := range mean {
		out[j] = mean[j] - alpha*(a.cv[j].mean-a.cvMean[j])
	}
	return out
}

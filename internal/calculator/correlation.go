package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"MoveSentinel/internal/model"
)

// CorrelationThreshold is the coefficient above which a target window is
// considered explained by the reference asset.
const CorrelationThreshold = 0.2

// IsCorrelated reports whether the target window correlates with any
// consecutive window of the reference, compared on closing prices.
//
// Reference windows have the length of the target, start at index 0 and do
// not overlap. Windows where either side has zero variance are skipped.
// maxTrials caps the number of windows examined; zero means no cap.
func IsCorrelated(target, reference model.Series, maxTrials int) bool {
	step := len(target)
	if step == 0 {
		return false
	}

	trials := len(reference) / step
	if maxTrials > 0 && maxTrials < trials {
		trials = maxTrials
	}

	targetCloses := target.Closes()
	if stat.PopStdDev(targetCloses, nil) == 0 {
		// a flat target skips every reference window
		return false
	}

	for i := 0; i < trials; i++ {
		window := reference[i*step : (i+1)*step]
		corr, ok := Pearson(targetCloses, window.Closes())
		if !ok {
			continue
		}
		if exceedsThreshold(corr) {
			return true
		}
	}
	return false
}

// exceedsThreshold reports whether corr is strictly above CorrelationThreshold.
func exceedsThreshold(corr float64) bool {
	return corr > CorrelationThreshold
}

// Pearson computes the correlation coefficient of two equal-length samples.
// ok is false when the lengths differ, the samples are empty, or either
// sample has zero variance.
func Pearson(x, y []float64) (corr float64, ok bool) {
	if len(x) == 0 || len(x) != len(y) {
		return 0, false
	}
	if stat.PopStdDev(x, nil) == 0 || stat.PopStdDev(y, nil) == 0 {
		return 0, false
	}
	corr = stat.Correlation(x, y, nil)
	if math.IsNaN(corr) {
		return 0, false
	}
	return corr, true
}

// AlignByTime returns the closes of both series restricted to the candle
// times present in both, in chronological order.
func AlignByTime(a, b model.Series) (x, y []float64) {
	byTime := make(map[int64]float64, len(b))
	for _, c := range b {
		byTime[c.Time] = c.Close
	}
	for _, c := range a {
		if v, ok := byTime[c.Time]; ok {
			x = append(x, c.Close)
			y = append(y, v)
		}
	}
	return x, y
}

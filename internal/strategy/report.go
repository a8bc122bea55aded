package strategy

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"MoveSentinel/internal/calculator"
	"MoveSentinel/internal/model"
)

// BuildDailyReport segments a full batch and summarizes it together with the
// overall correlation between the two assets.
func BuildDailyReport(batch *model.Batch, p Params, targetSymbol, referenceSymbol string) *model.DailyReport {
	report := &model.DailyReport{
		TargetSymbol:    targetSymbol,
		ReferenceSymbol: referenceSymbol,
		Candles:         len(batch.Target),
		Correlation:     math.NaN(),
		GeneratedAt:     time.Now(),
	}

	x, y := calculator.AlignByTime(batch.Target, batch.Reference)
	if corr, ok := calculator.Pearson(x, y); ok {
		report.Correlation = corr
	}

	segments := Segment(batch.Target, batch.Reference, p)
	report.Segments = len(segments)

	amplitudes := make([]float64, 0, len(segments))
	for _, seg := range segments {
		report.IndependentCandles += seg.Len()
		if seg.First().Open == 0 {
			continue
		}
		amplitudes = append(amplitudes, math.Abs(PercentChange(seg.First().Open, seg.Last().Close).InexactFloat64()))
	}
	if len(amplitudes) > 0 {
		report.MaxAbsPercent = floats.Max(amplitudes)
		report.MeanAbsPercent = stat.Mean(amplitudes, nil)
	}
	return report
}

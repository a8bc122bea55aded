package model

import "time"

// DailyReport summarizes one full-day pass of the segmentation.
type DailyReport struct {
	TargetSymbol       string
	ReferenceSymbol    string
	Candles            int
	Correlation        float64 // overall close-price correlation, NaN when undefined
	Segments           int
	IndependentCandles int
	MaxAbsPercent      float64
	MeanAbsPercent     float64
	GeneratedAt        time.Time
}

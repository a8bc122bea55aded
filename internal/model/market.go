package model

import "time"

// Candle represents a single one-minute bar. Time is seconds since epoch.
type Candle struct {
	Time       int64   `json:"time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	VolumeFrom float64 `json:"volumefrom"`
	VolumeTo   float64 `json:"volumeto"`
}

// At returns the candle time in UTC.
func (c Candle) At() time.Time {
	return time.Unix(c.Time, 0).UTC()
}

// Series is a chronological sequence of candles with strictly increasing Time.
type Series []Candle

// Closes extracts the closing prices.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, c := range s {
		closes[i] = c.Close
	}
	return closes
}

// Batch holds one fetch cycle of both assets.
type Batch struct {
	Target    Series
	Reference Series
	FetchedAt time.Time
}

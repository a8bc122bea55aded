package model

import "time"

// Segment is one independent movement: one or more merged windows of the
// target series. It owns its candles and never aliases the source series.
type Segment struct {
	Candles []Candle `json:"candles"`
}

// NewSegment copies the given candles into a new segment.
func NewSegment(candles []Candle) Segment {
	owned := make([]Candle, len(candles))
	copy(owned, candles)
	return Segment{Candles: owned}
}

func (s Segment) First() Candle { return s.Candles[0] }
func (s Segment) Last() Candle  { return s.Candles[len(s.Candles)-1] }
func (s Segment) Len() int      { return len(s.Candles) }

// Key is the dedup key of the movement: the time of its first candle.
func (s Segment) Key() int64 { return s.First().Time }

// MovementEvent is a qualifying segment ready for notification.
type MovementEvent struct {
	ID         string    `json:"id"`
	Segment    Segment   `json:"segment"`
	Percent    float64   `json:"percent"`
	Message    string    `json:"message"`
	Dispatched bool      `json:"dispatched"`
	DetectedAt time.Time `json:"detected_at"`
}

// Key returns the dedup key of the underlying segment.
func (e *MovementEvent) Key() int64 { return e.Segment.Key() }

package strategy

import (
	"MoveSentinel/internal/calculator"
	"MoveSentinel/internal/model"
)

// MaxMergeGap is the largest time gap in seconds between two independent
// windows that still joins them into one movement.
const MaxMergeGap = 60

// Params controls the segmentation.
type Params struct {
	Step      int // target window size in candles
	Depth     int // reference window radius
	MaxTrials int // correlation iteration cap, 0 means unbounded
}

// DefaultParams returns the parameters used for ETH/BTC minute candles.
func DefaultParams() Params {
	return Params{Step: 2, Depth: 4}
}

// Segment splits the target into consecutive windows of p.Step candles and
// returns the windows that no nearby reference window explains, merging
// windows that follow each other within MaxMergeGap seconds.
// A trailing remainder shorter than p.Step is ignored.
func Segment(target, reference model.Series, p Params) []model.Segment {
	if p.Step <= 0 {
		return nil
	}

	var movements []model.Segment
	for i := 0; i+p.Step <= len(target); i += p.Step {
		window := target[i : i+p.Step]
		nearby := calculator.ReferenceWindow(reference, i, p.Depth)
		if calculator.IsCorrelated(window, nearby, p.MaxTrials) {
			continue
		}
		movements = appendMovement(movements, window)
	}
	return movements
}

func appendMovement(movements []model.Segment, window model.Series) []model.Segment {
	if len(movements) == 0 {
		return append(movements, model.NewSegment(window))
	}
	last := &movements[len(movements)-1]
	if window[0].Time-last.Last().Time <= MaxMergeGap {
		last.Candles = append(last.Candles, window...)
		return movements
	}
	return append(movements, model.NewSegment(window))
}

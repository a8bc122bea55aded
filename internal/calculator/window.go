package calculator

import "MoveSentinel/internal/model"

// DepthWindow returns the index range [start, end) of the reference candles
// surrounding center with the given radius, clamped to the series bounds.
//
// The upper bound is computed as center+depth+1 but clamped to length-1,
// not length, so a window reaching the end of the series never includes
// the last candle. Callers rely on this exact width.
func DepthWindow(length, center, depth int) (start, end int) {
	start = center - depth
	if start < 0 {
		start = 0
	}
	if start > length {
		start = length
	}
	end = center + depth + 1
	if end > length-1 {
		end = length - 1
	}
	if end < start {
		end = start
	}
	return start, end
}

// ReferenceWindow slices the reference candles around center.
func ReferenceWindow(series model.Series, center, depth int) model.Series {
	start, end := DepthWindow(len(series), center, depth)
	return series[start:end]
}

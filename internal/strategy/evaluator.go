package strategy

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"MoveSentinel/internal/model"
)

// DefaultMinAbsPercent is the smallest amplitude worth a notification.
const DefaultMinAbsPercent = 1.0

// emphasis wraps messages whose amplitude is exactly one percent.
const emphasis = "**"

var (
	hundred    = decimal.NewFromInt(100)
	onePercent = decimal.NewFromInt(1)
)

// PercentChange returns the signed change from open to close in percent,
// rounded to two decimals. It is negative when close is below open.
func PercentChange(open, close float64) decimal.Decimal {
	o := decimal.NewFromFloat(open)
	c := decimal.NewFromFloat(close)
	pct := c.Sub(o).Abs().Div(o).Mul(hundred)
	if c.LessThan(o) {
		pct = pct.Neg()
	}
	return pct.Round(2)
}

// Evaluate turns unseen segments into movement events when their amplitude
// reaches minAbsPercent. Segments are matched against seen by the time of
// their first candle. The caller is responsible for updating seen.
func Evaluate(segments []model.Segment, seen map[int64]struct{}, minAbsPercent float64) []*model.MovementEvent {
	threshold := decimal.NewFromFloat(minAbsPercent)
	now := time.Now()

	var events []*model.MovementEvent
	for _, seg := range segments {
		if seg.Len() == 0 {
			continue
		}
		if _, ok := seen[seg.Key()]; ok {
			continue
		}
		first, last := seg.First(), seg.Last()
		if first.Open == 0 {
			continue
		}
		pct := PercentChange(first.Open, last.Close)
		if pct.Abs().LessThan(threshold) {
			continue
		}
		events = append(events, &model.MovementEvent{
			ID:         uuid.NewString(),
			Segment:    seg,
			Percent:    pct.InexactFloat64(),
			Message:    FormatMovement(pct, first, last),
			DetectedAt: now,
		})
	}
	return events
}

// FormatMovement renders the notification text of a movement.
func FormatMovement(pct decimal.Decimal, first, last model.Candle) string {
	msg := fmt.Sprintf("Own price change of %s%% from %s to %s",
		pct.StringFixed(2), first.At().Format(time.TimeOnly), last.At().Format(time.TimeOnly))
	if pct.Abs().Equal(onePercent) {
		return emphasis + msg + emphasis
	}
	return msg
}

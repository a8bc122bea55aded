package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"MoveSentinel/internal/model"
	"MoveSentinel/internal/recorder"
)

// FormatMovementHTML renders a movement for Telegram. The plain-text
// emphasis marker becomes bold.
func FormatMovementHTML(evt *model.MovementEvent) string {
	text := evt.Message
	bold := strings.HasPrefix(text, "**") && strings.HasSuffix(text, "**") && len(text) > 4
	if bold {
		text = text[2 : len(text)-2]
	}
	text = html.EscapeString(text)

	icon := "📈"
	if evt.Percent < 0 {
		icon = "📉"
	}
	if bold {
		return fmt.Sprintf("%s <b>%s</b>", icon, text)
	}
	return fmt.Sprintf("%s %s", icon, text)
}

// FormatDailyReport formats the daily correlation report.
func FormatDailyReport(r *model.DailyReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Daily report</b> | %s\n\n", r.GeneratedAt.UTC().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Candles analysed: %d\n", r.Candles))
	if math.IsNaN(r.Correlation) {
		b.WriteString(fmt.Sprintf("%s/%s correlation: n/a\n", r.TargetSymbol, r.ReferenceSymbol))
	} else {
		b.WriteString(fmt.Sprintf("%s/%s correlation: %.4f\n", r.TargetSymbol, r.ReferenceSymbol, r.Correlation))
	}
	b.WriteString(fmt.Sprintf("Own movements: %d (%d one-minute candles)\n", r.Segments, r.IndependentCandles))
	if r.Segments > 0 {
		b.WriteString(fmt.Sprintf("Largest amplitude: %.2f%% | mean: %.2f%%\n", r.MaxAbsPercent, r.MeanAbsPercent))
	}
	return b.String()
}

// FormatStats formats the detection loop counters.
func FormatStats(s *model.DetectorStats) string {
	var b strings.Builder
	b.WriteString("📦 <b>Detector status</b>\n\n")
	b.WriteString(fmt.Sprintf("Cycles: %d\n", s.Cycles))
	b.WriteString(fmt.Sprintf("Fetch failures: %d (consecutive %d)\n", s.FetchFailures, s.ConsecutiveFailures))
	b.WriteString(fmt.Sprintf("Segments found: %d\n", s.SegmentsFound))
	b.WriteString(fmt.Sprintf("Movements detected: %d | emitted: %d\n", s.EventsDetected, s.EventsEmitted))
	if s.LastError != "" {
		b.WriteString(fmt.Sprintf("Last error: %s\n", html.EscapeString(s.LastError)))
	}
	if !s.LastCycleAt.IsZero() {
		b.WriteString(fmt.Sprintf("Last cycle: %s\n", s.LastCycleAt.UTC().Format(time.DateTime)))
	}
	return b.String()
}

// FormatRecent lists recent movements, newest last.
func FormatRecent(events []model.MovementEvent) string {
	if len(events) == 0 {
		return "No movements detected yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕒 <b>Last %d movements</b>\n\n", len(events)))
	for i := range events {
		b.WriteString(FormatMovementHTML(&events[i]))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatHistory lists persisted movements, newest first.
func FormatHistory(records []recorder.MovementRecord) string {
	if len(records) == 0 {
		return "No stored movements."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Stored movements</b> (%d)\n\n", len(records)))
	for _, r := range records {
		b.WriteString(fmt.Sprintf("%s → %s | %+.2f%% | %d candles\n",
			time.Unix(r.StartTime, 0).UTC().Format(time.DateTime),
			time.Unix(r.EndTime, 0).UTC().Format(time.TimeOnly),
			r.Percent, r.Candles))
	}
	return b.String()
}

package recorder

import (
	"time"

	"MoveSentinel/internal/model"
)

// MovementRecord is a persisted movement event.
type MovementRecord struct {
	ID         string
	StartTime  int64
	EndTime    int64
	Candles    int
	Percent    float64
	Message    string
	DetectedAt time.Time
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordMovement(evt *model.MovementEvent) error
	RecordDailyReport(r *model.DailyReport) error
	RecentMovements(limit int) ([]MovementRecord, error)
	Close() error
}

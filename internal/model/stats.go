package model

import "time"

// DetectorStats tracks detection loop counters across restarts.
type DetectorStats struct {
	Cycles              int64     `json:"cycles"`
	FetchFailures       int64     `json:"fetch_failures"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	SegmentsFound       int64     `json:"segments_found"`
	EventsDetected      int64     `json:"events_detected"`
	EventsEmitted       int64     `json:"events_emitted"`
	LastError           string    `json:"last_error,omitempty"`
	LastCycleAt         time.Time `json:"last_cycle_at"`
	StartedAt           time.Time `json:"started_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

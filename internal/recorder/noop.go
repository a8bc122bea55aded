package recorder

import "MoveSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordMovement(_ *model.MovementEvent) error     { return nil }
func (n *NoopRecorder) RecordDailyReport(_ *model.DailyReport) error    { return nil }
func (n *NoopRecorder) RecentMovements(_ int) ([]MovementRecord, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                    { return nil }

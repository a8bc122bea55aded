package stats

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"MoveSentinel/internal/model"
)

// Manager tracks detection loop counters with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.DetectorStats
	filePath string
}

// NewManager creates a Manager, loading previous counters from disk.
// The consecutive failure streak always starts from zero.
func NewManager(filePath string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	state.ConsecutiveFailures = 0
	state.StartedAt = time.Now()

	m := &Manager{state: state, filePath: filePath}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// GetState returns a copy of the current counters.
func (m *Manager) GetState() model.DetectorStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state
}

// RecordCycle counts a successful detection cycle.
func (m *Manager) RecordCycle(segments, events int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Cycles++
	m.state.SegmentsFound += int64(segments)
	m.state.EventsDetected += int64(events)
	m.state.ConsecutiveFailures = 0
	m.state.LastCycleAt = time.Now()

	if err := m.save(); err != nil {
		log.Error().Err(err).Msg("save stats after cycle")
	}
}

// RecordFailure counts a failed fetch and returns the current failure streak.
func (m *Manager) RecordFailure(cause error) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.FetchFailures++
	m.state.ConsecutiveFailures++
	if cause != nil {
		m.state.LastError = cause.Error()
	}

	if err := m.save(); err != nil {
		log.Error().Err(err).Msg("save stats after failure")
	}
	return m.state.ConsecutiveFailures
}

// RecordEmitted counts a movement delivered by the sink.
func (m *Manager) RecordEmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.EventsEmitted++
	if err := m.save(); err != nil {
		log.Error().Err(err).Msg("save stats after emit")
	}
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}

package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoveSentinel/internal/collector"
	"MoveSentinel/internal/model"
	"MoveSentinel/internal/notifier"
	"MoveSentinel/internal/recorder"
	"MoveSentinel/internal/stats"
	"MoveSentinel/internal/strategy"
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSender) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func newTestScheduler(t *testing.T, f collector.Fetcher) (*Scheduler, *fakeSender, *recorder.SQLiteRecorder) {
	t.Helper()
	st, err := stats.NewManager("")
	require.NoError(t, err)
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	sender := &fakeSender{}
	col := collector.NewCollector(f, "ETH", "BTC", "USDT", 60)
	s := NewScheduler(context.Background(), col, notifier.NewSink(), st, sender, rec, strategy.DefaultParams(), 120)
	return s, sender, rec
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler(t, &collector.MockFetcher{Price: 100})
	require.NoError(t, s.RegisterAll("0 0 9 * * *", "0 0 * * * *"))
	assert.Len(t, s.Cron.Entries(), 2)

	assert.Error(t, s.RegisterAll("not a cron", ""))
}

func TestDailyReport_SendsAndRecords(t *testing.T) {
	s, sender, _ := newTestScheduler(t, &collector.MockFetcher{Price: 100})

	s.RunReportNow()

	texts := sender.sent()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Daily report")
	assert.Contains(t, texts[0], "Candles analysed: 120")
}

func TestDailyReport_FetchFailure(t *testing.T) {
	s, sender, _ := newTestScheduler(t, &collector.MockFetcher{Err: errors.New("offline")})

	s.RunReportNow()

	texts := sender.sent()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "offline")
}

func TestHandleCommand(t *testing.T) {
	s, sender, rec := newTestScheduler(t, &collector.MockFetcher{Price: 100})

	evt := &model.MovementEvent{
		ID:      "m1",
		Percent: 2.5,
		Message: "Own price change of 2.50% from 22:13:20 to 22:15:20",
		Segment: model.NewSegment([]model.Candle{
			{Time: 1700000000, Open: 100, Close: 101},
			{Time: 1700000120, Open: 101, Close: 102.5},
		}),
	}
	require.True(t, s.Sink.Update(context.Background(), evt))
	require.NoError(t, rec.RecordMovement(evt))
	s.Stats.RecordCycle(3, 1)

	assert.Contains(t, s.HandleCommand("/recent"), "Own price change of 2.50%")
	assert.Contains(t, s.HandleCommand("/history"), "+2.50% | 2 candles")
	assert.Contains(t, s.HandleCommand("/stats"), "Cycles: 1")
	assert.Contains(t, s.HandleCommand("hello"), "/report")

	assert.Empty(t, s.HandleCommand("/report"))
	assert.Len(t, sender.sent(), 1)
}

func TestTrySend_NilSender(t *testing.T) {
	s, _, _ := newTestScheduler(t, &collector.MockFetcher{Price: 100})
	s.Sender = nil
	assert.NotPanics(t, func() { s.statsDigest() })
}

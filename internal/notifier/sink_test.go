package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoveSentinel/internal/model"
)

func newEvent(key int64, pct float64) *model.MovementEvent {
	return &model.MovementEvent{
		ID:      fmt.Sprintf("evt-%d", key),
		Segment: model.NewSegment([]model.Candle{{Time: key, Open: 100, Close: 100 + pct}}),
		Percent: pct,
		Message: fmt.Sprintf("Own price change of %.2f%% from 00:00:00 to 00:00:00", pct),
	}
}

// recordingListener counts emissions per event ID.
type recordingListener struct {
	mu    sync.Mutex
	seen  map[string]int
	order []string
	err   error
}

func newRecordingListener() *recordingListener {
	return &recordingListener{seen: make(map[string]int)}
}

func (r *recordingListener) Name() string { return "recording" }

func (r *recordingListener) Emit(_ context.Context, evt *model.MovementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[evt.ID]++
	r.order = append(r.order, evt.ID)
	return r.err
}

func (r *recordingListener) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[id]
}

func (r *recordingListener) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func TestSink_UpdateEmitsOnce(t *testing.T) {
	rec := newRecordingListener()
	sink := NewSink(rec)
	ctx := context.Background()

	a, b := newEvent(60, 2), newEvent(120, -1.5)
	assert.True(t, sink.Update(ctx, a))
	assert.True(t, sink.Update(ctx, b))

	assert.True(t, a.Dispatched)
	assert.True(t, b.Dispatched)
	assert.Equal(t, 1, rec.count(a.ID))
	assert.Equal(t, 1, rec.count(b.ID))
	assert.Equal(t, []string{a.ID, b.ID}, rec.order)
}

func TestSink_RepeatedUpdateDoesNotReemit(t *testing.T) {
	rec := newRecordingListener()
	sink := NewSink(rec)
	ctx := context.Background()

	a := newEvent(60, 2)
	assert.True(t, sink.Update(ctx, a))
	assert.False(t, sink.Update(ctx, a))
	assert.False(t, sink.Update(ctx, newEvent(60, 3)), "same movement key must be ignored")

	assert.Equal(t, 1, rec.count(a.ID))
	assert.Equal(t, 1, sink.Len())
}

func TestSink_EmitsPreviouslyUndispatched(t *testing.T) {
	rec := newRecordingListener()
	sink := NewSink(rec)
	ctx := context.Background()

	// an event logged before any listener existed is still pending
	first := newEvent(60, 2)
	sink.mu.Lock()
	sink.events = append(sink.events, first)
	sink.keys[first.Key()] = struct{}{}
	sink.mu.Unlock()

	second := newEvent(120, 2)
	sink.Update(ctx, second)

	assert.Equal(t, []string{first.ID, second.ID}, rec.order)
}

func TestSink_ConcurrentUpdates(t *testing.T) {
	rec := newRecordingListener()
	sink := NewSink(rec)
	ctx := context.Background()

	const n = 200
	events := make([]*model.MovementEvent, n)
	for i := range events {
		events[i] = newEvent(int64(i*60), 1.5)
	}

	var wg sync.WaitGroup
	for _, evt := range events {
		for j := 0; j < 3; j++ {
			wg.Add(1)
			go func(e *model.MovementEvent) {
				defer wg.Done()
				sink.Update(ctx, e)
			}(evt)
		}
	}
	wg.Wait()

	assert.Equal(t, n, sink.Len())
	assert.Equal(t, n, rec.total())
	for _, evt := range events {
		assert.Equal(t, 1, rec.count(evt.ID), evt.ID)
		assert.True(t, evt.Dispatched)
	}
}

func TestSink_ListenerErrorDoesNotBlockOthers(t *testing.T) {
	failing := newRecordingListener()
	failing.err = errors.New("down")
	ok := newRecordingListener()
	sink := NewSink(failing, ok)

	evt := newEvent(60, 2)
	sink.Update(context.Background(), evt)

	assert.Equal(t, 1, failing.count(evt.ID))
	assert.Equal(t, 1, ok.count(evt.ID))
	assert.True(t, evt.Dispatched)
}

func TestSink_SeenAndRecent(t *testing.T) {
	sink := NewSink()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		sink.Update(ctx, newEvent(int64(i*60), 2))
	}

	seen := sink.Seen()
	assert.Len(t, seen, 5)
	assert.Contains(t, seen, int64(300))

	recent := sink.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "evt-240", recent[0].ID)
	assert.Equal(t, "evt-300", recent[1].ID)

	assert.Len(t, sink.Events(), 5)
	assert.Len(t, sink.Recent(50), 5)

	// snapshots are copies
	recent[0].Message = "changed"
	assert.NotEqual(t, "changed", sink.Recent(2)[0].Message)
}

func TestListenerFuncAndConsole(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsoleListener(&buf)

	var called int
	fn := ListenerFunc("fn", func(_ context.Context, evt *model.MovementEvent) error {
		called++
		return nil
	})
	sink := NewSink(console)
	sink.AddListener(fn)

	sink.Update(context.Background(), newEvent(60, 2))
	assert.Equal(t, "Own price change of 2.00% from 00:00:00 to 00:00:00\n", buf.String())
	assert.Equal(t, 1, called)
	assert.Equal(t, "fn", fn.Name())
}

package detector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"MoveSentinel/internal/collector"
	"MoveSentinel/internal/model"
	"MoveSentinel/internal/notifier"
	"MoveSentinel/internal/stats"
	"MoveSentinel/internal/strategy"
)

const (
	DefaultPollInterval           = 5 * time.Second
	DefaultDispatchYield          = 5 * time.Millisecond
	DefaultMaxWorkers             = 8
	DefaultMaxConsecutiveFailures = 5
)

// ErrTooManyFailures is returned by Run when the data source keeps failing.
var ErrTooManyFailures = errors.New("too many consecutive fetch failures")

// Options tunes the detection loop. Zero intervals and counts fall back to
// the defaults; a negative DispatchYield disables the yield. A zero Params
// uses strategy.DefaultParams.
type Options struct {
	Params                 strategy.Params
	MinAbsPercent          float64
	PollInterval           time.Duration
	DispatchYield          time.Duration
	MaxWorkers             int
	MaxConsecutiveFailures int
}

// Detector repeatedly fetches candles, segments them and pushes new
// movements to the sink without waiting for emission.
type Detector struct {
	collector *collector.Collector
	sink      *notifier.Sink
	stats     *stats.Manager
	opts      Options

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	// keys handed to a dispatch worker, logged by the sink or not yet
	claimMu sync.Mutex
	claimed map[int64]struct{}

	logger zerolog.Logger
}

// New creates a Detector. stats may be nil.
func New(c *collector.Collector, sink *notifier.Sink, st *stats.Manager, opts Options) *Detector {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	switch {
	case opts.DispatchYield == 0:
		opts.DispatchYield = DefaultDispatchYield
	case opts.DispatchYield < 0:
		opts.DispatchYield = 0
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if opts.MaxConsecutiveFailures <= 0 {
		opts.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}
	if opts.Params.Step <= 0 {
		opts.Params = strategy.DefaultParams()
	}

	return &Detector{
		collector: c,
		sink:      sink,
		stats:     st,
		opts:      opts,
		sem:       semaphore.NewWeighted(int64(opts.MaxWorkers)),
		claimed:   make(map[int64]struct{}),
		logger:    log.With().Str("component", "detector").Logger(),
	}
}

// Run drives detection cycles until ctx is cancelled or the data source
// fails MaxConsecutiveFailures times in a row.
func (d *Detector) Run(ctx context.Context) error {
	d.logger.Info().
		Str("target", d.collector.TargetSymbol).
		Str("reference", d.collector.ReferenceSymbol).
		Dur("interval", d.opts.PollInterval).
		Msg("detection loop started")

	failures := 0
	for {
		_, err := d.RunOnce(ctx)
		if ctx.Err() != nil {
			d.logger.Info().Msg("detection loop stopped")
			return nil
		}
		if err != nil {
			if d.stats != nil {
				failures = d.stats.RecordFailure(err)
			} else {
				failures++
			}
			d.logger.Error().Err(err).Int("consecutive", failures).Msg("detection cycle failed")
			if failures >= d.opts.MaxConsecutiveFailures {
				return fmt.Errorf("%w: %w", ErrTooManyFailures, err)
			}
		} else {
			failures = 0
		}

		select {
		case <-ctx.Done():
			d.logger.Info().Msg("detection loop stopped")
			return nil
		case <-time.After(d.opts.PollInterval):
		}
	}
}

// RunOnce performs one fetch, segment, evaluate and dispatch cycle and
// returns the events it dispatched. Movements already logged by the sink or
// claimed by an earlier dispatch are neither returned nor counted.
func (d *Detector) RunOnce(ctx context.Context) ([]*model.MovementEvent, error) {
	batch, err := d.collector.Collect(ctx)
	if err != nil {
		return nil, err
	}

	segments := strategy.Segment(batch.Target, batch.Reference, d.opts.Params)
	var events []*model.MovementEvent
	for _, evt := range strategy.Evaluate(segments, d.seen(), d.opts.MinAbsPercent) {
		if d.claim(evt.Key()) {
			events = append(events, evt)
		}
	}

	d.logger.Debug().
		Int("candles", len(batch.Target)).
		Int("segments", len(segments)).
		Int("events", len(events)).
		Msg("cycle complete")

	if d.stats != nil {
		d.stats.RecordCycle(len(segments), len(events))
	}

	dispatched := make([]*model.MovementEvent, 0, len(events))
	for _, evt := range events {
		if err := d.dispatch(ctx, evt); err != nil {
			return dispatched, fmt.Errorf("dispatch: %w", err)
		}
		dispatched = append(dispatched, evt)
	}
	return dispatched, nil
}

// dispatch hands evt to a worker goroutine. It blocks only while MaxWorkers
// notifications are already in flight.
func (d *Detector) dispatch(ctx context.Context, evt *model.MovementEvent) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)

		if d.sink.Update(ctx, evt) && d.stats != nil {
			d.stats.RecordEmitted()
		}
	}()

	if d.opts.DispatchYield > 0 {
		time.Sleep(d.opts.DispatchYield)
	}
	return nil
}

// seen merges the sink log with keys claimed by in-flight workers.
func (d *Detector) seen() map[int64]struct{} {
	seen := d.sink.Seen()
	d.claimMu.Lock()
	defer d.claimMu.Unlock()
	for k := range d.claimed {
		seen[k] = struct{}{}
	}
	return seen
}

// claim reserves key for one dispatch and reports false if it was taken.
func (d *Detector) claim(key int64) bool {
	d.claimMu.Lock()
	defer d.claimMu.Unlock()
	if _, ok := d.claimed[key]; ok {
		return false
	}
	d.claimed[key] = struct{}{}
	return true
}

// Wait blocks until every in-flight dispatch worker has finished.
func (d *Detector) Wait() {
	d.wg.Wait()
}

package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"MoveSentinel/internal/collector"
	"MoveSentinel/internal/notifier"
	"MoveSentinel/internal/recorder"
	"MoveSentinel/internal/stats"
	"MoveSentinel/internal/strategy"
)

const (
	recentLimit  = 10
	sendRetries  = 3
	helpResponse = "Available commands:\n• /report daily correlation report\n• /stats detector status\n• /recent last movements\n• /history stored movements"
)

type retrySender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the periodic reports and answers operator commands.
type Scheduler struct {
	Cron        *cron.Cron
	Collector   *collector.Collector
	Sink        *notifier.Sink
	Stats       *stats.Manager
	Sender      notifier.Sender
	Recorder    recorder.Recorder
	Params      strategy.Params
	ReportLimit int
	Ctx         context.Context

	logger zerolog.Logger
}

// NewScheduler creates a new Scheduler. sender may be nil, in which case
// reports are only logged.
func NewScheduler(ctx context.Context, col *collector.Collector, sink *notifier.Sink, st *stats.Manager,
	sender notifier.Sender, rec recorder.Recorder, params strategy.Params, reportLimit int) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Collector:   col,
		Sink:        sink,
		Stats:       st,
		Sender:      sender,
		Recorder:    rec,
		Params:      params,
		ReportLimit: reportLimit,
		Ctx:         ctx,
		logger:      log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the daily report and the stats digest.
func (s *Scheduler) RegisterAll(dailyReportCron, statsCron string) error {
	if _, err := s.Cron.AddFunc(dailyReportCron, s.dailyReport); err != nil {
		return fmt.Errorf("register daily report: %w", err)
	}
	if statsCron != "" {
		if _, err := s.Cron.AddFunc(statsCron, s.statsDigest); err != nil {
			return fmt.Errorf("register stats digest: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunReportNow executes the daily report immediately (for manual trigger / RUN_REPORT_ON_START).
func (s *Scheduler) RunReportNow() {
	s.dailyReport()
}

func (s *Scheduler) dailyReport() {
	s.logger.Info().Int("limit", s.ReportLimit).Msg("running daily report")
	batch, err := s.Collector.CollectN(s.Ctx, s.ReportLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("daily report collect")
		s.trySend(fmt.Sprintf("❌ Daily report data collection failed: %v", err))
		return
	}

	report := strategy.BuildDailyReport(batch, s.Params, s.Collector.TargetSymbol, s.Collector.ReferenceSymbol)
	s.trySend(notifier.FormatDailyReport(report))

	if err := s.Recorder.RecordDailyReport(report); err != nil {
		s.logger.Error().Err(err).Msg("record daily report")
	}
}

func (s *Scheduler) statsDigest() {
	state := s.Stats.GetState()
	s.trySend(notifier.FormatStats(&state))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/report":
		s.dailyReport()
		return ""
	case "/stats":
		state := s.Stats.GetState()
		return notifier.FormatStats(&state)
	case "/recent":
		return notifier.FormatRecent(s.Sink.Recent(recentLimit))
	case "/history":
		records, err := s.Recorder.RecentMovements(recentLimit)
		if err != nil {
			s.logger.Error().Err(err).Msg("load stored movements")
			return "❌ Could not load stored movements."
		}
		return notifier.FormatHistory(records)
	default:
		return helpResponse
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Sender == nil {
		s.logger.Info().Msg(text)
		return
	}
	var err error
	if rs, ok := s.Sender.(retrySender); ok {
		err = rs.SendWithRetry(s.Ctx, text, sendRetries)
	} else {
		err = s.Sender.Send(s.Ctx, text)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"MoveSentinel/internal/collector"
	"MoveSentinel/internal/config"
	"MoveSentinel/internal/detector"
	"MoveSentinel/internal/model"
	"MoveSentinel/internal/notifier"
	"MoveSentinel/internal/recorder"
	"MoveSentinel/internal/scheduler"
	"MoveSentinel/internal/stats"
	"MoveSentinel/internal/strategy"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
	log.Info().Msg("MoveSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.Mock {
		fetcher = &collector.MockFetcher{Price: 2000}
	} else {
		fetcher = collector.NewCryptoCompareFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	col := collector.NewCollector(fetcher,
		cfg.DataSource.TargetSymbol, cfg.DataSource.ReferenceSymbol,
		cfg.DataSource.QuoteCurrency, cfg.DataSource.Limit)

	st, err := stats.NewManager(cfg.Stats.StateFile)
	if err != nil {
		log.Fatal().Err(err).Msg("init stats manager")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sink := notifier.NewSink(
		notifier.NewConsoleListener(os.Stdout),
		notifier.ListenerFunc("recorder", func(_ context.Context, evt *model.MovementEvent) error {
			return rec.RecordMovement(evt)
		}),
	)

	// Init Telegram notifier
	var sender notifier.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err != nil {
			log.Error().Err(err).Msg("init telegram notifier, continuing without it")
		} else {
			sender = tn
			sink.AddListener(tn)
		}
	}

	// Live websocket feed
	var srv *http.Server
	if cfg.WebSocket.Addr != "" {
		hub := notifier.NewHub(sink.Recent)
		go hub.Run(ctx)
		sink.AddListener(hub)

		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		srv = &http.Server{Addr: cfg.WebSocket.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			log.Info().Str("addr", cfg.WebSocket.Addr).Msg("websocket feed listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("websocket server")
			}
		}()
	}

	params := strategy.Params{
		Step:      cfg.Detector.Step,
		Depth:     cfg.Detector.Depth,
		MaxTrials: cfg.Detector.MaxTrials,
	}

	det := detector.New(col, sink, st, detector.Options{
		Params:                 params,
		MinAbsPercent:          cfg.Detector.MinAbsPercent,
		PollInterval:           cfg.Detector.PollInterval,
		DispatchYield:          cfg.Detector.DispatchYield,
		MaxWorkers:             cfg.Detector.MaxWorkers,
		MaxConsecutiveFailures: cfg.Detector.MaxConsecutiveFailures,
	})

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, sink, st, sender, rec, params, cfg.Schedule.ReportLimit)
	if err := sched.RegisterAll(cfg.Schedule.DailyReportCron, cfg.Schedule.StatsCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_REPORT_ON_START") == "true" {
		log.Info().Msg("RUN_REPORT_ON_START enabled, executing daily report now")
		go sched.RunReportNow()
	}

	log.Info().Msg("MoveSentinel is running. Press Ctrl+C to stop.")

	runErr := det.Run(ctx)
	if runErr != nil {
		log.Error().Err(runErr).Msg("detection loop terminated")
	} else {
		log.Info().Msg("shutdown signal received, stopping...")
	}
	cancel()

	sched.Stop()
	det.Wait()
	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("websocket server shutdown")
		}
	}
	log.Info().Msg("MoveSentinel stopped")

	if runErr != nil {
		rec.Close()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"PriceOracle/internal/bot"
	"PriceOracle/internal/config"
	"PriceOracle/internal/logging"
	"PriceOracle/internal/metrics"
	"PriceOracle/internal/notifier"
	"PriceOracle/internal/pipeline"
	"PriceOracle/internal/recorder"
	"PriceOracle/internal/scheduler"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if _, err := logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		log.Fatal().Err(err).Msg("setup logging")
	}
	if err := cfg.ValidateBot(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Msg("PriceOracle starting...")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init pipeline
	pcfg := cfg.Pipeline()
	pipe, err := pipeline.New(pcfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init pipeline")
	}
	defer pipe.Close()
	log.Info().
		Str("model", string(pipe.Config().Model)).
		Int("lags", pipe.Config().Lags).
		Int("days", pipe.Config().Horizon).
		Msg("forecast pipeline ready")

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Proxy)
	defer tn.Close()
	if err := tn.DeleteWebhook(ctx, true); err != nil {
		log.Warn().Err(err).Msg("delete webhook")
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

	// Init scheduler
	sched := scheduler.NewScheduler(rec, cfg.Schedule.Retention)
	if err := sched.RegisterAll(cfg.Schedule.PruneCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Metrics endpoint
	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	b := bot.New(tn, pipe, rec, m, cfg.Telegram.RequestsPerMinute)

	log.Info().Msg("PriceOracle is running. Press Ctrl+C to stop.")
	tn.StartPolling(ctx, b.HandleMessage)

	log.Info().Msg("PriceOracle stopped")
}

// Package main contains the entrypoint for the venue bot application.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yttsai/venuebot/internal/bot"
	"github.com/yttsai/venuebot/internal/bot/tasks"
	"github.com/yttsai/venuebot/internal/config"
	"github.com/yttsai/venuebot/internal/database"
	"github.com/yttsai/venuebot/internal/dialogue"
	"github.com/yttsai/venuebot/internal/line"
	"github.com/yttsai/venuebot/internal/logger"
	"github.com/yttsai/venuebot/internal/rating"
	"github.com/yttsai/venuebot/internal/recommend"
	"github.com/yttsai/venuebot/internal/session"
	"github.com/yttsai/venuebot/internal/weather"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// stores, dialogue controller, webhook, scheduler), handles graceful shutdown,
// and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.Format == "json")
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	sessions := session.NewStore(log)
	selector := recommend.NewSelector(store, log)
	aggregator := rating.NewAggregator(store, log)

	weatherClient := weather.NewClient(
		cfg.Weather.Endpoint,
		cfg.Weather.Timeout,
		cfg.Weather.FailureThreshold,
		cfg.Weather.CooldownPeriod,
		log,
	)

	notifier, err := line.NewClient(cfg.Line.APIBaseURL, cfg.Line.ChannelToken, cfg.Line.RequestTimeout, log)
	if err != nil {
		log.Error("Failed to create LINE client", "error", err)
		return 1
	}

	controller := dialogue.NewController(dialogue.Deps{
		Logger:         log,
		Config:         &cfg.Dialogue,
		Sessions:       sessions,
		Selector:       selector,
		Aggregator:     aggregator,
		Weather:        weatherClient,
		Notifier:       notifier,
		ObserverUserID: cfg.Line.ObserverUserID,
	})

	webhook := line.NewWebhook(cfg.Line.ChannelSecret, controller, cfg.Server.MaxHandlers, log)

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Sessions: sessions,
		Config:   cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, webhook.Router(log), sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx) // Run blocks until context is cancelled or an error occurs
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}

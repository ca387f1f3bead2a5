package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/club"
	"github.com/mauv0809/openplay/internal/config"
	"github.com/mauv0809/openplay/internal/database"
	server "github.com/mauv0809/openplay/internal/http"
	"github.com/mauv0809/openplay/internal/metrics"
	"github.com/mauv0809/openplay/internal/notifier"
	"github.com/mauv0809/openplay/internal/notifier/slack"
	"github.com/mauv0809/openplay/internal/processor"
	"github.com/mauv0809/openplay/internal/pubsub"
	"github.com/mauv0809/openplay/internal/realtime"
	"github.com/mauv0809/openplay/internal/scoreboard"
	"github.com/mauv0809/openplay/internal/settings"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken, cfg.MigrationsDir)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	// Background workers stop when ctx is cancelled during shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clubStore := club.New(db)
	settingsStore := settings.New(db)
	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()

	hub := realtime.NewHub()
	sinks := []notifier.Sink{hub}
	if cfg.PubSub.Enabled() {
		pubsubClient, err := pubsub.New(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			log.Fatalf("Failed to initialize pubsub: %s", err)
		}
		defer pubsubClient.Close()
		sinks = append(sinks, pubsub.NewSink(pubsubClient, pubsub.Topic(cfg.PubSub.Topic)))
	}
	if cfg.Slack.Enabled() {
		sinks = append(sinks, slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, cfg.Slack.DryRun, metricsSvc))
	}
	dispatcher := notifier.NewDispatcher(metricsSvc, sinks...)

	proc := processor.New(clubStore, settingsStore, dispatcher, metricsSvc)
	boards := scoreboard.NewService(scoreboard.New(db), dispatcher, metricsSvc)

	// Without redis, device reports are stored by this process directly.
	var reports scoreboard.ReportPublisher = boards
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		defer rdb.Close()
		bridge := scoreboard.NewBridge(rdb, cfg.Redis.Channel)
		sub, err := bridge.Subscribe(ctx)
		if err != nil {
			log.Fatalf("Failed to subscribe to scoreboard reports: %s", err)
		}
		defer sub.Close()
		go sub.Serve(ctx, boards.ReportScore)
		reports = bridge
	}

	go hub.Run(ctx)
	dispatcherDone := make(chan struct{})
	go func() {
		dispatcher.Run(ctx)
		close(dispatcherDone)
	}()

	s := server.NewServer(
		clubStore,
		settingsStore,
		proc,
		boards,
		reports,
		hub,
		metricsSvc,
		metricsHandler,
	)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds(), "sinks", len(sinks))

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		// Create a context with a timeout for the shutdown.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt to gracefully shut down the server.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}

		// Deliver what is still queued before closing the database.
		cancel()
		select {
		case <-dispatcherDone:
		case <-shutdownCtx.Done():
			log.Warn("Event dispatcher did not drain in time")
		}
	}

	log.Info("Server process shutting down")
}

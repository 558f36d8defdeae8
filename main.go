package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"travel-booking/cmd"
	"travel-booking/internal/clock"
	"travel-booking/internal/data/memory"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/notify"
	"travel-booking/internal/scheduler"
	"travel-booking/internal/usecase"
	"travel-booking/internal/wire"
	"travel-booking/internal/worker"
	"travel-booking/pkg/database"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("storage", config.App.StorageDriver),
		zap.Duration("hold_duration", config.Reservation.HoldDuration),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize all repositories
	var repos *repository.Repository
	switch config.App.StorageDriver {
	case utils.StorageDriverMemory:
		logger.Warn("Using in-memory storage, bookings are lost on restart")
		repos = memory.NewStore(logger).Repository()
	default:
		db, err := database.InitDB(ctx, config.Database, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		repos = repository.NewRepository(db, logger)
	}

	// Notifications are best effort
	var publisher notify.Notifier = notify.Nop{}
	if config.Notify.AMQPURL != "" {
		amqpPublisher, err := notify.NewAMQPPublisher(config.Notify.AMQPURL, config.Notify.Queue, logger)
		if err != nil {
			logger.Error("Failed to connect to RabbitMQ, notifications disabled", zap.Error(err))
		} else {
			defer amqpPublisher.Close()
			publisher = amqpPublisher
		}
	}
	notifier := notify.NewAsync(publisher, config.Notify.BufferSize, logger)

	timers := scheduler.NewTimerScheduler()
	service := usecase.NewService(repos, config, clock.Real{}, timers, notifier, logger)

	if _, err := service.Booking.RestoreTimers(ctx); err != nil {
		logger.Error("Failed to restore hold timers, relying on the sweeper", zap.Error(err))
	}

	// Wire all dependencies
	app := wire.Wiring(repos, service, logger)

	sweeper := worker.NewExpirySweeper(
		repos.Booking,
		service.Booking,
		clock.Real{},
		config.Reservation.SweepInterval,
		config.Reservation.SweepBatchSize,
		logger,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cmd.APIServer(gctx, app.Router, config.App.Port, logger)
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
	}

	// timers publish events, stop them before draining the notifier
	service.Booking.Shutdown()
	notifier.Close()

	logger.Info("Application stopped")
}

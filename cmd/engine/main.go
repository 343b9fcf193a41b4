package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/tutor_availability/internal/app"
	"github.com/Freeeeeet/tutor_availability/internal/config"
	"github.com/Freeeeeet/tutor_availability/internal/repository"
	"github.com/Freeeeeet/tutor_availability/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting availability engine",
		zap.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create pgx pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	slotRepo := repository.NewSlotRepository(pool)
	ruleRepo := repository.NewRecurrenceRepository(pool, logger)
	availability := service.NewAvailabilityService(slotRepo, ruleRepo, logger)

	materializer := app.NewMaterializer(availability, cfg.MaterializeInterval, logger)
	materializer.Start(ctx)
	defer materializer.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down availability engine")
}

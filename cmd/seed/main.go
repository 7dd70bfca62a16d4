package main

import (
	"cinema-seat-booking/config"
	"cinema-seat-booking/internal/database"
	"cinema-seat-booking/internal/repository"
	"cinema-seat-booking/migrations"
	"cinema-seat-booking/pkg/logger"
	"context"
	"time"

	"go.uber.org/zap"
)

// seed applies migrations and creates the configured seat grid. Existing
// seats are left untouched, so it is safe to run repeatedly.
func main() {
	cfg := config.LoadConfig()
	logger.SetLevel(cfg.Server.LogLevel)
	defer logger.Sync()
	log := logger.WithComponent("seed")

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatal("failed to apply migrations", zap.Error(err))
	}

	created, err := repository.NewSeatRepository(pool).Provision(ctx, cfg.Seed.Rows, cfg.Seed.SeatsPerRow)
	if err != nil {
		log.Fatal("failed to provision seats", zap.Error(err))
	}
	log.Info("seats provisioned",
		zap.Strings("rows", cfg.Seed.Rows),
		zap.Int("seats_per_row", cfg.Seed.SeatsPerRow),
		zap.Int("created", created),
	)
}

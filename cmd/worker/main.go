package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mitoc/trips-api/internal/cache"
	"github.com/mitoc/trips-api/internal/config"
	"github.com/mitoc/trips-api/internal/db"
	"github.com/mitoc/trips-api/internal/email"
	"github.com/mitoc/trips-api/internal/geardb"
	"github.com/mitoc/trips-api/internal/logger"
	"github.com/mitoc/trips-api/internal/repository"
	"github.com/mitoc/trips-api/internal/repository/dao"
	"github.com/mitoc/trips-api/internal/service"
	"github.com/mitoc/trips-api/internal/tasks"
	"github.com/mitoc/trips-api/internal/waivers"
)

const tick = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

func run() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	redisCache, err := cache.NewRedisCache(conf.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize cache -> %w", err)
	}
	defer redisCache.Close()

	registry := tasks.NewRegistry(redisCache)
	tasks.Define(registry, buildTripService(postgresDB), buildMembershipService(conf, postgresDB))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		zap.L().Info("shutting down worker")
		cancel()
	}()

	zap.L().Info("worker started", zap.Duration("tick", tick))

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	// One run at startup, then on every tick.
	registry.RunAll(ctx)

	for {
		select {
		case <-ticker.C:
			registry.RunAll(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func buildTripService(db *gorm.DB) *service.TripService {
	tripRepo := repository.NewTripRepository(dao.NewTripDAO(db), dao.NewSignupDAO(db))
	lotteryRepo := repository.NewLotteryRepository(dao.NewLotteryAdjustmentDAO(db))

	return service.NewTripService(tripRepo, lotteryRepo)
}

func buildMembershipService(conf *config.AppConfig, db *gorm.DB) *service.MembershipService {
	participantRepo := repository.NewParticipantRepository(dao.NewParticipantDAO(db))

	return service.NewMembershipService(
		repository.NewMembershipRepository(dao.NewMembershipReminderDAO(db)),
		participantRepo,
		geardb.NewClient(conf.GearDB),
		waivers.NewClient(conf.Waivers),
		email.NewService(conf.SMTP),
	)
}

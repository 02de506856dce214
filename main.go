package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/logiflow/dispatch-backend/config"
	"github.com/logiflow/dispatch-backend/db"
	"github.com/logiflow/dispatch-backend/handlers"
	"github.com/logiflow/dispatch-backend/internal/store/postgres"
	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/middleware"
	fareservice "github.com/logiflow/dispatch-backend/models/fare/service"
	settlementservice "github.com/logiflow/dispatch-backend/models/settlement/service"
	"github.com/logiflow/dispatch-backend/router"
	"github.com/logiflow/dispatch-backend/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Initialize logger
	logger.InitLogger()
	log := logger.GetLogger()
	defer func() { _ = logger.Close() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	poolConfig, err := config.ConfigurePostgresPool(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to configure database pool: %v", err)
	}
	dbClient := db.NewDatabaseClientWithConfig(nil, poolConfig)
	if err := dbClient.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbClient.Close()
	pool := dbClient.GetPool()

	if err := db.RunMigrations(cfg.Database.URL()); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// Redis backs the quote rate limiter only; the API starts without it.
	redisClient := redis.NewClient(config.ConfigureRedisOptions(&cfg.Redis))
	defer func() { _ = redisClient.Close() }()
	if err := config.TestRedisConnection(ctx, redisClient); err != nil {
		log.Warnw("Redis unavailable, quote rate limiting will fail open", "error", err)
	}

	settlementSvc, err := newSettlementService(ctx, cfg, pool)
	if err != nil {
		log.Fatalf("Failed to initialize settlement service: %v", err)
	}

	fareRates := postgres.NewFareRateStore(pool)
	directory := postgres.NewDirectoryStore(pool)
	quoteSvc := fareservice.NewQuoteService(fareRates, directory, fareservice.NewQuoteMetrics(prometheus.DefaultRegisterer))
	rateSvc := fareservice.NewRateService(fareRates, directory)

	jwtValidator, err := middleware.NewJWTValidator(&cfg.Server)
	if err != nil {
		log.Fatalf("Failed to initialize JWT validator: %v", err)
	}

	r := router.SetupRouter(router.Dependencies{
		Config:            cfg,
		JWTValidator:      jwtValidator,
		RateLimiter:       services.NewRateLimitService(redisClient),
		SettlementHandler: handlers.NewSettlementHandler(settlementSvc),
		FareHandler:       handlers.NewFareHandler(quoteSvc, rateSvc),
		HealthHandler:     handlers.NewHealthHandler(services.NewHealthService(pool, redisClient, cfg.Server.Version)),
		Logger:            log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("Starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server shutdown failed", "error", err)
	}
}

// newSettlementService wires the settlement lifecycle with its optional
// confirmation email and statement archive.
func newSettlementService(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*settlementservice.SettlementService, error) {
	log := logger.GetLogger()

	settlements := postgres.NewSettlementStore(pool)
	calc := settlementservice.NewCalculator(cfg.Settlement.AbsenceDeductionRate, cfg.Settlement.SubstituteDeductionRate)

	svc := settlementservice.NewSettlementService(
		settlements,
		settlements,
		postgres.NewDispatchStore(pool),
		postgres.NewDirectoryStore(pool),
		calc,
		cfg.Settlement.Location(),
		settlementservice.NewMetrics(prometheus.DefaultRegisterer),
	)

	if cfg.Email.Enabled {
		svc.WithNotifier(services.NewSettlementNotifier(&cfg.Email))
		log.Infow("Settlement confirmation emails enabled", "from", cfg.Email.FromAddress)
	}

	if cfg.StatementArchive.Enabled {
		archive, err := services.NewStatementArchive(ctx, &cfg.StatementArchive)
		if err != nil {
			return nil, err
		}
		svc.WithStatementArchive(archive)
		log.Infow("Statement archive enabled", "bucket", cfg.StatementArchive.Bucket)
	}

	return svc, nil
}

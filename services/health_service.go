package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DBPinger is the part of *pgxpool.Pool the health check needs.
type DBPinger interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	db          DBPinger
	poolStat    func() *pgxpool.Stat
	redisClient *redis.Client
	version     string
	startTime   time.Time
	log         *zap.SugaredLogger
}

func NewHealthService(db DBPinger, redisClient *redis.Client, version string) *HealthService {
	h := &HealthService{
		db:          db,
		redisClient: redisClient,
		version:     version,
		startTime:   time.Now(),
		log:         logger.GetLogger(),
	}
	if pool, ok := db.(*pgxpool.Pool); ok {
		h.poolStat = pool.Stat
	}
	return h
}

func (h *HealthService) CheckHealth(ctx context.Context) types.HealthCheck {
	components := make(map[string]types.HealthComponent)
	overallStatus := types.HealthStatusUp

	dbStatus := h.checkDatabase(ctx)
	components["database"] = dbStatus
	overallStatus = worse(overallStatus, dbStatus.Status)

	redisStatus := h.checkRedis(ctx)
	components["redis"] = redisStatus
	overallStatus = worse(overallStatus, redisStatus.Status)

	return types.HealthCheck{
		Status:     overallStatus,
		Components: components,
		Version:    h.version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
	}
}

// IsReady reports whether the service can take traffic. A degraded
// dependency still counts as ready.
func (h *HealthService) IsReady(ctx context.Context) bool {
	return h.CheckHealth(ctx).Status != types.HealthStatusDown
}

func (h *HealthService) checkDatabase(ctx context.Context) types.HealthComponent {
	if h.db == nil {
		return types.HealthComponent{Status: types.HealthStatusDown, Details: "Database not configured"}
	}
	if err := h.db.Ping(ctx); err != nil {
		h.log.Errorw("Database health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Database connection failed",
		}
	}

	if h.poolStat != nil {
		stat := h.poolStat()
		if max := stat.MaxConns(); max > 0 && float64(stat.AcquiredConns())/float64(max) > 0.8 {
			return types.HealthComponent{
				Status:  types.HealthStatusDegraded,
				Details: "Connection pool near capacity",
			}
		}
	}

	return types.HealthComponent{Status: types.HealthStatusUp}
}

func (h *HealthService) checkRedis(ctx context.Context) types.HealthComponent {
	if h.redisClient == nil {
		return types.HealthComponent{Status: types.HealthStatusDegraded, Details: "Redis not configured"}
	}
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		h.log.Errorw("Redis health check failed", "error", err)
		// Only quote rate limiting depends on redis.
		return types.HealthComponent{
			Status:  types.HealthStatusDegraded,
			Details: "Redis connection failed",
		}
	}
	return types.HealthComponent{Status: types.HealthStatusUp}
}

func worse(a, b types.HealthStatus) types.HealthStatus {
	rank := map[types.HealthStatus]int{
		types.HealthStatusUp:       0,
		types.HealthStatusDegraded: 1,
		types.HealthStatusDown:     2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

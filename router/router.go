package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/logiflow/dispatch-backend/config"
	"github.com/logiflow/dispatch-backend/handlers"
	"github.com/logiflow/dispatch-backend/middleware"
	"github.com/logiflow/dispatch-backend/services"
	"github.com/logiflow/dispatch-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies struct holds all dependencies required for setting up routes.
type Dependencies struct {
	Config            *config.Config
	JWTValidator      middleware.Validator
	RateLimiter       services.RateLimiter
	SettlementHandler *handlers.SettlementHandler
	FareHandler       *handlers.FareHandler
	HealthHandler     *handlers.HealthHandler
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
	Logger   *zap.SugaredLogger
}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if err := r.SetTrustedProxies(deps.Config.Server.TrustedProxies); err != nil && deps.Logger != nil {
		deps.Logger.Warnw("Invalid trusted proxies, forwarded headers ignored", "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))
	r.Use(middleware.SecurityHeadersMiddleware(deps.Config))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	writers := middleware.RequireRole(types.RoleAdmin, types.RoleManager)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.JWTValidator))
	{
		settlements := v1.Group("/settlements")
		{
			settlements.GET("", deps.SettlementHandler.ListSettlementsHandler)
			settlements.GET("/:id", deps.SettlementHandler.GetSettlementHandler)
			settlements.GET("/:id/audit-logs", deps.SettlementHandler.AuditLogsHandler)
			settlements.GET("/:id/statement", deps.SettlementHandler.StatementHandler)

			settlements.POST("/calculate", writers, deps.SettlementHandler.CalculateHandler)
			settlements.POST("/preview", writers, deps.SettlementHandler.PreviewHandler)
			settlements.POST("", writers, deps.SettlementHandler.CreateSettlementHandler)
			settlements.PATCH("/:id", writers, deps.SettlementHandler.UpdateSettlementHandler)
			settlements.POST("/:id/confirm", writers, deps.SettlementHandler.ConfirmSettlementHandler)
			settlements.POST("/:id/pay", writers, deps.SettlementHandler.MarkPaidHandler)
			settlements.DELETE("/:id", writers, deps.SettlementHandler.DeleteSettlementHandler)
			// Unlock is restricted to administrators by the service.
			settlements.POST("/:id/unlock", deps.SettlementHandler.EmergencyUnlockHandler)
		}

		quoteLimit := deps.Config.RateLimit.QuoteRequestsPerMinute
		quoteWindow := time.Duration(deps.Config.RateLimit.WindowSeconds) * time.Second
		v1.POST("/fare-quotes",
			middleware.EndpointRateLimiter(deps.RateLimiter, quoteLimit, quoteWindow),
			deps.FareHandler.QuoteHandler,
		)

		rates := v1.Group("/fare-rates")
		{
			rates.GET("", deps.FareHandler.ListRatesHandler)
			rates.PUT("", writers, deps.FareHandler.UpsertRateHandler)
			rates.DELETE("/:id", writers, deps.FareHandler.DeleteRateHandler)
		}
	}

	return r
}

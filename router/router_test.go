package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/logiflow/dispatch-backend/config"
	"github.com/logiflow/dispatch-backend/handlers"
	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/middleware"
	"github.com/logiflow/dispatch-backend/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret-with-at-least-32-chars"

func init() {
	logger.IsTest = true
	gin.SetMode(gin.TestMode)
}

type denyAll struct{ calls int }

func (d *denyAll) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (services.RateLimitDecision, error) {
	d.calls++
	return services.RateLimitDecision{Allowed: false, RetryAfter: 42 * time.Second}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Environment:    config.EnvDevelopment,
			AllowedOrigins: []string{"https://admin.logiflow.kr"},
			JwtSecretKey:   testSecret,
		},
		RateLimit: config.RateLimitConfig{QuoteRequestsPerMinute: 60, WindowSeconds: 60},
	}
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Subject("u-1").
		Claim("role", role).
		Expiration(time.Now().Add(time.Hour)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(testSecret)))
	require.NoError(t, err)
	return "Bearer " + string(signed)
}

func setup(t *testing.T, limiter services.RateLimiter) (*gin.Engine, *prometheus.Registry) {
	t.Helper()
	cfg := testConfig()
	validator, err := middleware.NewJWTValidator(&cfg.Server)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "router_test_total", Help: "test"}))

	r := SetupRouter(Dependencies{
		Config:            cfg,
		JWTValidator:      validator,
		RateLimiter:       limiter,
		SettlementHandler: handlers.NewSettlementHandler(nil),
		FareHandler:       handlers.NewFareHandler(nil, nil),
		HealthHandler:     handlers.NewHealthHandler(nil),
		Gatherer:          reg,
	})
	return r, reg
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r, _ := setup(t, &denyAll{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/liveness", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "router_test_total")
}

func TestRouter_RequiresToken(t *testing.T) {
	r, _ := setup(t, &denyAll{})

	for _, path := range []string{"/v1/settlements", "/v1/fare-rates?centerId=c-1"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouter_ViewerCannotWrite(t *testing.T) {
	r, _ := setup(t, &denyAll{})

	writes := []struct{ method, path string }{
		{http.MethodPost, "/v1/settlements"},
		{http.MethodPost, "/v1/settlements/calculate"},
		{http.MethodPost, "/v1/settlements/s-1/confirm"},
		{http.MethodPost, "/v1/settlements/s-1/pay"},
		{http.MethodPatch, "/v1/settlements/s-1"},
		{http.MethodDelete, "/v1/settlements/s-1"},
		{http.MethodPut, "/v1/fare-rates"},
		{http.MethodDelete, "/v1/fare-rates/r-1"},
	}
	for _, tc := range writes {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", bearer(t, "VIEWER"))
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.method+" "+tc.path)
	}
}

func TestRouter_QuoteRateLimited(t *testing.T) {
	limiter := &denyAll{}
	r, _ := setup(t, limiter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/fare-quotes", nil)
	req.Header.Set("Authorization", bearer(t, "VIEWER"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
	assert.Equal(t, 1, limiter.calls)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/logiflow/dispatch-backend/config"
	"github.com/stretchr/testify/assert"
)

func corsRouter(origins []string) *gin.Engine {
	router := gin.New()
	router.Use(CORSMiddleware(&config.ServerConfig{AllowedOrigins: origins}))
	router.GET("/v1/settlements", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		origins   []string
		origin    string
		wantAllow string
	}{
		{"exact origin", []string{"https://admin.logiflow.kr"}, "https://admin.logiflow.kr", "https://admin.logiflow.kr"},
		{"subdomain wildcard", []string{"*.logiflow.kr"}, "https://ops.logiflow.kr", "https://ops.logiflow.kr"},
		{"disallowed origin", []string{"https://admin.logiflow.kr"}, "https://evil.example.com", ""},
		{"allow all", []string{"*"}, "https://anything.example.com", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v1/settlements", nil)
			req.Header.Set("Origin", tt.origin)
			corsRouter(tt.origins).ServeHTTP(w, req)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/settlements", nil)
	req.Header.Set("Origin", "https://admin.logiflow.kr")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	corsRouter([]string{"https://admin.logiflow.kr"}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, originAllowed([]string{"*.logiflow.kr"}, "https://a.logiflow.kr"))
	assert.False(t, originAllowed([]string{"*.logiflow.kr"}, "https://logiflow.kr.evil.com"))
	assert.False(t, originAllowed(nil, "https://a.logiflow.kr"))
}

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/patientpal-api/internal/config"
	"github.com/jwalitptl/patientpal-api/internal/handler"
	"github.com/jwalitptl/patientpal-api/internal/middleware"
	"github.com/jwalitptl/patientpal-api/pkg/metrics"
)

type echoHandler struct{}

func (echoHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/echo", func(c *gin.Context) {
		_, hasDeadline := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": hasDeadline})
	})
	r.POST("/echo", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("handler bug")
	})
}

func newTestRouter(t *testing.T, cfg RouterConfig) *gin.Engine {
	t.Helper()
	reg := prometheus.NewRegistry()
	ready := map[string]handler.Checker{"database": func(ctx context.Context) error { return nil }}

	r := NewRouter(handler.NewHandler(ready, reg), metrics.New(reg, "patientpal"), cfg, echoHandler{})
	r.Setup()
	return r.Engine()
}

func testConfig() RouterConfig {
	return RouterConfig{
		Mode:           gin.TestMode,
		RequestTimeout: time.Second,
		MaxBodyBytes:   64,
		RateLimit:      rate.Inf,
		CORSConfig:     middleware.DefaultCORSConfig(),
	}
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutesAndMiddlewareChain(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/api/v1/echo", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deadline":true}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "private, no-store", w.Header().Get("Cache-Control"))

	w = serve(r, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Cache-Control"))

	w = serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `patientpal_http_requests_total{method="GET",path="/api/v1/echo",status="200"} 1`)
}

func TestBodyLimitAppliesToAPI(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := serve(r, http.MethodPost, "/api/v1/echo", strings.Repeat("x", 100))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(r, http.MethodPost, "/api/v1/echo", "{}")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestPanicIsRecovered(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/api/v1/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
}

func TestRateLimitFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = rate.Every(time.Hour)
	cfg.RateBurst = 1
	r := newTestRouter(t, cfg)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/echo", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/api/v1/echo", "").Code)
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "release", RequestTimeout: 5 * time.Second, MaxBodyBytes: 2048},
		RateLimit: config.RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 20,
			Burst:             40,
		},
		CORS:     config.CORSConfig{AllowedOrigins: []string{"https://clinic.example"}},
		Security: config.SecurityConfig{HSTSMaxAge: time.Hour},
	}

	rc := FromConfig(cfg)
	assert.Equal(t, rate.Limit(20), rc.RateLimit)
	assert.Equal(t, 40, rc.RateBurst)
	assert.Equal(t, int64(2048), rc.MaxBodyBytes)
	assert.Equal(t, []string{"https://clinic.example"}, rc.CORSConfig.AllowOrigins)
	assert.Equal(t, middleware.DefaultCORSConfig().AllowMethods, rc.CORSConfig.AllowMethods)
	assert.Equal(t, time.Hour, rc.Security.HSTSMaxAge)
	assert.Equal(t, "no-referrer", rc.Security.ReferrerPolicy)

	cfg.RateLimit.Enabled = false
	assert.Equal(t, rate.Inf, FromConfig(cfg).RateLimit)
}

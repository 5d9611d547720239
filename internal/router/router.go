package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/patientpal-api/internal/config"
	"github.com/jwalitptl/patientpal-api/internal/handler"
	"github.com/jwalitptl/patientpal-api/internal/middleware"
	"github.com/jwalitptl/patientpal-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	config   RouterConfig
	health   *handler.Handler
	handlers []Handler
}

type RouterConfig struct {
	Mode           string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	RateLimit      rate.Limit
	RateBurst      int
	CORSConfig     middleware.CORSConfig
	Security       middleware.SecurityConfig
}

// FromConfig maps the server, rate limit, CORS and security sections onto
// router settings. A disabled rate limiter becomes an infinite limit.
func FromConfig(cfg *config.Config) RouterConfig {
	limit := rate.Inf
	if cfg.RateLimit.Enabled {
		limit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		cors.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	if len(cfg.CORS.AllowedMethods) > 0 {
		cors.AllowMethods = cfg.CORS.AllowedMethods
	}
	if len(cfg.CORS.AllowedHeaders) > 0 {
		cors.AllowHeaders = cfg.CORS.AllowedHeaders
	}
	if cfg.CORS.MaxAge > 0 {
		cors.MaxAge = cfg.CORS.MaxAge
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSMaxAge = cfg.Security.HSTSMaxAge
	if cfg.Security.ReferrerPolicy != "" {
		security.ReferrerPolicy = cfg.Security.ReferrerPolicy
	}

	return RouterConfig{
		Mode:           cfg.Server.Mode,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RateLimit:      limit,
		RateBurst:      cfg.RateLimit.Burst,
		CORSConfig:     cors,
		Security:       security,
	}
}

func NewRouter(health *handler.Handler, m *metrics.Metrics, config RouterConfig, handlers ...Handler) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.ErrorHandler(),
		middleware.SecurityHeaders(config.Security),
		middleware.CORS(config.CORSConfig),
		rateLimiter.RateLimit(),
	)

	return &Router{
		engine:   engine,
		config:   config,
		health:   health,
		handlers: handlers,
	}
}

// Setup registers the probes at the root and every API handler under
// /api/v1. Body size, request deadline and cache headers apply to the API
// group only.
func (r *Router) Setup() {
	r.health.RegisterRoutes(r.engine)

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if r.config.MaxBodyBytes > 0 {
		sizeLimit.MaxBodySize = r.config.MaxBodyBytes
	}
	timeout := middleware.DefaultTimeoutConfig()
	if r.config.RequestTimeout > 0 {
		timeout.Duration = r.config.RequestTimeout
	}

	api := r.engine.Group("/api/v1")
	api.Use(
		middleware.SizeLimit(sizeLimit),
		middleware.Timeout(timeout),
		middleware.Cache(middleware.DefaultCacheConfig()),
	)

	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

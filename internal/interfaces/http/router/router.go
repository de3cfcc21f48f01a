// Package router assembles the gin engine: the middleware chain and the
// versioned API group every handler registers under.
package router

import (
	"time"

	"github.com/Erenishere/pharam-sub008/internal/infrastructure/logger"
	"github.com/Erenishere/pharam-sub008/internal/interfaces/http/dto"
	"github.com/Erenishere/pharam-sub008/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup registers all routes under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// EngineConfig configures the middleware chain built by NewEngine
type EngineConfig struct {
	ServiceName     string
	Tracing         bool
	Meter           metric.Meter // nil disables HTTP metrics
	CORSOrigins     []string
	TrustedProxies  []string
	MaxBodySize     int64
	RateLimit       int // requests per window per caller, 0 disables
	RateLimitWindow time.Duration
}

// NewEngine builds a gin engine with the standard middleware chain:
// recovery, request logging, tracing, metrics, security headers, CORS, rate
// limiting and the body size limit. Unknown routes answer with the JSON
// error envelope.
func NewEngine(cfg EngineConfig, log *zap.Logger) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	metricsMW, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.Tracing}),
		middleware.SpanAttributes(),
		middleware.SpanErrorMarker(),
		metricsMW,
		middleware.Secure(),
		middleware.CORS(cfg.CORSOrigins...),
	)
	if cfg.RateLimit > 0 {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)))
	}
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeNotFound), dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", logger.GetRequestID(c.Request.Context())))
	})
	return engine, nil
}

package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// SplitHandler registers reads on the general group and writes on the
// administrative one.
type SplitHandler interface {
	RegisterRoutes(r, admin *gin.RouterGroup)
}

type EngineHandler interface {
	RegisterRoutes(*gin.Engine)
}

type Handlers struct {
	Health       EngineHandler
	Appointment  Handler
	Availability Handler
	Slot         Handler
	Device       Handler
	Treatment    SplitHandler
	Patient      SplitHandler
	Therapist    SplitHandler
}

type Config struct {
	RateLimit       rate.Limit
	RateBurst       int
	CORSConfig      middleware.CORSConfig
	MetricsPrefix   string
	RequestTimeout  time.Duration
	SlotCacheMaxAge time.Duration
	MetricsEndpoint http.Handler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	config   Config
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func New(auth *middleware.AuthMiddleware, handlers Handlers, config Config) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		config:   config,
		metrics:  initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RPS:   float64(config.RateLimit),
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.handlers.Health.RegisterRoutes(r.engine)

	if r.config.MetricsEndpoint != nil {
		r.engine.GET("/metrics", gin.WrapH(r.config.MetricsEndpoint))
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	admin := protected.Group("")
	admin.Use(r.auth.RequireRole(model.RoleAdmin))

	// Slot reads are cacheable for a short window; everything else is not.
	slots := protected.Group("")
	slots.Use(middleware.CacheControl(int(r.config.SlotCacheMaxAge.Seconds())))
	r.handlers.Slot.RegisterRoutes(slots)

	r.handlers.Appointment.RegisterRoutes(protected)
	r.handlers.Availability.RegisterRoutes(protected)
	r.handlers.Device.RegisterRoutes(protected)
	r.handlers.Treatment.RegisterRoutes(protected, admin)
	r.handlers.Patient.RegisterRoutes(protected, admin)
	r.handlers.Therapist.RegisterRoutes(protected, admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// RegisterMetrics attaches the router's collectors to the given registry.
func (r *Router) RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		r.metrics.requestDuration,
		r.metrics.requestTotal,
		r.metrics.errorTotal,
	} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register router metrics: %w", err)
		}
	}
	return nil
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}

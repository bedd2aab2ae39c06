package router

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-console/internal/handler/console"
	"github.com/jwalitptl/clinic-console/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-console/internal/middleware"
)

type Handler interface {
	RegisterRoutes(gin.IRouter)
}

type Router struct {
	engine   *gin.Engine
	consoleH *console.Handler
	healthH  Handler
	promH    *prometheus.Handler
	config   RouterConfig
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	MetricsPath      string
	Templates        *template.Template
	Security         middleware.SecurityConfig
	CORSConfig       middleware.CORSConfig
}

func NewRouter(
	consoleH *console.Handler,
	healthH Handler,
	promH *prometheus.Handler,
	config RouterConfig,
) *Router {
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}

	engine := gin.New()
	engine.SetHTMLTemplate(config.Templates)

	r := &Router{
		engine:   engine,
		consoleH: consoleH,
		healthH:  healthH,
		promH:    promH,
		config:   config,
	}

	// RequestID runs first so every later middleware logs with the request id.
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		promH.Middleware(),
		middleware.SecurityHeaders(config.Security),
		// Global so preflight requests, which match no route, still get answered.
		middleware.CORS(config.CORSConfig),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
			TTL:   10 * time.Minute,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, console.Prefix)
	})

	r.healthH.RegisterRoutes(r.engine)
	r.engine.GET(r.config.MetricsPath, r.promH.Handler())

	pages := r.engine.Group(console.Prefix,
		middleware.Cache(middleware.NoStoreCacheConfig()),
		middleware.SizeLimit(middleware.DefaultSizeLimitConfig()),
	)
	r.consoleH.RegisterRoutes(pages)

	api := r.engine.Group("/api/v1",
		middleware.Cache(middleware.NoStoreCacheConfig()),
		middleware.ErrorHandler(),
	)
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})
	r.consoleH.RegisterAPIRoutes(api)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

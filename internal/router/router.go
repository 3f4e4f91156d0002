package router

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/smilecare/clinic-api/internal/middleware"
	"github.com/smilecare/clinic-api/pkg/metrics"
)

// Handler is anything that can mount its routes on a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit      rate.Limit
	RateBurst      int
	AllowedOrigins []string
}

type Router struct {
	engine *gin.Engine
}

// New assembles the gin engine: middleware chain, public health and
// metrics endpoints, and the authenticated /api/v1 surface.
func New(
	cfg Config,
	auth *middleware.AuthMiddleware,
	m *metrics.Metrics,
	healthH Handler,
	apiHandlers ...Handler,
) *Router {
	registerValidators()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
	)

	cors := middleware.DefaultCORSConfig()
	if len(cfg.AllowedOrigins) > 0 {
		cors.AllowOrigins = cfg.AllowedOrigins
	}
	engine.Use(middleware.CORS(cors))

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  cfg.RateLimit,
		Burst: cfg.RateBurst,
	})
	engine.Use(limiter.RateLimit())

	engine.Use(httpMetrics(m))

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := engine.Group("")
	healthH.RegisterRoutes(public)

	v1 := engine.Group("/api/v1")
	v1.Use(auth.Authenticate())
	for _, h := range apiHandlers {
		h.RegisterRoutes(v1)
	}

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func httpMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (r *Router) Run(port int) error {
	return r.engine.Run(fmt.Sprintf(":%d", port))
}

package routes

import (
	"time"

	"naagrik-api/config"
	"naagrik-api/controllers"
	"naagrik-api/media"
	"naagrik-api/middlewares"
	"naagrik-api/services"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Deps is everything the HTTP layer needs. Redis and Uploader may be nil.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Auth     *services.AuthService
	Engine   *services.Engine
	Policy   *services.Policy
	DB       controllers.Pinger
	Redis    *redis.Client
	Uploader media.Uploader
	Registry *prometheus.Registry
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.App.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(ginzap.Ginzap(d.Log, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(d.Log, true))
	r.Use(middlewares.RequestID())
	r.Use(cors.New(corsConfig(cfg.HTTP.AllowOrigins)))

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	if d.Registry != nil {
		gatherer, registerer = d.Registry, d.Registry
	}
	r.Use(middlewares.NewHTTPMetrics(registerer).Handler())
	r.Use(middlewares.RateLimitPerIP(rate.Limit(cfg.HTTP.RateRPS), cfg.HTTP.RateBurst))
	r.Use(middlewares.MaxBodyBytes(cfg.App.MaxBodyBytes))
	r.Use(middlewares.Authenticate(d.Auth))

	r.GET("/ping", controllers.Ping)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	AuthRoutes(api, d)
	IssueRoutes(api, d)
	UserRoutes(api, d)
	SystemRoutes(api, d)
	return r
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middlewares.KeyRequestID},
		ExposeHeaders: []string{middlewares.KeyRequestID, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	cc.AllowOrigins = origins
	cc.AllowCredentials = true
	return cc
}

package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/logger"
	"github.com/seoblog/backend/internal/infrastructure/telemetry"
	"github.com/seoblog/backend/internal/interfaces/http/handler"
	"github.com/seoblog/backend/internal/interfaces/http/middleware"
)

// Handlers are the endpoint handlers of the dashboard API
type Handlers struct {
	Auth      *handler.AuthHandler
	Runs      *handler.RunHandler
	Progress  *handler.ProgressHandler
	Articles  *handler.ArticleHandler
	Schedules *handler.ScheduleHandler
	Keywords  *handler.KeywordHandler
	Content   *handler.ContentHandler
	System    *handler.SystemHandler
}

// EngineConfig selects the middleware of the HTTP engine
type EngineConfig struct {
	HTTP       config.HTTPConfig
	Production bool
	Logger     *zap.Logger
	// Metrics adds request metrics and GET /metrics when set
	Metrics *telemetry.Metrics
	Tracing middleware.TracingConfig
	// Tokens enables bearer authentication on the API when set
	Tokens      middleware.TokenValidator
	RateLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the middleware chain, the health and
// metrics endpoints and the versioned API.
//
// Middleware order: request ID, recovery, tracing, request log, metrics,
// security headers, CORS, body limit, rate limit. The API group adds JWT
// authentication and span attributes.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(cfg.Tracing))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics.GinMiddleware())
	}
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig(cfg.Production)))
	engine.Use(middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	engine.GET("/health", h.System.Health)
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if cfg.Tokens != nil {
		r.Use(middleware.JWTAuth(middleware.DefaultJWTConfig(cfg.Tokens, log)))
	} else {
		log.Warn("API authentication is disabled")
	}
	r.Use(middleware.SpanAttributes())
	Mount(r, h)
	r.Setup()

	log.Debug("Routes registered", zap.Strings("routes", r.Routes()))
	return engine
}

// Mount registers the domain groups of the API
func Mount(r *Router, h Handlers) {
	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", h.Auth.Login)
	authRoutes.POST("/refresh", h.Auth.Refresh)

	runRoutes := NewDomainGroup("runs", "/runs")
	runRoutes.POST("", h.Runs.Create)
	runRoutes.GET("", h.Runs.List)
	runRoutes.GET("/:id", h.Runs.Get)
	runRoutes.DELETE("/:id", h.Runs.Delete)
	runRoutes.POST("/:id/retry", h.Runs.Retry)
	runRoutes.GET("/:id/article", h.Runs.Article)
	runRoutes.GET("/:id/results", h.Runs.Results)
	runRoutes.GET("/:id/archive", h.Runs.Archive)
	runRoutes.GET("/:id/progress", h.Progress.Stream)

	articleRoutes := NewDomainGroup("articles", "/articles")
	articleRoutes.GET("", h.Articles.List)
	articleRoutes.GET("/:id", h.Articles.Get)
	articleRoutes.POST("/:id/publish", h.Articles.Publish)

	scheduleRoutes := NewDomainGroup("schedules", "/schedules")
	scheduleRoutes.POST("", h.Schedules.Create)
	scheduleRoutes.GET("", h.Schedules.List)
	scheduleRoutes.GET("/:id", h.Schedules.Get)
	scheduleRoutes.DELETE("/:id", h.Schedules.Delete)
	scheduleRoutes.POST("/:id/enable", h.Schedules.Enable)
	scheduleRoutes.POST("/:id/disable", h.Schedules.Disable)
	scheduleRoutes.POST("/:id/trigger", h.Schedules.Trigger)

	keywordRoutes := NewDomainGroup("keywords", "/keywords")
	keywordRoutes.POST("/research", h.Keywords.Research)
	keywordRoutes.POST("/score", h.Keywords.Score)
	keywordRoutes.GET("/serp", h.Keywords.SERP)
	keywordRoutes.POST("/competitor", h.Keywords.Competitor)

	contentRoutes := NewDomainGroup("content", "/content")
	contentRoutes.POST("/analyze", h.Content.Analyze)

	integrationRoutes := NewDomainGroup("integrations", "/integrations")
	integrationRoutes.GET("/status", h.System.Integrations)

	r.Register(authRoutes).
		Register(runRoutes).
		Register(articleRoutes).
		Register(scheduleRoutes).
		Register(keywordRoutes).
		Register(contentRoutes).
		Register(integrationRoutes)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	contentapp "github.com/seoblog/backend/internal/application/content"
	keywordapp "github.com/seoblog/backend/internal/application/keyword"
	pipelineapp "github.com/seoblog/backend/internal/application/pipeline"
	"github.com/seoblog/backend/internal/bootstrap"
	"github.com/seoblog/backend/internal/infrastructure/auth"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/llm"
	"github.com/seoblog/backend/internal/infrastructure/logger"
	"github.com/seoblog/backend/internal/infrastructure/persistence"
	"github.com/seoblog/backend/internal/infrastructure/scheduler"
	"github.com/seoblog/backend/internal/infrastructure/telemetry"
	"github.com/seoblog/backend/internal/interfaces/http/handler"
	"github.com/seoblog/backend/internal/interfaces/http/middleware"
	"github.com/seoblog/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	log, err := logger.New(logger.FromConfig(cfg))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	metrics := telemetry.NewMetrics(true)

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if db.Driver() == "sqlite" {
		// postgres schemas are owned by cmd/migrate
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.NewDBTracing(cfg.Database.DBName, cfg.Telemetry.DBSlowQueryThresh, log).Register(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	pl, err := bootstrap.Build(ctx, cfg, db.DB, metrics, log)
	if err != nil {
		log.Fatal("Failed to build pipeline", zap.Error(err))
	}

	// Worker pool running queued generations
	var queue pipelineapp.RunQueue
	var pool *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		pool = scheduler.NewScheduler(
			scheduler.ConfigFrom(cfg.Scheduler),
			scheduler.NewRunExecutor(pl.Orchestrator, log),
			log,
			scheduler.WithQueueObserver(metrics),
		)
		if err := pool.Start(ctx); err != nil {
			log.Fatal("Failed to start worker pool", zap.Error(err))
		}
		queue = pool
	} else {
		log.Warn("Worker pool disabled, runs execute inside the request")
	}
	runService := pl.RunService(cfg, queue)
	// single instance: anything still running or queued belongs to a previous process
	if _, _, err := runService.RecoverInterrupted(ctx); err != nil {
		log.Error("Failed to recover interrupted runs", zap.Error(err))
	}

	scheduleService := pipelineapp.NewScheduleService(pl.Schedules, runService, cfg.Pipeline.DefaultPublishStatus, log)
	var cronTrigger *scheduler.CronTrigger
	if cfg.Scheduler.CronEnabled {
		cronCfg := scheduler.DefaultCronTriggerConfig()
		if pool == nil {
			// without workers the trigger waits for the whole run
			cronCfg.TriggerTimeout = cfg.Scheduler.JobTimeout
		}
		cronTrigger = scheduler.NewCronTrigger(cronCfg, pl.Schedules, scheduleService, metrics, log)
		if err := cronTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start cron trigger", zap.Error(err))
		}
		scheduleService.SetReloader(cronTrigger)
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	authenticator := auth.NewAuthenticator(cfg.Auth)
	var tokens middleware.TokenValidator
	if authenticator.Enabled() {
		tokens = jwtService
	} else if cfg.App.IsProduction() {
		log.Fatal("Admin credentials are required in production")
	}

	systemOpts := []handler.SystemOption{handler.WithSEOSources(pl.SEO)}
	if hc, ok := pl.LLM.(llm.HealthChecker); ok {
		systemOpts = append(systemOpts, handler.WithLLM(pl.LLM.Name(), hc))
	}
	if pl.WordPress != nil {
		systemOpts = append(systemOpts, handler.WithWordPress(cfg.WordPress.URL, handler.CheckFunc(pl.WordPress.TestConnection)))
	}

	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(authenticator, jwtService, log),
		Runs:      handler.NewRunHandler(runService),
		Progress:  handler.NewProgressHandler(runService, pl.Hub, log),
		Articles:  handler.NewArticleHandler(runService),
		Schedules: handler.NewScheduleHandler(scheduleService),
		Keywords:  handler.NewKeywordHandler(keywordapp.NewService(pl.SEO, log)),
		Content:   handler.NewContentHandler(contentapp.NewService()),
		System:    handler.NewSystemHandler(cfg.App.Name, version, db, systemOpts...),
	}

	stopSweeper := make(chan struct{})
	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go limiter.RunSweeper(cfg.HTTP.RateLimitWindow, stopSweeper)
	}

	engineCfg := router.EngineConfig{
		HTTP:       cfg.HTTP,
		Production: cfg.App.IsProduction(),
		Logger:     log,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tp.IsEnabled(),
		},
		Tokens:      tokens,
		RateLimiter: limiter,
	}
	if cfg.Telemetry.MetricsEnabled {
		engineCfg.Metrics = metrics
	}
	engine := router.NewEngine(engineCfg, handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	close(stopSweeper)
	if cronTrigger != nil {
		if err := cronTrigger.Stop(shutdownCtx); err != nil {
			log.Warn("Cron trigger stop failed", zap.Error(err))
		}
	}
	if pool != nil {
		if err := pool.Stop(shutdownCtx); err != nil {
			log.Warn("Worker pool stop failed", zap.Error(err))
		}
	}
	pl.Close(shutdownCtx)
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer shutdown failed", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Warn("Database close failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

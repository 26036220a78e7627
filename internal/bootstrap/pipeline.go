// Package bootstrap assembles the generation pipeline from configuration.
// Both the API server and the one-shot generator start from here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seoblog/backend/internal/application/agent"
	pipelineapp "github.com/seoblog/backend/internal/application/pipeline"
	"github.com/seoblog/backend/internal/domain/article"
	"github.com/seoblog/backend/internal/infrastructure/cache"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/event"
	"github.com/seoblog/backend/internal/infrastructure/llm"
	"github.com/seoblog/backend/internal/infrastructure/persistence"
	"github.com/seoblog/backend/internal/infrastructure/seo"
	"github.com/seoblog/backend/internal/infrastructure/storage"
	"github.com/seoblog/backend/internal/infrastructure/telemetry"
	"github.com/seoblog/backend/internal/infrastructure/wordpress"
)

// Pipeline holds the wired components of a generation pipeline.
type Pipeline struct {
	LLM          llm.Client
	SEO          *seo.Service
	KeywordCache cache.KeywordCache
	// WordPress is nil when publishing is not configured
	WordPress    *wordpress.Client
	Gateway      article.Gateway
	Archive      storage.ArchiveStorage
	Runs         *persistence.GormRunRepository
	Articles     *persistence.GormArticleRepository
	Schedules    *persistence.GormScheduleRepository
	Hub          *pipelineapp.ProgressHub
	Bus          *event.InMemoryEventBus
	Orchestrator *pipelineapp.Orchestrator

	logger *zap.Logger
}

// Build wires the agents, their integrations and the orchestrator on db.
// The event bus is started; call Close to stop it and release the cache.
func Build(ctx context.Context, cfg *config.Config, db *gorm.DB, metrics *telemetry.Metrics, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics(false)
	}
	p := &Pipeline{logger: log}

	client, err := llm.New(ctx, cfg.LLM, log, metrics)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	p.LLM = client
	log.Info("LLM client ready", zap.String("provider", client.Name()))

	p.KeywordCache = cache.NewKeywordCache(ctx, cfg.Redis, log)
	p.SEO = seo.NewService(cfg.SEO, p.KeywordCache, cfg.Redis.KeywordTTL, log, seo.WithRecorder(metrics))

	wp, err := wordpress.NewClient(cfg.WordPress, log)
	switch {
	case err == nil:
		p.WordPress = wp
		p.Gateway = wp
	case errors.Is(err, wordpress.ErrNotConfigured):
		log.Warn("WordPress not configured, articles will not be published")
	default:
		_ = p.KeywordCache.Close()
		return nil, fmt.Errorf("wordpress client: %w", err)
	}

	archive, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		_ = p.KeywordCache.Close()
		return nil, fmt.Errorf("archive storage: %w", err)
	}
	p.Archive = archive

	p.Runs = persistence.NewGormRunRepository(db)
	p.Articles = persistence.NewGormArticleRepository(db)
	p.Schedules = persistence.NewGormScheduleRepository(db)

	p.Bus = event.NewInMemoryEventBus(log)
	p.Bus.Subscribe(pipelineapp.NewRunArchiver(p.Runs, p.Articles, p.Archive, log))
	p.Bus.Subscribe(pipelineapp.NewRunMetricsRecorder(metrics))
	if err := p.Bus.Start(ctx); err != nil {
		_ = p.KeywordCache.Close()
		return nil, fmt.Errorf("event bus: %w", err)
	}

	roster := agent.NewRoster(agent.Deps{
		LLM:      p.LLM,
		SEO:      p.SEO,
		Gateway:  p.Gateway,
		Pipeline: cfg.Pipeline,
		Logger:   log,
	})
	p.Hub = pipelineapp.NewProgressHub(log)
	p.Orchestrator = pipelineapp.NewOrchestrator(
		p.Runs, p.Articles, roster, agent.NewExecutor(log), log,
		pipelineapp.WithProgressHub(p.Hub),
		pipelineapp.WithEventPublisher(p.Bus),
		pipelineapp.WithArticleRecorder(metrics),
		pipelineapp.WithPublishing(p.Gateway != nil),
	)
	return p, nil
}

// RunService returns a run service executing through the orchestrator.
// Without a queue runs execute synchronously in Create.
func (p *Pipeline) RunService(cfg *config.Config, queue pipelineapp.RunQueue) *pipelineapp.RunService {
	opts := []pipelineapp.RunServiceOption{
		pipelineapp.WithArchive(p.Archive),
		pipelineapp.WithDefaultPublishStatus(cfg.Pipeline.DefaultPublishStatus),
	}
	if queue != nil {
		opts = append(opts, pipelineapp.WithQueue(queue))
	}
	if p.Gateway != nil {
		opts = append(opts, pipelineapp.WithGateway(p.Gateway))
	}
	return pipelineapp.NewRunService(p.Runs, p.Articles, p.Orchestrator, p.Bus, p.logger, opts...)
}

// Close stops the event bus and the keyword cache.
func (p *Pipeline) Close(ctx context.Context) {
	if err := p.Bus.Stop(ctx); err != nil {
		p.logger.Warn("Event bus stop failed", zap.Error(err))
	}
	if err := p.KeywordCache.Close(); err != nil {
		p.logger.Warn("Keyword cache close failed", zap.Error(err))
	}
}

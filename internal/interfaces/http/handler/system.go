package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seoblog/backend/internal/infrastructure/logger"
	"github.com/seoblog/backend/internal/infrastructure/seo"
	"github.com/seoblog/backend/internal/interfaces/http/dto"
)

// Pinger reports whether the database answers
type Pinger interface {
	Ping() error
}

// IntegrationChecker checks one external integration
type IntegrationChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a plain function to IntegrationChecker
type CheckFunc func(ctx context.Context) error

// HealthCheck calls f
func (f CheckFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// SEOSources lists the configured keyword data sources
type SEOSources interface {
	Sources() []seo.SourceStatus
}

// SystemOption configures a SystemHandler
type SystemOption func(*SystemHandler)

// WithLLM sets the model client to check. provider is reported as is.
func WithLLM(provider string, p IntegrationChecker) SystemOption {
	return func(h *SystemHandler) {
		h.llmProvider = provider
		h.llm = p
	}
}

// WithWordPress sets the blog client to check
func WithWordPress(siteURL string, p IntegrationChecker) SystemOption {
	return func(h *SystemHandler) {
		h.wpSite = siteURL
		h.wordpress = p
	}
}

// WithSEOSources sets the keyword source inventory
func WithSEOSources(s SEOSources) SystemOption {
	return func(h *SystemHandler) { h.seo = s }
}

// WithCheckTimeout bounds each integration check
func WithCheckTimeout(d time.Duration) SystemOption {
	return func(h *SystemHandler) { h.checkTimeout = d }
}

// SystemHandler serves health and integration status
type SystemHandler struct {
	BaseHandler
	name         string
	version      string
	db           Pinger
	llmProvider  string
	llm          IntegrationChecker
	wpSite       string
	wordpress    IntegrationChecker
	seo          SEOSources
	checkTimeout time.Duration
	startTime    time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, db Pinger, opts ...SystemOption) *SystemHandler {
	h := &SystemHandler{
		name:         name,
		version:      version,
		db:           db,
		checkTimeout: 10 * time.Second,
		startTime:    time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Database  string `json:"database"`
	Time      string `json:"time"`
}

// Health pings the database. It answers 503 when the ping fails.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Database:  "ok",
		Time:      time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if err := h.db.Ping(); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "error"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// IntegrationStatus is the result of one integration check
type IntegrationStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Healthy    bool   `json:"healthy"`
	Detail     string `json:"detail,omitempty"`
}

// IntegrationsResponse is the body of GET /integrations/status
type IntegrationsResponse struct {
	LLM        IntegrationStatus  `json:"llm"`
	WordPress  IntegrationStatus  `json:"wordpress"`
	SEOSources []seo.SourceStatus `json:"seo_sources"`
}

// Integrations checks the model and the blog concurrently and lists the
// keyword data sources
func (h *SystemHandler) Integrations(c *gin.Context) {
	resp := IntegrationsResponse{
		LLM:        IntegrationStatus{Name: h.llmProvider, Configured: h.llm != nil},
		WordPress:  IntegrationStatus{Name: h.wpSite, Configured: h.wordpress != nil},
		SEOSources: []seo.SourceStatus{},
	}
	if h.seo != nil {
		resp.SEOSources = h.seo.Sources()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTimeout)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		h.check(ctx, h.llm, &resp.LLM)
		return nil
	})
	g.Go(func() error {
		h.check(ctx, h.wordpress, &resp.WordPress)
		return nil
	})
	_ = g.Wait()

	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

func (h *SystemHandler) check(ctx context.Context, p IntegrationChecker, out *IntegrationStatus) {
	if p == nil {
		out.Detail = "not configured"
		return
	}
	if err := p.HealthCheck(ctx); err != nil {
		out.Detail = err.Error()
		return
	}
	out.Healthy = true
}

package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "seoblog"

// Metrics holds the Prometheus collectors for the service. Each instance
// owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runsInFlight    prometheus.Gauge
	stageDuration   *prometheus.HistogramVec
	llmRequests     *prometheus.CounterVec
	llmLatency      *prometheus.HistogramVec
	seoLookups      *prometheus.CounterVec
	articlesTotal   *prometheus.CounterVec
	jobQueueDepth   prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	schedulerEvents *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry. Go runtime and
// process collectors are included when withRuntime is set.
func NewMetrics(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Finished pipeline runs by terminal status.",
		}, []string{"status"}),
		runsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_in_flight",
			Help:      "Pipeline runs currently executing.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage", "status"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Model calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Latency of model calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 9),
		}, []string{"provider"}),
		seoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seo_lookups_total",
			Help:      "Keyword and SERP lookups by data source and outcome.",
		}, []string{"source", "outcome"}),
		articlesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_total",
			Help:      "Articles produced, split by whether they reached WordPress.",
		}, []string{"published"}),
		jobQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_queue_depth",
			Help:      "Jobs waiting in the worker pool queue.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		schedulerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_triggers_total",
			Help:      "Cron schedule firings by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.runsTotal, m.runsInFlight, m.stageDuration,
		m.llmRequests, m.llmLatency, m.seoLookups, m.articlesTotal,
		m.jobQueueDepth, m.httpRequests, m.httpDuration, m.schedulerEvents,
	)
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RunStarted increments the in-flight gauge.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsInFlight.Inc()
}

// RunFinished records a terminal run status.
func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runsInFlight.Dec()
	m.runsTotal.WithLabelValues(status).Inc()
}

// StageObserved records how long a stage took.
func (m *Metrics) StageObserved(stage, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

// LLMRequest records one model call.
func (m *Metrics) LLMRequest(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(provider, outcome).Inc()
	m.llmLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// SEOLookup records one keyword or SERP lookup.
func (m *Metrics) SEOLookup(source, outcome string) {
	if m == nil {
		return
	}
	m.seoLookups.WithLabelValues(source, outcome).Inc()
}

// ArticleProduced counts a finished article.
func (m *Metrics) ArticleProduced(published bool) {
	if m == nil {
		return
	}
	m.articlesTotal.WithLabelValues(strconv.FormatBool(published)).Inc()
}

// SetQueueDepth reports the worker pool backlog.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.jobQueueDepth.Set(float64(n))
}

// ScheduleTriggered counts a cron firing.
func (m *Metrics) ScheduleTriggered(outcome string) {
	if m == nil {
		return
	}
	m.schedulerEvents.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GinMiddleware records request counts and latency. Unmatched routes are
// collapsed into a single label value to keep cardinality bounded.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

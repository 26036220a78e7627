package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName    string
	Enabled        bool
	TracerProvider trace.TracerProvider
}

// Tracing starts a server span per request through otelgin.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	var opts []otelgin.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanAttributes tags the active span with the request ID, the :id path
// parameter and the user, and marks 5xx responses as errors. Register it
// on route groups so path parameters are bound.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := GetRequestID(c); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
			if id := c.Param("id"); id != "" {
				span.SetAttributes(attribute.String("resource_id", id))
			}
			if user := GetJWTUsername(c); user != "" {
				span.SetAttributes(attribute.String("user", user))
			}
		}

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError && span.IsRecording() {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

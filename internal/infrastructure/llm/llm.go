// Package llm provides text generation clients for the pipeline agents.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

// Provider names.
const (
	ProviderGemini  = "gemini"
	ProviderOffline = "offline"
)

var (
	// ErrEmptyResponse is returned when the model produced no text
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrMissingAPIKey is returned when a hosted provider has no key
	ErrMissingAPIKey = errors.New("llm: api key is required")
	// ErrUnknownProvider is returned for an unsupported provider name
	ErrUnknownProvider = errors.New("llm: unknown provider")
)

// Request is a single prompt.
type Request struct {
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Client generates text from a prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// HealthChecker is implemented by clients that can check their backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Reasoner is implemented by clients that return a structured chain of thought.
type Reasoner interface {
	ReasonJSON(ctx context.Context, problem, contextText string) (*ChainOfThought, error)
}

// Recorder observes each model call.
type Recorder interface {
	LLMRequest(provider, outcome string, d time.Duration)
}

// New builds the client selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger, recorder Recorder) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger, WithRecorder(recorder))
	case ProviderOffline:
		return NewOfflineClient(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// Outcome labels a call result for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	default:
		return "error"
	}
}

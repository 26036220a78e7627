// Package agent runs the seven pipeline agents. Each agent is a list of
// reasoned LLM steps over the brief and the artifacts of earlier stages.
package agent

import (
	"time"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

// Config tunes one agent.
type Config struct {
	Name             string
	Description      string
	MaxRetries       int
	Timeout          time.Duration
	Temperature      float32
	MaxTokens        int
	ReasoningEnabled bool
	BackoffBase      time.Duration
	// DefaultConfidence is used for steps that report no confidence.
	DefaultConfidence int
}

// DefaultConfig returns the settings every agent starts from.
func DefaultConfig(name, description string) Config {
	return Config{
		Name:              name,
		Description:       description,
		MaxRetries:        3,
		Timeout:           120 * time.Second,
		Temperature:       0.7,
		MaxTokens:         4000,
		ReasoningEnabled:  true,
		BackoffBase:       time.Second,
		DefaultConfidence: 70,
	}
}

// WithPipeline overrides retry and timeout settings from configuration.
// Zero values keep the agent's own settings.
func (c Config) WithPipeline(p config.PipelineConfig) Config {
	if p.AgentMaxRetries > 0 {
		c.MaxRetries = p.AgentMaxRetries
	}
	if p.AgentTimeout > 0 {
		c.Timeout = p.AgentTimeout
	}
	if p.RetryBackoffBase > 0 {
		c.BackoffBase = p.RetryBackoffBase
	}
	return c
}

func (c Config) attempts() int {
	if c.MaxRetries < 1 {
		return 1
	}
	return c.MaxRetries
}

// backoff is the wait after a failed attempt, doubling each time.
func (c Config) backoff(attempt int) time.Duration {
	if c.BackoffBase <= 0 {
		return 0
	}
	return c.BackoffBase << attempt
}

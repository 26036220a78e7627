package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/infrastructure/llm"
)

// Confidence reported when the model answer could not be parsed.
const (
	confidenceStructuredDefault = 80
	confidenceUnstructured      = 70
	confidenceParseFailed       = 60
	confidenceNoReasoning       = 85
)

// Reasoned is a parsed model answer.
type Reasoned struct {
	Response   string
	Steps      []string
	Confidence int
}

// BuildPrompt wraps a task in the reasoning layout when enabled.
func BuildPrompt(reasoning bool, system, user, reasoningContext string) string {
	if !reasoning {
		return system + "\n\n" + user
	}
	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nIMPORTANT: Use chain of thought reasoning. Break down your thinking into clear steps.\n\n")
	b.WriteString("Context from previous reasoning:\n")
	b.WriteString(reasoningContext)
	b.WriteString("\n\nTASK:\n")
	b.WriteString(strings.TrimSpace(user))
	b.WriteString("\n\nStructure your answer exactly as follows:\n")
	b.WriteString("REASONING:\n1. [first step of your thinking]\n2. [second step]\n3. [continue step by step]\n\n")
	b.WriteString("RESPONSE:\n[your final answer]\n\n")
	b.WriteString("CONFIDENCE: [0-100]\n")
	return b.String()
}

// ParseReasoning splits a REASONING/RESPONSE/CONFIDENCE answer. Answers
// without the layout are returned whole with a lower confidence.
func ParseReasoning(raw string) Reasoned {
	_, afterReasoning, ok := strings.Cut(raw, "REASONING:")
	if !ok {
		return Reasoned{
			Response:   raw,
			Steps:      []string{"Direct response without structured reasoning"},
			Confidence: confidenceUnstructured,
		}
	}
	reasoningPart, afterResponse, ok := strings.Cut(afterReasoning, "RESPONSE:")
	if !ok {
		return Reasoned{
			Response:   raw,
			Steps:      []string{"Parsing failed, using raw response"},
			Confidence: confidenceParseFailed,
		}
	}
	response, confidencePart, hasConfidence := strings.Cut(afterResponse, "CONFIDENCE:")

	var steps []string
	for _, line := range strings.Split(reasoningPart, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if (line[0] >= '1' && line[0] <= '9') || line[0] == '-' {
			steps = append(steps, line)
		}
	}

	confidence := confidenceStructuredDefault
	if hasConfidence {
		if n, ok := digits(confidencePart); ok {
			confidence = min(n, 100)
		}
	}
	return Reasoned{Response: strings.TrimSpace(response), Steps: steps, Confidence: confidence}
}

// digits reads every ASCII digit in s as one number.
func digits(s string) (int, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
		if b.Len() >= 6 {
			break
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	return n, err == nil
}

// Base gives agents their config and a reasoning model call.
type Base struct {
	cfg    Config
	llm    llm.Client
	logger *zap.Logger
}

// NewBase binds a config to a model client.
func NewBase(cfg Config, client llm.Client, logger *zap.Logger) Base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Base{cfg: cfg, llm: client, logger: logger.Named("agent." + cfg.Name)}
}

// Config returns the agent settings.
func (b *Base) Config() Config { return b.cfg }

// Reason asks the model a task and parses the structured answer.
func (b *Base) Reason(ctx context.Context, system, user, reasoningContext string) (*Reasoned, error) {
	if b.llm == nil {
		return nil, fmt.Errorf("%w: no language model", ErrMissingInput)
	}
	raw, err := b.llm.Generate(ctx, llm.Request{
		Prompt:      BuildPrompt(b.cfg.ReasoningEnabled, system, user, reasoningContext),
		Temperature: b.cfg.Temperature,
		MaxTokens:   b.cfg.MaxTokens,
	})
	if err != nil {
		b.logger.Warn("Model call failed", zap.Error(err))
		return nil, err
	}
	if !b.cfg.ReasoningEnabled {
		return &Reasoned{Response: raw, Confidence: confidenceNoReasoning}, nil
	}
	r := ParseReasoning(raw)
	return &r, nil
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

const (
	defaultModel             = "gemini-1.5-flash"
	defaultRequestsPerMinute = 15
	defaultMaxOutputTokens   = 8192
)

// contentGenerator is the slice of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithRecorder reports every call to r.
func WithRecorder(r Recorder) GeminiOption {
	return func(c *GeminiClient) { c.recorder = r }
}

func withGenerator(g contentGenerator) GeminiOption {
	return func(c *GeminiClient) { c.models = g }
}

// GeminiClient calls the Gemini API through google.golang.org/genai.
type GeminiClient struct {
	models    contentGenerator
	model     string
	maxTokens int
	limiter   *rate.Limiter
	safety    []*genai.SafetySetting
	recorder  Recorder
	logger    *zap.Logger
}

// NewGeminiClient creates a client limited to cfg.RequestsPerMinute.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger, opts ...GeminiOption) (*GeminiClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &GeminiClient{
		model:     cfg.Model,
		maxTokens: cfg.MaxOutputTokens,
		logger:    logger.Named("gemini"),
		safety:    DefaultSafetySettings(),
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxOutputTokens
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)

	for _, opt := range opts {
		opt(c)
	}
	if c.models == nil {
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("llm: create gemini client: %w", err)
		}
		c.models = client.Models
	}

	c.logger.Info("Gemini client ready",
		zap.String("model", c.model),
		zap.Int("requests_per_minute", rpm),
		zap.Int("max_output_tokens", c.maxTokens),
	)
	return c, nil
}

// DefaultSafetySettings blocks medium and above for the four harm categories.
func DefaultSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	out := make([]*genai.SafetySetting, 0, len(categories))
	for _, cat := range categories {
		out = append(out, &genai.SafetySetting{
			Category:  cat,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return out
}

// Name returns the provider name.
func (c *GeminiClient) Name() string { return ProviderGemini }

// Model returns the configured model name.
func (c *GeminiClient) Model() string { return c.model }

// Generate waits for the rate limiter, then sends one prompt.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, req)
	if c.recorder != nil {
		c.recorder.LLMRequest(ProviderGemini, Outcome(err), time.Since(start))
	}
	return text, err
}

func (c *GeminiClient) generate(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limiter: %w", err)
	}

	maxTokens := c.maxTokens
	if req.MaxTokens > 0 && req.MaxTokens < maxTokens {
		maxTokens = req.MaxTokens
	}
	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		TopP:            genai.Ptr[float32](0.8),
		TopK:            genai.Ptr[float32](40),
		MaxOutputTokens: int32(maxTokens),
		SafetySettings:  c.safety,
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		c.logger.Warn("Gemini request failed", zap.Error(err))
		return "", fmt.Errorf("llm: gemini generate: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// HealthCheck sends a tiny prompt.
func (c *GeminiClient) HealthCheck(ctx context.Context) error {
	_, err := c.Generate(ctx, Request{Prompt: "Reply with the single word: ok", Temperature: 0, MaxTokens: 10})
	return err
}

// ThoughtStep is one step of a structured chain of thought.
type ThoughtStep struct {
	Step      int    `json:"step"`
	Thought   string `json:"thought"`
	Reasoning string `json:"reasoning"`
}

// ChainOfThought is the structured reasoning returned by ReasonJSON.
type ChainOfThought struct {
	Steps           []ThoughtStep `json:"thinking_steps"`
	FinalConclusion string        `json:"final_conclusion"`
	Confidence      float64       `json:"confidence"`
}

// ReasonJSON asks for step-by-step reasoning as JSON. Unparseable output
// becomes the conclusion with confidence 0.5.
func (c *GeminiClient) ReasonJSON(ctx context.Context, problem, contextText string) (*ChainOfThought, error) {
	return reasonJSON(ctx, c, problem, contextText)
}

func reasonJSON(ctx context.Context, client Client, problem, contextText string) (*ChainOfThought, error) {
	prompt := fmt.Sprintf(`Think through this problem step by step.

Problem: %s

Context: %s

Respond with JSON only, using this shape:
{"thinking_steps":[{"step":1,"thought":"...","reasoning":"..."}],"final_conclusion":"...","confidence":0.0}`, problem, contextText)

	raw, err := client.Generate(ctx, Request{Prompt: prompt, Temperature: 0.3, MaxTokens: 6000})
	if err != nil {
		return nil, err
	}
	return ParseChainOfThought(raw), nil
}

// ParseChainOfThought reads the JSON chain of thought, tolerating code fences.
func ParseChainOfThought(raw string) *ChainOfThought {
	body := stripFences(raw)
	if !gjson.Valid(body) || !gjson.Get(body, "final_conclusion").Exists() {
		return &ChainOfThought{FinalConclusion: raw, Confidence: 0.5}
	}
	out := &ChainOfThought{
		FinalConclusion: gjson.Get(body, "final_conclusion").String(),
		Confidence:      gjson.Get(body, "confidence").Float(),
	}
	gjson.Get(body, "thinking_steps").ForEach(func(_, v gjson.Result) bool {
		out.Steps = append(out.Steps, ThoughtStep{
			Step:      int(v.Get("step").Int()),
			Thought:   v.Get("thought").String(),
			Reasoning: v.Get("reasoning").String(),
		})
		return true
	})
	return out
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

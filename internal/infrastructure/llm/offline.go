package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
)

// OfflineClient returns deterministic text without any network access. It
// answers in the REASONING/RESPONSE/CONFIDENCE layout when the prompt asks
// for it, so the whole pipeline can run in development and tests.
type OfflineClient struct {
	calls atomic.Int64
}

// NewOfflineClient creates an OfflineClient.
func NewOfflineClient() *OfflineClient {
	return &OfflineClient{}
}

// Name returns the provider name.
func (c *OfflineClient) Name() string { return ProviderOffline }

// Calls returns how many prompts were answered.
func (c *OfflineClient) Calls() int64 { return c.calls.Load() }

// HealthCheck always succeeds.
func (c *OfflineClient) HealthCheck(context.Context) error { return nil }

// ReasonJSON returns a fixed two-step chain of thought.
func (c *OfflineClient) ReasonJSON(ctx context.Context, problem, contextText string) (*ChainOfThought, error) {
	return reasonJSON(ctx, c, problem, contextText)
}

var productLine = regexp.MustCompile(`(?mi)^\s*(?:product(?: name)?|topic):\s*(.+)$`)

// Generate answers the prompt.
func (c *OfflineClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.calls.Add(1)

	task := Headline(req.Prompt)
	topic := "the product"
	if m := productLine.FindStringSubmatch(req.Prompt); m != nil {
		topic = strings.TrimSpace(m[1])
	}
	lower := strings.ToLower(req.Prompt)

	if strings.Contains(lower, "final_conclusion") {
		return fmt.Sprintf(`{"thinking_steps":[{"step":1,"thought":"Restate the problem","reasoning":%q},{"step":2,"thought":"Weigh the context","reasoning":"Offline analysis"}],"final_conclusion":"Proceed with %s","confidence":0.8}`, task, topic), nil
	}

	body := offlineBody(lower, task, topic)
	if !strings.Contains(req.Prompt, "REASONING:") {
		return body, nil
	}
	return fmt.Sprintf("REASONING:\n1. Read the task: %s\n2. Considered the audience and goals for %s\n3. Drafted a focused answer\n\nRESPONSE:\n%s\n\nCONFIDENCE: 82", task, topic, body), nil
}

func offlineBody(lower, task, topic string) string {
	switch {
	case strings.Contains(lower, "comma-separated") || strings.Contains(lower, "seed keywords"):
		t := strings.ToLower(topic)
		return fmt.Sprintf("%s, best %s, %s review, %s buying guide, how to choose %s, %s tips", t, t, t, t, t, t)
	case strings.Contains(lower, "meta title") || strings.Contains(lower, "title tag"):
		return fmt.Sprintf("TITLE TAGS:\n- %s: The Complete Buyer's Guide\n- Best %s Options Reviewed This Year\n\nMETA DESCRIPTIONS:\n- Discover everything you need to know about %s, from key features to pricing, in our expert guide.\n\nMETA KEYWORDS:\n- %s, %s guide, best %s",
			topic, topic, topic, strings.ToLower(topic), strings.ToLower(topic), strings.ToLower(topic))
	case strings.Contains(lower, "outline"):
		return fmt.Sprintf("# %s: The Complete Guide\n\n## What Is %s\n### Key Features\n### Who It Is For\n\n## Benefits of %s\n### Everyday Use\n\n## How to Choose\n\n## Conclusion", topic, topic, topic)
	case strings.Contains(lower, "write") || strings.Contains(lower, "article"):
		return fmt.Sprintf("## %s\n\n%s", task, paragraph(topic))
	default:
		return paragraph(topic)
	}
}

func paragraph(topic string) string {
	return fmt.Sprintf("%s helps readers solve a real problem. It is simple to start with. Most buyers compare price and features first. Reviews from real users add trust. A clear plan makes the choice easier.", topic)
}

// Headline returns the first line of the prompt's task, or of the prompt,
// truncated to 80 characters.
func Headline(prompt string) string {
	text := prompt
	if i := strings.Index(prompt, "TASK:"); i >= 0 {
		text = prompt[i+len("TASK:"):]
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > 80 {
			line = string(r[:80])
		}
		return line
	}
	return "request"
}

package agent

import (
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/article"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/llm"
)

// Deps are the collaborators the agents need.
type Deps struct {
	LLM      llm.Client
	SEO      Researcher
	Gateway  article.Gateway
	Pipeline config.PipelineConfig
	Logger   *zap.Logger
}

// Roster holds one agent per stage.
type Roster struct {
	agents map[pipeline.StageName]Agent
}

// NewRoster builds the seven agents.
func NewRoster(d Deps) *Roster {
	r := &Roster{agents: make(map[pipeline.StageName]Agent, 7)}
	for _, a := range []Agent{
		NewMarketResearch(d.LLM, d.SEO, d.Pipeline, d.Logger),
		NewKeywordAnalyzer(d.LLM, d.SEO, d.Pipeline, d.Logger),
		NewContentPlanner(d.LLM, d.Pipeline, d.Logger),
		NewSEOOptimizer(d.LLM, d.Pipeline, d.Logger),
		NewContentWriter(d.LLM, d.Pipeline, d.Logger),
		NewQualityChecker(d.LLM, d.Pipeline, d.Logger),
		NewPublisher(d.Gateway, d.Pipeline, d.Logger),
	} {
		r.agents[a.Stage()] = a
	}
	return r
}

// Get returns the agent for a stage.
func (r *Roster) Get(stage pipeline.StageName) (Agent, bool) {
	a, ok := r.agents[stage]
	return a, ok
}

// Replace swaps the agent for its stage.
func (r *Roster) Replace(a Agent) {
	r.agents[a.Stage()] = a
}

// Info describes an agent for listings.
type Info struct {
	Stage       pipeline.StageName `json:"stage"`
	DisplayName string             `json:"display_name"`
	Description string             `json:"description"`
	MaxRetries  int                `json:"max_retries"`
	TimeoutSecs float64            `json:"timeout_seconds"`
	Critical    bool               `json:"critical"`
}

// Describe lists the agents in stage order.
func (r *Roster) Describe() []Info {
	out := make([]Info, 0, len(r.agents))
	for _, s := range pipeline.Stages() {
		a, ok := r.agents[s]
		if !ok {
			continue
		}
		cfg := a.Config()
		out = append(out, Info{
			Stage:       s,
			DisplayName: s.DisplayName(),
			Description: cfg.Description,
			MaxRetries:  cfg.MaxRetries,
			TimeoutSecs: cfg.Timeout.Seconds(),
			Critical:    s.IsCritical(),
		})
	}
	return out
}

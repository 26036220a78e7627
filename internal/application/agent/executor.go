package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/telemetry"
)

// Agent event types sent to the Observer.
const (
	EventAgentStarted   = "agent_started"
	EventAgentCompleted = "agent_completed"
	EventAgentFailed    = "agent_failed"
)

// Agent is one pipeline stage.
type Agent interface {
	Stage() pipeline.StageName
	Config() Config
	// Process reads the state and returns the stage artifact. It must not
	// modify state.
	Process(ctx context.Context, state *pipeline.State, report ProgressFunc) (*Result, error)
}

// Result is what Process produced.
type Result struct {
	Artifact   any
	Reasoning  []string
	Confidence int
	Metadata   map[string]any
}

// Response is the outcome of executing an agent.
type Response struct {
	Success        bool
	Artifact       any
	Reasoning      []string
	Errors         []string
	ProcessingTime time.Duration
	Confidence     int
	Metadata       map[string]any
}

// Observer receives progress and lifecycle events of running agents.
type Observer interface {
	Progress(stage pipeline.StageName, progress int, status, step string)
	Event(stage pipeline.StageName, eventType string, data map[string]any)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) Progress(pipeline.StageName, int, string, string) {}
func (NopObserver) Event(pipeline.StageName, string, map[string]any) {}

type errPanic struct{ value any }

func (e errPanic) Error() string { return fmt.Sprintf("panic: %v", e.value) }

// Executor runs agents with retries, timeouts and progress reporting.
type Executor struct {
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an Executor.
func NewExecutor(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{logger: logger.Named("agent"), sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Execute runs a. It never returns an error; failures are reported in the
// Response and through the observer.
func (e *Executor) Execute(ctx context.Context, a Agent, state *pipeline.State, obs Observer) Response {
	if obs == nil {
		obs = NopObserver{}
	}
	stage := a.Stage()
	cfg := a.Config()
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "agent", "execute", telemetry.AttrStage, string(stage))
	var spanErr error
	defer func() { telemetry.EndSpan(span, spanErr) }()

	obs.Progress(stage, 0, "starting", "Initializing agent")
	obs.Event(stage, EventAgentStarted, map[string]any{
		"max_retries": cfg.MaxRetries,
		"timeout":     cfg.Timeout.String(),
		"temperature": cfg.Temperature,
	})
	obs.Progress(stage, 10, "processing", "Executing main task")

	report := func(progress int, step string) {
		obs.Progress(stage, progress, "processing", step)
	}
	res, err := e.retry(ctx, a, cfg, state, report)
	elapsed := time.Since(start)

	if err != nil {
		spanErr = err
		msg := fmt.Sprintf("Agent %s failed: %s", cfg.Name, err.Error())
		e.logger.Error("Agent failed",
			zap.String("stage", string(stage)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		obs.Event(stage, EventAgentFailed, map[string]any{
			"error":           msg,
			"processing_time": elapsed.Seconds(),
		})
		obs.Progress(stage, 100, "failed", "Error: "+err.Error())
		return Response{
			Success:        false,
			Errors:         []string{msg},
			ProcessingTime: elapsed,
			Metadata: map[string]any{
				"agent_name":     cfg.Name,
				"failure_reason": err.Error(),
			},
		}
	}

	obs.Progress(stage, 90, "finalizing", "Preparing response")
	obs.Event(stage, EventAgentCompleted, map[string]any{
		"processing_time": elapsed.Seconds(),
		"success":         true,
	})
	obs.Progress(stage, 100, "completed", "Task finished successfully")

	metadata := res.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["agent_name"] = cfg.Name
	metadata["confidence"] = res.Confidence
	e.logger.Info("Agent completed",
		zap.String("stage", string(stage)),
		zap.Duration("elapsed", elapsed),
		zap.Int("confidence", res.Confidence),
	)
	return Response{
		Success:        true,
		Artifact:       res.Artifact,
		Reasoning:      res.Reasoning,
		Errors:         []string{},
		ProcessingTime: elapsed,
		Confidence:     res.Confidence,
		Metadata:       metadata,
	}
}

func (e *Executor) retry(ctx context.Context, a Agent, cfg Config, state *pipeline.State, report ProgressFunc) (*Result, error) {
	attempts := cfg.attempts()
	var last error
	for attempt := 0; attempt < attempts; attempt++ {
		res, err := e.attempt(ctx, a, cfg, state, report)
		if err == nil {
			if res == nil {
				return nil, fmt.Errorf("%w: agent returned no result", ErrMissingInput)
			}
			return res, nil
		}
		last = err
		e.logger.Warn("Agent attempt failed",
			zap.String("stage", string(a.Stage())),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)

		var p errPanic
		if errors.As(err, &p) || errors.Is(err, ErrMissingInput) || ctx.Err() != nil {
			return nil, err
		}
		if attempt < attempts-1 {
			if err := e.sleep(ctx, cfg.backoff(attempt)); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("task failed after %d attempts: %w", attempts, last)
}

func (e *Executor) attempt(ctx context.Context, a Agent, cfg Config, state *pipeline.State, report ProgressFunc) (res *Result, err error) {
	actx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, errPanic{value: r}
		}
	}()
	res, err = a.Process(actx, state, report)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("task timed out after %s: %w", cfg.Timeout, err)
	}
	return res, err
}

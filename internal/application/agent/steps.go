package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownTool is returned by Toolbox.Call for an unregistered tool
	ErrUnknownTool = errors.New("agent: unknown tool")
	// ErrMissingInput marks failures retrying cannot fix, such as an
	// artifact an earlier stage did not produce
	ErrMissingInput = errors.New("agent: missing input")
)

// ProgressFunc reports progress (0-100) within the running agent.
type ProgressFunc func(progress int, step string)

// Step is one named unit of agent work. Run returns nil when the step
// made no model call.
type Step struct {
	Name     string
	Progress int
	Label    string
	Run      func(ctx context.Context) (*Reasoned, error)
}

// Trace is the reasoning collected over a run of steps.
type Trace struct {
	Reasoning  []string
	Confidence int
	Reasoned   int
}

// RunSteps runs steps in order. Confidence is the mean of the reasoned
// steps, with defaultConfidence standing in for a zero report.
func RunSteps(ctx context.Context, steps []Step, report ProgressFunc, defaultConfidence int) (Trace, error) {
	var trace Trace
	sum := 0
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return trace, err
		}
		if report != nil {
			report(s.Progress, s.Label)
		}
		r, err := s.Run(ctx)
		if err != nil {
			return trace, fmt.Errorf("%s: %w", s.Name, err)
		}
		if r == nil {
			continue
		}
		trace.Reasoning = append(trace.Reasoning, r.Steps...)
		c := r.Confidence
		if c <= 0 {
			c = defaultConfidence
		}
		sum += c
		trace.Reasoned++
	}
	if trace.Reasoned == 0 {
		trace.Confidence = defaultConfidence
	} else {
		trace.Confidence = sum / trace.Reasoned
	}
	return trace, nil
}

// Tool is a named capability an agent may call, such as a data lookup.
type Tool func(ctx context.Context, args ...string) (any, error)

// Toolbox holds an agent's tools.
type Toolbox struct {
	tools map[string]Tool
}

// NewToolbox creates an empty toolbox.
func NewToolbox() *Toolbox {
	return &Toolbox{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool.
func (t *Toolbox) Register(name string, tool Tool) {
	t.tools[name] = tool
}

// Has reports whether name is registered.
func (t *Toolbox) Has(name string) bool {
	_, ok := t.tools[name]
	return ok
}

// Names lists registered tools in order.
func (t *Toolbox) Names() []string {
	names := make([]string, 0, len(t.tools))
	for n := range t.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Call runs a registered tool.
func (t *Toolbox) Call(ctx context.Context, name string, args ...string) (any, error) {
	tool, ok := t.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool(ctx, args...)
}

package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSteps(t *testing.T) {
	var progress []int
	steps := []Step{
		{Name: "a", Progress: 20, Label: "A", Run: func(context.Context) (*Reasoned, error) {
			return &Reasoned{Steps: []string{"1. a"}, Confidence: 90}, nil
		}},
		{Name: "b", Progress: 50, Label: "B", Run: func(context.Context) (*Reasoned, error) {
			return nil, nil
		}},
		{Name: "c", Progress: 80, Label: "C", Run: func(context.Context) (*Reasoned, error) {
			return &Reasoned{Steps: []string{"1. c"}, Confidence: 0}, nil
		}},
	}

	trace, err := RunSteps(context.Background(), steps, func(p int, _ string) { progress = append(progress, p) }, 70)
	require.NoError(t, err)
	assert.Equal(t, []int{20, 50, 80}, progress)
	assert.Equal(t, []string{"1. a", "1. c"}, trace.Reasoning)
	assert.Equal(t, 2, trace.Reasoned)
	assert.Equal(t, 80, trace.Confidence)
}

func TestRunSteps_NoReasonedSteps(t *testing.T) {
	trace, err := RunSteps(context.Background(), []Step{
		{Name: "local", Run: func(context.Context) (*Reasoned, error) { return nil, nil }},
	}, nil, 90)
	require.NoError(t, err)
	assert.Equal(t, 90, trace.Confidence)
}

func TestRunSteps_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	ran := 0
	_, err := RunSteps(context.Background(), []Step{
		{Name: "first", Run: func(context.Context) (*Reasoned, error) { ran++; return nil, boom }},
		{Name: "second", Run: func(context.Context) (*Reasoned, error) { ran++; return nil, nil }},
	}, nil, 70)
	require.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "first: boom")
	assert.Equal(t, 1, ran)
}

func TestRunSteps_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunSteps(ctx, []Step{
		{Name: "never", Run: func(context.Context) (*Reasoned, error) { t.Fatal("step ran"); return nil, nil }},
	}, nil, 70)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToolbox(t *testing.T) {
	tb := NewToolbox()
	tb.Register("echo", func(_ context.Context, args ...string) (any, error) {
		return args, nil
	})
	tb.Register("count", func(_ context.Context, args ...string) (any, error) {
		return len(args), nil
	})

	assert.True(t, tb.Has("echo"))
	assert.False(t, tb.Has("missing"))
	assert.Equal(t, []string{"count", "echo"}, tb.Names())

	v, err := tb.Call(context.Background(), "echo", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)

	_, err = tb.Call(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

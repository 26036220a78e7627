package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEventHandler(t *testing.T) {
	h := NewMockEventHandler("RunStarted")
	ev := NewTestEvent("RunStarted", uuid.New())

	require.NoError(t, h.Handle(context.Background(), ev))

	assert.Equal(t, []string{"RunStarted"}, h.EventTypes())
	assert.Equal(t, 1, h.HandledCount())
	assert.Same(t, ev, h.Handled()[0])
}

func TestMockEventHandler_SetError(t *testing.T) {
	h := NewMockEventHandler()
	h.SetError(assert.AnError)

	err := h.Handle(context.Background(), NewTestEvent("RunFinished", uuid.New()))

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, h.HandledCount())
}

func TestRecordingPublisher(t *testing.T) {
	p := &RecordingPublisher{}
	agg := uuid.New()

	require.NoError(t, p.Publish(context.Background(),
		NewTestEvent("RunStarted", agg),
		NewTestEvent("RunFinished", agg),
	))

	assert.Equal(t, []string{"RunStarted", "RunFinished"}, p.Types())
}

func TestNewTestEvent(t *testing.T) {
	agg := uuid.New()
	ev := NewTestEvent("StageCompleted", agg)

	assert.Equal(t, agg, ev.AggregateID())
	assert.Equal(t, "TestAggregate", ev.AggregateType())
	assert.False(t, ev.OccurredAt().IsZero())
}

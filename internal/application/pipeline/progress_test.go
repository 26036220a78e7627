package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoblog/backend/internal/domain/pipeline"
)

func TestProgressHub_DeliversLatestOnSubscribe(t *testing.T) {
	hub := NewProgressHub(nil)
	runID := uuid.New()
	hub.Publish(ProgressEvent{Type: ProgressEventStage, RunID: runID, Stage: pipeline.StageMarketResearch, Progress: 40})

	ch, cancel := hub.Subscribe(runID)
	defer cancel()

	ev := <-ch
	assert.Equal(t, 40, ev.Progress)
	assert.False(t, ev.At.IsZero())
}

func TestProgressHub_IsolatesRuns(t *testing.T) {
	hub := NewProgressHub(nil)
	a, b := uuid.New(), uuid.New()
	chA, cancelA := hub.Subscribe(a)
	defer cancelA()
	chB, cancelB := hub.Subscribe(b)
	defer cancelB()

	hub.Publish(ProgressEvent{Type: ProgressEventStage, RunID: a, Progress: 10})

	assert.Len(t, chA, 1)
	assert.Len(t, chB, 0)
}

func TestProgressHub_DropsForSlowSubscribers(t *testing.T) {
	hub := NewProgressHub(nil)
	runID := uuid.New()
	ch, cancel := hub.Subscribe(runID)
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish(ProgressEvent{Type: ProgressEventStage, RunID: runID, Progress: i})
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestProgressHub_FinishAlwaysDelivered(t *testing.T) {
	hub := NewProgressHub(nil)
	runID := uuid.New()
	ch, cancel := hub.Subscribe(runID)
	defer cancel()

	for i := 0; i < subscriberBuffer; i++ {
		hub.Publish(ProgressEvent{Type: ProgressEventStage, RunID: runID, Progress: i})
	}
	hub.Finish(ProgressEvent{RunID: runID, Status: string(pipeline.RunStatusCompleted)})

	var last ProgressEvent
	n := 0
	for ev := range ch {
		last = ev
		n++
	}
	assert.Equal(t, subscriberBuffer, n)
	assert.Equal(t, ProgressEventFinished, last.Type)
	assert.Zero(t, hub.Subscribers(runID))

	// a late subscriber gets no stale state
	late, cancelLate := hub.Subscribe(runID)
	defer cancelLate()
	assert.Len(t, late, 0)
}

func TestProgressHub_CancelClosesChannel(t *testing.T) {
	hub := NewProgressHub(nil)
	runID := uuid.New()
	ch, cancel := hub.Subscribe(runID)
	require.Equal(t, 1, hub.Subscribers(runID))

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.Subscribers(runID))
}

package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	pipelineapp "github.com/seoblog/backend/internal/application/pipeline"
	"github.com/seoblog/backend/internal/interfaces/http/dto"
)

// ProgressSource hands out live progress subscriptions per run
type ProgressSource interface {
	Subscribe(runID uuid.UUID) (<-chan pipelineapp.ProgressEvent, func())
}

// ProgressOption configures a ProgressHandler
type ProgressOption func(*ProgressHandler)

// WithProgressHeartbeat sets the keep-alive interval. Each heartbeat also
// rechecks whether the run finished without the stream noticing.
func WithProgressHeartbeat(d time.Duration) ProgressOption {
	return func(h *ProgressHandler) { h.heartbeat = d }
}

// WithMaxStreams caps concurrent progress streams
func WithMaxStreams(n int) ProgressOption {
	return func(h *ProgressHandler) { h.maxStreams = int64(n) }
}

// ProgressHandler streams run progress as server-sent events
type ProgressHandler struct {
	BaseHandler
	runs       RunService
	hub        ProgressSource
	logger     *zap.Logger
	heartbeat  time.Duration
	maxStreams int64
	streams    atomic.Int64
}

// NewProgressHandler creates a new progress stream handler
func NewProgressHandler(runs RunService, hub ProgressSource, logger *zap.Logger, opts ...ProgressOption) *ProgressHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &ProgressHandler{
		runs:       runs,
		hub:        hub,
		logger:     logger,
		heartbeat:  15 * time.Second,
		maxStreams: 1000,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ActiveStreams returns the number of open streams
func (h *ProgressHandler) ActiveStreams() int64 {
	return h.streams.Load()
}

// Stream sends progress events of one run until it finishes or the client
// goes away. A run that already finished gets a single finished event.
func (h *ProgressHandler) Stream(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// Subscribe before reading the run so a finish in between is not lost.
	events, cancel := h.hub.Subscribe(id)
	defer cancel()

	run, err := h.runs.Get(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if h.streams.Add(1) > h.maxStreams {
		h.streams.Add(-1)
		h.Error(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited, "Too many progress streams")
		return
	}
	defer h.streams.Add(-1)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if run.Status.IsTerminal() {
		h.send(c, pipelineapp.ProgressEvent{
			Type:     pipelineapp.ProgressEventFinished,
			RunID:    run.ID,
			Progress: run.Progress,
			Overall:  run.Progress,
			Status:   string(run.Status),
			At:       time.Now().UTC(),
		})
		return
	}

	h.logger.Debug("Progress stream opened", zap.String("run_id", id.String()))
	defer h.logger.Debug("Progress stream closed", zap.String("run_id", id.String()))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			h.send(c, ev)
			if ev.Type == pipelineapp.ProgressEventFinished {
				return
			}
		case <-ticker.C:
			done, err := h.runs.IsTerminal(ctx, id)
			if err == nil && done {
				latest, err := h.runs.Get(ctx, id)
				if err == nil {
					h.send(c, pipelineapp.ProgressEvent{
						Type:     pipelineapp.ProgressEventFinished,
						RunID:    id,
						Progress: latest.Progress,
						Overall:  latest.Progress,
						Status:   string(latest.Status),
						At:       time.Now().UTC(),
					})
				}
				return
			}
			_, _ = io.WriteString(c.Writer, ": heartbeat\n\n")
			c.Writer.Flush()
		}
	}
}

func (h *ProgressHandler) send(c *gin.Context, ev pipelineapp.ProgressEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to marshal progress event", zap.Error(err))
		return
	}
	writeEvent(c.Writer, ev.Type, data)
	c.Writer.Flush()
}

func writeEvent(w io.Writer, event string, data []byte) {
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

package handler

import (
	"context"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scrimworks/scrimplan/internal/service"
	appErrors "github.com/scrimworks/scrimplan/pkg/errors"
	"github.com/scrimworks/scrimplan/pkg/push"
	"github.com/scrimworks/scrimplan/pkg/response"
)

// Subscriber opens per-week event subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, weekID string) (push.Subscription, error)
}

// StreamHandler bridges the pub/sub channel to clients as server-sent
// events. Each connected client holds one subscription for one week.
type StreamHandler struct {
	weeks      *service.WeekService
	subscriber Subscriber
	metrics    *service.MetricsService
	logger     *zap.Logger
}

// NewStreamHandler constructs the handler.
func NewStreamHandler(weeks *service.WeekService, subscriber Subscriber, metrics *service.MetricsService, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{weeks: weeks, subscriber: subscriber, metrics: metrics, logger: logger}
}

// Stream serves the availability event stream for one week. Events arrive in
// server emission order; the SSE event name is the push kind and the data is
// the JSON event body.
func (h *StreamHandler) Stream(c *gin.Context) {
	weekID := c.Query("week_id")
	if weekID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week_id is required"))
		return
	}
	if h.subscriber == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "event stream is not configured"))
		return
	}
	if _, err := h.weeks.Get(c.Request.Context(), weekID); err != nil {
		response.Error(c, err)
		return
	}

	sub, err := h.subscriber.Subscribe(c.Request.Context(), weekID)
	if err != nil {
		h.logger.Error("failed to open stream subscription", zap.String("week_id", weekID), zap.Error(err))
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "event stream unavailable"))
		return
	}
	defer sub.Close()

	h.metrics.StreamClientConnected(1)
	defer h.metrics.StreamClientConnected(-1)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case event, ok := <-sub.Events():
			if !ok {
				return false
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Warn("failed to encode stream event", zap.Error(err))
				return true
			}
			c.SSEvent(string(event.Kind), string(payload))
			return true
		}
	})
}

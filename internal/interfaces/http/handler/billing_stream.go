package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/rental/backend/internal/application/billing"
	"github.com/rental/backend/internal/domain/billing"
	"github.com/rental/backend/internal/infrastructure/telemetry"
	"github.com/rental/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// SSE event names
const (
	SSEEventConnected = "connected"
	SSEEventBilling   = "billing_computed"
	SSEEventHeartbeat = "heartbeat"
)

// SSEMessage is one Server-Sent Events frame
type SSEMessage struct {
	Event string
	Data  string
	ID    string
}

// BillingStreamHandler pushes recomputed billing results to clients over SSE
type BillingStreamHandler struct {
	BaseHandler
	broadcaster *billingapp.Broadcaster
	metrics     *telemetry.BillingMetrics
	logger      *zap.Logger
	heartbeat   time.Duration
}

// BillingStreamOption configures the stream handler
type BillingStreamOption func(*BillingStreamHandler)

// WithStreamHeartbeat sets the heartbeat interval
func WithStreamHeartbeat(interval time.Duration) BillingStreamOption {
	return func(h *BillingStreamHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithStreamMetrics counts open streams
func WithStreamMetrics(metrics *telemetry.BillingMetrics) BillingStreamOption {
	return func(h *BillingStreamHandler) {
		h.metrics = metrics
	}
}

// WithStreamLogger sets the logger
func WithStreamLogger(logger *zap.Logger) BillingStreamOption {
	return func(h *BillingStreamHandler) {
		h.logger = logger
	}
}

// NewBillingStreamHandler creates a new BillingStreamHandler
func NewBillingStreamHandler(broadcaster *billingapp.Broadcaster, opts ...BillingStreamOption) *BillingStreamHandler {
	h := &BillingStreamHandler{
		broadcaster: broadcaster,
		logger:      zap.NewNop(),
		heartbeat:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Stream holds the connection open and writes every recomputed result as a
// billing_computed event until the client goes away or the broadcaster closes.
// @Summary      Stream billing results
// @Description  Server-sent events, one billing_computed event per recomputed month
// @Tags         billing
// @Produce      text/event-stream
// @Param        token query string false "Access token for clients that cannot set headers"
// @Success      200 {string} string "event stream"
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/stream [get]
func (h *BillingStreamHandler) Stream(c *gin.Context) {
	sub, err := h.broadcaster.Subscribe()
	if err != nil {
		if errors.Is(err, billingapp.ErrTooManySubscribers) {
			h.ServiceUnavailable(c, "Maximum number of billing streams reached")
			return
		}
		h.HandleError(c, err)
		return
	}
	defer sub.Cancel()

	ctx := c.Request.Context()
	h.metrics.StreamOpened(ctx)
	defer h.metrics.StreamClosed(ctx)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	// The server write timeout would cut the stream
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	userID := middleware.GetJWTUserID(c)
	h.logger.Info("Billing stream connected",
		zap.String("subscriber_id", sub.ID),
		zap.String("user_id", userID))

	h.sendEvent(c.Writer, SSEMessage{
		Event: SSEEventConnected,
		Data:  fmt.Sprintf(`{"subscriber_id":%q,"timestamp":%d}`, sub.ID, time.Now().Unix()),
	})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Billing stream disconnected", zap.String("subscriber_id", sub.ID))
			return
		case <-ticker.C:
			h.sendEvent(c.Writer, SSEMessage{
				Event: SSEEventHeartbeat,
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
			c.Writer.Flush()
		case result, ok := <-sub.Results:
			if !ok {
				h.logger.Info("Billing stream closed by server", zap.String("subscriber_id", sub.ID))
				return
			}
			msg, err := billingMessage(result)
			if err != nil {
				h.logger.Error("Failed to marshal billing result", zap.Error(err))
				continue
			}
			h.sendEvent(c.Writer, msg)
			c.Writer.Flush()
		}
	}
}

func billingMessage(result *billing.Result) (SSEMessage, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return SSEMessage{}, err
	}
	return SSEMessage{
		Event: SSEEventBilling,
		Data:  string(data),
		ID:    fmt.Sprintf("%s-%d", result.Month, result.ComputedAt.UnixNano()),
	}, nil
}

// sendEvent writes an SSE frame
func (h *BillingStreamHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}

// ClientCount returns the number of open streams
func (h *BillingStreamHandler) ClientCount() int {
	return h.broadcaster.Count()
}

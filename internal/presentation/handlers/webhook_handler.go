package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-proxy/internal/domain/entities"
)

const (
	// MaxWebhookBodySize bounds how much of a webhook body is read
	MaxWebhookBodySize = 1 << 20

	ReceiptHeader   = "X-Webhook-Receipt"
	SignatureHeader = "X-MultiBaas-Signature"
	TimestampHeader = "X-MultiBaas-Timestamp"

	webhookAck = "Webhook received"
)

var webhookEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Total number of webhook events received by event name",
	},
	[]string{"event"},
)

// WebhookHandler acknowledges chain-event notifications pushed by the event source.
// Payloads are logged but neither verified nor processed.
type WebhookHandler struct {
	logger *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		logger: logger,
	}
}

// Receive handles POST /webhook. It always answers 200 so the sender never retries.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	receiptID := uuid.New().String()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBodySize))
	if err != nil {
		h.logger.Warn("Failed to read webhook body",
			zap.String("receipt_id", receiptID),
			zap.Int("bytes_read", len(body)),
			zap.Error(err),
		)
	}

	events, err := parseWebhookEvents(body)
	if err != nil {
		h.logger.Warn("Webhook body is not a recognised event payload",
			zap.String("receipt_id", receiptID),
			zap.Error(err),
		)
	}

	names := make([]string, 0, len(events))
	for _, event := range events {
		name := event.Event
		if name == "" {
			name = "unknown"
		}
		names = append(names, name)
		webhookEventsTotal.WithLabelValues(name).Inc()
	}

	h.logger.Info("Webhook received",
		zap.String("receipt_id", receiptID),
		zap.Int("event_count", len(events)),
		zap.Strings("events", names),
		zap.Bool("signature_present", r.Header.Get(SignatureHeader) != ""),
		zap.Bool("timestamp_present", r.Header.Get(TimestampHeader) != ""),
		zap.ByteString("body", body),
	)

	w.Header().Set(ReceiptHeader, receiptID)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(webhookAck))
}

// parseWebhookEvents accepts a JSON array of events or a single event object
func parseWebhookEvents(body []byte) ([]entities.WebhookEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var events []entities.WebhookEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		return events, nil
	}

	var event entities.WebhookEvent
	if err := json.Unmarshal(trimmed, &event); err != nil {
		return nil, err
	}
	return []entities.WebhookEvent{event}, nil
}

package entities

import (
	"encoding/json"
)

// WebhookEvent is a chain-event notification pushed by the upstream event source
type WebhookEvent struct {
	ID    string          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

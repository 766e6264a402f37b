package gateway

import (
	"context"
	"time"

	"github.com/classpulse/notification-engine/internal/model"
)

// SendRequest is one delivery attempt handed to a provider.
type SendRequest struct {
	Channel     model.Channel  `json:"channel"`
	RecipientID string         `json:"recipient_id"`
	Message     *model.Message `json:"message"`
}

// SendResponse is the provider-reported outcome of a successful send.
// Events may be empty; the processor then records a single "delivered".
type SendResponse struct {
	Status           string    `json:"status"`
	DeliveredAt      time.Time `json:"delivered_at"`
	ProviderResponse string    `json:"provider_response,omitempty"`
	Events           []string  `json:"events,omitempty"`
}

// SendError carries the provider's error code alongside the message.
type SendError struct {
	Code    string
	Message string
}

func (e *SendError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// Sender is the capability boundary to the delivery provider. Production
// wires the HTTP client; tests substitute deterministic stubs. Any returned
// error is a retryable failure from the processor's point of view.
type Sender interface {
	Send(ctx context.Context, req *SendRequest) (*SendResponse, error)
}

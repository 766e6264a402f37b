package model

import "time"

// DeliveryRecord is the provider-reported result of a successful send,
// exactly one per queue entry that reaches the sent state.
type DeliveryRecord struct {
	ID               string    `json:"id"`
	MessageID        string    `json:"message_id"`
	RecipientID      string    `json:"recipient_id"`
	Channel          Channel   `json:"channel"`
	Status           string    `json:"status"` // provider-reported, e.g. delivered/bounced
	ProviderResponse string    `json:"provider_response,omitempty"`
	DeliveredAt      time.Time `json:"delivered_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// Known delivery event types. Anything else still counts toward a rollup's
// total but is not bucketed.
const (
	DeliveryEventDelivered = "delivered"
	DeliveryEventBounced   = "bounced"
	DeliveryEventOpened    = "opened"
	DeliveryEventClicked   = "clicked"
)

// DeliveryEvent is one granular lifecycle event attached to a delivery
// record. Append-only; consumed by the deliverability rollup.
type DeliveryEvent struct {
	ID               string    `json:"id"`
	DeliveryRecordID string    `json:"delivery_record_id"`
	MessageID        string    `json:"message_id"`
	Type             string    `json:"type"`
	CreatedAt        time.Time `json:"created_at"`
}

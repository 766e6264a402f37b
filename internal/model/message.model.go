package model

import (
	"encoding/json"
	"errors"
	"time"
)

// Channel is the delivery channel of a message.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// MessageStatus is the lifecycle state of a logical message.
//
// The scheduler owns the draft/scheduled/pending -> queued transition and the
// batch processor owns queued/processing -> sent/partial_failed. Nothing in
// this engine deletes a message.
type MessageStatus string

const (
	MessageStatusDraft         MessageStatus = "draft"
	MessageStatusScheduled     MessageStatus = "scheduled"
	MessageStatusPending       MessageStatus = "pending"
	MessageStatusQueued        MessageStatus = "queued"
	MessageStatusProcessing    MessageStatus = "processing"
	MessageStatusSent          MessageStatus = "sent"
	MessageStatusPartialFailed MessageStatus = "partial_failed"
	MessageStatusNoRecipients  MessageStatus = "no_recipients"
	MessageStatusMissing       MessageStatus = "missing"
)

type Message struct {
	ID       string          `json:"id"`
	TenantID string          `json:"tenant_id"`
	SchoolID string          `json:"school_id,omitempty"`
	Channel  Channel         `json:"channel"`
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Payload  json.RawMessage `json:"payload,omitempty"` // opaque, interpreted by the sender
	Segment  Segment         `json:"segment"`
	Status   MessageStatus   `json:"status"`
	SendAt   *time.Time      `json:"send_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Due reports whether the message's send time has arrived. A nil SendAt
// means "send as soon as possible".
func (m *Message) Due(now time.Time) bool {
	return m.SendAt == nil || !m.SendAt.After(now)
}

// CreateParams is the input for creating a message.
type MessageCreateRequest struct {
	TenantID string          `json:"tenant_id"`
	SchoolID string          `json:"school_id"`
	Channel  Channel         `json:"channel"`
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Payload  json.RawMessage `json:"payload"`
	Segment  Segment         `json:"segment"`
	SendAt   *time.Time      `json:"send_at"`
}

func (p MessageCreateRequest) Validate() error {
	if p.TenantID == "" {
		return errors.New("tenant_id is required")
	}
	if p.Channel == "" {
		return errors.New("channel is required")
	}
	if p.Title == "" && p.Body == "" {
		return errors.New("title or body is required")
	}
	return nil
}

// MessageFilter controls List queries.
type MessageFilter struct {
	TenantID *string
	Statuses []MessageStatus // IN (...)
	Channel  *Channel
	From     *time.Time
	To       *time.Time
	Limit    int // default 50
	Offset   int
	Desc     bool // order by created_at
}

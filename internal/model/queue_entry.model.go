package model

import "time"

// QueueEntryStatus is the state of one per-recipient delivery unit.
type QueueEntryStatus string

const (
	QueueEntryStatusPending QueueEntryStatus = "pending"
	QueueEntryStatusSent    QueueEntryStatus = "sent"
	QueueEntryStatusDead    QueueEntryStatus = "dead"
)

// QueueEntry is one delivery attempt unit, unique per (message, recipient).
//
// Transitions: pending -> sent on success, pending -> pending with bumped
// attempts and a rescheduled NextAttemptAt on a retryable failure, and
// pending -> dead when attempts are exhausted or the compliance gate rejects
// the channel. sent and dead are terminal. Once dead, NextAttemptAt is nil.
type QueueEntry struct {
	ID            string           `json:"id"`
	MessageID     string           `json:"message_id"`
	RecipientID   string           `json:"recipient_id"`
	Channel       Channel          `json:"channel"`
	Status        QueueEntryStatus `json:"status"`
	Attempts      int              `json:"attempts"`
	MaxAttempts   int              `json:"max_attempts"`
	NextAttemptAt *time.Time       `json:"next_attempt_at,omitempty"`
	LastError     string           `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Due reports whether the entry is eligible for a delivery attempt.
func (e *QueueEntry) Due(now time.Time) bool {
	if e.Status != QueueEntryStatusPending {
		return false
	}
	return e.NextAttemptAt == nil || !e.NextAttemptAt.After(now)
}

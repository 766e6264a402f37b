package model

import "time"

// DeadLetter is the audit record written exactly once when a queue entry
// goes dead, either through attempt exhaustion or a compliance rejection.
// Never mutated.
type DeadLetter struct {
	ID           string    `json:"id"`
	QueueEntryID string    `json:"queue_entry_id"`
	MessageID    string    `json:"message_id"`
	RecipientID  string    `json:"recipient_id"`
	Channel      Channel   `json:"channel"`
	Error        string    `json:"error"`
	CreatedAt    time.Time `json:"created_at"`
}

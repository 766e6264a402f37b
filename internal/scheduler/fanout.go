package scheduler

import (
	"time"

	"github.com/classpulse/notification-engine/internal/model"
	"github.com/classpulse/notification-engine/internal/retry"
)

// BuildQueueEntries expands one message and its resolved recipients into
// per-recipient queue entries: pending, zero attempts, due immediately.
// Pure transform; idempotence lives in the store's conflict-ignore insert.
func BuildQueueEntries(messageID string, recipients []*model.Recipient, channel model.Channel, maxAttempts int, now time.Time) []*model.QueueEntry {
	if maxAttempts <= 0 {
		maxAttempts = retry.DefaultMaxAttempts
	}
	entries := make([]*model.QueueEntry, len(recipients))
	for i, rec := range recipients {
		at := now
		entries[i] = &model.QueueEntry{
			MessageID:     messageID,
			RecipientID:   rec.ID,
			Channel:       channel,
			Status:        model.QueueEntryStatusPending,
			Attempts:      0,
			MaxAttempts:   maxAttempts,
			NextAttemptAt: &at,
		}
	}
	return entries
}

// SelectDue filters to messages eligible for fan-out: scheduled or pending,
// with no send time or one that has arrived. Input order is preserved.
func SelectDue(messages []*model.Message, now time.Time) []*model.Message {
	var due []*model.Message
	for _, m := range messages {
		if m.Status != model.MessageStatusScheduled && m.Status != model.MessageStatusPending {
			continue
		}
		if !m.Due(now) {
			continue
		}
		due = append(due, m)
	}
	return due
}

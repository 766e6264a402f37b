package processor

import "github.com/classpulse/notification-engine/internal/model"

// ReduceMessageStatus derives a message's aggregate status from its queue
// entries: processing while anything is still pending, else partial_failed
// if anything went dead, else sent if anything was sent. The second return
// is false when no entries exist, meaning the status must be left alone.
func ReduceMessageStatus(entries []*model.QueueEntry) (model.MessageStatus, bool) {
	if len(entries) == 0 {
		return "", false
	}

	var anyPending, anyDead, anySent bool
	for _, e := range entries {
		switch e.Status {
		case model.QueueEntryStatusPending:
			anyPending = true
		case model.QueueEntryStatusDead:
			anyDead = true
		case model.QueueEntryStatusSent:
			anySent = true
		}
	}

	switch {
	case anyPending:
		return model.MessageStatusProcessing, true
	case anyDead:
		return model.MessageStatusPartialFailed, true
	case anySent:
		return model.MessageStatusSent, true
	}
	return "", false
}

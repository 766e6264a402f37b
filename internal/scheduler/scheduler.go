// Package scheduler finds messages whose send time has arrived and expands
// them into per-recipient queue entries. It owns the draft/scheduled/
// pending -> queued transition; the batch processor takes over from there.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classpulse/notification-engine/internal/model"
	"github.com/classpulse/notification-engine/internal/repository"
	"github.com/classpulse/notification-engine/pkg/clock"
	"github.com/classpulse/notification-engine/pkg/logger"
	"github.com/classpulse/notification-engine/pkg/prom"
)

const DefaultBatchSize = 20

type MessageStore interface {
	Get(ctx context.Context, id string) (*model.Message, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Message, error)
	UpdateStatus(ctx context.Context, id string, status model.MessageStatus) error
}

type RecipientResolver interface {
	Resolve(ctx context.Context, tenantID, schoolID string, seg model.Segment) ([]*model.Recipient, error)
}

type QueueStore interface {
	BulkInsert(ctx context.Context, entries []*model.QueueEntry) (int64, error)
}

// EnqueueResult is what the producer-facing trigger reports.
type EnqueueResult struct {
	Enqueued int64               `json:"enqueued"`
	Status   model.MessageStatus `json:"status"`
}

type Scheduler struct {
	messages    MessageStore
	recipients  RecipientResolver
	queue       QueueStore
	clock       clock.Clock
	batchSize   int
	maxAttempts int
}

func NewScheduler(messages MessageStore, recipients RecipientResolver, queue QueueStore, clk clock.Clock, batchSize, maxAttempts int) *Scheduler {
	if clk == nil {
		clk = clock.Real{}
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Scheduler{
		messages:    messages,
		recipients:  recipients,
		queue:       queue,
		clock:       clk,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

// Tick fans out one bounded batch of due messages. Each message is handled
// independently: a resolution failure is logged and the message stays in
// its current status for the next tick. Only the due-listing itself can
// fail the tick.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.clock.Now()

	due, err := s.messages.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due messages: %w", err)
	}

	for _, msg := range due {
		if _, _, err := s.fanOut(ctx, msg, now); err != nil {
			logger.Error("fan-out failed, will retry next tick",
				"message_id", msg.ID,
				"tenant_id", msg.TenantID,
				"error", err)
		}
	}
	return nil
}

// EnqueueMessage is the idempotent producer trigger: fan out a single
// message right now instead of waiting for the next tick. A missing
// message reports status missing rather than an error; a message already
// past fan-out reports its current status with zero new entries.
func (s *Scheduler) EnqueueMessage(ctx context.Context, messageID string) (EnqueueResult, error) {
	msg, err := s.messages.Get(ctx, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		return EnqueueResult{Status: model.MessageStatusMissing}, nil
	}
	if err != nil {
		return EnqueueResult{}, err
	}

	switch msg.Status {
	case model.MessageStatusDraft, model.MessageStatusScheduled, model.MessageStatusPending:
		// fall through to fan-out
	default:
		return EnqueueResult{Status: msg.Status}, nil
	}

	inserted, status, err := s.fanOut(ctx, msg, s.clock.Now())
	if err != nil {
		return EnqueueResult{}, err
	}
	return EnqueueResult{Enqueued: inserted, Status: status}, nil
}

func (s *Scheduler) fanOut(ctx context.Context, msg *model.Message, now time.Time) (int64, model.MessageStatus, error) {
	recipients, err := s.recipients.Resolve(ctx, msg.TenantID, msg.SchoolID, msg.Segment)
	if err != nil {
		return 0, msg.Status, fmt.Errorf("resolve segment: %w", err)
	}

	// An empty audience is a normal outcome, not an error.
	if len(recipients) == 0 {
		if err := s.messages.UpdateStatus(ctx, msg.ID, model.MessageStatusNoRecipients); err != nil {
			return 0, msg.Status, fmt.Errorf("mark no_recipients: %w", err)
		}
		logger.Info("message resolved to empty audience", "message_id", msg.ID)
		return 0, model.MessageStatusNoRecipients, nil
	}

	entries := BuildQueueEntries(msg.ID, recipients, msg.Channel, s.maxAttempts, now)
	inserted, err := s.queue.BulkInsert(ctx, entries)
	if err != nil {
		return 0, msg.Status, fmt.Errorf("insert queue entries: %w", err)
	}

	if err := s.messages.UpdateStatus(ctx, msg.ID, model.MessageStatusQueued); err != nil {
		return inserted, msg.Status, fmt.Errorf("mark queued: %w", err)
	}

	prom.AddFanoutEntries(float64(inserted), string(msg.Channel))
	logger.Info("message fanned out",
		"message_id", msg.ID,
		"recipients", len(recipients),
		"inserted", inserted)
	return inserted, model.MessageStatusQueued, nil
}

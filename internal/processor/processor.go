// Package processor runs the core delivery loop: claim due queue entries,
// gate them, hand them to the sender, record outcomes, apply the retry
// policy and keep each message's aggregate status current.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classpulse/notification-engine/internal/compliance"
	gateway "github.com/classpulse/notification-engine/internal/gateways"
	"github.com/classpulse/notification-engine/internal/model"
	"github.com/classpulse/notification-engine/internal/repository"
	"github.com/classpulse/notification-engine/internal/retry"
	"github.com/classpulse/notification-engine/pkg/clock"
	"github.com/classpulse/notification-engine/pkg/logger"
	"github.com/classpulse/notification-engine/pkg/prom"
)

const DefaultBatchSize = 25

type QueueStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*model.QueueEntry, error)
	ListByMessage(ctx context.Context, messageID string) ([]*model.QueueEntry, error)
	MarkSent(ctx context.Context, id string) error
	MarkDead(ctx context.Context, id string, attempts int, lastError string) error
	Reschedule(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error
}

type MessageStore interface {
	Get(ctx context.Context, id string) (*model.Message, error)
	UpdateStatusFrom(ctx context.Context, id string, status model.MessageStatus, from ...model.MessageStatus) (bool, error)
}

type DeliveryStore interface {
	CreateRecord(ctx context.Context, record *model.DeliveryRecord, eventTypes []string) (*model.DeliveryRecord, error)
}

type DeadLetterStore interface {
	Create(ctx context.Context, dl *model.DeadLetter) (*model.DeadLetter, error)
}

type ComplianceGate interface {
	Check(ctx context.Context, tenantID, schoolID string, channel model.Channel) error
}

type BatchProcessor struct {
	queue       QueueStore
	messages    MessageStore
	deliveries  DeliveryStore
	deadLetters DeadLetterStore
	gate        ComplianceGate
	sender      gateway.Sender
	clock       clock.Clock
	batchSize   int
	retryOpts   retry.Options
	metrics     *ServiceMetrics
}

func NewBatchProcessor(
	queue QueueStore,
	messages MessageStore,
	deliveries DeliveryStore,
	deadLetters DeadLetterStore,
	gate ComplianceGate,
	sender gateway.Sender,
	clk clock.Clock,
	batchSize int,
	retryOpts retry.Options,
) *BatchProcessor {
	if clk == nil {
		clk = clock.Real{}
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchProcessor{
		queue:       queue,
		messages:    messages,
		deliveries:  deliveries,
		deadLetters: deadLetters,
		gate:        gate,
		sender:      sender,
		clock:       clk,
		batchSize:   batchSize,
		retryOpts:   retryOpts,
		metrics:     NewServiceMetrics(),
	}
}

func (p *BatchProcessor) Metrics() *ServiceMetrics {
	return p.metrics
}

// ProcessBatch runs one tick: claim due entries oldest-first, process each
// independently, then recompute the aggregate status of every touched
// message. Only the claim itself can fail the tick.
func (p *BatchProcessor) ProcessBatch(ctx context.Context) error {
	now := p.clock.Now()

	entries, err := p.queue.ListDue(ctx, now, p.batchSize)
	if err != nil {
		return fmt.Errorf("list due queue entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	// One message usually owns many entries in a batch; load it once.
	msgCache := make(map[string]*model.Message)
	affected := make(map[string]bool)

	for _, entry := range entries {
		affected[entry.MessageID] = true
		p.processEntry(ctx, entry, msgCache, now)
	}

	for messageID := range affected {
		if err := p.recomputeMessageStatus(ctx, messageID); err != nil {
			logger.Error("status recompute failed", "message_id", messageID, "error", err)
		}
	}
	return nil
}

func (p *BatchProcessor) processEntry(ctx context.Context, entry *model.QueueEntry, msgCache map[string]*model.Message, now time.Time) {
	msg, ok := msgCache[entry.MessageID]
	if !ok {
		var err error
		msg, err = p.messages.Get(ctx, entry.MessageID)
		if errors.Is(err, repository.ErrNotFound) {
			// orphaned entry, nothing will ever deliver it
			p.deadLetter(ctx, entry, entry.Attempts, "message no longer exists", "orphaned")
			return
		}
		if err != nil {
			logger.Error("load message failed, entry skipped this tick",
				"queue_entry_id", entry.ID, "message_id", entry.MessageID, "error", err)
			return
		}
		msgCache[entry.MessageID] = msg
	}

	// compliance rejections bypass the retry policy: they are not
	// transient and must not consume attempts
	if err := p.gate.Check(ctx, msg.TenantID, msg.SchoolID, entry.Channel); err != nil {
		if compliance.IsRejection(err) {
			p.deadLetter(ctx, entry, entry.Attempts, err.Error(), "compliance")
			return
		}
		logger.Error("compliance lookup failed, entry skipped this tick",
			"queue_entry_id", entry.ID, "tenant_id", msg.TenantID, "error", err)
		return
	}

	start := time.Now()
	resp, err := p.sender.Send(ctx, &gateway.SendRequest{
		Channel:     entry.Channel,
		RecipientID: entry.RecipientID,
		Message:     msg,
	})
	if err != nil {
		p.handleSendFailure(ctx, entry, now, err)
		return
	}

	p.handleSendSuccess(ctx, entry, resp, time.Since(start))
}

// handleSendSuccess stores the delivery record and marks the entry sent.
// If the record write fails the entry is still marked sent, so a sent
// entry can exist without a matching record. The provider already
// accepted the message and re-running the entry would deliver it twice.
func (p *BatchProcessor) handleSendSuccess(ctx context.Context, entry *model.QueueEntry, resp *gateway.SendResponse, duration time.Duration) {
	events := resp.Events
	if len(events) == 0 {
		events = []string{model.DeliveryEventDelivered}
	}

	record := &model.DeliveryRecord{
		MessageID:        entry.MessageID,
		RecipientID:      entry.RecipientID,
		Channel:          entry.Channel,
		Status:           resp.Status,
		ProviderResponse: resp.ProviderResponse,
		DeliveredAt:      resp.DeliveredAt,
	}
	if _, err := p.deliveries.CreateRecord(ctx, record, events); err != nil {
		logger.Error("delivery record save failed",
			"queue_entry_id", entry.ID, "message_id", entry.MessageID, "error", err)
	}

	if err := p.queue.MarkSent(ctx, entry.ID); err != nil {
		logger.Error("mark sent failed", "queue_entry_id", entry.ID, "error", err)
		return
	}

	p.metrics.RecordSent(duration)
	prom.IncDeliveryAttempt(string(entry.Channel), "sent")
	prom.AddDeliveryDuration(duration.Seconds(), string(entry.Channel))
	logger.Info("entry delivered",
		"queue_entry_id", entry.ID,
		"message_id", entry.MessageID,
		"recipient_id", entry.RecipientID,
		"status", resp.Status)
}

func (p *BatchProcessor) handleSendFailure(ctx context.Context, entry *model.QueueEntry, now time.Time, sendErr error) {
	decision := retry.Apply(entry.Attempts, entry.MaxAttempts, now, p.retryOpts)

	if decision.Dead {
		p.deadLetter(ctx, entry, decision.Attempts, sendErr.Error(), "exhausted")
		return
	}

	if err := p.queue.Reschedule(ctx, entry.ID, decision.Attempts, *decision.NextAttemptAt, sendErr.Error()); err != nil {
		logger.Error("reschedule failed", "queue_entry_id", entry.ID, "error", err)
		return
	}

	p.metrics.RecordRetried()
	prom.IncDeliveryAttempt(string(entry.Channel), "retried")
	logger.Warn("entry send failed, rescheduled",
		"queue_entry_id", entry.ID,
		"message_id", entry.MessageID,
		"attempts", decision.Attempts,
		"next_attempt_at", decision.NextAttemptAt,
		"error", sendErr)
}

func (p *BatchProcessor) deadLetter(ctx context.Context, entry *model.QueueEntry, attempts int, reason, kind string) {
	if err := p.queue.MarkDead(ctx, entry.ID, attempts, reason); err != nil {
		logger.Error("mark dead failed", "queue_entry_id", entry.ID, "error", err)
		return
	}

	if _, err := p.deadLetters.Create(ctx, &model.DeadLetter{
		QueueEntryID: entry.ID,
		MessageID:    entry.MessageID,
		RecipientID:  entry.RecipientID,
		Channel:      entry.Channel,
		Error:        reason,
	}); err != nil {
		logger.Error("dead letter save failed", "queue_entry_id", entry.ID, "error", err)
	}

	p.metrics.RecordDead()
	prom.IncDeliveryAttempt(string(entry.Channel), "dead")
	prom.IncDeadLetter(string(entry.Channel), kind)
	logger.Warn("entry dead-lettered",
		"queue_entry_id", entry.ID,
		"message_id", entry.MessageID,
		"reason", reason,
		"kind", kind)
}

// recomputeMessageStatus derives the aggregate status from the message's
// entries, touching only messages still in queued/processing so terminal
// states are never resurrected.
func (p *BatchProcessor) recomputeMessageStatus(ctx context.Context, messageID string) error {
	entries, err := p.queue.ListByMessage(ctx, messageID)
	if err != nil {
		return err
	}
	status, ok := ReduceMessageStatus(entries)
	if !ok {
		return nil
	}
	_, err = p.messages.UpdateStatusFrom(ctx, messageID, status,
		model.MessageStatusQueued, model.MessageStatusProcessing)
	return err
}

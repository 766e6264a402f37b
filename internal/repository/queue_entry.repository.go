package repository

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/classpulse/notification-engine/internal/model"
	"github.com/classpulse/notification-engine/pkg/pg"
)

type QueueEntryRepository struct {
	*pg.DB
}

func NewQueueEntryRepository(db *pg.DB) *QueueEntryRepository {
	return &QueueEntryRepository{
		db,
	}
}

// BulkInsert writes fan-out entries with conflict-ignore semantics on
// (message_id, recipient_id), so re-running fan-out for a partially queued
// message is safe. Returns the number of rows actually inserted.
func (r *QueueEntryRepository) BulkInsert(ctx context.Context, entries []*model.QueueEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	entities := make([]*QueueEntryEntity, len(entries))
	for i, e := range entries {
		entities[i] = toQueueEntryEntity(e)
	}

	res := r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "recipient_id"}},
			DoNothing: true,
		}).
		Create(&entities)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ListDue returns pending entries whose next attempt time has arrived,
// oldest-created first. This is the single-consumer claim step; with
// multiple processor instances it would need SELECT ... FOR UPDATE SKIP
// LOCKED, which single-consumer-per-tick deployments do not pay for.
func (r *QueueEntryRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.QueueEntry, error) {
	if limit <= 0 {
		limit = 25
	}
	var entities []*QueueEntryEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("status = ?", string(model.QueueEntryStatusPending)).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now).
		Order("created_at").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toQueueEntryModels(entities), nil
}

func (r *QueueEntryRepository) ListByMessage(ctx context.Context, messageID string) ([]*model.QueueEntry, error) {
	var entities []*QueueEntryEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("created_at").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toQueueEntryModels(entities), nil
}

// MarkSent finalizes a successful delivery. Terminal.
func (r *QueueEntryRepository) MarkSent(ctx context.Context, id string) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&QueueEntryEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          string(model.QueueEntryStatusSent),
			"next_attempt_at": nil,
		}).Error
}

// MarkDead finalizes a permanently failed delivery. Terminal; clears the
// schedule so the entry can never become due again.
func (r *QueueEntryRepository) MarkDead(ctx context.Context, id string, attempts int, lastError string) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&QueueEntryEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          string(model.QueueEntryStatusDead),
			"attempts":        attempts,
			"next_attempt_at": nil,
			"last_error":      lastError,
		}).Error
}

// Reschedule records a retryable failure: bumped attempts, next attempt
// time, last error. Status stays pending for the next tick.
func (r *QueueEntryRepository) Reschedule(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&QueueEntryEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          string(model.QueueEntryStatusPending),
			"attempts":        attempts,
			"next_attempt_at": nextAttemptAt,
			"last_error":      lastError,
		}).Error
}

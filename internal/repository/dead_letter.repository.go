package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/classpulse/notification-engine/internal/model"
	"github.com/classpulse/notification-engine/pkg/pg"
)

type DeadLetterRepository struct {
	*pg.DB
}

func NewDeadLetterRepository(db *pg.DB) *DeadLetterRepository {
	return &DeadLetterRepository{
		db,
	}
}

// Create writes the audit record for a queue entry going dead. The unique
// index on queue_entry_id plus conflict-ignore keeps it exactly-once even
// if a crash replays the transition.
func (r *DeadLetterRepository) Create(ctx context.Context, dl *model.DeadLetter) (*model.DeadLetter, error) {
	entity := toDeadLetterEntity(dl)

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "queue_entry_id"}},
			DoNothing: true,
		}).
		Create(entity).Error
	if err != nil {
		return nil, err
	}

	return toDeadLetterModel(entity), nil
}

func (r *DeadLetterRepository) ListByMessage(ctx context.Context, messageID string) ([]*model.DeadLetter, error) {
	var entities []*DeadLetterEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("created_at").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	out := make([]*model.DeadLetter, len(entities))
	for i, e := range entities {
		out[i] = toDeadLetterModel(e)
	}
	return out, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/classpulse/notification-engine/internal/model"
	"github.com/classpulse/notification-engine/pkg/pg"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
)

type MessageRepository struct {
	*pg.DB
}

func NewMessageRepository(db *pg.DB) *MessageRepository {
	return &MessageRepository{
		db,
	}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	entity := toMessageEntity(msg)
	if entity.Status == "" {
		entity.Status = string(model.MessageStatusDraft)
	}

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toMessageModel(entity), nil
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*model.Message, error) {
	var entity MessageEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toMessageModel(&entity), nil
}

// ListDue returns messages whose send time has arrived, oldest send_at
// first, bounded by limit. Only scheduled and pending messages are due;
// drafts are enqueued explicitly through the producer trigger.
func (r *MessageRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	var entities []*MessageEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("status IN ?", []string{string(model.MessageStatusScheduled), string(model.MessageStatusPending)}).
		Where("send_at IS NULL OR send_at <= ?", now).
		Order("send_at").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toMessageModels(entities), nil
}

func (r *MessageRepository) List(ctx context.Context, f model.MessageFilter) ([]*model.Message, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&MessageEntity{})

	if f.TenantID != nil {
		q = q.Where("tenant_id = ?", *f.TenantID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Channel != nil {
		q = q.Where("channel = ?", *f.Channel)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*MessageEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toMessageModels(entities), total, nil
}

func (r *MessageRepository) UpdateStatus(ctx context.Context, id string, status model.MessageStatus) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&MessageEntity{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
}

// UpdateStatusFrom sets the status only when the current status is one of
// the allowed states. The aggregate recomputation uses it so a terminal
// message never gets resurrected. Returns true when the row changed.
func (r *MessageRepository) UpdateStatusFrom(ctx context.Context, id string, status model.MessageStatus, from ...model.MessageStatus) (bool, error) {
	res := r.Write(ctx).WithContext(ctx).
		Model(&MessageEntity{}).
		Where("id = ?", id).
		Where("status IN ?", from).
		Update("status", string(status))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

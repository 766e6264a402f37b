package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classpulse/notification-engine/internal/model"
)

type QueueEntryEntity struct {
	ID            string     `gorm:"primaryKey;column:id"`
	MessageID     string     `gorm:"column:message_id;not null;uniqueIndex:idx_queue_message_recipient"`
	RecipientID   string     `gorm:"column:recipient_id;not null;uniqueIndex:idx_queue_message_recipient"`
	Channel       string     `gorm:"column:channel;not null"`
	Status        string     `gorm:"column:status;not null;index"`
	Attempts      int        `gorm:"column:attempts;not null;default:0"`
	MaxAttempts   int        `gorm:"column:max_attempts;not null;default:5"`
	NextAttemptAt *time.Time `gorm:"column:next_attempt_at;index"`
	LastError     string     `gorm:"column:last_error"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (QueueEntryEntity) TableName() string {
	return "queue_entries"
}

func (e *QueueEntryEntity) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func toQueueEntryEntity(m *model.QueueEntry) *QueueEntryEntity {
	if m == nil {
		return nil
	}
	return &QueueEntryEntity{
		ID:            m.ID,
		MessageID:     m.MessageID,
		RecipientID:   m.RecipientID,
		Channel:       string(m.Channel),
		Status:        string(m.Status),
		Attempts:      m.Attempts,
		MaxAttempts:   m.MaxAttempts,
		NextAttemptAt: m.NextAttemptAt,
		LastError:     m.LastError,
	}
}

func toQueueEntryModel(e *QueueEntryEntity) *model.QueueEntry {
	if e == nil {
		return nil
	}
	return &model.QueueEntry{
		ID:            e.ID,
		MessageID:     e.MessageID,
		RecipientID:   e.RecipientID,
		Channel:       model.Channel(e.Channel),
		Status:        model.QueueEntryStatus(e.Status),
		Attempts:      e.Attempts,
		MaxAttempts:   e.MaxAttempts,
		NextAttemptAt: e.NextAttemptAt,
		LastError:     e.LastError,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func toQueueEntryModels(entities []*QueueEntryEntity) []*model.QueueEntry {
	if entities == nil {
		return nil
	}
	models := make([]*model.QueueEntry, len(entities))
	for i, e := range entities {
		models[i] = toQueueEntryModel(e)
	}
	return models
}

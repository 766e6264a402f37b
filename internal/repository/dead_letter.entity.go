package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classpulse/notification-engine/internal/model"
)

type DeadLetterEntity struct {
	ID           string `gorm:"primaryKey;column:id"`
	QueueEntryID string `gorm:"column:queue_entry_id;not null;uniqueIndex"`
	MessageID    string `gorm:"column:message_id;not null;index"`
	RecipientID  string `gorm:"column:recipient_id;not null"`
	Channel      string `gorm:"column:channel;not null"`
	Error        string `gorm:"column:error"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DeadLetterEntity) TableName() string {
	return "dead_letters"
}

func (e *DeadLetterEntity) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func toDeadLetterEntity(m *model.DeadLetter) *DeadLetterEntity {
	if m == nil {
		return nil
	}
	return &DeadLetterEntity{
		ID:           m.ID,
		QueueEntryID: m.QueueEntryID,
		MessageID:    m.MessageID,
		RecipientID:  m.RecipientID,
		Channel:      string(m.Channel),
		Error:        m.Error,
	}
}

func toDeadLetterModel(e *DeadLetterEntity) *model.DeadLetter {
	if e == nil {
		return nil
	}
	return &model.DeadLetter{
		ID:           e.ID,
		QueueEntryID: e.QueueEntryID,
		MessageID:    e.MessageID,
		RecipientID:  e.RecipientID,
		Channel:      model.Channel(e.Channel),
		Error:        e.Error,
		CreatedAt:    e.CreatedAt,
	}
}

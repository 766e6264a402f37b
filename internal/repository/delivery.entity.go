package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classpulse/notification-engine/internal/model"
)

type DeliveryRecordEntity struct {
	ID               string    `gorm:"primaryKey;column:id"`
	MessageID        string    `gorm:"column:message_id;not null;uniqueIndex:idx_delivery_message_recipient_channel"`
	RecipientID      string    `gorm:"column:recipient_id;not null;uniqueIndex:idx_delivery_message_recipient_channel"`
	Channel          string    `gorm:"column:channel;not null;uniqueIndex:idx_delivery_message_recipient_channel"`
	Status           string    `gorm:"column:status;not null"`
	ProviderResponse string    `gorm:"column:provider_response"`
	DeliveredAt      time.Time `gorm:"column:delivered_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DeliveryRecordEntity) TableName() string {
	return "delivery_records"
}

func (e *DeliveryRecordEntity) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

type DeliveryEventEntity struct {
	ID               string `gorm:"primaryKey;column:id"`
	DeliveryRecordID string `gorm:"column:delivery_record_id;not null;index"`
	MessageID        string `gorm:"column:message_id;not null;index"`
	Type             string `gorm:"column:type;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DeliveryEventEntity) TableName() string {
	return "delivery_events"
}

func (e *DeliveryEventEntity) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func toDeliveryRecordEntity(m *model.DeliveryRecord) *DeliveryRecordEntity {
	if m == nil {
		return nil
	}
	return &DeliveryRecordEntity{
		ID:               m.ID,
		MessageID:        m.MessageID,
		RecipientID:      m.RecipientID,
		Channel:          string(m.Channel),
		Status:           m.Status,
		ProviderResponse: m.ProviderResponse,
		DeliveredAt:      m.DeliveredAt,
	}
}

func toDeliveryRecordModel(e *DeliveryRecordEntity) *model.DeliveryRecord {
	if e == nil {
		return nil
	}
	return &model.DeliveryRecord{
		ID:               e.ID,
		MessageID:        e.MessageID,
		RecipientID:      e.RecipientID,
		Channel:          model.Channel(e.Channel),
		Status:           e.Status,
		ProviderResponse: e.ProviderResponse,
		DeliveredAt:      e.DeliveredAt,
		CreatedAt:        e.CreatedAt,
	}
}

func toDeliveryEventModel(e *DeliveryEventEntity) *model.DeliveryEvent {
	if e == nil {
		return nil
	}
	return &model.DeliveryEvent{
		ID:               e.ID,
		DeliveryRecordID: e.DeliveryRecordID,
		MessageID:        e.MessageID,
		Type:             e.Type,
		CreatedAt:        e.CreatedAt,
	}
}

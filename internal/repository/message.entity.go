package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classpulse/notification-engine/internal/model"
)

type MessageEntity struct {
	ID       string     `gorm:"primaryKey;column:id"`
	TenantID string     `gorm:"column:tenant_id;not null;index"`
	SchoolID string     `gorm:"column:school_id"`
	Channel  string     `gorm:"column:channel;not null"`
	Title    string     `gorm:"column:title"`
	Body     string     `gorm:"column:body"`
	Payload  string     `gorm:"column:payload"`
	Segment  string     `gorm:"column:segment"`
	Status   string     `gorm:"column:status;not null;index"`
	SendAt   *time.Time `gorm:"column:send_at;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (MessageEntity) TableName() string {
	return "messages"
}

func (e *MessageEntity) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func toMessageEntity(m *model.Message) *MessageEntity {
	if m == nil {
		return nil
	}
	seg, _ := json.Marshal(m.Segment)
	return &MessageEntity{
		ID:       m.ID,
		TenantID: m.TenantID,
		SchoolID: m.SchoolID,
		Channel:  string(m.Channel),
		Title:    m.Title,
		Body:     m.Body,
		Payload:  string(m.Payload),
		Segment:  string(seg),
		Status:   string(m.Status),
		SendAt:   m.SendAt,
	}
}

func toMessageModel(e *MessageEntity) *model.Message {
	if e == nil {
		return nil
	}
	m := &model.Message{
		ID:        e.ID,
		TenantID:  e.TenantID,
		SchoolID:  e.SchoolID,
		Channel:   model.Channel(e.Channel),
		Title:     e.Title,
		Body:      e.Body,
		Status:    model.MessageStatus(e.Status),
		SendAt:    e.SendAt,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Payload != "" {
		m.Payload = json.RawMessage(e.Payload)
	}
	if e.Segment != "" {
		// segments were written by us, a decode failure means corruption
		// and surfaces as an unconstrained segment
		_ = json.Unmarshal([]byte(e.Segment), &m.Segment)
	}
	return m
}

func toMessageModels(entities []*MessageEntity) []*model.Message {
	if entities == nil {
		return nil
	}
	models := make([]*model.Message, len(entities))
	for i, e := range entities {
		models[i] = toMessageModel(e)
	}
	return models
}

package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classpulse/notification-engine/internal/model"
)

type RecipientEntity struct {
	ID         string `gorm:"primaryKey;column:id"`
	Email      string `gorm:"column:email"`
	Phone      string `gorm:"column:phone"`
	Role       string `gorm:"column:role;index"`
	SchoolID   string `gorm:"column:school_id;index"`
	DistrictID string `gorm:"column:district_id;not null;index"`
	Grade      string `gorm:"column:grade"`
	Disabled   bool   `gorm:"column:disabled;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RecipientEntity) TableName() string {
	return "recipients"
}

func (e *RecipientEntity) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func toRecipientModel(e *RecipientEntity) *model.Recipient {
	if e == nil {
		return nil
	}
	return &model.Recipient{
		ID:         e.ID,
		Email:      e.Email,
		Phone:      e.Phone,
		Role:       e.Role,
		SchoolID:   e.SchoolID,
		DistrictID: e.DistrictID,
		Grade:      e.Grade,
		Disabled:   e.Disabled,
		CreatedAt:  e.CreatedAt,
	}
}

func toRecipientEntity(m *model.Recipient) *RecipientEntity {
	if m == nil {
		return nil
	}
	return &RecipientEntity{
		ID:         m.ID,
		Email:      m.Email,
		Phone:      m.Phone,
		Role:       m.Role,
		SchoolID:   m.SchoolID,
		DistrictID: m.DistrictID,
		Grade:      m.Grade,
		Disabled:   m.Disabled,
		CreatedAt:  m.CreatedAt,
	}
}

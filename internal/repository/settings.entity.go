package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classpulse/notification-engine/internal/model"
)

type NotificationSettingsEntity struct {
	ID          string `gorm:"primaryKey;column:id"`
	TenantID    string `gorm:"column:tenant_id;not null;uniqueIndex:idx_settings_scope"`
	SchoolID    string `gorm:"column:school_id;not null;default:'';uniqueIndex:idx_settings_scope"`
	SPFStatus   string `gorm:"column:spf_status"`
	DKIMStatus  string `gorm:"column:dkim_status"`
	DMARCStatus string `gorm:"column:dmarc_status"`
	SMSOptIn    bool   `gorm:"column:sms_opt_in;not null;default:false"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (NotificationSettingsEntity) TableName() string {
	return "notification_settings"
}

func (e *NotificationSettingsEntity) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func toSettingsEntity(m *model.NotificationSettings) *NotificationSettingsEntity {
	if m == nil {
		return nil
	}
	return &NotificationSettingsEntity{
		ID:          m.ID,
		TenantID:    m.TenantID,
		SchoolID:    m.SchoolID,
		SPFStatus:   m.SPFStatus,
		DKIMStatus:  m.DKIMStatus,
		DMARCStatus: m.DMARCStatus,
		SMSOptIn:    m.SMSOptIn,
	}
}

func toSettingsModel(e *NotificationSettingsEntity) *model.NotificationSettings {
	if e == nil {
		return nil
	}
	return &model.NotificationSettings{
		ID:          e.ID,
		TenantID:    e.TenantID,
		SchoolID:    e.SchoolID,
		SPFStatus:   e.SPFStatus,
		DKIMStatus:  e.DKIMStatus,
		DMARCStatus: e.DMARCStatus,
		SMSOptIn:    e.SMSOptIn,
		UpdatedAt:   e.UpdatedAt,
	}
}

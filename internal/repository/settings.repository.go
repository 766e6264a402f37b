package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/classpulse/notification-engine/internal/model"
	"github.com/classpulse/notification-engine/pkg/pg"
)

type NotificationSettingsRepository struct {
	*pg.DB
}

func NewNotificationSettingsRepository(db *pg.DB) *NotificationSettingsRepository {
	return &NotificationSettingsRepository{
		db,
	}
}

func (r *NotificationSettingsRepository) Create(ctx context.Context, s *model.NotificationSettings) (*model.NotificationSettings, error) {
	entity := toSettingsEntity(s)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toSettingsModel(entity), nil
}

// GetEffective returns the settings row governing (tenant, school):
// a school-specific row wins over the tenant-wide default. ErrNotFound
// when the tenant has no settings at all.
func (r *NotificationSettingsRepository) GetEffective(ctx context.Context, tenantID, schoolID string) (*model.NotificationSettings, error) {
	var entity NotificationSettingsEntity

	if schoolID != "" {
		err := r.Read(ctx).WithContext(ctx).
			First(&entity, "tenant_id = ? AND school_id = ?", tenantID, schoolID).Error
		if err == nil {
			return toSettingsModel(&entity), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	err := r.Read(ctx).WithContext(ctx).
		First(&entity, "tenant_id = ? AND school_id = ''", tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toSettingsModel(&entity), nil
}

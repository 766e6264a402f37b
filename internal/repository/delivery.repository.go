package repository

import (
	"context"

	"github.com/classpulse/notification-engine/internal/model"
	"github.com/classpulse/notification-engine/pkg/pg"
)

type DeliveryRepository struct {
	*pg.DB
}

func NewDeliveryRepository(db *pg.DB) *DeliveryRepository {
	return &DeliveryRepository{
		db,
	}
}

// CreateRecord persists the provider result of a successful send together
// with its lifecycle events, atomically. Callers pass at least one event
// type; the processor defaults to a single "delivered".
func (r *DeliveryRepository) CreateRecord(ctx context.Context, record *model.DeliveryRecord, eventTypes []string) (*model.DeliveryRecord, error) {
	entity := toDeliveryRecordEntity(record)

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
			return err
		}
		for _, t := range eventTypes {
			event := &DeliveryEventEntity{
				DeliveryRecordID: entity.ID,
				MessageID:        entity.MessageID,
				Type:             t,
			}
			if err := r.Write(ctx).WithContext(ctx).Create(event).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toDeliveryRecordModel(entity), nil
}

func (r *DeliveryRepository) ListEventsByMessage(ctx context.Context, messageID string) ([]*model.DeliveryEvent, error) {
	var entities []*DeliveryEventEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("message_id = ?", messageID).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	events := make([]*model.DeliveryEvent, len(entities))
	for i, e := range entities {
		events[i] = toDeliveryEventModel(e)
	}
	return events, nil
}

func (r *DeliveryRepository) ListRecordsByMessage(ctx context.Context, messageID string) ([]*model.DeliveryRecord, error) {
	var entities []*DeliveryRecordEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("created_at").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	records := make([]*model.DeliveryRecord, len(entities))
	for i, e := range entities {
		records[i] = toDeliveryRecordModel(e)
	}
	return records, nil
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/notification-engine/internal/model"
)

func TestDeliveryRepository_CreateRecord(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewDeliveryRepository(db)
	ctx := context.Background()

	t.Run("record and events created together", func(t *testing.T) {
		rec, err := repo.CreateRecord(ctx, &model.DeliveryRecord{
			MessageID:   "msg-1",
			RecipientID: "rec-1",
			Channel:     model.ChannelEmail,
			Status:      "delivered",
			DeliveredAt: time.Now().UTC(),
		}, []string{model.DeliveryEventDelivered, model.DeliveryEventOpened})
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)

		events, err := repo.ListEventsByMessage(ctx, "msg-1")
		require.NoError(t, err)
		require.Len(t, events, 2)
		for _, e := range events {
			assert.Equal(t, rec.ID, e.DeliveryRecordID)
			assert.Equal(t, "msg-1", e.MessageID)
		}
	})

	t.Run("events accumulate per message across recipients", func(t *testing.T) {
		_, err := repo.CreateRecord(ctx, &model.DeliveryRecord{
			MessageID:   "msg-1",
			RecipientID: "rec-2",
			Channel:     model.ChannelEmail,
			Status:      "delivered",
			DeliveredAt: time.Now().UTC(),
		}, []string{model.DeliveryEventBounced})
		require.NoError(t, err)

		events, err := repo.ListEventsByMessage(ctx, "msg-1")
		require.NoError(t, err)
		assert.Len(t, events, 3)

		records, err := repo.ListRecordsByMessage(ctx, "msg-1")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

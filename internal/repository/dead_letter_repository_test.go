package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/notification-engine/internal/model"
)

func TestDeadLetterRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewDeadLetterRepository(db)
	ctx := context.Background()

	dl := &model.DeadLetter{
		QueueEntryID: "entry-1",
		MessageID:    "msg-1",
		RecipientID:  "rec-1",
		Channel:      model.ChannelEmail,
		Error:        "retries exhausted",
	}

	t.Run("creates dead letter", func(t *testing.T) {
		created, err := repo.Create(ctx, dl)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
	})

	t.Run("replayed transition stays exactly-once", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.DeadLetter{
			QueueEntryID: "entry-1",
			MessageID:    "msg-1",
			RecipientID:  "rec-1",
			Channel:      model.ChannelEmail,
			Error:        "retries exhausted",
		})
		require.NoError(t, err)

		items, err := repo.ListByMessage(ctx, "msg-1")
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("different entries for the same message coexist", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.DeadLetter{
			QueueEntryID: "entry-2",
			MessageID:    "msg-1",
			RecipientID:  "rec-2",
			Channel:      model.ChannelEmail,
			Error:        "channel not permitted",
		})
		require.NoError(t, err)

		items, err := repo.ListByMessage(ctx, "msg-1")
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})
}

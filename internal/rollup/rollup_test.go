package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classpulse/notification-engine/internal/model"
)

func TestRollup(t *testing.T) {
	t.Run("counts known event types", func(t *testing.T) {
		c := Rollup([]string{"delivered", "opened", "clicked", "bounced", "delivered"})
		assert.Equal(t, Counts{Delivered: 2, Bounced: 1, Opened: 1, Clicked: 1, Total: 5}, c)
	})

	t.Run("unknown types count toward total only", func(t *testing.T) {
		c := Rollup([]string{"delivered", "deferred", "spam_report"})
		assert.Equal(t, Counts{Delivered: 1, Total: 3}, c)
	})

	t.Run("exact string match", func(t *testing.T) {
		c := Rollup([]string{"Delivered", "DELIVERED"})
		assert.Equal(t, Counts{Total: 2}, c)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, Counts{}, Rollup(nil))
	})
}

func TestRollupEvents(t *testing.T) {
	events := []*model.DeliveryEvent{
		{Type: model.DeliveryEventDelivered},
		{Type: model.DeliveryEventBounced},
		{Type: model.DeliveryEventDelivered},
	}
	c := RollupEvents(events)
	assert.Equal(t, Counts{Delivered: 2, Bounced: 1, Total: 3}, c)
}

// Package rollup aggregates raw delivery events into channel-level
// deliverability metrics for reporting.
package rollup

import "github.com/classpulse/notification-engine/internal/model"

// Counts summarizes delivery events by type. Unrecognized event types count
// toward Total only.
type Counts struct {
	Delivered int `json:"delivered"`
	Bounced   int `json:"bounced"`
	Opened    int `json:"opened"`
	Clicked   int `json:"clicked"`
	Total     int `json:"total"`
}

// Rollup counts event occurrences by exact string match in a single pass.
// No side effects, no ordering requirement on input.
func Rollup(events []string) Counts {
	var c Counts
	for _, e := range events {
		switch e {
		case model.DeliveryEventDelivered:
			c.Delivered++
		case model.DeliveryEventBounced:
			c.Bounced++
		case model.DeliveryEventOpened:
			c.Opened++
		case model.DeliveryEventClicked:
			c.Clicked++
		}
		c.Total++
	}
	return c
}

// RollupEvents is Rollup over stored delivery events.
func RollupEvents(events []*model.DeliveryEvent) Counts {
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return Rollup(types)
}

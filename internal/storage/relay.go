package storage

import (
	"context"
	"fmt"

	"cheatreport/backend/internal/eventbus"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// EventRelay republishes domain events on a Redis channel so that other
// processes, such as every instance's live feed, can observe them.
type EventRelay struct {
	Redis   *redis.Client
	Channel string
}

func NewEventRelay(rdb *redis.Client, channel string) *EventRelay {
	return &EventRelay{Redis: rdb, Channel: channel}
}

// Handle is an eventbus.Handler that publishes ev as JSON.
func (r *EventRelay) Handle(ctx context.Context, ev eventbus.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}
	return r.Redis.Publish(ctx, r.Channel, data).Err()
}

// Subscribe opens a subscription to the relay channel. The caller closes it.
func (r *EventRelay) Subscribe(ctx context.Context) *redis.PubSub {
	return r.Redis.Subscribe(ctx, r.Channel)
}

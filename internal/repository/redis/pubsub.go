package redis

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
)

// NotificationsPubSub fans out freshly stored notifications to every
// subscribed process.
type NotificationsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewNotificationsPubSub(rdb *redis.Client) *NotificationsPubSub {
	return &NotificationsPubSub{
		rdb:     rdb,
		channel: ChannelNotifications(),
	}
}

func (p *NotificationsPubSub) Publish(ctx context.Context, n domain.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe blocks, calling handler for every notification received, until ctx
// is cancelled. Malformed messages are skipped.
func (p *NotificationsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, n domain.Notification)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var n domain.Notification
			if err := json.Unmarshal([]byte(m.Payload), &n); err == nil && n.ID != uuid.Nil {
				handler(ctx, n)
			}
		}
	}
}

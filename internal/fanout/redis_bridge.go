package fanout

import (
	"context"
	"log"
	"strings"

	"delivery-tracker-service/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisBridge spans the fan-out across processes. The in-memory registry
// only sees observers attached to this process; the bridge republishes
// every committed (kind, id) event on a shared Redis channel and feeds
// events from other processes into the local engine's dispatch path.
type RedisBridge struct {
	client  *redis.Client
	channel string
	origin  string
	engine  *Engine
}

func NewRedisBridge(client *redis.Client, channel string, engine *Engine) *RedisBridge {
	return &RedisBridge{
		client:  client,
		channel: channel,
		// Random origin tag lets the subscriber skip this process's own
		// events, which the engine already dispatched locally.
		origin: uuid.NewString(),
		engine: engine,
	}
}

// Publish implements RemotePublisher.
func (b *RedisBridge) Publish(ctx context.Context, kind domain.Kind, id string) error {
	payload := b.origin + "|" + string(kind) + "|" + id
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Run consumes remote events until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(payload string) {
	parts := strings.SplitN(payload, "|", 3)
	if len(parts) != 3 {
		log.Printf("fanout: malformed bridge payload %q", payload)
		return
	}
	if parts[0] == b.origin {
		return
	}
	b.engine.Ingest(domain.Kind(parts[1]), parts[2])
}

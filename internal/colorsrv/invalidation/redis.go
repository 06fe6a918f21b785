package invalidation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewClient connects to the redis server at url and checks it answers.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, ErrRedis.MsgErr("invalid redis url", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, ErrRedis.MsgErr("failed to connect to redis", err)
	}
	return client, nil
}

// Listener applies messages from channel to a local cache.
type Listener struct {
	client  *redis.Client
	channel string
	target  Invalidator
}

func NewListener(client *redis.Client, channel string, target Invalidator) *Listener {
	return &Listener{client: client, channel: channel, target: target}
}

// Run blocks until ctx is done. Malformed messages are logged and skipped.
func (l *Listener) Run(ctx context.Context) error {
	sub := l.client.Subscribe(ctx, l.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed before reporting readiness
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return ErrRedis.MsgErr("failed to subscribe to "+l.channel, err)
	}
	log.Ctx(ctx).Info().Str("channel", l.channel).Msg("listening for cache invalidation")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			_ = Apply(ctx, l.target, msg.Payload)
		}
	}
}

// Publisher sends invalidation messages.
type Publisher struct {
	client  *redis.Client
	channel string
}

func NewPublisher(client *redis.Client, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

// Publish returns the number of subscribers that received m.
func (p *Publisher) Publish(ctx context.Context, m Message) (int64, error) {
	payload, err := m.Encode()
	if err != nil {
		return 0, err
	}
	n, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return 0, ErrRedis.MsgErr("failed to publish to "+p.channel, err)
	}
	return n, nil
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
	"github.com/yungbote/pipelines-backend/internal/observability"
	"github.com/yungbote/pipelines-backend/internal/platform/envutil"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

const DefaultChannel = "pipelines.events"

// EventBus fans pipeline changes out over a Redis pub/sub channel.
type EventBus interface {
	Publish(ctx context.Context, ev pipelines.Event) error
	// StartForwarder subscribes and calls onEvent for each decoded event until
	// ctx is done.
	StartForwarder(ctx context.Context, onEvent func(ev pipelines.Event)) error
	Close() error
}

type eventBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	metrics *observability.Metrics
}

// NewEventBus connects using REDIS_ADDR and REDIS_CHANNEL. With no REDIS_ADDR
// it returns a bus that drops everything.
func NewEventBus(log *logger.Logger, metrics *observability.Metrics) (EventBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := envutil.GetEnv("REDIS_ADDR", "", log)
	if addr == "" {
		log.Info("REDIS_ADDR not set; pipeline events disabled")
		return NopEventBus{}, nil
	}
	channel := envutil.GetEnv("REDIS_CHANNEL", DefaultChannel, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &eventBus{
		log:     log.With("client", "RedisEventBus"),
		rdb:     rdb,
		channel: channel,
		metrics: metrics,
	}, nil
}

func (b *eventBus) Publish(ctx context.Context, ev pipelines.Event) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis event bus not initialized")
	}
	raw, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		b.metrics.IncPipelineEvent(string(ev.Type), "error")
		return err
	}
	b.metrics.IncPipelineEvent(string(ev.Type), "ok")
	return nil
}

func (b *eventBus) StartForwarder(ctx context.Context, onEvent func(ev pipelines.Event)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis event bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				ev, err := decodeEvent(m.Payload)
				if err != nil {
					b.log.Warn("bad pipeline event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *eventBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func encodeEvent(ev pipelines.Event) ([]byte, error) {
	if strings.TrimSpace(string(ev.Type)) == "" {
		return nil, fmt.Errorf("event type required")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(ev)
}

func decodeEvent(payload string) (pipelines.Event, error) {
	var ev pipelines.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return pipelines.Event{}, err
	}
	if ev.Type == "" {
		return pipelines.Event{}, fmt.Errorf("event type missing")
	}
	return ev, nil
}

// NopEventBus is used when Redis is not configured.
type NopEventBus struct{}

func (NopEventBus) Publish(context.Context, pipelines.Event) error { return nil }

func (NopEventBus) StartForwarder(context.Context, func(pipelines.Event)) error {
	return fmt.Errorf("pipeline events disabled: REDIS_ADDR not set")
}

func (NopEventBus) Close() error { return nil }

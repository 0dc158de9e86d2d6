package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/MikeRez0/campuscafe/internal/adapter/config"
	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const publishTimeout = 3 * time.Second

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes events as JSON on a Redis channel. Notify only
// enqueues; workers started by Run do the publishing.
type RedisNotifier struct {
	client  publisher
	closer  func() error
	channel string
	queue   chan domain.Event
	logger  *zap.Logger
}

func NewRedisNotifier(cfg *config.Redis, notifyCfg *config.Notify, log *zap.Logger) (*RedisNotifier, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	n := newRedisNotifier(client, cfg.Channel, notifyCfg.QueueSize, log)
	n.closer = client.Close
	return n, nil
}

func newRedisNotifier(client publisher, channel string, queueSize int, log *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		closer:  func() error { return nil },
		channel: channel,
		queue:   make(chan domain.Event, queueSize),
		logger:  log,
	}
}

func (n *RedisNotifier) Notify(_ context.Context, event domain.Event) {
	select {
	case n.queue <- event:
	default:
		n.logger.Warn("notification queue full, event dropped",
			zap.String("type", string(event.Type)),
			zap.String("order", event.OrderID))
	}
}

// Run drains the queue with the given number of workers until ctx is done,
// then publishes what is still queued.
func (n *RedisNotifier) Run(ctx context.Context, workers int) error {
	wg := sync.WaitGroup{}
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case event := <-n.queue:
					n.publish(event)
				case <-ctx.Done():
					n.logger.Debug("Finished worker")
					return
				}
			}
		}()
	}
	wg.Wait()

	for {
		select {
		case event := <-n.queue:
			n.publish(event)
		default:
			return n.closer()
		}
	}
}

func (n *RedisNotifier) publish(event domain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("encode event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.logger.Error("publish event",
			zap.String("type", string(event.Type)),
			zap.String("order", event.OrderID),
			zap.Error(err))
		return
	}
	n.logger.Debug("published event",
		zap.String("type", string(event.Type)),
		zap.String("order", event.OrderID))
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Constants for invalidator configuration
const (
	defaultChannel      = "cabinet:cache:invalidate"
	defaultCloseTimeout = 5 * time.Second
)

// InvalidationMessage is the payload broadcast when caches must be dropped
type InvalidationMessage struct {
	Source    string `json:"source,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Broadcaster publishes cache-invalidation signals to other instances
type Broadcaster interface {
	PublishInvalidateAll(ctx context.Context) error
}

// RedisInvalidator broadcasts and receives cache invalidation over Redis
// Pub/Sub, so every back-office instance drops its local view caches when
// any instance writes fiscal data.
type RedisInvalidator struct {
	client    *redis.Client
	channel   string
	source    string
	logger    *zap.Logger
	cancelFn  context.CancelFunc
	doneCh    chan struct{}
	doneOnce  sync.Once
	mu        sync.Mutex
	isRunning bool
}

// RedisInvalidatorOption is a functional option for configuring the invalidator
type RedisInvalidatorOption func(*RedisInvalidator)

// WithInvalidatorChannel sets the Pub/Sub channel name
func WithInvalidatorChannel(channel string) RedisInvalidatorOption {
	return func(i *RedisInvalidator) {
		i.channel = channel
	}
}

// WithInvalidatorSource tags published messages with the instance name
func WithInvalidatorSource(source string) RedisInvalidatorOption {
	return func(i *RedisInvalidator) {
		i.source = source
	}
}

// WithInvalidatorLogger sets the logger for the invalidator
func WithInvalidatorLogger(logger *zap.Logger) RedisInvalidatorOption {
	return func(i *RedisInvalidator) {
		i.logger = logger
	}
}

// NewRedisInvalidator creates an invalidator on an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisInvalidator(client *redis.Client, opts ...RedisInvalidatorOption) *RedisInvalidator {
	invalidator := &RedisInvalidator{
		client:  client,
		channel: defaultChannel,
		logger:  zap.NewNop(),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(invalidator)
	}
	return invalidator
}

// PublishInvalidateAll broadcasts an invalidate-all signal
func (i *RedisInvalidator) PublishInvalidateAll(ctx context.Context) error {
	msg := InvalidationMessage{
		Source:    i.source,
		Timestamp: time.Now().UnixNano(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation message: %w", err)
	}

	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		i.logger.Error("Failed to publish cache invalidation",
			zap.String("channel", i.channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}

	i.logger.Debug("Published cache invalidation", zap.String("channel", i.channel))
	return nil
}

// Subscribe listens for invalidation signals and calls the manager's
// InvalidateAll for each one. Blocks; run it in a goroutine.
func (i *RedisInvalidator) Subscribe(ctx context.Context, manager *Manager) error {
	i.mu.Lock()
	if i.isRunning {
		i.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	i.isRunning = true
	i.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	i.mu.Lock()
	i.cancelFn = cancel
	i.mu.Unlock()

	pubsub := i.client.Subscribe(subCtx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		i.mu.Lock()
		i.isRunning = false
		i.mu.Unlock()
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	i.logger.Info("Subscribed to cache invalidation channel",
		zap.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			i.logger.Info("Cache invalidation subscription stopped")
			i.stop()
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				i.logger.Warn("Cache invalidation channel closed")
				i.stop()
				return nil
			}

			var payload InvalidationMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				i.logger.Error("Failed to unmarshal invalidation message",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}

			// Our own broadcast already invalidated the local caches, but
			// dropping them twice is harmless and simpler than filtering.
			manager.InvalidateAll()
		}
	}
}

func (i *RedisInvalidator) stop() {
	i.mu.Lock()
	i.isRunning = false
	i.mu.Unlock()
	i.doneOnce.Do(func() {
		close(i.doneCh)
	})
}

// Close stops the subscription, waiting briefly for it to wind down
func (i *RedisInvalidator) Close() error {
	i.mu.Lock()
	cancelFn := i.cancelFn
	i.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-i.doneCh:
		case <-time.After(defaultCloseTimeout):
			i.logger.Warn("Timeout waiting for subscription to stop")
		}
	}
	return nil
}

// Ensure RedisInvalidator implements Broadcaster
var _ Broadcaster = (*RedisInvalidator)(nil)

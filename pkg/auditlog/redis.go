package auditlog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisChannelPrefix namespaces audit feed channels in the Redis keyspace.
const redisChannelPrefix = "auditlog:"

// ErrPublishFailed wraps Redis publish failures.
var ErrPublishFailed = errors.New("auditlog: failed to publish entry")

// RedisHub is a Feed and Publisher backed by Redis pub/sub, letting every
// service instance deliver entries to subscribers connected elsewhere.
type RedisHub struct {
	client *redis.Client
	mu     sync.Mutex
	closed bool
}

// NewRedisHub creates a hub on top of an established Redis client.
// The hub does not own the client; closing the hub leaves it open.
func NewRedisHub(client *redis.Client) *RedisHub {
	if client == nil {
		panic("auditlog: redis client is required")
	}
	return &RedisHub{client: client}
}

// Publish serializes the entry and publishes it on the owner's channel.
func (h *RedisHub) Publish(ctx context.Context, ownerID uuid.UUID, e Entry) error {
	if ownerID == uuid.Nil {
		return ErrMissingOwner
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	if err := h.client.Publish(ctx, redisChannelPrefix+ownerID.String(), payload).Err(); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// Subscribe opens a pub/sub subscription on the owner's channel. Malformed
// payloads are skipped rather than terminating the subscription.
func (h *RedisHub) Subscribe(ctx context.Context, ownerID uuid.UUID) (Subscription, error) {
	if ownerID == uuid.Nil {
		return nil, ErrMissingOwner
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrFeedClosed
	}
	h.mu.Unlock()

	pubsub := h.client.Subscribe(ctx, redisChannelPrefix+ownerID.String())
	// Force the subscription onto the wire so entries published right after
	// Subscribe returns are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		ch:     make(chan Entry, DefaultRingSize),
	}
	go sub.run(ctx)
	return sub, nil
}

// Close marks the hub closed for new subscriptions. Existing subscriptions
// keep running until individually closed.
func (h *RedisHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

type redisSubscription struct {
	pubsub    *redis.PubSub
	ch        chan Entry
	closeOnce sync.Once
}

func (s *redisSubscription) Events() <-chan Entry {
	return s.ch
}

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.pubsub.Close()
	})
	return err
}

func (s *redisSubscription) run(ctx context.Context) {
	defer close(s.ch)

	msgs := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var e Entry
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				continue
			}
			select {
			case s.ch <- e:
			default:
			}
		}
	}
}

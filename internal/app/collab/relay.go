package collab

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/randx"
)

// NotifyChannel is the Redis channel carrying user notifications between instances.
const NotifyChannel = "roleready:notify"

// DeliverFunc hands a relayed notification to the local user registry.
type DeliverFunc func(userID string, payload json.RawMessage)

// Relay fans user notifications out across server instances.
type Relay interface {
	// Publish sends a notification for userID to every instance, this one included.
	Publish(ctx context.Context, userID string, payload json.RawMessage) error

	// Run consumes notifications until ctx is cancelled.
	Run(ctx context.Context, deliver DeliverFunc) error

	// Ready is closed once Run is subscribed and published messages will be seen.
	Ready() <-chan struct{}
}

type relayEnvelope struct {
	Origin  string          `json:"origin"`
	UserID  string          `json:"userId"`
	Payload json.RawMessage `json:"payload"`
}

// RedisRelay implements Relay on Redis pub/sub.
type RedisRelay struct {
	rdb        *redis.Client
	channel    string
	instanceID string
	ready      chan struct{}
	logger     zerolog.Logger
}

// NewRedisRelay returns a relay publishing on NotifyChannel.
func NewRedisRelay(rdb *redis.Client) *RedisRelay {
	instanceID := randx.ConnectionID()
	return &RedisRelay{
		rdb:        rdb,
		channel:    NotifyChannel,
		instanceID: instanceID,
		ready:      make(chan struct{}),
		logger: logx.Logger().With().
			Str("component", "RedisRelay").
			Str("instance_id", instanceID).
			Logger(),
	}
}

// Publish implements Relay.
func (r *RedisRelay) Publish(ctx context.Context, userID string, payload json.RawMessage) error {
	data, err := json.Marshal(relayEnvelope{Origin: r.instanceID, UserID: userID, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal relay envelope: %w", err)
	}

	if err := r.rdb.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Ready implements Relay.
func (r *RedisRelay) Ready() <-chan struct{} {
	return r.ready
}

// Run implements Relay. It returns nil when ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context, deliver DeliverFunc) error {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	close(r.ready)

	r.logger.Info().Str("channel", r.channel).Msg("Subscribed to notification relay.")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Notification relay stopped.")
			return nil

		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warn().Err(err).Msg("Dropping malformed relay message.")
				continue
			}
			if env.UserID == "" {
				r.logger.Warn().Str("origin", env.Origin).Msg("Dropping relay message without userId.")
				continue
			}

			deliver(env.UserID, env.Payload)
		}
	}
}

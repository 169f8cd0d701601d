package pvpchan

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/choss/internal/obslog"
)

type envelope struct {
	Origin  string          `json:"origin"`
	GameID  string          `json:"game_id"`
	Payload json.RawMessage `json:"payload"`
}

// Relay fans broadcasts out across server instances over Redis pub/sub. Payloads
// published by this instance are ignored when they come back.
type Relay struct {
	rdb      *redis.Client
	registry *Registry
	origin   string
	logger   *zap.Logger

	readyOnce sync.Once
	ready     chan struct{}
}

func NewRelay(rdb *redis.Client, registry *Registry, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = obslog.L()
	}
	return &Relay{
		rdb:      rdb,
		registry: registry,
		origin:   uuid.NewString(),
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// Origin identifies this instance on the channel.
func (r *Relay) Origin() string { return r.origin }

// Ready is closed once Run holds its subscription.
func (r *Relay) Ready() <-chan struct{} { return r.ready }

// Publish sends payload to every other instance.
func (r *Relay) Publish(ctx context.Context, gameID string, payload []byte) error {
	if strings.TrimSpace(gameID) == "" {
		return ErrInvalidArgs
	}
	raw, err := json.Marshal(envelope{Origin: r.origin, GameID: gameID, Payload: payload})
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, updatesChannel(gameID), raw).Err()
}

// Run forwards foreign payloads to local subscribers until ctx ends.
func (r *Relay) Run(ctx context.Context) error {
	ps := r.rdb.PSubscribe(ctx, updatesPrefix+"*")
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	r.readyOnce.Do(func() { close(r.ready) })
	r.logger.Info("relay_subscribed", zap.String("origin", r.origin))

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return ErrRelayClosed
			}
			r.handle(msg)
		}
	}
}

func (r *Relay) handle(msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		r.logger.Warn("relay_bad_envelope", zap.String("channel", msg.Channel), zap.Error(err))
		return
	}
	if env.Origin == r.origin {
		return
	}
	n := r.registry.Broadcast(env.GameID, env.Payload)
	r.logger.Debug("relay_forward", zap.String("game_id", env.GameID), zap.String("from", env.Origin), zap.Int("delivered", n))
}

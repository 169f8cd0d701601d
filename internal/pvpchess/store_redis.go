package pvpchess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/choss/pkg/chessdto"
)

const (
	DefaultGameTTL    = 24 * time.Hour
	maxUpdateAttempts = 16
)

// redisStore keeps one JSON record per game and updates it under WATCH, so several
// server processes can share games.
type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultGameTTL
	}
	return &redisStore{rdb: rdb, ttl: ttl}
}

func gameKey(id string) string { return "choss:game:" + strings.TrimSpace(id) }

func encodeGame(g *Game) ([]byte, error) {
	rec, err := gameRecord(g)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

func decodeGame(raw []byte) (*Game, error) {
	var rec chessdto.Game
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	return gameFromRecord(&rec)
}

func (s *redisStore) Create(ctx context.Context, g *Game) error {
	if g == nil || strings.TrimSpace(g.ID) == "" {
		return ErrInvalidArgs
	}
	raw, err := encodeGame(g)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, gameKey(g.ID), raw, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrGameExists
	}
	return nil
}

func (s *redisStore) Load(ctx context.Context, id string) (*Game, error) {
	raw, err := s.rdb.Get(ctx, gameKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeGame(raw)
}

func (s *redisStore) Update(ctx context.Context, id string, fn func(*Game) error) (*Game, error) {
	key := gameKey(id)
	var out *Game
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}
		cur, err := decodeGame(raw)
		if err != nil {
			return err
		}
		if err := fn(cur); err != nil {
			return err
		}
		next, err := encodeGame(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, s.ttl)
			return nil
		})
		if err == nil {
			out = cur
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("update %s: %w", id, redis.TxFailedErr)
}

func (s *redisStore) Close() error { return s.rdb.Close() }

// NewRedisClient parses REDIS_URL and pings the server.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Username: u.User.Username(), Password: pass, DB: db}, nil
}

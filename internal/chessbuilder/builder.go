package chessbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/choss/internal/config"
	"github.com/park285/choss/internal/gateway"
	"github.com/park285/choss/internal/msgcat"
	"github.com/park285/choss/internal/pvp"
	"github.com/park285/choss/internal/pvpchan"
	"github.com/park285/choss/internal/pvpchess"
)

type Deps struct {
	Manager  *pvpchess.Manager
	Registry *pvpchan.Registry
	Relay    *pvpchan.Relay
	Redis    *redis.Client
	Catalog  *msgcat.Catalog
	Server   *gateway.Server
	Admin    *gateway.Admin

	ownsRedis bool
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{}

	catalog, err := msgcat.New(cfg.MessageDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	d.Catalog = catalog

	if cfg.NeedsRedis() {
		d.Redis, err = pvpchess.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
	}

	// The redis store closes the client it was given.
	var store pvpchess.Store
	switch cfg.StoreBackend {
	case config.BackendRedis:
		store = pvpchess.NewRedisStore(d.Redis, cfg.GameTTL())
	default:
		store = pvpchess.NewMemoryStore()
		d.ownsRedis = d.Redis != nil
	}

	d.Registry = pvpchan.NewRegistry(logger)
	opts := []pvpchess.Option{
		pvpchess.WithLogger(logger),
		pvpchess.WithCatalog(catalog),
		pvpchess.WithSeater(seater(cfg.SeatSeed)),
	}
	if cfg.RelayEnabled {
		d.Relay = pvpchan.NewRelay(d.Redis, d.Registry, logger)
		opts = append(opts, pvpchess.WithRelay(d.Relay))
	}
	d.Manager = pvpchess.NewManager(store, d.Registry, opts...)

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err := pvpchess.NewRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("init archive: %w", err)
		}
		d.Manager.AttachRepository(repo)
	} else {
		d.Manager.AttachRepository(pvpchess.NewMemoryArchive())
	}

	d.Server = gateway.NewServer(d.Manager, gateway.Options{
		Path:           cfg.WSPath,
		Subprotocol:    cfg.WSSubprotocol,
		OriginPatterns: cfg.AllowedOrigins,
		SendBuffer:     cfg.SendBuffer,
		PingInterval:   cfg.PingInterval(),
	}, logger)
	if strings.TrimSpace(cfg.AdminAddr) != "" {
		d.Admin = gateway.NewAdmin(d.Manager, logger)
	}

	logger.Info("deps_ready",
		zap.String("store", cfg.StoreBackend),
		zap.Bool("relay", d.Relay != nil),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
		zap.Bool("admin", d.Admin != nil),
	)
	return d, nil
}

func seater(seed int64) *pvp.Seater {
	if seed != 0 {
		return pvp.NewSeater(seed)
	}
	return pvp.NewRandomSeater()
}

func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.Manager != nil {
		errs = append(errs, d.Manager.Close())
	}
	if d.ownsRedis || (d.Manager == nil && d.Redis != nil) {
		errs = append(errs, d.Redis.Close())
	}
	return errors.Join(errs...)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type AppConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	WSPath         string   `yaml:"ws_path"`
	WSSubprotocol  string   `yaml:"ws_subprotocol"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AdminAddr      string   `yaml:"admin_addr"`

	StoreBackend string `yaml:"store_backend"`
	RedisURL     string `yaml:"redis_url"`
	GameTTLSec   int    `yaml:"game_ttl_sec"`
	RelayEnabled bool   `yaml:"relay_enabled"`
	DatabaseURL  string `yaml:"database_url"`

	SeatSeed        int64  `yaml:"seat_seed"`
	SendBuffer      int    `yaml:"send_buffer"`
	PingIntervalSec int    `yaml:"ping_interval_sec"`
	MessageDir      string `yaml:"message_dir"`
}

func defaults() *AppConfig {
	return &AppConfig{
		ListenAddr:      ":8080",
		WSPath:          "/",
		WSSubprotocol:   "choss",
		StoreBackend:    BackendMemory,
		GameTTLSec:      86400,
		SendBuffer:      64,
		PingIntervalSec: 30,
	}
}

// Load builds the config from defaults, the YAML file named by CHOSS_CONFIG and the
// environment, in that order.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CHOSS_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() {
	setString(&c.ListenAddr, "LISTEN_ADDR")
	setString(&c.WSPath, "WS_PATH")
	setString(&c.WSSubprotocol, "WS_SUBPROTOCOL")
	setString(&c.AdminAddr, "ADMIN_ADDR")
	setString(&c.StoreBackend, "STORE_BACKEND")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.MessageDir, "MESSAGE_DIR")

	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("RELAY_ENABLED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.RelayEnabled = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("SEAT_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.SeatSeed = n
		}
	}
	setPositive(&c.GameTTLSec, "GAME_TTL_SEC")
	setPositive(&c.SendBuffer, "SEND_BUFFER")
	setPositive(&c.PingIntervalSec, "PING_INTERVAL_SEC")

	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
}

func (c *AppConfig) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("STORE_BACKEND must be %s or %s, got %q", BackendMemory, BackendRedis, c.StoreBackend)
	}
	if c.StoreBackend == BackendRedis && c.RedisURL == "" {
		return errors.New("REDIS_URL is required for the redis store")
	}
	if c.RelayEnabled && c.RedisURL == "" {
		return errors.New("REDIS_URL is required when RELAY_ENABLED is set")
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		return fmt.Errorf("WS_PATH must start with /, got %q", c.WSPath)
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("LISTEN_ADDR is required")
	}
	return nil
}

func (c *AppConfig) GameTTL() time.Duration { return time.Duration(c.GameTTLSec) * time.Second }

func (c *AppConfig) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalSec) * time.Second
}

// NeedsRedis reports whether any component uses the Redis connection.
func (c *AppConfig) NeedsRedis() bool { return c.StoreBackend == BackendRedis || c.RelayEnabled }

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setPositive(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

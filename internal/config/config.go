// Package config loads the relay settings from the environment.
package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
)

// DefaultPostgresDSN is used when DB_DSN is not set and the driver is postgres.
const DefaultPostgresDSN = "host=localhost user=user password=password dbname=chatrelaydb port=5432 sslmode=disable"

// DefaultSQLiteDSN is used when DB_DSN is not set and the driver is sqlite.
const DefaultSQLiteDSN = "file:chatrelay.db?_foreign_keys=on"

// Config holds the process configuration.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR,default=:8080"`

	DBDriver string `env:"DB_DRIVER,default=postgres"`
	DBDSN    string `env:"DB_DSN"`

	// RedisAddr left empty disables publishing of stored messages.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	WSWriteWait      time.Duration `env:"WS_WRITE_WAIT,default=10s"`
	WSPongWait       time.Duration `env:"WS_PONG_WAIT,default=60s"`
	WSMaxMessageSize int           `env:"WS_MAX_MESSAGE_SIZE,default=4096"`
	WSSendBuffer     int           `env:"WS_SEND_BUFFER,default=256"`
}

// WebSocket holds per-connection limits and timings.
type WebSocket struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// WebSocket returns the connection settings.
func (c *Config) WebSocket() WebSocket {
	return WebSocket{
		WriteWait:      c.WSWriteWait,
		PongWait:       c.WSPongWait,
		MaxMessageSize: int64(c.WSMaxMessageSize),
		SendBuffer:     c.WSSendBuffer,
	}
}

// PingPeriod must stay below PongWait so the peer answers before the read deadline.
func (w WebSocket) PingPeriod() time.Duration {
	return (w.PongWait * 9) / 10
}

// DefaultWebSocket returns the limits used when nothing is configured.
func DefaultWebSocket() WebSocket {
	return WebSocket{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     256,
	}
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if cfg.DBDSN == "" {
		switch cfg.DBDriver {
		case "sqlite":
			cfg.DBDSN = DefaultSQLiteDSN
		default:
			cfg.DBDSN = DefaultPostgresDSN
		}
	}
	if cfg.WSPongWait <= 0 || cfg.WSWriteWait <= 0 {
		return nil, fmt.Errorf("config error: websocket timings must be positive")
	}
	if cfg.WSSendBuffer <= 0 || cfg.WSMaxMessageSize <= 0 {
		return nil, fmt.Errorf("config error: WS_SEND_BUFFER and WS_MAX_MESSAGE_SIZE must be positive")
	}
	return &cfg, nil
}

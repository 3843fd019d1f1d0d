// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the chat relay.
package server

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

const (
	defaultPort             = ":8080"
	defaultMaxMessageSize   = 4096
	defaultWriteTimeout     = 10 * time.Second
	defaultPongTimeout      = 60 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLogLevel         = "INFO"
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
// A zero Burst disables limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port             string
	AllowedOrigins   []string
	MaxMessageSize   int64
	RateLimit        RateLimitConfig
	WriteTimeout     time.Duration
	PongTimeout      time.Duration
	HandshakeTimeout time.Duration
	ShutdownTimeout  time.Duration
	LogLevel         string
}

// environment mirrors Config as flat, env-tagged fields.
type environment struct {
	Port                    string        `env:"SERVER_PORT"`
	AllowedOrigins          string        `env:"ALLOWED_ORIGINS"`
	MaxMessageSize          int           `env:"MAX_MESSAGE_SIZE"`
	RateLimitBurst          int           `env:"RATE_LIMIT_BURST"`
	RateLimitRefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL"`
	WriteTimeout            time.Duration `env:"WRITE_TIMEOUT"`
	PongTimeout             time.Duration `env:"PONG_TIMEOUT"`
	HandshakeTimeout        time.Duration `env:"HANDSHAKE_TIMEOUT"`
	ShutdownTimeout         time.Duration `env:"SHUTDOWN_TIMEOUT"`
	LogLevel                string        `env:"LOG_LEVEL"`
}

// DefaultConfig returns a Config populated with default values for all settings.
func DefaultConfig() Config {
	return Config{
		Port: defaultPort,
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize:   defaultMaxMessageSize,
		WriteTimeout:     defaultWriteTimeout,
		PongTimeout:      defaultPongTimeout,
		HandshakeTimeout: defaultHandshakeTimeout,
		ShutdownTimeout:  defaultShutdownTimeout,
		LogLevel:         defaultLogLevel,
	}
}

// Sanitize replaces unset or invalid values with defaults and normalizes the
// origin allow-list.
func (c Config) Sanitize() Config {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if !strings.Contains(c.Port, ":") {
		c.Port = ":" + c.Port
	}

	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}

	if c.RateLimit.Burst < 0 {
		c.RateLimit.Burst = 0
	}
	if c.RateLimit.Burst > 0 && c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = time.Second
	}

	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = defaultPongTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	c.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	return c
}

// PingPeriod is how often keep-alive pings are sent. It must stay below
// PongTimeout.
func (c Config) PingPeriod() time.Duration {
	return (c.PongTimeout * 9) / 10
}

// LoadConfig reads the optional dotenv files (".env" when none are given),
// then the process environment, on top of DefaultConfig.
func LoadConfig(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading dotenv: %w", err)
	}

	var e environment
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	return e.apply(DefaultConfig()).Sanitize(), nil
}

func (e environment) apply(cfg Config) Config {
	if e.Port != "" {
		cfg.Port = e.Port
	}
	if e.AllowedOrigins != "" {
		cfg.AllowedOrigins = parseOrigins(e.AllowedOrigins)
	}
	if e.MaxMessageSize > 0 {
		cfg.MaxMessageSize = int64(e.MaxMessageSize)
	}
	if e.RateLimitBurst > 0 {
		cfg.RateLimit.Burst = e.RateLimitBurst
	}
	if e.RateLimitRefillInterval > 0 {
		cfg.RateLimit.RefillInterval = e.RateLimitRefillInterval
	}
	if e.WriteTimeout > 0 {
		cfg.WriteTimeout = e.WriteTimeout
	}
	if e.PongTimeout > 0 {
		cfg.PongTimeout = e.PongTimeout
	}
	if e.HandshakeTimeout > 0 {
		cfg.HandshakeTimeout = e.HandshakeTimeout
	}
	if e.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = e.ShutdownTimeout
	}
	if e.LogLevel != "" {
		cfg.LogLevel = strings.ToUpper(e.LogLevel)
	}
	return cfg
}

func parseOrigins(origins string) []string {
	parts := lo.Map(strings.Split(origins, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Compact(parts)
}

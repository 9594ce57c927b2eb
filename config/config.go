// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server settings
type Config struct {
	Addr           string        `env:"SHARED_CART_ADDR" envDefault:":8080"`
	GracePeriod    time.Duration `env:"SHARED_CART_GRACE_PERIOD" envDefault:"11s"`
	RedirectDelay  time.Duration `env:"SHARED_CART_REDIRECT_DELAY" envDefault:"100ms"`
	TeardownDelay  time.Duration `env:"SHARED_CART_TEARDOWN_DELAY" envDefault:"500ms"`
	EmptyRoomTTL   time.Duration `env:"SHARED_CART_EMPTY_ROOM_TTL" envDefault:"30m"`
	CleanupEvery   time.Duration `env:"SHARED_CART_CLEANUP_INTERVAL" envDefault:"5m"`
	RoomIDLength   int           `env:"SHARED_CART_ROOM_ID_LENGTH" envDefault:"5"`
	PingInterval   time.Duration `env:"SHARED_CART_PING_INTERVAL" envDefault:"15s"`
	SendBuffer     int           `env:"SHARED_CART_SEND_BUFFER" envDefault:"16"`
	RequestTimeout time.Duration `env:"SHARED_CART_REQUEST_TIMEOUT" envDefault:"5s"`
	GinMode        string        `env:"GIN_MODE" envDefault:"release"`
}

// Load parses the environment into a validated Config
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable together
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: address is required")
	}
	if c.GracePeriod <= 0 {
		return errors.New("config: grace period must be positive")
	}
	if c.RedirectDelay <= 0 {
		return errors.New("config: redirect delay must be positive")
	}
	if c.TeardownDelay <= c.RedirectDelay {
		return fmt.Errorf("config: teardown delay %v must exceed redirect delay %v", c.TeardownDelay, c.RedirectDelay)
	}
	if c.EmptyRoomTTL <= c.GracePeriod {
		return fmt.Errorf("config: empty room ttl %v must exceed grace period %v", c.EmptyRoomTTL, c.GracePeriod)
	}
	if c.CleanupEvery <= 0 {
		return errors.New("config: cleanup interval must be positive")
	}
	if c.RoomIDLength < 1 || c.RoomIDLength > 32 {
		return fmt.Errorf("config: room id length %d out of range 1-32", c.RoomIDLength)
	}
	if c.PingInterval <= 0 {
		return errors.New("config: ping interval must be positive")
	}
	if c.SendBuffer < 1 {
		return errors.New("config: send buffer must be at least 1")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("config: request timeout must be positive")
	}
	return nil
}

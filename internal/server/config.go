// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the relay.
package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Tyrowin/relaychat/internal/protocol"
)

// DefaultAddress is the IPv4 address the relay listens on by default.
const DefaultAddress = "0.0.0.0:2000"

// RateLimitConfig defines the parameters for per-session message rate limiting.
// A Burst of 0 disables limiting.
type RateLimitConfig struct {
	Burst          int           `toml:"burst"`
	RefillInterval time.Duration `toml:"refill_interval"`
}

// WebSocketConfig configures the optional WebSocket gateway. An empty Address
// leaves the gateway off.
type WebSocketConfig struct {
	Address        string   `toml:"address"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Config holds the relay configuration.
type Config struct {
	// Address is the TCP (IPv4) address of the line protocol listener.
	Address string `toml:"address"`
	// MaxClients bounds the number of simultaneous client sessions.
	MaxClients int `toml:"max_clients"`
	// MaxMessageSize bounds inbound lines and outbound frames, in bytes.
	MaxMessageSize int `toml:"max_message_size"`
	// WriteTimeout bounds a single write to a client.
	WriteTimeout time.Duration `toml:"write_timeout"`

	RateLimit RateLimitConfig `toml:"rate_limit"`
	WebSocket WebSocketConfig `toml:"websocket"`
}

// DefaultConfig returns a Config populated with default values for all settings.
func DefaultConfig() Config {
	return Config{
		Address:        DefaultAddress,
		MaxClients:     DefaultMaxClients,
		MaxMessageSize: protocol.DefaultMaxLineLength,
		WriteTimeout:   10 * time.Second,
		RateLimit: RateLimitConfig{
			Burst:          20,
			RefillInterval: time.Second,
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: []string{
				"http://localhost:8080",
			},
		},
	}
}

// Sanitize replaces invalid values with their defaults.
func (c Config) Sanitize() Config {
	def := DefaultConfig()

	if strings.TrimSpace(c.Address) == "" {
		c.Address = def.Address
	}

	if c.MaxClients <= 0 {
		c.MaxClients = def.MaxClients
	}

	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}

	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}

	if c.RateLimit.Burst < 0 {
		c.RateLimit.Burst = def.RateLimit.Burst
	}

	if c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = def.RateLimit.RefillInterval
	}

	c.WebSocket.Address = strings.TrimSpace(c.WebSocket.Address)
	c.WebSocket.AllowedOrigins = append([]string(nil), c.WebSocket.AllowedOrigins...)
	return c
}

// LoadConfigFile decodes the TOML file at path over cfg. Keys missing from the
// file keep their current values.
func LoadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file %q: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("decode config file %q: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with the environment variables found through getenv.
// Unparsable values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if addr := getenv("CHAT_ADDRESS"); addr != "" {
		c.Address = addr
	}

	if clients := getenv("CHAT_MAX_CLIENTS"); clients != "" {
		c.MaxClients = parseIntValue(clients, c.MaxClients)
	}

	if size := getenv("CHAT_MAX_MESSAGE_SIZE"); size != "" {
		c.MaxMessageSize = parseIntValue(size, c.MaxMessageSize)
	}

	if timeout := getenv("CHAT_WRITE_TIMEOUT"); timeout != "" {
		c.WriteTimeout = parseDuration(timeout, c.WriteTimeout)
	}

	if burst := getenv("RATE_LIMIT_BURST"); burst != "" {
		c.RateLimit.Burst = parseBurst(burst, c.RateLimit.Burst)
	}

	if interval := getenv("RATE_LIMIT_REFILL_INTERVAL"); interval != "" {
		c.RateLimit.RefillInterval = parseRefillInterval(interval, c.RateLimit.RefillInterval)
	}

	if addr := getenv("WS_ADDRESS"); addr != "" {
		c.WebSocket.Address = addr
	}

	if origins := getenv("ALLOWED_ORIGINS"); origins != "" {
		c.WebSocket.AllowedOrigins = parseOrigins(origins)
	}
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseBurst(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
		return parsed
	}
	return defaultValue
}

// parseDuration accepts Go duration strings ("10s") or whole seconds ("10").
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func parseRefillInterval(value string, defaultValue time.Duration) time.Duration {
	return parseDuration(value, defaultValue)
}

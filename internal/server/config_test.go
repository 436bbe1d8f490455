package server

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

// envMap builds a getenv function over a fixed set of variables.
func envMap(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

// TestDefaultConfig verifies the documented defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Address != "0.0.0.0:2000" {
		t.Errorf("Expected default address 0.0.0.0:2000, got %s", cfg.Address)
	}
	if cfg.MaxClients != 10 {
		t.Errorf("Expected 10 max clients, got %d", cfg.MaxClients)
	}
	if cfg.MaxMessageSize != 1023 {
		t.Errorf("Expected max message size 1023, got %d", cfg.MaxMessageSize)
	}
	if cfg.WebSocket.Address != "" {
		t.Errorf("Expected WebSocket gateway disabled by default, got %q", cfg.WebSocket.Address)
	}
}

// TestApplyEnv verifies that environment variables override defaults.
func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(envMap(map[string]string{
		"CHAT_ADDRESS":               "127.0.0.1:3000",
		"CHAT_MAX_CLIENTS":           "4",
		"CHAT_MAX_MESSAGE_SIZE":      "256",
		"CHAT_WRITE_TIMEOUT":         "3s",
		"RATE_LIMIT_BURST":           "0",
		"RATE_LIMIT_REFILL_INTERVAL": "5",
		"WS_ADDRESS":                 ":8080",
		"ALLOWED_ORIGINS":            "http://a.example, https://b.example",
	}))

	if cfg.Address != "127.0.0.1:3000" {
		t.Errorf("Expected address override, got %s", cfg.Address)
	}
	if cfg.MaxClients != 4 {
		t.Errorf("Expected 4 max clients, got %d", cfg.MaxClients)
	}
	if cfg.MaxMessageSize != 256 {
		t.Errorf("Expected max message size 256, got %d", cfg.MaxMessageSize)
	}
	if cfg.WriteTimeout != 3*time.Second {
		t.Errorf("Expected write timeout 3s, got %v", cfg.WriteTimeout)
	}
	if cfg.RateLimit.Burst != 0 {
		t.Errorf("Expected rate limiting disabled, got burst %d", cfg.RateLimit.Burst)
	}
	if cfg.RateLimit.RefillInterval != 5*time.Second {
		t.Errorf("Expected refill interval 5s, got %v", cfg.RateLimit.RefillInterval)
	}
	if cfg.WebSocket.Address != ":8080" {
		t.Errorf("Expected WebSocket address :8080, got %q", cfg.WebSocket.Address)
	}
	if want := []string{"http://a.example", "https://b.example"}; !slices.Equal(cfg.WebSocket.AllowedOrigins, want) {
		t.Errorf("Expected origins %v, got %v", want, cfg.WebSocket.AllowedOrigins)
	}
}

// TestApplyEnvIgnoresInvalid verifies that unparsable values keep the current settings.
func TestApplyEnvIgnoresInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(envMap(map[string]string{
		"CHAT_MAX_CLIENTS":           "-3",
		"CHAT_MAX_MESSAGE_SIZE":      "lots",
		"CHAT_WRITE_TIMEOUT":         "never",
		"RATE_LIMIT_BURST":           "-1",
		"RATE_LIMIT_REFILL_INTERVAL": "0",
	}))

	def := DefaultConfig()
	if cfg.MaxClients != def.MaxClients {
		t.Errorf("Expected max clients %d, got %d", def.MaxClients, cfg.MaxClients)
	}
	if cfg.MaxMessageSize != def.MaxMessageSize {
		t.Errorf("Expected max message size %d, got %d", def.MaxMessageSize, cfg.MaxMessageSize)
	}
	if cfg.WriteTimeout != def.WriteTimeout {
		t.Errorf("Expected write timeout %v, got %v", def.WriteTimeout, cfg.WriteTimeout)
	}
	if cfg.RateLimit != def.RateLimit {
		t.Errorf("Expected rate limit %+v, got %+v", def.RateLimit, cfg.RateLimit)
	}
}

// TestSanitize verifies that invalid values fall back to defaults while a zero
// burst stays as the switch that disables rate limiting.
func TestSanitize(t *testing.T) {
	cfg := Config{
		Address:        "  ",
		MaxClients:     -1,
		MaxMessageSize: 0,
		RateLimit:      RateLimitConfig{Burst: 0},
		WebSocket:      WebSocketConfig{Address: " :9000 "},
	}.Sanitize()

	def := DefaultConfig()
	if cfg.Address != def.Address {
		t.Errorf("Expected default address, got %q", cfg.Address)
	}
	if cfg.MaxClients != def.MaxClients {
		t.Errorf("Expected default max clients, got %d", cfg.MaxClients)
	}
	if cfg.MaxMessageSize != def.MaxMessageSize {
		t.Errorf("Expected default max message size, got %d", cfg.MaxMessageSize)
	}
	if cfg.WriteTimeout != def.WriteTimeout {
		t.Errorf("Expected default write timeout, got %v", cfg.WriteTimeout)
	}
	if cfg.RateLimit.Burst != 0 {
		t.Errorf("Expected burst 0 to be kept, got %d", cfg.RateLimit.Burst)
	}
	if cfg.RateLimit.RefillInterval != def.RateLimit.RefillInterval {
		t.Errorf("Expected default refill interval, got %v", cfg.RateLimit.RefillInterval)
	}
	if cfg.WebSocket.Address != ":9000" {
		t.Errorf("Expected trimmed WebSocket address, got %q", cfg.WebSocket.Address)
	}

	if got := (Config{RateLimit: RateLimitConfig{Burst: -5}}).Sanitize().RateLimit.Burst; got != def.RateLimit.Burst {
		t.Errorf("Expected negative burst to reset to %d, got %d", def.RateLimit.Burst, got)
	}
}

// TestLoadConfigFile verifies TOML decoding over existing values.
func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.toml")
	content := `
address = "127.0.0.1:4000"
max_clients = 3

[rate_limit]
burst = 5

[websocket]
address = ":8081"
allowed_origins = ["*"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg := DefaultConfig()
	if err := LoadConfigFile(path, &cfg); err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if cfg.Address != "127.0.0.1:4000" {
		t.Errorf("Expected address from file, got %s", cfg.Address)
	}
	if cfg.MaxClients != 3 {
		t.Errorf("Expected 3 max clients, got %d", cfg.MaxClients)
	}
	if cfg.RateLimit.Burst != 5 {
		t.Errorf("Expected burst 5, got %d", cfg.RateLimit.Burst)
	}
	if cfg.RateLimit.RefillInterval != time.Second {
		t.Errorf("Expected refill interval to keep its default, got %v", cfg.RateLimit.RefillInterval)
	}
	if cfg.MaxMessageSize != 1023 {
		t.Errorf("Expected max message size to keep its default, got %d", cfg.MaxMessageSize)
	}
	if cfg.WebSocket.Address != ":8081" || !slices.Equal(cfg.WebSocket.AllowedOrigins, []string{"*"}) {
		t.Errorf("Unexpected WebSocket settings %+v", cfg.WebSocket)
	}
}

// TestLoadConfigFileErrors verifies that missing and malformed files are reported.
func TestLoadConfigFileErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()

	if err := LoadConfigFile(filepath.Join(dir, "missing.toml"), &cfg); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("max_clients = \"many\""), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if err := LoadConfigFile(bad, &cfg); err == nil {
		t.Error("Expected error for malformed file")
	}
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// NullIDPolicy names the handling of a server response whose id is null.
// The LSP specification allows a null response id and leaves the routing
// question open; with one client per process the message simply flows
// through, so only "drop" is meaningful today. "broadcast" is reserved for
// a future shared-instance mode and is rejected until that exists.
type NullIDPolicy string

const (
	NullIDDrop      NullIDPolicy = "drop"
	NullIDBroadcast NullIDPolicy = "broadcast"
)

// Config is the daemon runtime configuration.
type Config struct {
	// ListenAddr is the relay listener, all interfaces by default.
	ListenAddr string
	// AdminAddr hosts /health, /metrics and /instances when non-empty.
	AdminAddr string
	// ServerPath is the language server binary to spawn per connection.
	// Handshake args are appended to it verbatim.
	ServerPath string
	// NullIDResponses must be "drop" until instance sharing exists.
	NullIDResponses NullIDPolicy
	// CorsOrigins applies to the admin surface only.
	CorsOrigins []string
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:      "0.0.0.0:27631",
		AdminAddr:       "",
		ServerPath:      "rust-analyzer",
		NullIDResponses: NullIDDrop,
	}
}

type fileConfig struct {
	ListenAddr      string   `toml:"listen_addr"`
	AdminAddr       string   `toml:"admin_addr"`
	ServerPath      string   `toml:"server_path"`
	NullIDResponses string   `toml:"null_id_responses"`
	CorsOrigins     []string `toml:"cors_origins"`
}

// Load reads path over the defaults; absent keys keep their default value.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("server_path") {
		cfg.ServerPath = strings.TrimSpace(raw.ServerPath)
	}
	if meta.IsDefined("null_id_responses") {
		cfg.NullIDResponses = NullIDPolicy(strings.TrimSpace(raw.NullIDResponses))
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but tolerates a missing file.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(path)
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return fmt.Errorf("config missing listen_addr")
	}
	if strings.TrimSpace(cfg.ServerPath) == "" {
		return fmt.Errorf("config missing server_path")
	}
	switch cfg.NullIDResponses {
	case NullIDDrop:
	case NullIDBroadcast:
		return fmt.Errorf("null_id_responses %q requires instance sharing, which is not implemented", cfg.NullIDResponses)
	default:
		return fmt.Errorf("null_id_responses must be %q or %q", NullIDDrop, NullIDBroadcast)
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lspmux.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenKeysAbsent(t *testing.T) {
	cfg, err := Load(writeConfig(t, `admin_addr = "127.0.0.1:9100"`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:27631" {
		t.Fatalf("listen_addr default lost: %q", cfg.ListenAddr)
	}
	if cfg.ServerPath != "rust-analyzer" {
		t.Fatalf("server_path default lost: %q", cfg.ServerPath)
	}
	if cfg.AdminAddr != "127.0.0.1:9100" {
		t.Fatalf("admin_addr override lost: %q", cfg.AdminAddr)
	}
	if cfg.NullIDResponses != NullIDDrop {
		t.Fatalf("null_id_responses default lost: %q", cfg.NullIDResponses)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
listen_addr = "127.0.0.1:9999"
server_path = "gopls"
cors_origins = ["http://localhost:3000"]
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9999" || cfg.ServerPath != "gopls" {
		t.Fatalf("overrides lost: %+v", cfg)
	}
	if len(cfg.CorsOrigins) != 1 {
		t.Fatalf("cors_origins lost: %+v", cfg.CorsOrigins)
	}
}

func TestLoadRejectsBroadcastPolicy(t *testing.T) {
	_, err := Load(writeConfig(t, `null_id_responses = "broadcast"`))
	if err == nil || !strings.Contains(err.Error(), "instance sharing") {
		t.Fatalf("expected broadcast rejection, got %v", err)
	}
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	_, err := Load(writeConfig(t, `null_id_responses = "mirror"`))
	if err == nil {
		t.Fatalf("expected unknown policy rejection")
	}
}

func TestLoadRejectsEmptyServerPath(t *testing.T) {
	_, err := Load(writeConfig(t, `server_path = "  "`))
	if err == nil {
		t.Fatalf("expected empty server_path rejection")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load or default: %v", err)
	}
	if cfg.ListenAddr != DefaultConfig().ListenAddr {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

// chdir switches into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(newTestLogger(), "does-not-exist")
	if err != nil {
		t.Fatalf("Load with missing file should fall back to defaults: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("server.address = %q, want :8080", cfg.Server.Address)
	}
	if cfg.Server.Auth.Enabled {
		t.Error("auth should be disabled by default")
	}
	if cfg.Server.ConnectionLimit.MaxPerIP != 0 {
		t.Errorf("connectionLimit.maxPerIP = %d, want 0 (disabled)", cfg.Server.ConnectionLimit.MaxPerIP)
	}
	if cfg.Transport.ReadTimeout != 300*time.Second {
		t.Errorf("transport.readTimeout = %v, want 300s", cfg.Transport.ReadTimeout)
	}
	if cfg.Transport.SendBuffer != 256 {
		t.Errorf("transport.sendBuffer = %d, want 256", cfg.Transport.SendBuffer)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("store.driver = %q, want memory", cfg.Store.Driver)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
  auth:
    enabled: true
    jwtSecret: "sssh"
  connectionLimit:
    maxPerIP: 4
    mode: "cycle"
transport:
  readTimeout: "45s"
store:
  driver: "memory"
logging:
  level: "debug"
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, err := Load(newTestLogger(), "config")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Address != ":9090" {
		t.Errorf("server.address = %q, want :9090", cfg.Server.Address)
	}
	if !cfg.Server.Auth.Enabled || cfg.Server.Auth.JWTSecret != "sssh" {
		t.Errorf("unexpected auth config: %+v", cfg.Server.Auth)
	}
	if cfg.Server.ConnectionLimit.MaxPerIP != 4 || cfg.Server.ConnectionLimit.Mode != "cycle" {
		t.Errorf("unexpected connection limit config: %+v", cfg.Server.ConnectionLimit)
	}
	if cfg.Transport.ReadTimeout != 45*time.Second {
		t.Errorf("transport.readTimeout = %v, want 45s", cfg.Transport.ReadTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
	// Values absent from the file keep their defaults.
	if cfg.Transport.SendBuffer != 256 {
		t.Errorf("transport.sendBuffer = %d, want default 256", cfg.Transport.SendBuffer)
	}
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(map[string]string{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 8000 {
		t.Fatalf("unexpected listen defaults %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.DBName != "harvest.db" {
		t.Fatalf("expected default db name, got %q", cfg.DBName)
	}
	if cfg.Provider.Timeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %s", cfg.Provider.Timeout)
	}
	if cfg.Provider.RefreshInterval != 0 {
		t.Fatalf("expected refresh disabled, got %s", cfg.Provider.RefreshInterval)
	}
	if cfg.UsesRemoteProvider() {
		t.Fatalf("expected local provider by default")
	}
	if cfg.Addr() != "127.0.0.1:8000" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
}

func TestParsePrefixedEnv(t *testing.T) {
	cfg, err := Parse(map[string]string{
		"TAX_HARVEST_PORT":             "9090",
		"TAX_HARVEST_LOG_LEVEL":        "debug",
		"TAX_HARVEST_LOG_FORMAT":       "json",
		"TAX_HARVEST_PROVIDER_URL":     "http://localhost:3000",
		"TAX_HARVEST_PROVIDER_TIMEOUT": "3s",
		"TAX_HARVEST_REFRESH_INTERVAL": "1m",
		"PORT":                         "1",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.LogLevel())
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Log.Format)
	}
	if !cfg.UsesRemoteProvider() {
		t.Fatalf("expected remote provider")
	}
	if cfg.Provider.Timeout != 3*time.Second || cfg.Provider.RefreshInterval != time.Minute {
		t.Fatalf("unexpected durations %+v", cfg.Provider)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"port":     {"TAX_HARVEST_PORT": "70000"},
		"timeout":  {"TAX_HARVEST_PROVIDER_TIMEOUT": "0s"},
		"interval": {"TAX_HARVEST_REFRESH_INTERVAL": "-1s"},
		"url":      {"TAX_HARVEST_PROVIDER_URL": "ftp://example.com"},
		"type":     {"TAX_HARVEST_PORT": "abc"},
	}
	for name, environ := range cases {
		if _, err := Parse(environ); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("TAX_HARVEST_PORT=8123\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("TAX_HARVEST_PORT", "")
	os.Unsetenv("TAX_HARVEST_PORT")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8123 {
		t.Fatalf("expected port from .env, got %d", cfg.Port)
	}
}

func TestLoadMissingDotEnv(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := &Config{Log: Log{Level: in}}
		if got := cfg.LogLevel(); got != want {
			t.Fatalf("level %q: expected %v, got %v", in, want, got)
		}
	}
}

func TestResolveDataDirAndDBPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	cfg := &Config{DataDir: dir, DBName: "x.db"}

	got, err := cfg.ResolveDataDir()
	if err != nil {
		t.Fatalf("ResolveDataDir: %v", err)
	}
	if got != dir {
		t.Fatalf("expected %q, got %q", dir, got)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected data dir to be created: %v", err)
	}

	path, err := cfg.ResolveDBPath()
	if err != nil {
		t.Fatalf("ResolveDBPath: %v", err)
	}
	if path != filepath.Join(dir, "x.db") {
		t.Fatalf("unexpected db path %q", path)
	}

	cfg.DBName = "  "
	path, err = cfg.ResolveDBPath()
	if err != nil {
		t.Fatalf("ResolveDBPath: %v", err)
	}
	if path != filepath.Join(dir, defaultDBName) {
		t.Fatalf("expected default name, got %q", path)
	}

	cfg.DBPath = "/tmp/explicit.db"
	path, _ = cfg.ResolveDBPath()
	if path != "/tmp/explicit.db" {
		t.Fatalf("expected explicit db path, got %q", path)
	}
}

func TestResolveDataDirDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))

	dir, err := (&Config{}).ResolveDataDir()
	if err != nil {
		t.Fatalf("ResolveDataDir: %v", err)
	}
	var want string
	switch {
	case IsMacOS():
		want = filepath.Join(home, "Library", "Application Support", "TaxHarvest")
	case IsWindows():
		want = filepath.Join(home, "AppData", "TaxHarvest")
	default:
		want = filepath.Join(home, ".config", "taxharvest")
	}
	if dir != want {
		t.Fatalf("expected %q, got %q", want, dir)
	}
}

func TestIsMacOSWindows(t *testing.T) {
	if IsMacOS() != (runtime.GOOS == "darwin") {
		t.Fatalf("IsMacOS mismatch")
	}
	if IsWindows() != (runtime.GOOS == "windows") {
		t.Fatalf("IsWindows mismatch")
	}
}

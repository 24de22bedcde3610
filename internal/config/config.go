package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "TAX_HARVEST_"

const defaultDBName = "harvest.db"

// Config holds server settings. Values come from the environment (optionally
// seeded from a .env file); command-line flags override them in cmd/server.
type Config struct {
	Host    string `env:"HOST" envDefault:"127.0.0.1"`
	Port    int    `env:"PORT" envDefault:"8000"`
	DataDir string `env:"DATA_DIR"`
	DBName  string `env:"DB_NAME" envDefault:"harvest.db"`
	DBPath  string `env:"DB_PATH"`
	WebDir  string `env:"WEB_DIR"`

	Log      Log
	Provider Provider
}

// Log configures the slog handler.
type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Provider selects where holdings and capital gains come from. An empty
// BaseURL means the bundled sqlite repository.
type Provider struct {
	BaseURL         string        `env:"PROVIDER_URL"`
	Timeout         time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	Debug           bool          `env:"PROVIDER_DEBUG"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"0s"`
}

// Load reads envFile (if present) into the process environment and parses
// the prefixed variables.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return parse(env.Options{Prefix: EnvPrefix})
}

// Parse reads settings from environ instead of the process environment.
func Parse(environ map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	// Port 0 asks the OS for a free port.
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Provider.Timeout <= 0 {
		return errors.New("provider timeout must be positive")
	}
	if c.Provider.RefreshInterval < 0 {
		return errors.New("refresh interval must not be negative")
	}
	if c.Provider.BaseURL != "" &&
		!strings.HasPrefix(c.Provider.BaseURL, "http://") &&
		!strings.HasPrefix(c.Provider.BaseURL, "https://") {
		return fmt.Errorf("provider url %q must be http(s)", c.Provider.BaseURL)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogLevel maps the configured level name to a slog.Level.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// UsesRemoteProvider reports whether data is fetched over HTTP.
func (c *Config) UsesRemoteProvider() bool {
	return c.Provider.BaseURL != ""
}

func IsMacOS() bool {
	return runtime.GOOS == "darwin"
}

func IsWindows() bool {
	return runtime.GOOS == "windows"
}

func appConfigDir() (string, error) {
	if IsMacOS() {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "TaxHarvest"), nil
	}
	if IsWindows() {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "TaxHarvest"), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "taxharvest"), nil
	}
	return filepath.Join(configDir, "taxharvest"), nil
}

// ResolveDataDir returns the data directory, creating it if needed. The
// configured DataDir wins; otherwise the per-user config directory is used.
func (c *Config) ResolveDataDir() (string, error) {
	dir := c.DataDir
	if dir == "" {
		defaultDir, err := appConfigDir()
		if err != nil {
			return "", err
		}
		dir = defaultDir
	}
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// ResolveDBPath returns the sqlite path: DBPath when set, else DBName inside
// the data directory.
func (c *Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	dataDir, err := c.ResolveDataDir()
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(c.DBName)
	if name == "" {
		name = defaultDBName
	}
	return filepath.Join(dataDir, name), nil
}

package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	apperrors "github.com/gmsas95/medremind/internal/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for medremind
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`

	v               *viper.Viper
	path            string
	secretGenerated bool
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
	BadgerPath string `mapstructure:"badger_path"`
}

// EngineConfig tunes reminder scheduling and escalation
type EngineConfig struct {
	Timezone        string        `mapstructure:"timezone"`
	SnoozeDelay     time.Duration `mapstructure:"snooze_delay"`
	RefreshSchedule string        `mapstructure:"refresh_schedule"`
	MissThreshold   int           `mapstructure:"miss_threshold"`
}

// AuthConfig holds the single-user login settings
type AuthConfig struct {
	Email      string        `mapstructure:"email"`
	Password   string        `mapstructure:"password"`
	Name       string        `mapstructure:"name"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	LoginDelay time.Duration `mapstructure:"login_delay"`
}

// SecurityConfig holds HTTP hardening settings
type SecurityConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
	RateLimit    float64  `mapstructure:"rate_limit"`
	RateBurst    int      `mapstructure:"rate_burst"`
}

// LogConfig selects the zap level and encoder
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.SetDefault("storage.data_dir", dataDir)
	v.SetDefault("storage.sqlite_path", filepath.Join(dataDir, "medremind.db"))
	v.SetDefault("storage.badger_path", filepath.Join(dataDir, "badger"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "medremind.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		configPath = ""
	}

	// Environment variables (MEDREMIND_SERVER_PORT, MEDREMIND_ENGINE_SNOOZE_DELAY, etc.)
	v.SetEnvPrefix("MEDREMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.v = v
	cfg.path = configPath
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("engine.timezone", "Local")
	v.SetDefault("engine.snooze_delay", "10m")
	v.SetDefault("engine.refresh_schedule", "@every 1m")
	v.SetDefault("engine.miss_threshold", 2)

	v.SetDefault("auth.email", "user@example.com")
	v.SetDefault("auth.password", "password123")
	v.SetDefault("auth.name", "Demo User")
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("auth.login_delay", "1s")

	v.SetDefault("security.allow_origins", []string{"*"})
	v.SetDefault("security.rate_limit", 20.0)
	v.SetDefault("security.rate_burst", 40)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "medremind")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "medremind")
}

// loadEnvOverrides applies the short env aliases viper does not know about
func loadEnvOverrides(cfg *Config) {
	if secret := ResolveEnvWithAliases("MEDREMIND_AUTH_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if pw := ResolveEnvWithAliases("MEDREMIND_AUTH_PASSWORD"); pw != "" {
		cfg.Auth.Password = pw
	}
	cfg.Storage.DataDir = GetEnvDefault("MEDREMIND_DATA_DIR", cfg.Storage.DataDir)
}

func validate(cfg *Config) error {
	if cfg.Engine.SnoozeDelay <= 0 {
		return apperrors.New(apperrors.ErrConfigInvalid.Code, "engine.snooze_delay must be positive")
	}
	if cfg.Engine.MissThreshold < 1 {
		return apperrors.New(apperrors.ErrConfigInvalid.Code, "engine.miss_threshold must be at least 1")
	}
	if _, err := cron.ParseStandard(cfg.Engine.RefreshSchedule); err != nil {
		return apperrors.New(apperrors.ErrConfigInvalid.Code, "engine.refresh_schedule is not a valid schedule", err)
	}
	if _, err := cfg.Location(); err != nil {
		return apperrors.New(apperrors.ErrConfigInvalid.Code, "engine.timezone is unknown", err)
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = generateSecret(32)
		cfg.secretGenerated = true
	}

	return nil
}

func generateSecret(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return strings.Repeat("x", n*2)
	}
	return hex.EncodeToString(b)
}

// Location resolves the engine's calendar timezone
func (c *Config) Location() (*time.Location, error) {
	switch c.Engine.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	return time.LoadLocation(c.Engine.Timezone)
}

// SecretGenerated reports whether auth.jwt_secret was unset and a random
// secret was generated for this process
func (c *Config) SecretGenerated() bool {
	return c.secretGenerated
}

// Path returns the config file in use, or "" when running on defaults
func (c *Config) Path() string {
	return c.path
}

// OnChange watches the config file and calls fn with the re-decoded config
// after each write. Invalid edits are reported through onError and ignored.
func (c *Config) OnChange(fn func(*Config), onError func(error)) {
	if c.v == nil || c.path == "" {
		return
	}

	var mu sync.Mutex
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		mu.Lock()
		defer mu.Unlock()

		next, err := decode(c.v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		next.v = c.v
		next.path = c.path
		fn(next)
	})
	c.v.WatchConfig()
}

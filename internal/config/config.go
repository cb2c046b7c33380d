package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"esferas/internal/models"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Session    SessionConfig    `yaml:"session"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Notify     NotifyConfig     `yaml:"notify"`
	Admin      AdminConfig      `yaml:"admin"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port              int             `yaml:"port"`
	StaticDir         string          `yaml:"static_dir"`
	MaxBodyBytes      int64           `yaml:"max_body_bytes"`
	ReadHeaderTimeout time.Duration   `yaml:"read_header_timeout"`
	WriteTimeout      time.Duration   `yaml:"write_timeout"`
	RateLimit         RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type SessionConfig struct {
	Backend string `yaml:"backend"`
	// TTL of zero keeps sessions until logout or restart.
	TTL time.Duration `yaml:"ttl"`
}

type StorageConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type NotifyConfig struct {
	OwnerEmail  string         `yaml:"owner_email"`
	LogPath     string         `yaml:"log_path"`
	InviteDir   string         `yaml:"invite_dir"`
	Location    string         `yaml:"location"`
	InviteTitle string         `yaml:"invite_title"`
	Telegram    TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// Enabled reports whether owner notifications are forwarded to Telegram.
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

type AdminConfig struct {
	HeaderAPIKey string        `yaml:"header_api_key"`
	APIKeys      []AdminAPIKey `yaml:"api_keys"`
}

type AdminAPIKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// envOverrides are applied on top of the YAML file.
type envOverrides struct {
	Port       int           `envconfig:"PORT"`
	OwnerEmail string        `envconfig:"OWNER_EMAIL"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL"`
	RedisAddr  string        `envconfig:"REDIS_ADDR"`
}

// Load reads the YAML config at configPath (skipped when empty), applies
// environment overrides and defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var config Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		expandedData := []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(expandedData, &config); err != nil {
			return nil, err
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	if env.OwnerEmail != "" {
		c.Notify.OwnerEmail = env.OwnerEmail
	}
	if env.SessionTTL != 0 {
		c.Session.TTL = env.SessionTTL
	}
	if env.RedisAddr != "" {
		c.Redis.Address = env.RedisAddr
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	if c.Session.TTL < 0 {
		return errors.New("session.ttl must not be negative")
	}

	switch c.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Address == "" {
			return errors.New("session.backend=redis requires redis.address")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.backend=sqlite requires storage.sqlite_path")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if strings.TrimSpace(c.Notify.OwnerEmail) == "" {
		return errors.New("notify.owner_email is required")
	}
	if c.Notify.LogPath == "" {
		return errors.New("notify.log_path is required")
	}

	return ValidateAPIKeys(c.Admin.APIKeys)
}

func ValidateAPIKeys(keys []AdminAPIKey) error {
	seen := make(map[string]bool)
	for _, k := range keys {
		if strings.TrimSpace(k.Key) == "" {
			return fmt.Errorf("admin key '%s' has an empty key", k.Name)
		}
		if seen[k.Key] {
			return fmt.Errorf("duplicate admin key for '%s'", k.Name)
		}
		seen[k.Key] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "esferas"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = models.DefaultMaxBodyBytes
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.RateLimit.RPS > 0 && c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = 5
	}

	if c.Session.Backend == "" {
		c.Session.Backend = BackendMemory
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendMemory
	}
	if c.Storage.Backend == BackendSQLite && c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/esferas.db"
	}

	if c.Notify.OwnerEmail == "" {
		c.Notify.OwnerEmail = models.DefaultOwnerEmail
	}
	if c.Notify.LogPath == "" {
		c.Notify.LogPath = models.DefaultEmailLog
	}
	if c.Notify.InviteDir == "" {
		c.Notify.InviteDir = "."
	}
	if c.Notify.Location == "" {
		c.Notify.Location = models.DefaultLocation
	}
	if c.Notify.InviteTitle == "" {
		c.Notify.InviteTitle = models.DefaultInviteTitle
	}

	if c.Admin.HeaderAPIKey == "" {
		c.Admin.HeaderAPIKey = "x-api-key"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}

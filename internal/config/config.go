// Package config provides configuration management using viper.
// It supports loading from YAML files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Server modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Hub       HubConfig       `mapstructure:"hub"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	Economy   EconomyConfig   `mapstructure:"economy"`
	Session   SessionConfig   `mapstructure:"session"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	StaticDir       string        `mapstructure:"static_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// HubConfig holds websocket fan-out limits.
type HubConfig struct {
	SendQueue       int           `mapstructure:"send_queue"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes"`
}

// SimulatorConfig holds exchange-rate simulation parameters.
type SimulatorConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	HistoryLimit int           `mapstructure:"history_limit"`
	InitialRate  float64       `mapstructure:"initial_rate"`
}

// EconomyConfig holds economic limits.
type EconomyConfig struct {
	GlobalChatLimit  int           `mapstructure:"global_chat_limit"`
	RouletteCooldown time.Duration `mapstructure:"roulette_cooldown"`
}

// SessionConfig holds session token configuration.
type SessionConfig struct {
	Secret      string        `mapstructure:"secret"`
	TTL         time.Duration `mapstructure:"ttl"`
	RequireAuth bool          `mapstructure:"require_auth"`
}

// AdminConfig holds the seeded administrator account.
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// DatabaseConfig holds PostgreSQL connection configuration for the audit archive.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds the optional Redis event mirror configuration.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// IsProduction reports whether static assets should be served from disk.
func (s *ServerConfig) IsProduction() bool {
	return s.Mode == ModeProduction
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	// A missing .env is fine; anything else is worth reporting.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. SERVER_ADDR, SESSION_SECRET, DATABASE_ENABLED
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Server.Mode != ModeDevelopment && c.Server.Mode != ModeProduction {
		return fmt.Errorf("invalid server.mode %q", c.Server.Mode)
	}
	if c.Server.IsProduction() && c.Session.Secret == "" {
		return errors.New("session.secret is required in production mode")
	}
	if c.Simulator.HistoryLimit < 1 {
		return fmt.Errorf("simulator.history_limit must be positive, got %d", c.Simulator.HistoryLimit)
	}
	if c.Simulator.Interval <= 0 {
		return fmt.Errorf("simulator.interval must be positive, got %s", c.Simulator.Interval)
	}
	if c.Hub.SendQueue < 1 {
		return fmt.Errorf("hub.send_queue must be positive, got %d", c.Hub.SendQueue)
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:3000")
	v.SetDefault("server.mode", ModeDevelopment)
	v.SetDefault("server.static_dir", "dist")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")

	v.SetDefault("hub.send_queue", 256)
	v.SetDefault("hub.write_timeout", "10s")
	v.SetDefault("hub.pong_timeout", "60s")
	v.SetDefault("hub.max_message_bytes", 64*1024)

	v.SetDefault("simulator.interval", "8s")
	v.SetDefault("simulator.history_limit", 500)
	v.SetDefault("simulator.initial_rate", 0.01)

	v.SetDefault("economy.global_chat_limit", 100)
	v.SetDefault("economy.roulette_cooldown", "12h")

	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", "168h")
	v.SetDefault("session.require_auth", true)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "12345")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "coinhub")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "coinhub")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "coinhub:events")
}

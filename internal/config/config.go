// Package config loads the service configuration from a YAML file and the
// environment, and holds the domain constants shared by the case engine.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	Environment string         `mapstructure:"environment"`
	ServiceName string         `mapstructure:"service_name"`
	HTTP        HTTPConfig     `mapstructure:"http"`
	Logger      LoggerConfig   `mapstructure:"logger"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Auth        AuthConfig     `mapstructure:"auth"`
	Resolver    ResolverConfig `mapstructure:"resolver"`
	EventBus    EventBusConfig `mapstructure:"eventbus"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LoggerConfig controls zap output and optional file rotation.
type LoggerConfig struct {
	Level    string            `mapstructure:"level"`
	File     string            `mapstructure:"file"`
	Rotation LogRotationConfig `mapstructure:"rotation"`
}

type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	Name         string        `mapstructure:"name"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	ConnLifetime time.Duration `mapstructure:"conn_lifetime"`
}

// DSN renders the lib/pq style connection string used by the gorm postgres driver.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// EventChannel is the pub/sub channel domain events are relayed to.
	EventChannel string `mapstructure:"event_channel"`
	// ProfileTTL bounds how long a resolved profile stays in the cache.
	ProfileTTL time.Duration `mapstructure:"profile_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// ResolverConfig lists the external profile APIs raced during identity resolution.
type ResolverConfig struct {
	Sources        []string      `mapstructure:"sources"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type EventBusConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

// TelegramConfig enables the staff alert relay when Token is set.
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	StaffChatID int64  `mapstructure:"staff_chat_id"`
}

// Load reads configuration from path (optional) and the environment.
// Nested keys map to env vars with "." replaced by "_", e.g. DATABASE_HOST.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for _, key := range []string{
		"database.host", "database.user", "database.password", "database.name",
		"redis.addr", "redis.password", "auth.jwt_secret",
		"telegram.token", "telegram.staff_chat_id",
	} {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// A comma-separated env value arrives as a single element.
	if len(cfg.Resolver.Sources) == 1 && strings.Contains(cfg.Resolver.Sources[0], ",") {
		cfg.Resolver.Sources = strings.Split(cfg.Resolver.Sources[0], ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service_name is required")
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return errors.New("database.host and database.name are required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if len(c.Resolver.Sources) == 0 {
		return errors.New("resolver.sources needs at least one profile API")
	}
	if c.EventBus.QueueSize <= 0 {
		return errors.New("eventbus.queue_size must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("service_name", "cheatreport")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "cheatreportdb")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_lifetime", time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.event_channel", "cases:events")
	v.SetDefault("redis.profile_ttl", 6*time.Hour)

	v.SetDefault("auth.issuer", "cheatreport-service")
	v.SetDefault("auth.token_ttl", 72*time.Hour)

	v.SetDefault("resolver.sources", []string{"http://localhost:9000"})
	v.SetDefault("resolver.request_timeout", 8*time.Second)

	v.SetDefault("eventbus.queue_size", 1024)
}

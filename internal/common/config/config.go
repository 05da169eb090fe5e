// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Dialogue DialogueConfig `mapstructure:"dialogue"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`  // seconds
	WriteTimeout int `mapstructure:"write_timeout"` // seconds
	IdleTimeout  int `mapstructure:"idle_timeout"`  // seconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	Index      string   `mapstructure:"index"`
	Enabled    bool     `mapstructure:"enabled"`
}

// DialogueConfig holds the tuning knobs of the dialogue controller.
type DialogueConfig struct {
	MaxMessageLength int `mapstructure:"max_message_length"`
	TurnRetries      int `mapstructure:"turn_retries"`       // retries on optimistic save conflict
	StoreTimeout     int `mapstructure:"store_timeout"`      // milliseconds, per session store call
	CatalogTimeout   int `mapstructure:"catalog_timeout"`    // milliseconds, per catalog lookup
	SessionTTL       int `mapstructure:"session_ttl"`        // hours before an idle session record expires
	MaxSuggestions   int `mapstructure:"max_suggestions"`
}

// StoreTimeoutDuration returns the per-call session store timeout.
func (d DialogueConfig) StoreTimeoutDuration() time.Duration {
	return time.Duration(d.StoreTimeout) * time.Millisecond
}

// CatalogTimeoutDuration returns the per-call catalog lookup timeout.
func (d DialogueConfig) CatalogTimeoutDuration() time.Duration {
	return time.Duration(d.CatalogTimeout) * time.Millisecond
}

// SessionTTLDuration returns the idle session expiry.
func (d DialogueConfig) SessionTTLDuration() time.Duration {
	return time.Duration(d.SessionTTL) * time.Hour
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Pipeline      PipelineConfig     `mapstructure:"pipeline"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Providers     ProvidersConfig    `mapstructure:"providers"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	APIKey  string `mapstructure:"api_key"`
	// Max accepted multipart size, bytes.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// PipelineConfig holds the orchestration settings.
type PipelineConfig struct {
	StageTimeout int `mapstructure:"stage_timeout"` // milliseconds, per provider call
	RunTimeout   int `mapstructure:"run_timeout"`   // milliseconds, whole run
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
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

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Provider Gateways ---

// ProvidersConfig selects and configures the external verification services.
// Mode "stub" swaps every gateway for its deterministic in-memory variant.
type ProvidersConfig struct {
	Mode string `mapstructure:"mode"` // "live" or "stub"

	Vision struct {
		CredentialsJSON string `mapstructure:"credentials_json"`
	} `mapstructure:"vision"`

	Rekognition struct {
		Region    string  `mapstructure:"region"`
		Threshold float64 `mapstructure:"threshold"`
	} `mapstructure:"rekognition"`

	Registry struct {
		BaseURL  string `mapstructure:"base_url"`
		Timeout  int    `mapstructure:"timeout"`   // milliseconds
		CacheTTL int    `mapstructure:"cache_ttl"` // seconds
	} `mapstructure:"registry"`

	BGC struct {
		CriminalIndex  string `mapstructure:"criminal_index"`
		WatchlistIndex string `mapstructure:"watchlist_index"`
		WarrantIndex   string `mapstructure:"warrant_index"`
	} `mapstructure:"bgc"`
}

// --- Evidence Storage ---

type StorageConfig struct {
	GCS struct {
		Bucket          string `mapstructure:"bucket"`
		CredentialsJSON string `mapstructure:"credentials_json"`
	} `mapstructure:"gcs"`
}

// NotificationConfig holds settings for completion notifications.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

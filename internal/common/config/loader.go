// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, e.g. config.production.yaml
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills credentials from the environment when the YAML
// leaves them blank.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Server.APIKey == "" {
		if val := os.Getenv("PLATFORM_API_KEY"); val != "" {
			cfg.Server.APIKey = val
		}
	}

	if cfg.Providers.Vision.CredentialsJSON == "" {
		if val := os.Getenv("GOOGLE_CREDENTIALS_JSON"); val != "" {
			cfg.Providers.Vision.CredentialsJSON = val
		}
	}
	if cfg.Storage.GCS.CredentialsJSON == "" {
		if val := os.Getenv("GOOGLE_CREDENTIALS_JSON"); val != "" {
			cfg.Storage.GCS.CredentialsJSON = val
		}
	}
	if cfg.Providers.Rekognition.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Providers.Rekognition.Region = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 16 << 20
	}

	if cfg.Pipeline.StageTimeout == 0 {
		cfg.Pipeline.StageTimeout = 30000
	}
	if cfg.Pipeline.RunTimeout == 0 {
		cfg.Pipeline.RunTimeout = 120000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Providers.Mode == "" {
		cfg.Providers.Mode = "stub"
	}
	if cfg.Providers.Rekognition.Threshold == 0 {
		cfg.Providers.Rekognition.Threshold = 0.90
	}
	if cfg.Providers.Registry.BaseURL == "" {
		cfg.Providers.Registry.BaseURL = "https://brasilapi.com.br"
	}
	if cfg.Providers.Registry.Timeout == 0 {
		cfg.Providers.Registry.Timeout = 10000
	}
	if cfg.Providers.Registry.CacheTTL == 0 {
		cfg.Providers.Registry.CacheTTL = 3600
	}
	if cfg.Providers.BGC.CriminalIndex == "" {
		cfg.Providers.BGC.CriminalIndex = "bgc-criminal-records"
	}
	if cfg.Providers.BGC.WatchlistIndex == "" {
		cfg.Providers.BGC.WatchlistIndex = "bgc-watchlists"
	}
	if cfg.Providers.BGC.WarrantIndex == "" {
		cfg.Providers.BGC.WarrantIndex = "bgc-open-warrants"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Providers.Mode != "stub" && cfg.Providers.Mode != "live" {
		return fmt.Errorf("providers.mode must be 'stub' or 'live'")
	}

	if cfg.Providers.Mode == "live" {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
		if len(cfg.Database.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses is required")
		}
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required")
		}
		if cfg.Providers.Rekognition.Region == "" {
			return fmt.Errorf("providers.rekognition.region is required")
		}
	}

	return nil
}

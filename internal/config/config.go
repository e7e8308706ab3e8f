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

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Auth       AuthConfig       `mapstructure:"auth"`
	TMDB       TMDBConfig       `mapstructure:"tmdb"`
	Reclassify ReclassifyConfig `mapstructure:"reclassify"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// MutationsPerMinute caps write requests per caller. Zero disables the limit.
	MutationsPerMinute int `mapstructure:"mutations_per_minute"`
}

// DatabaseConfig holds database configuration for the signed-in store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig holds the location of the anonymous local store.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
	// WatchFile reloads the local watch list when the file is edited outside
	// the server.
	WatchFile bool `mapstructure:"watch_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// AuthConfig holds the secret used to verify caller tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// TMDBConfig holds catalog client configuration.
type TMDBConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Timeout           int     `mapstructure:"timeout"` // seconds
	Region            string  `mapstructure:"region"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	CacheTTLMinutes   int     `mapstructure:"cache_ttl_minutes"`
	// Mock serves an offline catalog instead of calling TMDB.
	Mock bool `mapstructure:"mock"`
}

// ReclassifyConfig controls the scheduled reclassification job.
type ReclassifyConfig struct {
	Cron       string `mapstructure:"cron"`
	BatchSize  int    `mapstructure:"batch_size"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			MutationsPerMinute: 120,
		},
		Database: DatabaseConfig{
			Path: "./data/cinetrack.db",
		},
		Storage: StorageConfig{
			DataDir:   "./data",
			WatchFile: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TMDB: TMDBConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			Timeout:           30,
			Region:            "US",
			RequestsPerSecond: 4,
			CacheTTLMinutes:   15,
		},
		Reclassify: ReclassifyConfig{
			Cron:      "0 */6 * * *",
			BatchSize: 10,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults. A .env file in
// the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.cinetrack")
	}

	v.SetEnvPrefix("CINETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.TMDB.APIKey == "" {
		cfg.TMDB.APIKey = EmbeddedTMDBKey
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mutations_per_minute", d.Server.MutationsPerMinute)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.watch_file", d.Storage.WatchFile)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", d.TMDB.BaseURL)
	v.SetDefault("tmdb.timeout", d.TMDB.Timeout)
	v.SetDefault("tmdb.region", d.TMDB.Region)
	v.SetDefault("tmdb.requests_per_second", d.TMDB.RequestsPerSecond)
	v.SetDefault("tmdb.cache_ttl_minutes", d.TMDB.CacheTTLMinutes)
	v.SetDefault("tmdb.mock", false)

	v.SetDefault("reclassify.cron", d.Reclassify.Cron)
	v.SetDefault("reclassify.batch_size", d.Reclassify.BatchSize)
	v.SetDefault("reclassify.run_on_start", d.Reclassify.RunOnStart)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RequestTimeout returns the catalog HTTP timeout.
func (c *TMDBConfig) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// CacheTTL returns how long catalog responses are cached.
func (c *TMDBConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

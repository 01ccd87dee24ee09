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

// EnvPrefix prefixes every environment override, e.g. AUTOPOST_GRAPH_TIMEOUT
const EnvPrefix = "AUTOPOST"

// Config is the full service configuration
type Config struct {
	Graph     GraphConfig     `mapstructure:"graph"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Generator GeneratorConfig `mapstructure:"generator"`
}

type GraphConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	URL        string `mapstructure:"url"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SSLMode    string `mapstructure:"sslmode"`
	LogQueries bool   `mapstructure:"log_queries"`
}

// RedisConfig enables the duplicate-submission guard when Addr is set
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Window   time.Duration `mapstructure:"window"`
}

// StorageConfig selects where downloaded attachments go: "local" or "s3"
type StorageConfig struct {
	Driver   string `mapstructure:"driver"`
	Dir      string `mapstructure:"dir"`
	BaseURL  string `mapstructure:"base_url"`
	S3Region string `mapstructure:"s3_region"`
	S3Bucket string `mapstructure:"s3_bucket"`
	S3Prefix string `mapstructure:"s3_prefix"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	UploadDir      string   `mapstructure:"upload_dir"`
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	ServiceName  string  `mapstructure:"service_name"`
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type AnalyticsConfig struct {
	DefaultDays int `mapstructure:"default_days"`
}

// GeneratorConfig points at the content generation endpoint; empty URL
// disables post generation
type GeneratorConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("graph.base_url", "https://graph.facebook.com/v20.0/")
	v.SetDefault("graph.timeout", 60*time.Second)
	v.SetDefault("graph.max_retries", 3)
	v.SetDefault("graph.backoff_base", time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "autopost")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.log_queries", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.window", 10*time.Second)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.dir", "storage/app/public")
	v.SetDefault("storage.base_url", "http://localhost:8080/storage")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_prefix", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "autopost.log")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.upload_dir", "storage/uploads")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "autopost")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	v.SetDefault("analytics.default_days", 7)

	v.SetDefault("generator.url", "")
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.timeout", 60*time.Second)
}

// Load reads .env (if present), then the optional TOML file at path, then
// AUTOPOST_* environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return errors.New("storage.s3_bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Graph.MaxRetries < 0 {
		return errors.New("graph.max_retries must not be negative")
	}
	if c.Analytics.DefaultDays <= 0 {
		return errors.New("analytics.default_days must be positive")
	}
	return nil
}

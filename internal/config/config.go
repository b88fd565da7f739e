package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
)

const envPrefix = "SEATBILL"

type Config struct {
	App           AppConfig           `mapstructure:"app"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Billing       BillingConfig       `mapstructure:"billing"`
	Sources       SourcesConfig       `mapstructure:"sources"`
	Audit         AuditConfig         `mapstructure:"audit"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BillingConfig struct {
	DefaultSegmentPrice   float64       `mapstructure:"default_segment_price"`
	UsageOnlySegmentPrice float64       `mapstructure:"usage_only_segment_price"`
	BatchConcurrency      int           `mapstructure:"batch_concurrency"`
	BatchLockTTL          time.Duration `mapstructure:"batch_lock_ttl"`
}

type SourcesConfig struct {
	Dir string `mapstructure:"dir"`
}

// AuditConfig controls run log retention. RetentionDays <= 0 keeps every run.
type AuditConfig struct {
	RetentionDays int           `mapstructure:"retention_days"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

type ObservabilityConfig struct {
	LogLevel     string `mapstructure:"log_level"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPProtocol string `mapstructure:"otlp_protocol"`
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.Env, "development") || strings.EqualFold(c.App.Env, "dev")
}

// Load reads .env, an optional config.yaml and SEATBILL_* environment
// variables, in increasing order of precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "seatbill")
	v.SetDefault("app.env", "production")
	v.SetDefault("app.version", "dev")

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "seatbill.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("billing.default_segment_price", 0.05)
	v.SetDefault("billing.usage_only_segment_price", 5.00)
	v.SetDefault("billing.batch_concurrency", 4)
	v.SetDefault("billing.batch_lock_ttl", 10*time.Minute)

	v.SetDefault("sources.dir", "./data")

	v.SetDefault("audit.retention_days", 730)
	v.SetDefault("audit.prune_interval", time.Hour)

	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.otlp_endpoint", "")
	v.SetDefault("observability.otlp_protocol", "http")
}

func (c Config) validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Billing.BatchConcurrency <= 0 {
		return errors.New("billing.batch_concurrency must be positive")
	}
	if c.Billing.DefaultSegmentPrice < 0 || c.Billing.UsageOnlySegmentPrice < 0 {
		return errors.New("billing segment prices must not be negative")
	}
	return nil
}

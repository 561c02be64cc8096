package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	SourceDB    DBConfig
	WarehouseDB DBConfig
	Redis       RedisConfig
	Aggregation AggregationConfig
	Metrics     MetricsConfig
	Tracing     TracingConfig
}

type AppConfig struct {
	Name     string
	Env      string
	LogLevel string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig is optional; an empty Host disables the doctor cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type AggregationConfig struct {
	// WriteMode is "replace" or "upsert".
	WriteMode  string
	BatchSize  int
	Timezone   string
	RunTimeout time.Duration
}

type MetricsConfig struct {
	PushgatewayURL string
	JobName        string
}

type TracingConfig struct {
	Enabled     bool
	SampleRatio float64
}

// Location returns the zone used to derive the aggregation date.
func (c AggregationConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "healthsync-aggregator")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("SOURCE_DB_HOST", "localhost")
	v.SetDefault("SOURCE_DB_PORT", "5432")
	v.SetDefault("SOURCE_DB_NAME", "healthsync")
	v.SetDefault("SOURCE_DB_SSLMODE", "disable")

	v.SetDefault("WAREHOUSE_DB_PORT", "5439")
	v.SetDefault("WAREHOUSE_DB_NAME", "healthsync")
	v.SetDefault("WAREHOUSE_DB_SSLMODE", "require")

	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DOCTOR_CACHE_TTL", "1h")

	v.SetDefault("WAREHOUSE_WRITE_MODE", "replace")
	v.SetDefault("AGGREGATION_BATCH_SIZE", 500)
	v.SetDefault("AGGREGATION_TIMEZONE", "Local")
	v.SetDefault("AGGREGATION_RUN_TIMEOUT", "0s")

	v.SetDefault("METRICS_JOB_NAME", "healthsync_aggregator")
	v.SetDefault("OTEL_SAMPLER_RATIO", 1.0)
}

// LoadConfig reads an optional .env file in the working directory and the
// process environment, environment values taking precedence.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cacheTTL, err := time.ParseDuration(v.GetString("DOCTOR_CACHE_TTL"))
	if err != nil {
		cacheTTL = time.Hour
	}

	runTimeout, err := time.ParseDuration(v.GetString("AGGREGATION_RUN_TIMEOUT"))
	if err != nil {
		runTimeout = 0
	}

	return &Config{
		App: AppConfig{
			Name:     v.GetString("APP_NAME"),
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		SourceDB: DBConfig{
			Host:     v.GetString("SOURCE_DB_HOST"),
			Port:     v.GetString("SOURCE_DB_PORT"),
			User:     v.GetString("SOURCE_DB_USER"),
			Password: v.GetString("SOURCE_DB_PASSWORD"),
			Name:     v.GetString("SOURCE_DB_NAME"),
			SSLMode:  v.GetString("SOURCE_DB_SSLMODE"),
		},
		WarehouseDB: DBConfig{
			Host:     v.GetString("WAREHOUSE_DB_HOST"),
			Port:     v.GetString("WAREHOUSE_DB_PORT"),
			User:     v.GetString("WAREHOUSE_DB_USER"),
			Password: v.GetString("WAREHOUSE_DB_PASSWORD"),
			Name:     v.GetString("WAREHOUSE_DB_NAME"),
			SSLMode:  v.GetString("WAREHOUSE_DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      cacheTTL,
		},
		Aggregation: AggregationConfig{
			WriteMode:  v.GetString("WAREHOUSE_WRITE_MODE"),
			BatchSize:  v.GetInt("AGGREGATION_BATCH_SIZE"),
			Timezone:   v.GetString("AGGREGATION_TIMEZONE"),
			RunTimeout: runTimeout,
		},
		Metrics: MetricsConfig{
			PushgatewayURL: v.GetString("METRICS_PUSHGATEWAY_URL"),
			JobName:        v.GetString("METRICS_JOB_NAME"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			SampleRatio: v.GetFloat64("OTEL_SAMPLER_RATIO"),
		},
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/clinic-console/internal/apiclient"
	"github.com/jwalitptl/clinic-console/pkg/messaging/redis"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	API          APIConfig          `mapstructure:"api"`
	Log          LogConfig          `mapstructure:"log"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Notification NotificationConfig `mapstructure:"notification"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Zero disables the per-call timeout.
	Timeout         time.Duration `mapstructure:"timeout"`
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	Channel      string        `mapstructure:"channel"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type NotificationConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Recipient     string        `mapstructure:"recipient"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type MonitoringConfig struct {
	Namespace   string `mapstructure:"namespace"`
	MetricsPath string `mapstructure:"metrics_path"`
}

// envOverrides are read with the CONSOLE_ prefix, e.g. CONSOLE_API_BASE_URL.
type envOverrides struct {
	ServerPort      int    `envconfig:"SERVER_PORT"`
	APIBaseURL      string `envconfig:"API_BASE_URL"`
	LogLevel        string `envconfig:"LOG_LEVEL"`
	RedisEnabled    *bool  `envconfig:"REDIS_ENABLED"`
	RedisURL        string `envconfig:"REDIS_URL"`
	NotificationURL string `envconfig:"NOTIFICATION_BASE_URL"`
}

const envPrefix = "CONSOLE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("api.breaker_failures", 5)
	v.SetDefault("api.breaker_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 50.0)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.channel", "clinic.activity")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 1)

	v.SetDefault("notification.base_url", "http://localhost:8083")
	v.SetDefault("notification.recipient", "admin@clinic.local")
	v.SetDefault("notification.timeout", 5*time.Second)
	v.SetDefault("notification.retry_attempts", 3)
	v.SetDefault("notification.retry_delay", 2*time.Second)

	v.SetDefault("monitoring.namespace", "clinic_console")
	v.SetDefault("monitoring.metrics_path", "/metrics")
}

// LoadConfig reads config.yml from file (when non-empty) or the usual search
// paths, falls back to defaults when no file exists, then applies CONSOLE_* overrides.
func LoadConfig(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if env.ServerPort != 0 {
		cfg.Server.Port = env.ServerPort
	}
	if env.APIBaseURL != "" {
		cfg.API.BaseURL = env.APIBaseURL
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.RedisEnabled != nil {
		cfg.Redis.Enabled = *env.RedisEnabled
	}
	if env.RedisURL != "" {
		cfg.Redis.URL = env.RedisURL
	}
	if env.NotificationURL != "" {
		cfg.Notification.BaseURL = env.NotificationURL
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		return errors.New("redis.url is required when redis is enabled")
	}
	return nil
}

func (c *Config) ToClientConfig() apiclient.Config {
	return apiclient.Config{
		BaseURL:         c.API.BaseURL,
		Timeout:         c.API.Timeout,
		BreakerFailures: c.API.BreakerFailures,
		BreakerTimeout:  c.API.BreakerTimeout,
	}
}

// ToNotifierConfig reuses the client settings against the notification service.
func (c *Config) ToNotifierConfig() apiclient.Config {
	cfg := c.ToClientConfig()
	cfg.BaseURL = c.Notification.BaseURL
	cfg.Timeout = c.Notification.Timeout
	return cfg
}

func (c *Config) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.Redis.URL,
		MaxRetries:   c.Redis.MaxRetries,
		RetryBackoff: c.Redis.RetryBackoff,
		PoolSize:     c.Redis.PoolSize,
		MinIdleConns: c.Redis.MinIdleConns,
	}
}

package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	RetryBackoff int    `mapstructure:"retry_backoff_ms"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type AuthConfig struct {
	APISecret   string `mapstructure:"api_secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type AlertsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	SMTPUser string `mapstructure:"smtp_user"`
	SMTPPass string `mapstructure:"smtp_pass"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// WorkerConfig configures the standalone producer and consumer binaries.
// Workers ship without a config file, everything comes from the environment.
type WorkerConfig struct {
	DatabaseHost     string `envconfig:"DB_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DB_PORT" default:"5432"`
	DatabaseUser     string `envconfig:"DB_USER" required:"true"`
	DatabasePassword string `envconfig:"DB_PASSWORD" required:"true"`
	DatabaseName     string `envconfig:"DB_NAME" required:"true"`
	DatabaseSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisURL          string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	RedisMaxRetries   int    `envconfig:"REDIS_MAX_RETRIES" default:"3"`
	RedisPoolSize     int    `envconfig:"REDIS_POOL_SIZE" default:"10"`
	RedisMinIdleConns int    `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`

	ProducerBatchSize    int           `envconfig:"PRODUCER_BATCH_SIZE" default:"100"`
	ProducerPollInterval time.Duration `envconfig:"PRODUCER_POLL_INTERVAL" default:"1s"`
	MonitorInterval      time.Duration `envconfig:"MONITOR_INTERVAL" default:"1m"`

	AlertsEnabled bool   `envconfig:"ALERTS_ENABLED" default:"false"`
	SMTPHost      string `envconfig:"SMTP_HOST"`
	SMTPPort      int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser      string `envconfig:"SMTP_USER"`
	SMTPPass      string `envconfig:"SMTP_PASS"`
	AlertFrom     string `envconfig:"ALERT_FROM"`
	AlertTo       string `envconfig:"ALERT_TO"`

	MetricsPort int `envconfig:"METRICS_PORT" default:"9090"`
}

func LoadWorkerConfig() (*WorkerConfig, error) {
	var config WorkerConfig
	if err := envconfig.Process("TICKETING", &config); err != nil {
		return nil, fmt.Errorf("failed to process worker config: %w", err)
	}
	return &config, nil
}

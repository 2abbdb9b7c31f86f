// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable of the order service.
type Config struct {
	Port        string `envconfig:"PORT" default:"3002"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"order-service"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	SeedSampleData bool `envconfig:"SEED_SAMPLE_DATA" default:"true"`

	UserServiceURL     string        `envconfig:"USER_SERVICE_URL" default:"http://localhost:3001"`
	VerifyUsers        bool          `envconfig:"VERIFY_USERS" default:"false"`
	UserServiceTimeout time.Duration `envconfig:"USER_SERVICE_TIMEOUT" default:"5s"`

	RedisAddr    string        `envconfig:"REDIS_ADDR"`
	UserCacheTTL time.Duration `envconfig:"USER_CACHE_TTL" default:"5m"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"order-events"`

	OTELHost         string  `envconfig:"OTEL_HOST"`
	TraceProbability float64 `envconfig:"TRACE_PROBABILITY" default:"1.0"`
	TraceStdout      bool    `envconfig:"TRACE_STDOUT" default:"false"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing env: %w", err)
	}
	cfg.UserServiceURL = strings.TrimRight(cfg.UserServiceURL, "/")

	if cfg.TraceProbability < 0 || cfg.TraceProbability > 1 {
		return nil, fmt.Errorf("TRACE_PROBABILITY must be within [0,1], got %v", cfg.TraceProbability)
	}
	return &cfg, nil
}

// Brokers splits the KAFKA_BROKERS list, dropping blanks.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

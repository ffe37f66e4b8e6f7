package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/payout"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/retry"
)

const EnvPrefix = "MUGI"

type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	Payment PaymentConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Retry   RetryConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.App.NormalizedLocations()) == 0 {
		return fmt.Errorf("config: at least one location is required")
	}
	if c.Payment.ExpiryMinutes <= 0 {
		return fmt.Errorf("config: payment expiry minutes must be positive")
	}
	if _, err := c.FeeTable(); err != nil {
		return err
	}
	return nil
}

type AppConfig struct {
	Port        string   `envconfig:"MUGI_PORT" default:"8080"`
	LogLevel    string   `envconfig:"MUGI_LOG_LEVEL" default:"info"`
	LogFormat   string   `envconfig:"MUGI_LOG_FORMAT" default:"json"`
	CORSOrigins []string `envconfig:"MUGI_CORS_ORIGINS" default:"http://localhost:5173"`
	Locations   []string `envconfig:"MUGI_LOCATIONS" default:"Bandung,Jakarta"`
}

// NormalizedLocations trims entries and drops blanks and duplicates.
func (a AppConfig) NormalizedLocations() []string {
	seen := make(map[string]bool, len(a.Locations))
	out := make([]string, 0, len(a.Locations))
	for _, loc := range a.Locations {
		loc = strings.TrimSpace(loc)
		key := strings.ToLower(loc)
		if loc == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, loc)
	}
	return out
}

type DBConfig struct {
	URL         string `envconfig:"MUGI_DATABASE_URL" required:"true"`
	MaxConns    int32  `envconfig:"MUGI_DB_MAX_CONNS" default:"10"`
	AutoMigrate bool   `envconfig:"MUGI_DB_AUTO_MIGRATE" default:"true"`
}

type JWTConfig struct {
	Secret string `envconfig:"MUGI_JWT_SECRET" required:"true"`
}

type PaymentConfig struct {
	ServerKey     string `envconfig:"MUGI_MIDTRANS_SERVER_KEY" required:"true"`
	BaseURL       string `envconfig:"MUGI_MIDTRANS_BASE_URL" default:"https://app.sandbox.midtrans.com"`
	FinishURL     string `envconfig:"MUGI_PAYMENT_FINISH_URL"`
	PendingURL    string `envconfig:"MUGI_PAYMENT_PENDING_URL"`
	ErrorURL      string `envconfig:"MUGI_PAYMENT_ERROR_URL"`
	ExpiryMinutes int    `envconfig:"MUGI_PAYMENT_EXPIRY_MINUTES" default:"1440"`
	FeeRules      string `envconfig:"MUGI_PAYOUT_FEE_RULES"`
}

type RedisConfig struct {
	URL            string        `envconfig:"MUGI_REDIS_URL"`
	IdempotencyTTL time.Duration `envconfig:"MUGI_WEBHOOK_IDEMPOTENCY_TTL" default:"24h"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type KafkaConfig struct {
	Brokers []string `envconfig:"MUGI_KAFKA_BROKERS"`
	Topic   string   `envconfig:"MUGI_KAFKA_TOPIC" default:"orders.events"`
}

func (k KafkaConfig) Enabled() bool {
	for _, b := range k.Brokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

type RetryConfig struct {
	MaxRetries uint64        `envconfig:"MUGI_RETRY_MAX" default:"2"`
	Backoff    time.Duration `envconfig:"MUGI_RETRY_BACKOFF" default:"50ms"`
}

// Policy builds the datastore retry policy. Metrics are attached by the caller.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{MaxRetries: r.MaxRetries, Backoff: r.Backoff}
}

// FeeTable returns the payout table: built-in rules overlaid with
// MUGI_PAYOUT_FEE_RULES when set.
func (c *Config) FeeTable() (*payout.Table, error) {
	table, err := payout.ParseTable(c.Payment.FeeRules)
	if err != nil {
		return nil, fmt.Errorf("config: payout fee rules: %w", err)
	}
	return table, nil
}

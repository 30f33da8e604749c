package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Quote    QuoteConfig    `yaml:"quote"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Telegram TelegramConfig `yaml:"telegram"`
	Notify   NotifyConfig   `yaml:"notify"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port" env:"SERVER_PORT" validate:"required"`
	Host string `yaml:"host" env:"SERVER_HOST"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host          string `yaml:"host" env:"DB_HOST" validate:"required"`
	Port          string `yaml:"port" env:"DB_PORT" validate:"required"`
	User          string `yaml:"user" env:"DB_USER"`
	Password      string `yaml:"password" env:"DB_PASSWORD"`
	DBName        string `yaml:"dbname" env:"DB_NAME" validate:"required"`
	SSLMode       string `yaml:"sslmode" env:"DB_SSLMODE"`
	MigrationsDir string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
}

// KafkaConfig holds Kafka configuration. Empty brokers disable both the
// event producer and the trigger consumer.
type KafkaConfig struct {
	Brokers      []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
	Topic        string   `yaml:"topic" env:"KAFKA_TOPIC"`
	TriggerTopic string   `yaml:"trigger_topic" env:"KAFKA_TRIGGER_TOPIC"`
	GroupID      string   `yaml:"group_id" env:"KAFKA_GROUP_ID"`
}

// RedisConfig holds the read cache configuration. An empty address selects
// the in-memory cache.
type RedisConfig struct {
	Address  string        `yaml:"address" env:"REDIS_ADDR"`
	Username string        `yaml:"username" env:"REDIS_USERNAME"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"CACHE_TTL"`
}

// GeminiConfig holds the upstream quote source configuration
type GeminiConfig struct {
	APIKey  string        `yaml:"api_key" env:"GEMINI_API_KEY" validate:"required"`
	Model   string        `yaml:"model" env:"GEMINI_MODEL" validate:"required"`
	Prompt  string        `yaml:"prompt" env:"GEMINI_PROMPT"`
	Timeout time.Duration `yaml:"timeout" env:"GEMINI_TIMEOUT"`
}

// QuoteConfig controls attempts and the conversion applied to raw quotes
type QuoteConfig struct {
	MaxAttempts int     `yaml:"max_attempts" env:"MAX_ATTEMPTS" validate:"min=1,max=10"`
	Unit        string  `yaml:"unit" env:"QUOTE_UNIT" validate:"oneof=tola troy_ounce"`
	FXRate      float64 `yaml:"fx_rate" env:"QUOTE_FX_RATE" validate:"gt=0"`
	Timezone    string  `yaml:"timezone" env:"TRACKER_TIMEZONE" validate:"required"`
}

// TwilioConfig holds SMS delivery credentials
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `yaml:"auth_token" env:"TWILIO_AUTH_TOKEN"`
	From       string `yaml:"from" env:"TWILIO_PHONE_NUMBER"`
}

// TelegramConfig holds Telegram delivery credentials
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
}

// NotifyConfig holds the recipient list and dispatch settings
type NotifyConfig struct {
	// Recipients is a comma-delimited list. Entries prefixed with
	// "telegram:" go to Telegram, everything else is an SMS number.
	Recipients     string `yaml:"recipients" env:"RECIPIENT_PHONE_NUMBER"`
	MaxConcurrency int    `yaml:"max_concurrency" env:"NOTIFY_MAX_CONCURRENCY" validate:"min=1"`
}

// ScheduleConfig holds cron configuration
type ScheduleConfig struct {
	Cron       string `yaml:"cron" env:"SCHEDULE_CRON"`
	RunOnStart bool   `yaml:"run_on_start" env:"RUN_ON_START"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT" validate:"oneof=text json"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          "5432",
			User:          "postgres",
			Password:      "postgres",
			DBName:        "metalprices",
			SSLMode:       "disable",
			MigrationsDir: "db/migrations",
		},
		Kafka: KafkaConfig{
			Topic:        "metal-price-events",
			TriggerTopic: "metal-price-triggers",
			GroupID:      "metal-price-tracker",
		},
		Redis: RedisConfig{
			TTL: 10 * time.Minute,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash",
			Timeout: 60 * time.Second,
		},
		Quote: QuoteConfig{
			MaxAttempts: 3,
			Unit:        "tola",
			FXRate:      1,
			Timezone:    "UTC",
		},
		Notify: NotifyConfig{
			MaxConcurrency: 4,
		},
		Schedule: ScheduleConfig{
			Cron: "0 0 9 * * *",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the optional YAML file at path, then applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// Validate checks required fields and cross-field constraints
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	channels := lo.Map(c.Recipients(), func(r string, _ int) string {
		return models.ChannelOf(r)
	})
	if lo.Contains(channels, models.ChannelTelegram) && c.Telegram.BotToken == "" {
		return errors.New("invalid config: telegram recipients require TELEGRAM_BOT_TOKEN")
	}
	if lo.Contains(channels, models.ChannelSMS) {
		if c.Twilio.AccountSID == "" || c.Twilio.AuthToken == "" || c.Twilio.From == "" {
			return errors.New("invalid config: sms recipients require twilio account sid, auth token and from number")
		}
	}
	return nil
}

// Recipients returns the normalised recipient list
func (c *Config) Recipients() []string {
	return ParseRecipients(c.Notify.Recipients)
}

// Location resolves the configured timezone used for calendar dates
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Quote.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Quote.Timezone, err)
	}
	return loc, nil
}

// KafkaEnabled reports whether brokers are configured
func (k *KafkaConfig) KafkaEnabled() bool {
	return len(lo.Compact(k.Brokers)) > 0
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// ParseRecipients splits a comma-delimited list, trims entries and drops
// blanks and duplicates. First occurrence order is kept.
func ParseRecipients(raw string) []string {
	parts := lo.Map(strings.Split(raw, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Uniq(lo.Compact(parts))
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DateParsing controls how an unparseable event date on edit is handled.
type DateParsing string

const (
	// DateParsingLenient keeps the event's existing date.
	DateParsingLenient DateParsing = "lenient"
	// DateParsingStrict rejects the edit with a validation error.
	DateParsingStrict DateParsing = "strict"
)

type Config struct {
	DBDriver      string        `yaml:"db_driver"`
	DBHost        string        `yaml:"db_host"`
	DBPort        string        `yaml:"db_port"`
	DBUser        string        `yaml:"db_user"`
	DBPassword    string        `yaml:"db_password"`
	DBName        string        `yaml:"db_name"`
	DBPath        string        `yaml:"db_path"`
	SessionStore  string        `yaml:"session_store"`
	RedisHost     string        `yaml:"redis_host"`
	RedisPort     string        `yaml:"redis_port"`
	SessionSecret string        `yaml:"session_secret"`
	GinMode       string        `yaml:"gin_mode"`
	LogLevel      string        `yaml:"log_level"`
	Port          string        `yaml:"port"`
	Timezone      string        `yaml:"timezone"`
	DateParsing   DateParsing   `yaml:"date_parsing"`
	NATSURL       string        `yaml:"nats_url"`
	OpenAIAPIKey  string        `yaml:"openai_api_key"`
	ArchiveCron   string        `yaml:"archive_schedule"`
	ArchiveAfter  time.Duration `yaml:"archive_after"`
}

// Load builds the configuration from defaults, an optional YAML file named by
// ENSEMBLE_CONFIG, and finally the environment (a local .env is read first).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("ENSEMBLE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.SessionStore = getEnv("SESSION_STORE", cfg.SessionStore)
	cfg.RedisHost = getEnv("REDIS_HOST", cfg.RedisHost)
	cfg.RedisPort = getEnv("REDIS_PORT", cfg.RedisPort)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Timezone = getEnv("TIMEZONE", cfg.Timezone)
	cfg.DateParsing = DateParsing(getEnv("DATE_PARSING", string(cfg.DateParsing)))
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.ArchiveCron = getEnv("ARCHIVE_SCHEDULE", cfg.ArchiveCron)
	cfg.ArchiveAfter = getDuration("ARCHIVE_AFTER", cfg.ArchiveAfter)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves the configured timezone used to combine dates and times of day.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func defaults() *Config {
	return &Config{
		DBDriver:      "mysql",
		DBHost:        "localhost",
		DBPort:        "3306",
		DBUser:        "ensemble",
		DBPassword:    "ensemble",
		DBName:        "ensemble",
		DBPath:        "ensemble.db",
		SessionStore:  "cookie",
		RedisHost:     "localhost",
		RedisPort:     "6379",
		SessionSecret: "default-secret-key-change-me",
		GinMode:       "debug",
		LogLevel:      "info",
		Port:          "8080",
		Timezone:      "UTC",
		DateParsing:   DateParsingLenient,
		ArchiveCron:   "@daily",
		ArchiveAfter:  30 * 24 * time.Hour,
	}
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.SessionStore {
	case "cookie", "redis":
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.SessionStore)
	}
	switch c.DateParsing {
	case DateParsingLenient, DateParsingStrict:
	default:
		return fmt.Errorf("unsupported DATE_PARSING %q", c.DateParsing)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string
	// LogFormat: "console" or "json".
	LogFormat string

	// Groq is the LLM provider used for intent classification and the
	// free-form chat fallback. The API is OpenAI-compatible.
	Groq struct {
		APIKey  string
		BaseURL string
		// ClassifierModel is used for intent classification calls.
		ClassifierModel string
		// ChatModel is used for free-form answers. Empty means pick the best
		// available chat model from the provider's model list.
		ChatModel         string
		ClassifierTimeout time.Duration
	}

	// KafkaBrokers/KafkaTopicTicket — if set, ticket events are published
	// best-effort on create/update.
	KafkaBrokers     []string
	KafkaTopicTicket string

	// SearchServiceURL — if set, tickets are sent to search-service for
	// indexing (POST /search/index/ticket).
	SearchServiceURL string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:          getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:         firstEnv("APP_PORT", "HTTP_PORT", "8088"),
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		KafkaBrokers:     parseBrokers(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicTicket: getEnv("KAFKA_TOPIC_TICKET", ""),
		SearchServiceURL: getEnv("SEARCH_SERVICE_URL", ""),
	}
	cfg.Groq.APIKey = getEnv("GROQ_API_KEY", "")
	cfg.Groq.BaseURL = getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	cfg.Groq.ClassifierModel = getEnv("CLASSIFIER_MODEL", "llama-3.3-70b-versatile")
	cfg.Groq.ChatModel = getEnv("CHAT_MODEL", "")
	cfg.Groq.ClassifierTimeout = durationEnv("CLASSIFIER_TIMEOUT", 5*time.Second)

	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "support_service")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func parseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

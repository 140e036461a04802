package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendFile  = "file"
	BackendMongo = "mongo"
)

type Config struct {
	Env  string
	Port string

	TelegramBotToken string
	TelegramChatID   string
	TelegramEndpoint string
	TelegramTimeout  time.Duration

	CORSOrigins      []string
	RateLimitPerMin  int
	TrustedProxyHops int

	DataDir      string
	StoreBackend string
	MongoURI     string
	DBName       string

	UrgentKeywords []string
	MaxVoiceFiles  int
	MaxVoiceBytes  int64

	ResendAPIKey   string
	AlertFromEmail string
	AlertToEmails  []string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	// Missing .env is fine; production sets variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "3001"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		TelegramEndpoint: os.Getenv("TELEGRAM_API_ENDPOINT"),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGIN", "*")),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MIN", 10),
		TrustedProxyHops: getEnvInt("TRUSTED_PROXY_HOPS", 0),
		DataDir:          getEnv("DATA_DIR", "data"),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		MongoURI:         os.Getenv("MONGODB_URI"),
		DBName:           getEnv("DB_NAME", "clinic_feedback"),
		UrgentKeywords:   splitCSV(os.Getenv("URGENT_KEYWORDS")),
		MaxVoiceFiles:    getEnvInt("MAX_VOICE_FILES", 10),
		MaxVoiceBytes:    int64(getEnvInt("MAX_VOICE_BYTES", 12*1024*1024)),
		ResendAPIKey:     os.Getenv("RESEND_API_KEY"),
		AlertFromEmail:   os.Getenv("ALERT_FROM_EMAIL"),
		AlertToEmails:    splitCSV(os.Getenv("ALERT_TO_EMAILS")),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}

	timeout, err := time.ParseDuration(getEnv("TELEGRAM_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("parse TELEGRAM_TIMEOUT: %w", err)
	}
	cfg.TelegramTimeout = timeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.IsProduction() {
		if c.TelegramBotToken == "" {
			errs = append(errs, "TELEGRAM_BOT_TOKEN is required in production")
		}
		if c.TelegramChatID == "" {
			errs = append(errs, "TELEGRAM_CHAT_ID is required in production")
		}
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == "") {
		errs = append(errs, "TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Sprintf("invalid PORT: %q", c.Port))
	}
	switch c.StoreBackend {
	case BackendFile:
	case BackendMongo:
		if c.MongoURI == "" {
			errs = append(errs, "MONGODB_URI is required when STORE_BACKEND=mongo")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.RateLimitPerMin <= 0 {
		errs = append(errs, "RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.TrustedProxyHops < 0 {
		errs = append(errs, "TRUSTED_PROXY_HOPS must be >= 0")
	}
	if c.TelegramTimeout <= 0 {
		errs = append(errs, "TELEGRAM_TIMEOUT must be > 0")
	}
	if c.MaxVoiceFiles < 0 {
		errs = append(errs, "MAX_VOICE_FILES must be >= 0")
	}
	if c.MaxVoiceBytes <= 0 {
		errs = append(errs, "MAX_VOICE_BYTES must be > 0")
	}
	if c.ResendAPIKey != "" && c.AlertFromEmail == "" {
		errs = append(errs, "ALERT_FROM_EMAIL is required when RESEND_API_KEY is set")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TelegramEnabled reports whether a real bot should be used instead of the log-only relay.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

func (c *Config) AlertsEnabled() bool {
	return c.ResendAPIKey != "" && len(c.AlertToEmails) > 0
}

func (c *Config) FeedbackStorePath() string {
	return filepath.Join(c.DataDir, "feedback-map.json")
}

func (c *Config) BonusStorePath() string {
	return filepath.Join(c.DataDir, "bonus-store.json")
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

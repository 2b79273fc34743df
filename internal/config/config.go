package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress string
	Migrations    bool
	DB            DBConfig
	Auth          AuthConfig
	Email         EmailConfig
	Telegram      TelegramConfig
	NotifyTimeout time.Duration
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	SupabaseURL string
	AnonKey     string
	RedisURL    string // пусто: без кеша токенов
	CacheTTL    time.Duration
}

type EmailConfig struct {
	APIURL string
	APIKey string
	From   string
}

// Enabled: письма отправляются, только если задан провайдер.
func (c EmailConfig) Enabled() bool {
	return c.APIURL != "" && c.APIKey != ""
}

type TelegramConfig struct {
	Token  string
	ChatID int64
}

func (c TelegramConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", "0.0.0.0:8080"),
		Migrations:    getEnvAsBool("MIGRATIONS_ENABLED", true),
		DB: DBConfig{
			DSN:             getEnv("POSTGRES_CONN", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvAsInt("DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute,
		},
		Auth: AuthConfig{
			SupabaseURL: strings.TrimSuffix(getEnv("SUPABASE_URL", ""), "/"),
			AnonKey:     getEnv("SUPABASE_ANON_KEY", ""),
			RedisURL:    getEnv("REDIS_URL", ""),
			CacheTTL:    time.Duration(getEnvAsInt("AUTH_CACHE_TTL_SEC", 60)) * time.Second,
		},
		Email: EmailConfig{
			APIURL: strings.TrimSuffix(getEnv("EMAIL_API_URL", ""), "/"),
			APIKey: getEnv("EMAIL_API_KEY", ""),
			From:   getEnv("EMAIL_FROM", "Jobs <jobs@localhost>"),
		},
		Telegram: TelegramConfig{
			Token:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID: getEnvAsInt64("TELEGRAM_CHAT_ID", 0),
		},
		NotifyTimeout: time.Duration(getEnvAsInt("NOTIFY_TIMEOUT_SEC", 15)) * time.Second,
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	required := []struct{ field, value string }{
		{"POSTGRES_CONN", cfg.DB.DSN},
		{"SUPABASE_URL", cfg.Auth.SupabaseURL},
		{"SUPABASE_ANON_KEY", cfg.Auth.AnonKey},
	}
	for _, r := range required {
		if r.value == "" {
			return newConfigError(r.field, "must not be empty")
		}
	}

	if cfg.DB.MaxOpenConns <= 0 {
		return newConfigError("DB_MAX_OPEN_CONNS", "must be positive")
	}
	if cfg.DB.MaxIdleConns > cfg.DB.MaxOpenConns {
		cfg.DB.MaxIdleConns = cfg.DB.MaxOpenConns
	}
	if cfg.NotifyTimeout <= 0 {
		return newConfigError("NOTIFY_TIMEOUT_SEC", "must be positive")
	}
	return nil
}

type ConfigError struct {
	Field  string
	Reason string
}

func (e ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Reason
}

func newConfigError(field, reason string) ConfigError {
	return ConfigError{Field: field, Reason: reason}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

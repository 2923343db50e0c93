package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	HTTP        ServerConfig
	MySQL       MySQLConfig
	Log         LogConfig
	Asaas       AsaasConfig
	Checkout    CheckoutConfig
	Entitlement EntitlementConfig
	Jobs        JobsConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type AsaasConfig struct {
	BaseURL       string
	AccessToken   string
	WebhookSecret string
	HTTPTimeout   time.Duration
	DueDateDays   int
}

type CheckoutConfig struct {
	ItemTimeout time.Duration
}

type EntitlementConfig struct {
	ResendAPIKey    string
	ResendBaseURL   string
	FromEmail       string
	DownloadBaseURL string
	TokenSecret     string
	TokenTTL        time.Duration
	HTTPTimeout     time.Duration
}

type JobsConfig struct {
	ReconcileInterval   time.Duration
	ReconcileStaleAfter time.Duration
	BatchSize           int32
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}
	asaasToken := os.Getenv("ASAAS_ACCESS_TOKEN")
	if asaasToken == "" {
		return nil, errors.New("ASAAS_ACCESS_TOKEN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "storefront-payments"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Asaas: AsaasConfig{
			BaseURL:       getEnv("ASAAS_BASE_URL", "https://api.asaas.com/v3"),
			AccessToken:   asaasToken,
			WebhookSecret: getEnv("ASAAS_WEBHOOK_SECRET", ""),
			HTTPTimeout:   getSecondsEnv("ASAAS_HTTP_TIMEOUT_SECONDS", 10*time.Second),
			DueDateDays:   getIntEnv("ASAAS_DUE_DATE_DAYS", 3),
		},
		Checkout: CheckoutConfig{
			ItemTimeout: getSecondsEnv("CHECKOUT_ITEM_TIMEOUT_SECONDS", 15*time.Second),
		},
		Entitlement: EntitlementConfig{
			ResendAPIKey:    getEnv("RESEND_API_KEY", ""),
			ResendBaseURL:   getEnv("RESEND_BASE_URL", "https://api.resend.com"),
			FromEmail:       getEnv("ENTITLEMENT_FROM_EMAIL", "entregas@codegrana.com.br"),
			DownloadBaseURL: getEnv("ENTITLEMENT_DOWNLOAD_BASE_URL", ""),
			TokenSecret:     getEnv("ENTITLEMENT_TOKEN_SECRET", ""),
			TokenTTL:        getMinutesEnv("ENTITLEMENT_TOKEN_TTL_MINUTES", 24*time.Hour),
			HTTPTimeout:     getSecondsEnv("ENTITLEMENT_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Jobs: JobsConfig{
			ReconcileInterval:   getMinutesEnv("RECONCILE_INTERVAL_MINUTES", 5*time.Minute),
			ReconcileStaleAfter: getMinutesEnv("RECONCILE_STALE_AFTER_MINUTES", 30*time.Minute),
			BatchSize:           int32(getIntEnv("JOB_BATCH_SIZE", 100)),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

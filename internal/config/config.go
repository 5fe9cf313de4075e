package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Donation DonationConfig
	Payment  PaymentConfig
	Midtrans MidtransConfig
	Paystack PaystackConfig
	Email    EmailConfig
	Resend   ResendConfig
	R2       R2Config
}

type ServerConfig struct {
	Port           string
	Host           string
	Env            string
	PublicURL      string // Base URL donors are sent back to after paying
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string // Full database URL
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string // Empty disables the target list cache
	Password string
	DB       int
	TTL      time.Duration
}

type SessionConfig struct {
	Secret string
}

type DonationConfig struct {
	MinimumAmount  float64
	Currency       string
	DefaultPerPage int
	MaxPerPage     int
	PendingTTL     time.Duration // Pending donations older than this are expired
	ExpirySchedule string        // cron spec for the expiry job
	InitiateLimit  int           // initiate requests per IP per window
	InitiateWindow time.Duration
}

type PaymentConfig struct {
	Gateway string // "midtrans", "paystack" or "mock"
}

type MidtransConfig struct {
	ServerKey   string
	Environment string // "sandbox" or "production"
}

type PaystackConfig struct {
	SecretKey   string
	PublicKey   string
	Environment string
	CallbackURL string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

type ResendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	Region          string
	Endpoint        string
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	port := getEnv("PORT", "8080")
	host := getEnv("HOST", "localhost")

	config := &Config{
		Server: ServerConfig{
			Port:           port,
			Host:           host,
			Env:            getEnv("ENV", "development"),
			PublicURL:      strings.TrimRight(getEnv("PUBLIC_URL", "http://"+host+":"+port), "/"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: parseDatabaseConfig(),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_TARGET_TTL", 2*time.Minute),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "your-secret-key-change-in-production"),
		},
		Donation: DonationConfig{
			MinimumAmount:  getEnvAsFloat("DONATION_MIN_AMOUNT", 10),
			Currency:       getEnv("DONATION_CURRENCY", "USD"),
			DefaultPerPage: getEnvAsInt("DONATION_DEFAULT_PER_PAGE", 20),
			MaxPerPage:     getEnvAsInt("DONATION_MAX_PER_PAGE", 100),
			PendingTTL:     getEnvAsDuration("DONATION_PENDING_TTL", 24*time.Hour),
			ExpirySchedule: getEnv("DONATION_EXPIRY_SCHEDULE", "@every 15m"),
			InitiateLimit:  getEnvAsInt("DONATION_INITIATE_LIMIT", 10),
			InitiateWindow: getEnvAsDuration("DONATION_INITIATE_WINDOW", time.Minute),
		},
		Payment: PaymentConfig{
			Gateway: strings.ToLower(getEnv("PAYMENT_GATEWAY", "mock")),
		},
		Midtrans: MidtransConfig{
			ServerKey:   getEnv("MIDTRANS_SERVER_KEY", ""),
			Environment: getEnv("MIDTRANS_ENVIRONMENT", "sandbox"),
		},
		Paystack: PaystackConfig{
			SecretKey:   getEnv("PAYSTACK_SECRET_KEY", ""),
			PublicKey:   getEnv("PAYSTACK_PUBLIC_KEY", ""),
			Environment: getEnv("PAYSTACK_ENVIRONMENT", "test"),
			CallbackURL: getEnv("PAYSTACK_CALLBACK_URL", "http://localhost:8080/payment/callback"),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "donations@example.org"),
			FromName:     getEnv("FROM_NAME", "Donations"),
		},
		Resend: ResendConfig{
			APIKey:    getEnv("RESEND_API_KEY", ""),
			FromEmail: getEnv("RESEND_FROM_EMAIL", "donations@example.org"),
			FromName:  getEnv("RESEND_FROM_NAME", "Donations"),
		},
		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("R2_BUCKET_NAME", "donation-images"),
			PublicURL:       getEnv("R2_PUBLIC_URL", ""),
			Region:          getEnv("R2_REGION", "auto"),
			Endpoint:        getEnv("R2_ENDPOINT", ""),
		},
	}

	return config, nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func parseDatabaseConfig() DatabaseConfig {
	// Check if DATABASE_URL is provided
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL != "" {
		return parseDatabaseURL(databaseURL)
	}

	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "donations"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func parseDatabaseURL(databaseURL string) DatabaseConfig {
	config := DatabaseConfig{
		URL: databaseURL,
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		// If parsing fails, return the URL as-is
		return config
	}

	config.Host = u.Hostname()
	if u.Port() != "" {
		config.Port, _ = strconv.Atoi(u.Port())
	} else {
		config.Port = 5432
	}

	if u.User != nil {
		config.User = u.User.Username()
		config.Password, _ = u.User.Password()
	}

	config.DBName = strings.TrimPrefix(u.Path, "/")

	config.SSLMode = u.Query().Get("sslmode")
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Staff access and notification configuration
	Staff StaffConfig

	// Outbound mail configuration
	Mail MailConfig

	// Notification dispatch configuration
	Notify NotifyConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port          string
	Environment   string // development, staging, production
	LogLevel      string // debug, info, warn, error
	PublicBaseURL string // used to build links inside emails
}

// DatabaseConfig holds database-related configuration.
// URL selects the backend: postgres:// uses sqlx, mongodb:// uses the mongo driver.
type DatabaseConfig struct {
	URL                string
	Name               string // Mongo database name
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	AutoMigrate        bool
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// StaffConfig holds the staff shared secret and the staff inbox
type StaffConfig struct {
	APIKey string
	Email  string
}

// MailConfig holds mail transport configuration
type MailConfig struct {
	Provider    string // "brevo", "smtp" or "log"
	BrevoAPIKey string
	BrevoAPIURL string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	SMTPSecure  bool
	FromName    string
	FromAddress string
	MaxRetries  int
	SendTimeout time.Duration
}

// NotifyConfig selects how notifications leave the API process
type NotifyConfig struct {
	Transport    string // "direct" or "kafka"
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RedisURL    string
	MaxAttempts int
	Window      time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost       int
	EnableRequestLog bool
	EnableAuditLog   bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFileDefaults(path); err != nil {
			return nil, err
		}
	}

	config := FromEnv()

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// FromEnv builds a Config from the current environment without validating it
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "8080"),
			Environment:   getEnv("ENVIRONMENT", "development"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Name:               getEnv("DB_NAME", "ihc_portal"),
			MaxConnections:     getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DB_CONNECTION_MAX_LIFETIME", 300)) * time.Second,
			AutoMigrate:        getEnvAsBool("AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 86400)) * time.Second,
		},
		Staff: StaffConfig{
			APIKey: getEnv("STAFF_API_KEY", ""),
			Email:  getEnv("STAFF_EMAIL", ""),
		},
		Mail: MailConfig{
			Provider:    strings.ToLower(getEnv("MAIL_PROVIDER", "log")),
			BrevoAPIKey: getEnv("BREVO_API_KEY", ""),
			BrevoAPIURL: getEnv("BREVO_API_URL", "https://api.brevo.com/v3/smtp/email"),
			SMTPHost:    getEnv("SMTP_HOST", ""),
			SMTPPort:    getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:    getEnv("SMTP_USER", ""),
			SMTPPass:    getEnv("SMTP_PASS", ""),
			SMTPSecure:  getEnvAsBool("SMTP_SECURE", false),
			FromName:    getEnv("MAIL_FROM_NAME", "IHC Portal"),
			FromAddress: getEnv("MAIL_FROM_ADDRESS", "admin@ihc-bh.com"),
			MaxRetries:  getEnvAsInt("MAIL_MAX_RETRIES", 1),
			SendTimeout: time.Duration(getEnvAsInt("MAIL_SEND_TIMEOUT", 30)) * time.Second,
		},
		Notify: NotifyConfig{
			Transport:    strings.ToLower(getEnv("NOTIFY_TRANSPORT", "direct")),
			KafkaBrokers: getEnvAsSlice("KAFKA_BROKERS", nil),
			KafkaTopic:   getEnv("KAFKA_NOTIFY_TOPIC", "ihc.notifications"),
			KafkaGroupID: getEnv("KAFKA_GROUP_ID", "ihc-notifier"),
		},
		RateLimit: RateLimitConfig{
			RedisURL:    getEnv("REDIS_URL", ""),
			MaxAttempts: getEnvAsInt("RATE_LIMIT_MAX_ATTEMPTS", 5),
			Window:      time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW", 900)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Staff-Key"}),
		},
		Security: SecurityConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 10),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
			EnableAuditLog:   getEnvAsBool("ENABLE_AUDIT_LOGGING", true),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Staff.APIKey == "" {
		return fmt.Errorf("STAFF_API_KEY is required")
	}

	if c.Staff.Email == "" {
		return fmt.Errorf("STAFF_EMAIL is required")
	}

	if c.Server.PublicBaseURL == "" {
		return fmt.Errorf("PUBLIC_BASE_URL is required")
	}

	switch c.Mail.Provider {
	case "brevo":
		if c.Mail.BrevoAPIKey == "" {
			return fmt.Errorf("BREVO_API_KEY is required when MAIL_PROVIDER=brevo")
		}
	case "smtp":
		if c.Mail.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when MAIL_PROVIDER=smtp")
		}
	case "log":
	default:
		return fmt.Errorf("invalid MAIL_PROVIDER: %s (must be 'brevo', 'smtp' or 'log')", c.Mail.Provider)
	}

	switch c.Notify.Transport {
	case "direct":
	case "kafka":
		if len(c.Notify.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when NOTIFY_TRANSPORT=kafka")
		}
	default:
		return fmt.Errorf("invalid NOTIFY_TRANSPORT: %s (must be 'direct' or 'kafka')", c.Notify.Transport)
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// applyFileDefaults reads a flat YAML map of KEY: value pairs and exports
// every key the environment does not already define.
func applyFileDefaults(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	for key, value := range values {
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to apply %s from config file: %w", key, err)
		}
	}
	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	Database DatabaseConfig

	// Conversation session state
	Session SessionConfig

	// AI Service
	AI AIConfig

	// Symptom dataset used by the weighted matcher
	Dataset DatasetConfig

	// Booking defaults
	Booking BookingConfig

	// Hosted checkout gateway
	Payment PaymentConfig

	// WhatsApp Cloud API
	WhatsApp WhatsAppConfig

	// Security
	Security SecurityConfig
}

type DatabaseConfig struct {
	Type     string // "mongodb", "postgresql" or "memory"
	URI      string
	Name     string
	Host     string
	Port     string
	Username string
	Password string

	// Connection pool settings
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration

	// Upper bound for a single read or write issued during a chat turn
	Timeout time.Duration
}

type SessionConfig struct {
	RedisURL    string // empty keeps sessions in process memory
	IdleTimeout time.Duration
	CookieName  string
}

type AIConfig struct {
	Provider  string // "gemini" or "openai"
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

type DatasetConfig struct {
	CSVPath string // empty derives the dataset from the disease catalog
}

type BookingConfig struct {
	DefaultFee      float64
	Currency        string
	AppointmentHour int
}

type PaymentConfig struct {
	BaseURL    string
	APIKey     string
	SuccessURL string
	Timeout    time.Duration
}

type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BusinessID    string
	VerifyToken   string
	AppSecret     string
	APIVersion    string
	APIURL        string
}

type SecurityConfig struct {
	AllowedOrigins []string
	TrustedProxies []string
	// AdminToken guards /api/whatsapp/admin. Empty disables those routes.
	AdminToken string
}

var cfg *Config

// Load initializes the configuration
func Load() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	provider := strings.ToLower(getEnv("AI_PROVIDER", "gemini"))

	loaded := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		Database: DatabaseConfig{
			Type:     strings.ToLower(getEnv("DB_TYPE", "mongodb")),
			URI:      getEnv("DATABASE_URL", ""),
			Name:     getEnv("DB_NAME", "health_intake"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "27017"),
			Username: getEnv("DB_USERNAME", ""),
			Password: getEnv("DB_PASSWORD", ""),

			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 100),
			MinConnections: getEnvAsInt("DB_MIN_CONNECTIONS", 10),
			MaxIdleTime:    getEnvAsDuration("DB_MAX_IDLE_TIME", "30m"),
			Timeout:        getEnvAsDuration("STORE_TIMEOUT", "5s"),
		},

		Session: SessionConfig{
			RedisURL:    getEnv("REDIS_URL", ""),
			IdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", "30m"),
			CookieName:  getEnv("SESSION_COOKIE_NAME", "intake_session"),
		},

		AI: AIConfig{
			Provider:  provider,
			APIKey:    getEnv("AI_API_KEY", defaultAPIKey(provider)),
			Model:     getEnv("AI_MODEL", defaultModel(provider)),
			BaseURL:   getEnv("AI_BASE_URL", ""),
			MaxTokens: getEnvAsInt("AI_MAX_TOKENS", 500),
			Timeout:   getEnvAsDuration("AI_TIMEOUT", "15s"),
		},

		Dataset: DatasetConfig{
			CSVPath: getEnv("DATASET_CSV_PATH", ""),
		},

		Booking: BookingConfig{
			DefaultFee:      getEnvAsFloat("DEFAULT_CONSULTATION_FEE", 500),
			Currency:        getEnv("CURRENCY", "BDT"),
			AppointmentHour: getEnvAsInt("APPOINTMENT_HOUR", 16),
		},

		Payment: PaymentConfig{
			BaseURL:    getEnv("PAYMENT_BASE_URL", ""),
			APIKey:     getEnv("PAYMENT_API_KEY", ""),
			SuccessURL: getEnv("PAYMENT_SUCCESS_URL", "http://localhost:3000/payment/success"),
			Timeout:    getEnvAsDuration("PAYMENT_TIMEOUT", "20s"),
		},

		WhatsApp: WhatsAppConfig{
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			BusinessID:    getEnv("WHATSAPP_BUSINESS_ID", ""),
			VerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
			AppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
			APIVersion:    getEnv("WHATSAPP_API_VERSION", "v18.0"),
			APIURL:        getEnv("WHATSAPP_API_URL", "https://graph.facebook.com"),
		},

		Security: SecurityConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES", []string{}),
			AdminToken:     getEnv("ADMIN_API_TOKEN", ""),
		},
	}

	// Validate configuration
	if err := validate(loaded); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg = loaded
	return nil
}

// Get returns the loaded configuration
func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not loaded. Call Load() first")
	}
	return cfg
}

// LLMEnabled reports whether a text-completion credential is configured.
func (c *Config) LLMEnabled() bool {
	return c.AI.APIKey != ""
}

// PaymentEnabled reports whether a checkout gateway is configured.
func (c *Config) PaymentEnabled() bool {
	return c.Payment.BaseURL != ""
}

// WhatsAppEnabled reports whether the Graph API credentials are present.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsApp.AccessToken != "" && c.WhatsApp.PhoneNumberID != "" && c.WhatsApp.VerifyToken != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultAPIKey(provider string) string {
	if provider == "openai" {
		return os.Getenv("OPENAI_API_KEY")
	}
	return os.Getenv("GOOGLE_API_KEY")
}

func defaultModel(provider string) string {
	if provider == "openai" {
		return "gpt-4o-mini"
	}
	return "gemini-1.5-flash"
}

func validate(c *Config) error {
	switch c.Database.Type {
	case "mongodb":
		if c.Database.URI == "" && (c.Database.Host == "" || c.Database.Port == "") {
			return fmt.Errorf("database URI or host/port must be provided")
		}
	case "postgresql":
		if c.Database.URI == "" && c.Database.Host == "" {
			return fmt.Errorf("database URI or host must be provided")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported AI provider: %s", c.AI.Provider)
	}

	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session idle timeout must be positive")
	}

	if c.Booking.AppointmentHour < 0 || c.Booking.AppointmentHour > 23 {
		return fmt.Errorf("appointment hour must be between 0 and 23")
	}

	if c.Environment == "production" && c.WhatsAppEnabled() && c.WhatsApp.AppSecret == "" {
		return fmt.Errorf("WHATSAPP_APP_SECRET is required in production when WhatsApp is enabled")
	}

	return nil
}

// BuildDatabaseURI constructs the database URI if not provided
func (c *Config) BuildDatabaseURI() string {
	if c.Database.URI != "" {
		return c.Database.URI
	}

	switch c.Database.Type {
	case "mongodb":
		if c.Database.Username != "" && c.Database.Password != "" {
			return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s",
				c.Database.Username,
				c.Database.Password,
				c.Database.Host,
				c.Database.Port,
				c.Database.Name,
			)
		}
		return fmt.Sprintf("mongodb://%s:%s/%s",
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
		)
	case "postgresql":
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			c.Database.Username,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
		)
	default:
		return ""
	}
}

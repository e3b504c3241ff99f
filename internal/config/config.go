package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	AdminJWTSecret     string

	// Lead persistence
	LeadStore      string
	LeadsFilePath  string
	DatabaseURL    string
	LeadsTableName string
	LeadsBucket    string
	LeadsObjectKey string

	// Submission rate limits. Lead and contact forms keep separate windows.
	RateLimitBackend   string
	LeadRateLimit      RateLimitPolicy
	ContactRateLimit   RateLimitPolicy
	GlobalRPS          float64
	GlobalBurst        int
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	RedisKeyPrefix     string
	TrustForwardedFor  bool
	MaxRequestBodySize int64

	// Email notifications
	EmailProvider     string
	SendGridAPIKey    string
	EmailFromAddress  string
	EmailFromName     string
	LeadNotifyAddress string

	// Events
	LeadEventsQueueURL string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// RateLimitPolicy bounds accepted submissions per client within a trailing window.
type RateLimitPolicy struct {
	MaxRequests int
	Window      time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),

		LeadStore:      strings.ToLower(strings.TrimSpace(getEnv("LEAD_STORE", "file"))),
		LeadsFilePath:  getEnv("LEADS_FILE_PATH", "data/leads.json"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		LeadsTableName: getEnv("LEADS_TABLE_NAME", "leads"),
		LeadsBucket:    getEnv("LEADS_BUCKET", ""),
		LeadsObjectKey: getEnv("LEADS_OBJECT_KEY", "leads/leads.json"),

		RateLimitBackend: strings.ToLower(strings.TrimSpace(getEnv("RATE_LIMIT_BACKEND", "memory"))),
		LeadRateLimit: RateLimitPolicy{
			MaxRequests: getEnvAsInt("LEAD_RATE_LIMIT_MAX", 3),
			Window:      getEnvAsDuration("LEAD_RATE_LIMIT_WINDOW", time.Minute),
		},
		ContactRateLimit: RateLimitPolicy{
			MaxRequests: getEnvAsInt("CONTACT_RATE_LIMIT_MAX", 3),
			Window:      getEnvAsDuration("CONTACT_RATE_LIMIT_WINDOW", time.Minute),
		},
		GlobalRPS:          getEnvAsFloat("GLOBAL_RPS", 10),
		GlobalBurst:        getEnvAsInt("GLOBAL_BURST", 20),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		RedisKeyPrefix:     getEnv("REDIS_KEY_PREFIX", "ratelimit"),
		TrustForwardedFor:  getEnvAsBool("TRUST_FORWARDED_FOR", true),
		MaxRequestBodySize: int64(getEnvAsInt("MAX_REQUEST_BODY_BYTES", 64<<10)),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress:  getEnv("EMAIL_FROM", ""),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Agency Website"),
		LeadNotifyAddress: getEnv("LEAD_NOTIFY_EMAIL", ""),

		LeadEventsQueueURL: getEnv("LEAD_EVENTS_QUEUE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// NeedsAWS reports whether any configured component talks to AWS.
func (c *Config) NeedsAWS() bool {
	switch c.LeadStore {
	case "dynamodb", "s3":
		return true
	}
	if c.LeadEventsQueueURL != "" {
		return true
	}
	return c.EmailProvider == "ses"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
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

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Assistant service settings
	OpenAIAPIKey  string
	AssistantID   string
	AssistantSync bool
	PollInterval  time.Duration
	PollMaxTicks  int

	// Retrieval service settings
	RetrievalAPIKey  string
	RetrievalBaseURL string
	RetrievalTimeout time.Duration

	// WhatsApp settings
	WhatsAppAPIKey        string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string

	// NATS settings (thread store; in-memory store is used when URL is empty)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings for the operator API
	JWTSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Assistant
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		AssistantID:   getEnv("OPENAI_ASSISTANT_ID", ""),
		AssistantSync: getBoolEnv("ASSISTANT_SYNC", false),
		PollInterval:  getDurationEnv("RUN_POLL_INTERVAL", 2*time.Second),
		PollMaxTicks:  getIntEnv("RUN_POLL_MAX_TICKS", 30),

		// Retrieval
		RetrievalAPIKey:  getEnv("RETRIEVAL_API_KEY", ""),
		RetrievalBaseURL: getEnv("RETRIEVAL_BASE_URL", ""),
		RetrievalTimeout: getDurationEnv("RETRIEVAL_TIMEOUT", 30*time.Second),

		// WhatsApp
		WhatsAppAPIKey:        getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

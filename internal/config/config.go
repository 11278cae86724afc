package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// External capabilities
	NLUAPIURL       string
	SearchAPIURL    string
	KnowledgeAPIURL string

	// NLU provider: "http" calls NLU_API_URL, "openai" runs the
	// LLM-backed extractor in-process.
	NLUProvider string
	OpenAIKey   string
	OpenAIModel string

	// Dialog core
	MinConfidence float64
	HistoryWindow int
	SearchLimit   int

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache / sessions
	CacheTTL   time.Duration
	SessionTTL time.Duration
	RedisURL   string

	// NATS transport (optional; empty disables it)
	NATSURL     string
	NATSSubject string

	// Observability
	OTLPEndpoint string

	// JWT / Auth
	JWTSecret    string
	AuthRequired bool
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		NLUAPIURL:       getEnv("NLU_API_URL", "http://localhost:8091"),
		SearchAPIURL:    getEnv("SEARCH_API_URL", "http://localhost:8092"),
		KnowledgeAPIURL: getEnv("KNOWLEDGE_API_URL", "http://localhost:8093"),

		NLUProvider: getEnv("NLU_PROVIDER", "http"),
		OpenAIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel: getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		MinConfidence: getEnvFloat("MIN_CONFIDENCE", 0.5),
		HistoryWindow: getEnvInt("HISTORY_WINDOW", 6),
		SearchLimit:   getEnvInt("SEARCH_LIMIT", 5),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL:   getEnvDuration("CACHE_TTL", 5*time.Minute),
		SessionTTL: getEnvDuration("SESSION_TTL", 24*time.Hour),
		RedisURL:   getEnv("REDIS_URL", ""),

		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "assistant.turns"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret:    getEnv("JWT_SECRET", "assistant-default-dev-secret-change-me"),
		AuthRequired: getEnv("AUTH_REQUIRED", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

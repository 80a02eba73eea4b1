// Package config handles application configuration.
package config

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// Authentication
	JWTSecret string

	// Service LLM keys
	ServiceOpenAIKey     string
	ServiceAnthropicKey  string
	ServiceOpenRouterKey string
	OllamaBaseURL        string // Enables the ollama provider when set

	// CORS
	CORSOrigins []string

	// Audit pipeline limits
	MaxPromptsPerAudit          int           // Hard cap on prompts per audit request
	ProviderTimeout             time.Duration // Per provider call
	CompetitorValidationTimeout time.Duration // Global deadline for the validation round
	CompetitorMinKeywordOverlap int           // Shared keywords needed to confirm industry overlap
	SubjectFetchTimeout         time.Duration // Subject-site metadata crawl

	// Rate limiting
	RequestsPerMinute int // Per-account sliding window capacity

	// Trial abuse guard
	TrialCooldown        time.Duration // Window for email-similarity comparisons
	RiskBlockThreshold   int           // Risk score at or above which trials are blocked
	RiskPaymentThreshold int           // Risk score above which a payment method is required

	// Object Storage (S3-compatible) for result archive and IP blocklist
	StorageEnabled   bool
	StorageEndpoint  string // AWS_ENDPOINT_URL_S3
	StorageAccessKey string // AWS_ACCESS_KEY_ID
	StorageSecretKey string // AWS_SECRET_ACCESS_KEY
	StorageBucket    string
	StorageRegion    string
	BlocklistBucket  string // Defaults to StorageBucket

	// Admin notifications
	NotifyURL           string // Webhook URL for finished-audit notifications ("" = disabled)
	NotifySigningSecret string // Derived from JWTSecret when not set explicitly

	// Logging
	LogFiltersPath string // Optional JSON file with slog-logfilter rules
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:citelens.db?_journal=WAL&_timeout=5000"),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		ServiceOpenAIKey:     getEnv("SERVICE_OPENAI_KEY", ""),
		ServiceAnthropicKey:  getEnv("SERVICE_ANTHROPIC_KEY", ""),
		ServiceOpenRouterKey: getEnv("SERVICE_OPENROUTER_KEY", ""),
		OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", ""),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		MaxPromptsPerAudit:          getEnvInt("MAX_PROMPTS_PER_AUDIT", 10),
		ProviderTimeout:             getEnvDuration("PROVIDER_TIMEOUT", 120*time.Second),
		CompetitorValidationTimeout: getEnvDuration("COMPETITOR_VALIDATION_TIMEOUT", 15*time.Second),
		CompetitorMinKeywordOverlap: getEnvInt("COMPETITOR_MIN_KEYWORD_OVERLAP", 1),
		SubjectFetchTimeout:         getEnvDuration("SUBJECT_FETCH_TIMEOUT", 10*time.Second),

		RequestsPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 10),

		TrialCooldown:        getEnvDuration("TRIAL_COOLDOWN", 90*24*time.Hour),
		RiskBlockThreshold:   getEnvInt("RISK_BLOCK_THRESHOLD", 50),
		RiskPaymentThreshold: getEnvInt("RISK_PAYMENT_THRESHOLD", 25),

		StorageEndpoint:  getEnv("AWS_ENDPOINT_URL_S3", ""),
		StorageAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StorageBucket:    getEnvWithFallback("BUCKET_NAME", "STORAGE_BUCKET", ""),
		StorageRegion:    getEnv("AWS_REGION", "auto"),

		NotifyURL:           getEnv("NOTIFY_URL", ""),
		NotifySigningSecret: getEnv("NOTIFY_SIGNING_SECRET", ""),

		LogFiltersPath: getEnv("LOG_FILTERS_PATH", ""),
	}

	cfg.StorageEnabled = cfg.StorageBucket != "" && cfg.StorageEndpoint != ""
	cfg.BlocklistBucket = getEnv("BLOCKLIST_BUCKET", cfg.StorageBucket)

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.MaxPromptsPerAudit < 1 {
		return nil, fmt.Errorf("MAX_PROMPTS_PER_AUDIT must be at least 1")
	}
	if cfg.RequestsPerMinute < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1")
	}
	if cfg.NotifyURL != "" {
		if _, err := url.ParseRequestURI(cfg.NotifyURL); err != nil {
			return nil, fmt.Errorf("NOTIFY_URL is not a valid URL: %w", err)
		}
	}

	// Derive the notification signing secret from the app secret when not
	// configured explicitly, so signed webhooks work out of the box.
	if cfg.NotifySigningSecret == "" {
		cfg.NotifySigningSecret = deriveSigningSecret(cfg.JWTSecret)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}

// deriveSigningSecret creates a webhook signing secret from a high-entropy
// app secret using HKDF. The salt and info bind the derived key to its purpose.
func deriveSigningSecret(secret string) string {
	salt := []byte("citelens-api-notify-v1")
	info := []byte("webhook-signing")

	hkdfReader := hkdf.New(sha256.New, []byte(secret), salt, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		// Cannot happen with valid inputs
		panic("hkdf: failed to derive key: " + err.Error())
	}

	return "whsec_" + base64.StdEncoding.EncodeToString(key)
}

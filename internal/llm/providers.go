// Package llm provides provider registry, wire-format configuration, and
// pricing for the AI providers the audit pipeline queries.
package llm

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/citelens/citelens-api/internal/config"
)

// Provider name constants for use throughout the codebase.
// Use these constants instead of string literals to prevent typos
// and enable compile-time checking.
const (
	// ProviderOpenAI is the OpenAI provider name.
	ProviderOpenAI = "openai"

	// ProviderAnthropic is the Anthropic provider name.
	ProviderAnthropic = "anthropic"

	// ProviderOpenRouter is the OpenRouter provider name.
	ProviderOpenRouter = "openrouter"

	// ProviderOllama is the Ollama provider name.
	ProviderOllama = "ollama"
)

// ValidProviders returns a slice of all valid provider names.
func ValidProviders() []string {
	return []string{
		ProviderOpenAI,
		ProviderAnthropic,
		ProviderOpenRouter,
		ProviderOllama,
	}
}

// IsValidProvider returns true if the provider name is valid.
func IsValidProvider(provider string) bool {
	switch provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter, ProviderOllama:
		return true
	default:
		return false
	}
}

// APIFormat identifies the request/response wire format a provider speaks.
type APIFormat string

const (
	APIFormatOpenAI    APIFormat = "openai"
	APIFormatAnthropic APIFormat = "anthropic"
	APIFormatOllama    APIFormat = "ollama"
)

// AuthType identifies how a provider expects credentials.
type AuthType string

const (
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "apikey"
	AuthTypeNone   AuthType = "none"
)

// ProviderAPIConfig describes how to call a provider's chat API.
type ProviderAPIConfig struct {
	BaseURL      string
	ChatEndpoint string
	APIFormat    APIFormat
	AuthType     AuthType
	AuthHeader   string            // Header name for AuthTypeAPIKey (default x-api-key)
	ExtraHeaders map[string]string // Static headers sent on every request
	DefaultModel string
}

// Registry manages provider API configurations and service credentials.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*ProviderAPIConfig
	keys      map[string]string
	logger    *slog.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		providers: make(map[string]*ProviderAPIConfig),
		keys:      make(map[string]string),
		logger:    logger,
	}
}

// InitRegistry creates and initializes the registry with all supported
// providers. A provider is registered only when it can actually be called:
// keyed providers need a service key, ollama needs a base URL.
func InitRegistry(cfg *config.Config, logger *slog.Logger) *Registry {
	r := NewRegistry(logger)

	if cfg.ServiceOpenAIKey != "" {
		r.Register(ProviderOpenAI, &ProviderAPIConfig{
			BaseURL:      "https://api.openai.com",
			ChatEndpoint: "/v1/chat/completions",
			APIFormat:    APIFormatOpenAI,
			AuthType:     AuthTypeBearer,
			DefaultModel: "gpt-4o-mini",
		}, cfg.ServiceOpenAIKey)
	}

	if cfg.ServiceAnthropicKey != "" {
		r.Register(ProviderAnthropic, &ProviderAPIConfig{
			BaseURL:      "https://api.anthropic.com",
			ChatEndpoint: "/v1/messages",
			APIFormat:    APIFormatAnthropic,
			AuthType:     AuthTypeAPIKey,
			AuthHeader:   "x-api-key",
			ExtraHeaders: map[string]string{"anthropic-version": "2023-06-01"},
			DefaultModel: "claude-3-5-haiku-20241022",
		}, cfg.ServiceAnthropicKey)
	}

	if cfg.ServiceOpenRouterKey != "" {
		r.Register(ProviderOpenRouter, &ProviderAPIConfig{
			BaseURL:      "https://openrouter.ai",
			ChatEndpoint: "/api/v1/chat/completions",
			APIFormat:    APIFormatOpenAI,
			AuthType:     AuthTypeBearer,
			ExtraHeaders: map[string]string{
				"HTTP-Referer": cfg.BaseURL,
				"X-Title":      "CiteLens",
			},
			DefaultModel: "openai/gpt-4o-mini",
		}, cfg.ServiceOpenRouterKey)
	}

	if cfg.OllamaBaseURL != "" {
		r.Register(ProviderOllama, &ProviderAPIConfig{
			BaseURL:      cfg.OllamaBaseURL,
			ChatEndpoint: "/api/chat",
			APIFormat:    APIFormatOllama,
			AuthType:     AuthTypeNone,
			DefaultModel: "llama3.1",
		}, "")
	}

	if logger != nil {
		logger.Info("provider registry initialized", "providers", r.EnabledProviders())
	}

	return r
}

// Register adds a provider with its credential to the registry.
func (r *Registry) Register(name string, apiConfig *ProviderAPIConfig, apiKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = apiConfig
	r.keys[name] = apiKey
}

// GetProviderAPIConfig returns the API configuration for a provider, or nil
// when the provider is not registered.
func (r *Registry) GetProviderAPIConfig(provider string) *ProviderAPIConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[provider]
}

// APIKey returns the service credential for a provider.
func (r *Registry) APIKey(provider string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keys[provider]
}

// IsEnabled reports whether a provider is registered and callable.
func (r *Registry) IsEnabled(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[provider]
	return ok
}

// EnabledProviders returns the sorted names of all registered providers.
func (r *Registry) EnabledProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

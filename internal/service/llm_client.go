package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/citelens/citelens-api/internal/llm"
	"github.com/citelens/citelens-api/internal/models"
)

// LLMCallOptions configures an LLM API call.
type LLMCallOptions struct {
	Temperature float64       // Default: 0.7
	MaxTokens   int           // Default: 1024
	Timeout     time.Duration // Default: 120s
}

// DefaultLLMCallOptions returns sensible defaults for audit queries.
// Temperature stays high on purpose: the point is to sample what a real
// user-facing answer looks like, not to force determinism.
func DefaultLLMCallOptions() LLMCallOptions {
	return LLMCallOptions{
		Temperature: 0.7,
		MaxTokens:   1024,
		Timeout:     120 * time.Second,
	}
}

// LLMCallResult holds the result of an LLM API call including token usage.
type LLMCallResult struct {
	Content      string
	InputTokens  int
	OutputTokens int
	FinishReason string // "stop", "length", "end_turn", etc.
	Model        string
}

// LLMClient handles direct LLM API calls.
type LLMClient struct {
	logger   *slog.Logger
	registry *llm.Registry
}

// NewLLMClient creates a new LLM client with registry for provider configuration.
func NewLLMClient(logger *slog.Logger, registry *llm.Registry) *LLMClient {
	return &LLMClient{logger: logger, registry: registry}
}

// Call sends one prompt to a provider and returns the response with token usage.
func (c *LLMClient) Call(ctx context.Context, provider, model, prompt string, opts LLMCallOptions) (*LLMCallResult, error) {
	apiConfig := c.registry.GetProviderAPIConfig(provider)
	if apiConfig == nil {
		return nil, &models.ProviderError{Provider: provider, Err: fmt.Errorf("provider not configured")}
	}

	apiKey := c.registry.APIKey(provider)
	if apiKey == "" && apiConfig.AuthType != llm.AuthTypeNone {
		return nil, &models.ProviderError{Provider: provider, Err: fmt.Errorf("no API key available")}
	}

	if model == "" {
		model = apiConfig.DefaultModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1024
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}

	reqBody := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
	}
	if apiConfig.APIFormat == llm.APIFormatOllama {
		// Ollama streams by default; audits want one complete answer
		reqBody["stream"] = false
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := apiConfig.BaseURL + apiConfig.ChatEndpoint

	if c.logger != nil {
		c.logger.Debug("making LLM API request",
			"provider", provider,
			"model", model,
			"api_url", apiURL,
			"prompt_length", len(prompt),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req, apiConfig, apiKey)

	client := &http.Client{Timeout: opts.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("LLM API request failed", "provider", provider, "error", err)
		}
		return nil, &models.ProviderError{Provider: provider, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.ProviderError{Provider: provider, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		if c.logger != nil {
			c.logger.Error("LLM API error",
				"provider", provider,
				"status_code", resp.StatusCode,
				"response", string(body),
			)
		}
		return nil, &models.ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", string(body)),
		}
	}

	result, err := c.ParseResponse(provider, body)
	if err != nil {
		return nil, &models.ProviderError{Provider: provider, Err: err}
	}
	result.Model = model

	return result, nil
}

// setAuthHeaders sets authentication headers per the provider's registry config.
func (c *LLMClient) setAuthHeaders(req *http.Request, apiConfig *llm.ProviderAPIConfig, apiKey string) {
	switch apiConfig.AuthType {
	case llm.AuthTypeBearer:
		req.Header.Set("Authorization", "Bearer "+apiKey)
	case llm.AuthTypeAPIKey:
		headerName := apiConfig.AuthHeader
		if headerName == "" {
			headerName = "x-api-key"
		}
		req.Header.Set(headerName, apiKey)
	case llm.AuthTypeNone:
		// No auth needed
	}

	for k, v := range apiConfig.ExtraHeaders {
		req.Header.Set(k, v)
	}
}

// ParseResponse extracts the text response and token usage from different LLM
// provider formats. Uses registry configuration to determine the API format.
// Exported for testing.
func (c *LLMClient) ParseResponse(provider string, body []byte) (*LLMCallResult, error) {
	apiFormat := llm.APIFormatOpenAI
	if apiConfig := c.registry.GetProviderAPIConfig(provider); apiConfig != nil {
		apiFormat = apiConfig.APIFormat
	}

	switch apiFormat {
	case llm.APIFormatAnthropic:
		return c.parseAnthropicFormat(body)
	case llm.APIFormatOllama:
		return c.parseOllamaFormat(body)
	default:
		return c.parseOpenAIFormat(body)
	}
}

// parseAnthropicFormat parses Anthropic API response format.
func (c *LLMClient) parseAnthropicFormat(body []byte) (*LLMCallResult, error) {
	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"` // "end_turn", "max_tokens", "stop_sequence"
		Usage      struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Anthropic response: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("empty response from LLM")
	}

	result := &LLMCallResult{
		Content:      resp.Content[0].Text,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}

	// Normalize Anthropic's stop_reason to OpenAI-style finish_reason
	switch resp.StopReason {
	case "max_tokens":
		result.FinishReason = "length"
	case "end_turn", "stop_sequence":
		result.FinishReason = "stop"
	default:
		result.FinishReason = resp.StopReason
	}

	return result, nil
}

// parseOllamaFormat parses Ollama API response format.
func (c *LLMClient) parseOllamaFormat(body []byte) (*LLMCallResult, error) {
	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		DoneReason      string `json:"done_reason"` // "stop", "length"
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Ollama response: %w", err)
	}

	return &LLMCallResult{
		Content:      resp.Message.Content,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
		FinishReason: resp.DoneReason,
	}, nil
}

// parseOpenAIFormat parses OpenAI-compatible API response format.
// Used for OpenAI, OpenRouter, and other compatible APIs.
func (c *LLMClient) parseOpenAIFormat(body []byte) (*LLMCallResult, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"` // "stop", "length", "content_filter"
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from LLM")
	}

	return &LLMCallResult{
		Content:      resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		FinishReason: resp.Choices[0].FinishReason,
	}, nil
}

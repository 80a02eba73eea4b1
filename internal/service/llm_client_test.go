package service

import (
	"context"
	"strings"
	"testing"

	"github.com/citelens/citelens-api/internal/llm"
	"github.com/citelens/citelens-api/internal/models"
)

func testRegistry() *llm.Registry {
	r := llm.NewRegistry(nil)
	r.Register(llm.ProviderOpenAI, &llm.ProviderAPIConfig{
		BaseURL:      "https://api.openai.com",
		ChatEndpoint: "/v1/chat/completions",
		APIFormat:    llm.APIFormatOpenAI,
		AuthType:     llm.AuthTypeBearer,
		DefaultModel: "gpt-4o-mini",
	}, "test-key")
	r.Register(llm.ProviderAnthropic, &llm.ProviderAPIConfig{
		BaseURL:      "https://api.anthropic.com",
		ChatEndpoint: "/v1/messages",
		APIFormat:    llm.APIFormatAnthropic,
		AuthType:     llm.AuthTypeAPIKey,
		AuthHeader:   "x-api-key",
		DefaultModel: "claude-3-5-haiku-20241022",
	}, "test-key")
	r.Register(llm.ProviderOllama, &llm.ProviderAPIConfig{
		BaseURL:      "http://localhost:11434",
		ChatEndpoint: "/api/chat",
		APIFormat:    llm.APIFormatOllama,
		AuthType:     llm.AuthTypeNone,
		DefaultModel: "llama3.1",
	}, "")
	return r
}

func TestParseResponseOpenAI(t *testing.T) {
	client := NewLLMClient(nil, testRegistry())

	body := []byte(`{
		"choices": [{"message": {"content": "Consider rival.com for this."}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 42, "completion_tokens": 17}
	}`)

	result, err := client.ParseResponse(llm.ProviderOpenAI, body)
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if result.Content != "Consider rival.com for this." {
		t.Errorf("Content = %q", result.Content)
	}
	if result.InputTokens != 42 || result.OutputTokens != 17 {
		t.Errorf("tokens = %d/%d, want 42/17", result.InputTokens, result.OutputTokens)
	}
	if result.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", result.FinishReason)
	}
}

func TestParseResponseAnthropic(t *testing.T) {
	client := NewLLMClient(nil, testRegistry())

	tests := []struct {
		name       string
		stopReason string
		want       string
	}{
		{"end_turn normalizes to stop", "end_turn", "stop"},
		{"max_tokens normalizes to length", "max_tokens", "length"},
		{"unknown passes through", "tool_use", "tool_use"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := []byte(`{
				"content": [{"text": "Some answer"}],
				"stop_reason": "` + tt.stopReason + `",
				"usage": {"input_tokens": 10, "output_tokens": 5}
			}`)

			result, err := client.ParseResponse(llm.ProviderAnthropic, body)
			if err != nil {
				t.Fatalf("ParseResponse() error = %v", err)
			}
			if result.FinishReason != tt.want {
				t.Errorf("FinishReason = %q, want %q", result.FinishReason, tt.want)
			}
			if result.Content != "Some answer" || result.InputTokens != 10 {
				t.Errorf("unexpected result: %+v", result)
			}
		})
	}
}

func TestParseResponseOllama(t *testing.T) {
	client := NewLLMClient(nil, testRegistry())

	body := []byte(`{
		"message": {"content": "Local model answer"},
		"done_reason": "stop",
		"prompt_eval_count": 30,
		"eval_count": 12
	}`)

	result, err := client.ParseResponse(llm.ProviderOllama, body)
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if result.Content != "Local model answer" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.InputTokens != 30 || result.OutputTokens != 12 {
		t.Errorf("tokens = %d/%d, want 30/12", result.InputTokens, result.OutputTokens)
	}
}

func TestParseResponseEmpty(t *testing.T) {
	client := NewLLMClient(nil, testRegistry())

	if _, err := client.ParseResponse(llm.ProviderOpenAI, []byte(`{"choices": []}`)); err == nil {
		t.Error("empty choices should be an error")
	}
	if _, err := client.ParseResponse(llm.ProviderAnthropic, []byte(`{"content": []}`)); err == nil {
		t.Error("empty content should be an error")
	}
	if _, err := client.ParseResponse(llm.ProviderOpenAI, []byte(`not json`)); err == nil {
		t.Error("malformed body should be an error")
	}
}

func TestCallUnconfiguredProvider(t *testing.T) {
	client := NewLLMClient(nil, llm.NewRegistry(nil))

	_, err := client.Call(context.Background(), "openai", "", "prompt", DefaultLLMCallOptions())
	if !models.IsProviderError(err) {
		t.Fatalf("Call() error = %v, want ProviderError", err)
	}
	if !strings.Contains(err.Error(), "not configured") {
		t.Errorf("error = %v, want unconfigured provider message", err)
	}
}

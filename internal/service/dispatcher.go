package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/citelens/citelens-api/internal/llm"
	"github.com/citelens/citelens-api/internal/models"
)

// ProviderCaller is the LLM client surface the dispatcher needs.
type ProviderCaller interface {
	Call(ctx context.Context, provider, model, prompt string, opts LLMCallOptions) (*LLMCallResult, error)
}

// UsageFunc receives a cost increment per successful provider call.
type UsageFunc func(provider, model string, inputTokens, outputTokens int, costUSD float64)

// Dispatcher fans one prompt set out across providers and collects one
// response per (prompt, provider) pair.
type Dispatcher struct {
	caller ProviderCaller
	logger *slog.Logger
	opts   LLMCallOptions
}

// NewDispatcher creates a provider query dispatcher.
func NewDispatcher(caller ProviderCaller, logger *slog.Logger, opts LLMCallOptions) *Dispatcher {
	return &Dispatcher{caller: caller, logger: logger, opts: opts}
}

// Dispatch issues every (prompt, provider) pair concurrently and waits for
// all of them to settle. A failed pair yields a tombstone response with the
// error tag set instead of aborting the batch. onUsage fires once per
// successful call; it may be nil.
func (d *Dispatcher) Dispatch(ctx context.Context, prompts []models.Prompt, providers []string, onUsage UsageFunc) []models.ProviderResponse {
	total := len(prompts) * len(providers)
	if total == 0 {
		return nil
	}

	responses := make([]models.ProviderResponse, total)

	var wg sync.WaitGroup
	for pi, prompt := range prompts {
		for vi, provider := range providers {
			wg.Add(1)
			go func(slot int, prompt models.Prompt, provider string) {
				defer wg.Done()
				responses[slot] = d.query(ctx, prompt, provider, onUsage)
			}(pi*len(providers)+vi, prompt, provider)
		}
	}
	wg.Wait()

	// Stable order for downstream consumers and persisted results
	sort.SliceStable(responses, func(i, j int) bool {
		if responses[i].PromptID != responses[j].PromptID {
			return responses[i].PromptID < responses[j].PromptID
		}
		return responses[i].Provider < responses[j].Provider
	})

	return responses
}

func (d *Dispatcher) query(ctx context.Context, prompt models.Prompt, provider string, onUsage UsageFunc) models.ProviderResponse {
	resp := models.ProviderResponse{
		PromptID:  prompt.ID,
		QueryType: prompt.Type,
		Provider:  provider,
	}

	result, err := d.caller.Call(ctx, provider, "", prompt.Text, d.opts)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("provider query failed",
				"provider", provider,
				"prompt_id", prompt.ID,
				"error", err,
			)
		}
		resp.Err = err.Error()
		return resp
	}

	resp.Model = result.Model
	resp.Text = result.Content
	resp.InputTokens = result.InputTokens
	resp.OutputTokens = result.OutputTokens
	resp.CostUSD = llm.CostUSD(provider, result.Model, result.InputTokens, result.OutputTokens)

	if onUsage != nil {
		onUsage(provider, result.Model, result.InputTokens, result.OutputTokens, resp.CostUSD)
	}

	return resp
}

package llm

// ModelPricing represents pricing per token for a model.
type ModelPricing struct {
	PromptPricePer1M     float64 `json:"prompt_price_per_1m"`     // Price per 1M input tokens (USD)
	CompletionPricePer1M float64 `json:"completion_price_per_1m"` // Price per 1M output tokens (USD)
	IsFree               bool    `json:"is_free,omitempty"`
}

// Provider-level defaults used when a model has no specific entry.
var defaultProviderPricing = map[string]ModelPricing{
	ProviderOpenAI:     {PromptPricePer1M: 2.50, CompletionPricePer1M: 10.0},
	ProviderAnthropic:  {PromptPricePer1M: 3.00, CompletionPricePer1M: 15.0},
	ProviderOpenRouter: {PromptPricePer1M: 0.50, CompletionPricePer1M: 1.50},
	ProviderOllama:     {IsFree: true},
}

// Model-specific pricing (per million tokens, USD).
var defaultModelPricing = map[string]ModelPricing{
	"gpt-4o":                      {PromptPricePer1M: 2.50, CompletionPricePer1M: 10.0},
	"gpt-4o-mini":                 {PromptPricePer1M: 0.15, CompletionPricePer1M: 0.60},
	"openai/gpt-4o":               {PromptPricePer1M: 2.50, CompletionPricePer1M: 10.0},
	"openai/gpt-4o-mini":          {PromptPricePer1M: 0.15, CompletionPricePer1M: 0.60},
	"claude-3-5-sonnet-20241022":  {PromptPricePer1M: 3.0, CompletionPricePer1M: 15.0},
	"claude-3-5-haiku-20241022":   {PromptPricePer1M: 0.80, CompletionPricePer1M: 4.0},
	"anthropic/claude-3.5-sonnet": {PromptPricePer1M: 3.0, CompletionPricePer1M: 15.0},
	"anthropic/claude-3.5-haiku":  {PromptPricePer1M: 0.80, CompletionPricePer1M: 4.0},
}

// GetModelPricing returns pricing for a model, falling back to the
// provider-level default. Unknown provider and model both price at zero.
func GetModelPricing(provider, model string) ModelPricing {
	if pricing, ok := defaultModelPricing[model]; ok {
		return pricing
	}
	if pricing, ok := defaultProviderPricing[provider]; ok {
		return pricing
	}
	return ModelPricing{}
}

// CostUSD computes the dollar cost of a call from its token usage.
func CostUSD(provider, model string, inputTokens, outputTokens int) float64 {
	pricing := GetModelPricing(provider, model)
	if pricing.IsFree {
		return 0
	}
	return float64(inputTokens)*pricing.PromptPricePer1M/1_000_000 +
		float64(outputTokens)*pricing.CompletionPricePer1M/1_000_000
}

package openrouter

// ModelPricing is a model's price in USD per million tokens
type ModelPricing struct {
	PromptPrice     float64
	CompletionPrice float64
}

// Prices for the models roomq is usually pointed at. Local models are free
// and never looked up here.
var modelPricing = map[string]ModelPricing{
	"openai/gpt-4o":               {PromptPrice: 2.50, CompletionPrice: 10.00},
	"openai/gpt-4o-mini":          {PromptPrice: 0.15, CompletionPrice: 0.60},
	"openai/gpt-4.1-mini":         {PromptPrice: 0.40, CompletionPrice: 1.60},
	"openai/gpt-3.5-turbo":        {PromptPrice: 0.50, CompletionPrice: 1.50},
	"anthropic/claude-3.5-sonnet": {PromptPrice: 3.00, CompletionPrice: 15.00},
	"anthropic/claude-3-haiku":    {PromptPrice: 0.25, CompletionPrice: 1.25},
	"google/gemini-flash-1.5":     {PromptPrice: 0.075, CompletionPrice: 0.30},
	"meta-llama/llama-3.1-8b-instruct": {
		PromptPrice:     0.055,
		CompletionPrice: 0.055,
	},
}

// DefaultPricingFallback is charged per request for models missing from the table
const DefaultPricingFallback = 0.01

// CalculateCost returns the USD cost of one completion
func CalculateCost(model string, promptTokens, completionTokens int) float64 {
	p, ok := modelPricing[model]
	if !ok {
		return DefaultPricingFallback
	}
	return (float64(promptTokens)*p.PromptPrice + float64(completionTokens)*p.CompletionPrice) / 1e6
}

// GetPricing returns the pricing of model, if known
func GetPricing(model string) (ModelPricing, bool) {
	p, ok := modelPricing[model]
	return p, ok
}

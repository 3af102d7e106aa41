package providers

// Per-1K-token USD rates used to attribute a cost to each completed job.
// Unknown models fall back to the provider's cheapest published rate.
type tokenRate struct {
	prompt     float64
	completion float64
}

var modelRates = map[string]tokenRate{
	"gpt-4o-mini":      {prompt: 0.00015, completion: 0.0006},
	"gpt-3.5-turbo":    {prompt: 0.0005, completion: 0.0015},
	"gemini-1.5-flash": {prompt: 0.000075, completion: 0.0003},
	"gemini-1.5-pro":   {prompt: 0.00125, completion: 0.005},
}

var fallbackRate = tokenRate{prompt: 0.0005, completion: 0.0015}

// CostFor estimates the USD cost of a completion from its token usage.
func CostFor(model string, promptTokens, completionTokens int) float64 {
	rate, ok := modelRates[model]
	if !ok {
		rate = fallbackRate
	}
	return float64(promptTokens)/1000*rate.prompt + float64(completionTokens)/1000*rate.completion
}

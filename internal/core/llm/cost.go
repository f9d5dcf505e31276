package llm

import "strings"

// Cost per 1M tokens (in USD). Approximate; update as pricing changes.
const (
	costGPT4OPromptPer1M     = 2.50
	costGPT4OCompletionPer1M = 10.00
	costGPT4OMiniPrompt      = 0.15
	costGPT4OMiniComplete    = 0.60
	costGPT5PromptPer1M      = 2.50
	costGPT5CompletionPer1M  = 10.00

	tokensPerMillion = 1000000.0
)

// estimateCost returns the estimated USD cost of one request.
func estimateCost(model string, promptTokens, completionTokens int) float64 {
	promptRate, completionRate := costRates(strings.ToLower(model))

	promptUSD := float64(promptTokens) * promptRate / tokensPerMillion
	completionUSD := float64(completionTokens) * completionRate / tokensPerMillion

	return promptUSD + completionUSD
}

func costRates(model string) (promptRate, completionRate float64) {
	switch {
	case strings.Contains(model, "gpt-5"):
		return costGPT5PromptPer1M, costGPT5CompletionPer1M
	case strings.Contains(model, "gpt-4o-mini"):
		return costGPT4OMiniPrompt, costGPT4OMiniComplete
	case strings.Contains(model, "gpt-4"):
		return costGPT4OPromptPer1M, costGPT4OCompletionPer1M
	default:
		// Conservative default.
		return costGPT4OMiniPrompt, costGPT4OMiniComplete
	}
}

package completion

import (
	"fmt"
	"strings"
)

// Supported provider names.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// NewBackend selects a Backend by provider name. An empty provider selects Gemini.
func NewBackend(provider, apiKey, model, baseURL string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderGemini:
		return NewGeminiBackend(apiKey, model), nil
	case ProviderAnthropic:
		return NewAnthropicBackend(apiKey, model), nil
	case ProviderOpenAI:
		return NewOpenAIBackend(apiKey, model, baseURL), nil
	default:
		return nil, fmt.Errorf("NewBackend: unknown completion provider %q", provider)
	}
}

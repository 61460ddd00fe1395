package completion

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured for the anthropic provider.
const DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicBackend calls the Anthropic Messages API.
type AnthropicBackend struct {
	apiKey    string
	model     string
	maxTokens int64
	opts      []option.RequestOption
}

// NewAnthropicBackend creates an Anthropic backend. Extra request options are
// passed to the SDK client (base URL overrides, custom HTTP clients).
func NewAnthropicBackend(apiKey, model string, opts ...option.RequestOption) *AnthropicBackend {
	if strings.TrimSpace(model) == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicBackend{
		apiKey:    strings.TrimSpace(apiKey),
		model:     model,
		maxTokens: 4096,
		opts:      opts,
	}
}

// Name implements Backend.
func (a *AnthropicBackend) Name() string { return ProviderAnthropic }

// Complete implements Backend.
func (a *AnthropicBackend) Complete(ctx context.Context, prompt string) (string, error) {
	if a.apiKey == "" {
		return "", ErrMissingCredential
	}

	opts := append([]option.RequestOption{
		option.WithAPIKey(a.apiKey),
		option.WithMaxRetries(0),
	}, a.opts...)
	client := anthropic.NewClient(opts...)

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyAnthropicError(err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func classifyAnthropicError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &RequestFailedError{Provider: ProviderAnthropic, StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
	}
	return &RequestFailedError{Provider: ProviderAnthropic, Message: err.Error()}
}

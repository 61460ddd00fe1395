package completion

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultOpenAIBaseURL is the default OpenAI-compatible endpoint root.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1/"

	// DefaultOpenAIModel is used when no model is configured for the openai provider.
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIBackend talks to any OpenAI-compatible chat completions endpoint.
type OpenAIBackend struct {
	apiKey  string
	model   string
	baseURL string
	opts    []option.RequestOption
}

// NewOpenAIBackend creates an OpenAI-compatible backend. Empty model or
// baseURL select the defaults. Extra request options are passed to the SDK
// client.
func NewOpenAIBackend(apiKey, model, baseURL string, opts ...option.RequestOption) *OpenAIBackend {
	if strings.TrimSpace(model) == "" {
		model = DefaultOpenAIModel
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &OpenAIBackend{
		apiKey:  strings.TrimSpace(apiKey),
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		opts:    opts,
	}
}

// Name implements Backend.
func (o *OpenAIBackend) Name() string { return ProviderOpenAI }

// Complete implements Backend.
func (o *OpenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", ErrMissingCredential
	}

	opts := append([]option.RequestOption{
		option.WithAPIKey(o.apiKey),
		option.WithBaseURL(o.baseURL),
		option.WithMaxRetries(0),
	}, o.opts...)
	client := openai.NewClient(opts...)

	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}

	return completion.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		return &RequestFailedError{Provider: ProviderOpenAI, StatusCode: apiErr.StatusCode, Message: msg}
	}
	return &RequestFailedError{Provider: ProviderOpenAI, Message: err.Error()}
}

package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/mahjong-ledger/internal/logger"
)

// DefaultTimeout bounds a single completion request.
const DefaultTimeout = 60 * time.Second

// Backend issues one prompt to a completion provider and returns the raw text.
// Implementations must return ErrMissingCredential when no key is configured
// and *RequestFailedError for rejected or failed calls.
type Backend interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client builds extraction prompts and sends them through a Backend, racing
// each call against a timeout. It never retries.
type Client struct {
	backend Backend
	timeout time.Duration
	now     func() time.Time
}

// NewClient creates a Client. A non-positive timeout selects DefaultTimeout.
func NewClient(backend Backend, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		backend: backend,
		timeout: timeout,
		now:     time.Now,
	}
}

// WithClock overrides the clock used for the prompt's reference date.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// Now returns the client's notion of the current time.
func (c *Client) Now() time.Time {
	return c.now()
}

type completionResult struct {
	text string
	err  error
}

// RequestExtraction asks the provider to turn freeText into JSON records.
// The returned text is unvalidated.
func (c *Client) RequestExtraction(ctx context.Context, freeText string, knownCircleNames []string) (string, error) {
	log := logger.FromContext(ctx)

	if c.backend == nil {
		return "", ErrMissingCredential
	}

	prompt := BuildExtractionPrompt(freeText, knownCircleNames, c.now())

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Buffered so a late response from a backend that ignores ctx is dropped.
	done := make(chan completionResult, 1)
	go func() {
		text, err := c.backend.Complete(ctx, prompt)
		done <- completionResult{text: text, err: err}
	}()

	start := time.Now()
	select {
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("RequestExtraction: %w", ctx.Err())
		}
		log.Warn().
			Str("provider", c.backend.Name()).
			Dur("timeout", c.timeout).
			Msg("Completion request timed out")
		return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
			}
			return "", res.err
		}
		log.Debug().
			Str("provider", c.backend.Name()).
			Dur("duration", time.Since(start)).
			Int("response_len", len(res.text)).
			Msg("Completion received")
		return res.text, nil
	}
}

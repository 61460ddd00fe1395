package completion

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential means no API key is configured for the completion
	// provider. It is a configuration problem and retrying will not help.
	ErrMissingCredential = errors.New("completion: missing API credential")

	// ErrTimeout means the completion request did not finish within the
	// configured timeout.
	ErrTimeout = errors.New("completion: request timed out")
)

// RequestFailedError reports a completion call the provider rejected or that
// failed in transit. StatusCode is 0 when no HTTP response was received.
type RequestFailedError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *RequestFailedError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("completion: %s request failed: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("completion: %s request failed (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsRequestFailed reports whether err is, or wraps, a *RequestFailedError.
func IsRequestFailed(err error) bool {
	var rf *RequestFailedError
	return errors.As(err, &rf)
}

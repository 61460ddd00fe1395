package store

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the backing store rejected the caller's session.
	// The remedy is to re-authenticate, not to change the data.
	ErrUnauthorized = errors.New("store: unauthorized")

	// ErrNotFound means the addressed row does not exist for this owner.
	ErrNotFound = errors.New("store: not found")
)

// DataError reports a write or read the store refused because of the data
// itself (constraint violation, malformed batch, encoding failure).
type DataError struct {
	Op  string
	Err error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError wraps err as a DataError for op. A nil err yields nil.
func NewDataError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DataError{Op: op, Err: err}
}

// IsUnauthorized reports whether err is, or wraps, ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsDataError reports whether err is, or wraps, a *DataError.
func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

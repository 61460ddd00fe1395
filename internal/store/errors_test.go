package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsUnauthorized(t *testing.T) {
	wrapped := fmt.Errorf("InsertRecords: %w", ErrUnauthorized)
	if !IsUnauthorized(wrapped) {
		t.Error("expected wrapped ErrUnauthorized to be detected")
	}
	if IsUnauthorized(errors.New("boom")) {
		t.Error("plain error should not be unauthorized")
	}
}

func TestDataError(t *testing.T) {
	cause := errors.New("duplicate key")
	err := fmt.Errorf("import: %w", NewDataError("insert records", cause))

	if !IsDataError(err) {
		t.Fatal("expected DataError to be detected through wrapping")
	}
	if !errors.Is(err, cause) {
		t.Error("DataError should unwrap to its cause")
	}
	if IsUnauthorized(err) {
		t.Error("data error must not be classified as unauthorized")
	}
	if NewDataError("noop", nil) != nil {
		t.Error("NewDataError(nil) should return nil")
	}
}

package bigquery

import (
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/dvloznov/mahjong-ledger/internal/store"
)

// classifyError maps BigQuery failures onto the store taxonomy: rejected
// credentials become store.ErrUnauthorized and rejected statements or rows
// become *store.DataError. Anything else is wrapped unchanged.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %v", op, store.ErrUnauthorized, err)
		case http.StatusBadRequest:
			return store.NewDataError(op, err)
		}
	}

	var bqErr *bigquery.Error
	if errors.As(err, &bqErr) {
		switch bqErr.Reason {
		case "accessDenied", "unauthorized":
			return fmt.Errorf("%s: %w: %v", op, store.ErrUnauthorized, err)
		case "invalid", "invalidQuery", "duplicate":
			return store.NewDataError(op, err)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

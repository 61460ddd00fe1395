package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/store"
)

func newRecordID() string {
	return uuid.NewString()
}

func validateDate(date string) error {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return invalid("date %q is not YYYY-MM-DD", date)
	}
	return nil
}

// validateDraft checks the date format and that the circle belongs to the owner.
func (s *Service) validateDraft(ctx context.Context, ownerID string, d domain.Draft) error {
	if err := validateDate(d.Date); err != nil {
		return err
	}
	if d.CircleID == "" {
		return invalid("circle id is required")
	}
	cs, err := s.store.FetchCircles(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("fetching circles: %w", err)
	}
	if !hasCircle(cs, d.CircleID) {
		return invalid("unknown circle %q", d.CircleID)
	}
	return nil
}

// ListRecords returns the owner's records newest first. A non-empty
// circleID restricts the list to that circle.
func (s *Service) ListRecords(ctx context.Context, ownerID, circleID string) ([]domain.Record, error) {
	recs, err := s.store.FetchRecords(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListRecords: %w", err)
	}
	if circleID != "" {
		filtered := make([]domain.Record, 0, len(recs))
		for _, r := range recs {
			if r.CircleID == circleID {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
	}
	return domain.SortRecords(recs), nil
}

// CreateRecord saves a manually entered or autofilled record.
func (s *Service) CreateRecord(ctx context.Context, ownerID string, d domain.Draft) (domain.Record, error) {
	if err := s.validateDraft(ctx, ownerID, d); err != nil {
		return domain.Record{}, fmt.Errorf("CreateRecord: %w", err)
	}

	rec := domain.Record{
		ID:        newRecordID(),
		CircleID:  d.CircleID,
		Amount:    d.Amount,
		Date:      d.Date,
		Note:      strings.TrimSpace(d.Note),
		Timestamp: s.now(),
	}
	if err := s.store.InsertRecord(ctx, ownerID, rec); err != nil {
		return domain.Record{}, fmt.Errorf("CreateRecord: %w", err)
	}
	return rec, nil
}

// UpdateRecord replaces a record's editable fields, keeping its id and timestamp.
func (s *Service) UpdateRecord(ctx context.Context, ownerID, recordID string, d domain.Draft) (domain.Record, error) {
	if err := s.validateDraft(ctx, ownerID, d); err != nil {
		return domain.Record{}, fmt.Errorf("UpdateRecord: %w", err)
	}

	recs, err := s.store.FetchRecords(ctx, ownerID)
	if err != nil {
		return domain.Record{}, fmt.Errorf("UpdateRecord: %w", err)
	}
	var existing *domain.Record
	for i := range recs {
		if recs[i].ID == recordID {
			existing = &recs[i]
			break
		}
	}
	if existing == nil {
		return domain.Record{}, fmt.Errorf("UpdateRecord %s: %w", recordID, store.ErrNotFound)
	}

	rec := domain.Record{
		ID:        recordID,
		CircleID:  d.CircleID,
		Amount:    d.Amount,
		Date:      d.Date,
		Note:      strings.TrimSpace(d.Note),
		Timestamp: existing.Timestamp,
	}
	if err := s.store.UpdateRecord(ctx, ownerID, rec); err != nil {
		return domain.Record{}, fmt.Errorf("UpdateRecord: %w", err)
	}
	return rec, nil
}

// DeleteRecord removes one record.
func (s *Service) DeleteRecord(ctx context.Context, ownerID, recordID string) error {
	if err := s.store.DeleteRecord(ctx, ownerID, recordID); err != nil {
		return fmt.Errorf("DeleteRecord: %w", err)
	}
	return nil
}

// DeleteAllRecords removes every record the owner has. Circles are kept.
func (s *Service) DeleteAllRecords(ctx context.Context, ownerID string) error {
	if err := s.store.DeleteAllRecords(ctx, ownerID); err != nil {
		return fmt.Errorf("DeleteAllRecords: %w", err)
	}
	return nil
}

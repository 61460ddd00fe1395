package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/mahjong-ledger/internal/circles"
	"github.com/dvloznov/mahjong-ledger/internal/completion"
	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/logger"
	"github.com/dvloznov/mahjong-ledger/internal/pipeline"
)

// AutofillResult is the outcome of extraction for form entry. Exactly one
// extracted record yields a Draft; more than one is returned for review.
type AutofillResult struct {
	Draft   *domain.Draft         `json:"draft,omitempty"`
	Records []domain.ParsedRecord `json:"records"`
}

// Extract runs free text through the extraction pipeline using the owner's
// circle names. It persists nothing.
func (s *Service) Extract(ctx context.Context, ownerID, freeText string) ([]domain.ParsedRecord, error) {
	if strings.TrimSpace(freeText) == "" {
		return nil, invalid("text is required")
	}
	if s.extractor == nil {
		return nil, fmt.Errorf("Extract: %w", completion.ErrMissingCredential)
	}

	cs, err := s.ListCircles(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	recs, err := pipeline.Extract(ctx, s.extractor, freeText, circles.Names(cs), s.today())
	if err != nil {
		return nil, fmt.Errorf("Extract: %w", err)
	}
	return recs, nil
}

// Autofill converts one parsed record into a form draft. The circle is
// resolved (and created if needed) but the record itself is not saved.
func (s *Service) Autofill(ctx context.Context, ownerID string, parsed domain.ParsedRecord) (domain.Draft, error) {
	cs, err := s.ListCircles(ctx, ownerID)
	if err != nil {
		return domain.Draft{}, err
	}
	selected, err := s.selectedCircleID(ctx, ownerID, cs)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("Autofill: %w", err)
	}

	resolver := circles.NewResolver(s.store, ownerID, cs)
	circleID, err := resolver.Resolve(ctx, parsed.CircleName, selected)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("Autofill: %w", err)
	}

	return domain.Draft{
		CircleID: circleID,
		Amount:   parsed.SignedAmount(),
		Date:     parsed.Date,
		Note:     strings.TrimSpace(parsed.Note),
	}, nil
}

// ExtractForForm extracts records and autofills a draft when exactly one was found.
func (s *Service) ExtractForForm(ctx context.Context, ownerID, freeText string) (AutofillResult, error) {
	recs, err := s.Extract(ctx, ownerID, freeText)
	if err != nil {
		return AutofillResult{}, err
	}

	res := AutofillResult{Records: recs}
	if len(recs) == 1 {
		draft, err := s.Autofill(ctx, ownerID, recs[0])
		if err != nil {
			return AutofillResult{}, err
		}
		res.Draft = &draft
	}
	return res, nil
}

// SaveParsed stores user-confirmed extraction results. Circle names are
// resolved over one working set so repeated new names map to one circle;
// the records are inserted as one batch.
func (s *Service) SaveParsed(ctx context.Context, ownerID string, parsed []domain.ParsedRecord) ([]domain.Record, error) {
	if len(parsed) == 0 {
		return []domain.Record{}, nil
	}

	cs, err := s.ListCircles(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	selected, err := s.selectedCircleID(ctx, ownerID, cs)
	if err != nil {
		return nil, fmt.Errorf("SaveParsed: %w", err)
	}

	resolver := circles.NewResolver(s.store, ownerID, cs)
	now := s.now()

	recs := make([]domain.Record, 0, len(parsed))
	for i, p := range parsed {
		if err := validateDate(p.Date); err != nil {
			return nil, fmt.Errorf("SaveParsed: record %d: %w", i, err)
		}
		circleID, err := resolver.Resolve(ctx, p.CircleName, selected)
		if err != nil {
			return nil, fmt.Errorf("SaveParsed: record %d: %w", i, err)
		}
		recs = append(recs, domain.Record{
			ID:        newRecordID(),
			CircleID:  circleID,
			Amount:    p.SignedAmount(),
			Date:      p.Date,
			Note:      strings.TrimSpace(p.Note),
			Timestamp: now,
		})
	}

	if err := s.store.InsertRecords(ctx, ownerID, recs); err != nil {
		return nil, fmt.Errorf("SaveParsed: inserting records: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("owner_id", ownerID).
		Int("records", len(recs)).
		Int("circles_created", len(resolver.Created())).
		Msg("Saved extracted records")

	return recs, nil
}

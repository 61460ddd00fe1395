package backup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/mahjong-ledger/internal/circles"
	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/logger"
)

// ImportError reports a failed commit. The store's batch semantics are the
// only rollback; callers should report zero net changes.
type ImportError struct {
	Stage string
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("backup: import failed while creating %s: %v", e.Stage, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// IsImportError reports whether err is, or wraps, an *ImportError.
func IsImportError(err error) bool {
	var ie *ImportError
	return errors.As(err, &ie)
}

// Plan is the net-new subset of a backup relative to an owner's current data.
type Plan struct {
	CirclesToCreate []domain.Circle
	RecordsToCreate []domain.Record

	ExistingCircles  int
	DuplicateRecords int
	SkippedRecords   int
	SkippedLines     int
}

// Result summarises a committed import.
type Result struct {
	CirclesCreated   int `json:"circles_created"`
	RecordsCreated   int `json:"records_created"`
	DuplicateRecords int `json:"duplicate_records"`
	SkippedLines     int `json:"skipped_lines"`
}

// Reconcile compares backup text against the owner's current circles and
// records. Circles match by id or name; records are duplicates when date,
// amount, note and circle all equal an existing record. Everything staged
// gets a freshly generated id. Reconcile has no side effects.
func Reconcile(text string, currentCircles []domain.Circle, currentRecords []domain.Record) Plan {
	return reconcile(Parse(text), currentCircles, currentRecords, time.Now())
}

func reconcile(doc Document, currentCircles []domain.Circle, currentRecords []domain.Record, now time.Time) Plan {
	plan := Plan{SkippedLines: doc.SkippedLines}

	working := make([]domain.Circle, len(currentCircles))
	copy(working, currentCircles)

	ids := make(map[string]bool, len(currentCircles))
	for _, c := range currentCircles {
		ids[c.ID] = true
	}

	stage := func(name string, isDefault bool) domain.Circle {
		c := domain.Circle{ID: circles.NewID(), Name: name, IsDefault: isDefault}
		working = append(working, c)
		plan.CirclesToCreate = append(plan.CirclesToCreate, c)
		return c
	}

	for _, line := range doc.Circles {
		if ids[line.ID] {
			plan.ExistingCircles++
			continue
		}
		if _, ok := circles.FindExact(working, line.Name); ok {
			plan.ExistingCircles++
			continue
		}
		stage(line.Name, line.IsDefault)
	}

	existing := make(map[string]bool, len(currentRecords))
	for _, r := range currentRecords {
		existing[dedupKey(r.Date, r.Amount, r.Note, r.CircleID)] = true
	}

	for _, line := range doc.Records {
		if line.CircleName == "" {
			plan.SkippedRecords++
			continue
		}

		circle, ok := circles.FindExact(working, line.CircleName)
		if !ok {
			circle = stage(line.CircleName, false)
		}

		if existing[dedupKey(line.Date, line.Amount, line.Note, circle.ID)] {
			plan.DuplicateRecords++
			continue
		}

		plan.RecordsToCreate = append(plan.RecordsToCreate, domain.Record{
			ID:        uuid.NewString(),
			CircleID:  circle.ID,
			Amount:    line.Amount,
			Date:      line.Date,
			Note:      line.Note,
			Timestamp: now,
		})
	}

	return plan
}

// dedupKey ignores surrounding whitespace in the note, which the text format
// does not preserve.
func dedupKey(date string, amount float64, note, circleID string) string {
	return date + "\x00" + strconv.FormatFloat(amount, 'f', -1, 64) + "\x00" + strings.TrimSpace(note) + "\x00" + circleID
}

// Writer is the persistence Commit needs.
type Writer interface {
	InsertCircles(ctx context.Context, ownerID string, circles []domain.Circle) error
	InsertRecords(ctx context.Context, ownerID string, recs []domain.Record) error
}

// Store is the persistence Import and Export need.
type Store interface {
	Writer
	FetchCircles(ctx context.Context, ownerID string) ([]domain.Circle, error)
	FetchRecords(ctx context.Context, ownerID string) ([]domain.Record, error)
}

// Commit creates the planned circles as one batch, then the planned records
// as one batch.
func Commit(ctx context.Context, w Writer, ownerID string, plan Plan) (Result, error) {
	if len(plan.CirclesToCreate) > 0 {
		if err := w.InsertCircles(ctx, ownerID, plan.CirclesToCreate); err != nil {
			return Result{}, &ImportError{Stage: "circles", Err: err}
		}
	}
	if len(plan.RecordsToCreate) > 0 {
		if err := w.InsertRecords(ctx, ownerID, plan.RecordsToCreate); err != nil {
			return Result{}, &ImportError{Stage: "records", Err: err}
		}
	}

	return Result{
		CirclesCreated:   len(plan.CirclesToCreate),
		RecordsCreated:   len(plan.RecordsToCreate),
		DuplicateRecords: plan.DuplicateRecords,
		SkippedLines:     plan.SkippedLines + plan.SkippedRecords,
	}, nil
}

// Import reconciles text against the owner's current data and commits the
// net-new subset.
func Import(ctx context.Context, s Store, ownerID, text string) (Result, error) {
	log := logger.FromContext(ctx)

	currentCircles, err := s.FetchCircles(ctx, ownerID)
	if err != nil {
		return Result{}, fmt.Errorf("Import: fetching circles: %w", err)
	}
	currentRecords, err := s.FetchRecords(ctx, ownerID)
	if err != nil {
		return Result{}, fmt.Errorf("Import: fetching records: %w", err)
	}

	plan := Reconcile(text, currentCircles, currentRecords)

	res, err := Commit(ctx, s, ownerID, plan)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID).Msg("Import failed")
		return Result{}, err
	}

	log.Info().
		Str("owner_id", ownerID).
		Int("circles_created", res.CirclesCreated).
		Int("records_created", res.RecordsCreated).
		Int("duplicates", res.DuplicateRecords).
		Int("skipped", res.SkippedLines).
		Msg("Import completed")

	return res, nil
}

// Export renders the owner's circles and records as backup text.
func Export(ctx context.Context, s Store, ownerID string) (string, error) {
	cs, err := s.FetchCircles(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("Export: fetching circles: %w", err)
	}
	recs, err := s.FetchRecords(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("Export: fetching records: %w", err)
	}
	return Serialize(cs, recs), nil
}

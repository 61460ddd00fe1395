package store

import (
	"context"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
)

// RecordStore is the owner-scoped persistence contract for records, circles
// and preferences. Every call takes the authenticated owner's id; an
// implementation must never read or write rows belonging to another owner.
type RecordStore interface {
	RecordRepository
	CircleRepository

	// FetchPreferences returns the owner's preferences, or the zero value if none were saved.
	FetchPreferences(ctx context.Context, ownerID string) (domain.Preferences, error)

	// SavePreferences replaces the owner's preferences.
	SavePreferences(ctx context.Context, ownerID string, prefs domain.Preferences) error

	// Close releases underlying connections.
	Close() error
}

// RecordRepository covers record reads and writes.
type RecordRepository interface {
	// FetchRecords returns all of the owner's records.
	FetchRecords(ctx context.Context, ownerID string) ([]domain.Record, error)

	// InsertRecord inserts a single record.
	InsertRecord(ctx context.Context, ownerID string, rec domain.Record) error

	// InsertRecords inserts a batch of records. The batch is all-or-nothing.
	InsertRecords(ctx context.Context, ownerID string, recs []domain.Record) error

	// UpdateRecord replaces an existing record. Returns ErrNotFound if no such record exists.
	UpdateRecord(ctx context.Context, ownerID string, rec domain.Record) error

	// DeleteRecord removes one record. Returns ErrNotFound if no such record exists.
	DeleteRecord(ctx context.Context, ownerID, recordID string) error

	// DeleteAllRecords removes every record the owner has.
	DeleteAllRecords(ctx context.Context, ownerID string) error
}

// CircleRepository covers circle reads and writes.
type CircleRepository interface {
	// FetchCircles returns all of the owner's circles.
	FetchCircles(ctx context.Context, ownerID string) ([]domain.Circle, error)

	// InsertCircles creates new circles. The batch is all-or-nothing.
	InsertCircles(ctx context.Context, ownerID string, circles []domain.Circle) error

	// UpsertCircles makes the owner's circle set equal to circles: matching ids
	// are updated, new ids inserted, and anything not in the set deleted.
	UpsertCircles(ctx context.Context, ownerID string, circles []domain.Circle) error
}

package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/store"
)

// Store is an in-memory implementation of store.RecordStore.
// It is safe for concurrent use. Data is lost on restart.
type Store struct {
	mu     sync.RWMutex
	owners map[string]*ownerData
}

type ownerData struct {
	records []domain.Record
	circles []domain.Circle
	prefs   domain.Preferences
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		owners: make(map[string]*ownerData),
	}
}

// owner returns the owner's partition, creating it. Caller must hold the write lock.
func (s *Store) owner(ownerID string) *ownerData {
	d, ok := s.owners[ownerID]
	if !ok {
		d = &ownerData{}
		s.owners[ownerID] = d
	}
	return d
}

func checkOwner(ownerID string) error {
	if ownerID == "" {
		return store.ErrUnauthorized
	}
	return nil
}

// FetchRecords implements store.RecordStore.
func (s *Store) FetchRecords(ctx context.Context, ownerID string) ([]domain.Record, error) {
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.owners[ownerID]
	if !ok {
		return []domain.Record{}, nil
	}
	// Return a copy to avoid external modifications
	return append([]domain.Record{}, d.records...), nil
}

// InsertRecord implements store.RecordStore.
func (s *Store) InsertRecord(ctx context.Context, ownerID string, rec domain.Record) error {
	return s.InsertRecords(ctx, ownerID, []domain.Record{rec})
}

// InsertRecords implements store.RecordStore. Either every record is added or none is.
func (s *Store) InsertRecords(ctx context.Context, ownerID string, recs []domain.Record) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.owner(ownerID)
	seen := make(map[string]bool, len(d.records)+len(recs))
	for _, r := range d.records {
		seen[r.ID] = true
	}
	for _, r := range recs {
		if r.ID == "" {
			return store.NewDataError("insert records", fmt.Errorf("record id is required"))
		}
		if seen[r.ID] {
			return store.NewDataError("insert records", fmt.Errorf("duplicate record id %q", r.ID))
		}
		seen[r.ID] = true
	}

	d.records = append(d.records, recs...)
	return nil
}

// UpdateRecord implements store.RecordStore.
func (s *Store) UpdateRecord(ctx context.Context, ownerID string, rec domain.Record) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.owner(ownerID)
	for i := range d.records {
		if d.records[i].ID == rec.ID {
			d.records[i] = rec
			return nil
		}
	}
	return fmt.Errorf("UpdateRecord %s: %w", rec.ID, store.ErrNotFound)
}

// DeleteRecord implements store.RecordStore.
func (s *Store) DeleteRecord(ctx context.Context, ownerID, recordID string) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.owner(ownerID)
	for i := range d.records {
		if d.records[i].ID == recordID {
			d.records = append(d.records[:i], d.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("DeleteRecord %s: %w", recordID, store.ErrNotFound)
}

// DeleteAllRecords implements store.RecordStore.
func (s *Store) DeleteAllRecords(ctx context.Context, ownerID string) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.owner(ownerID).records = nil
	return nil
}

// FetchCircles implements store.RecordStore.
func (s *Store) FetchCircles(ctx context.Context, ownerID string) ([]domain.Circle, error) {
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.owners[ownerID]
	if !ok {
		return []domain.Circle{}, nil
	}
	return append([]domain.Circle{}, d.circles...), nil
}

// InsertCircles implements store.RecordStore.
func (s *Store) InsertCircles(ctx context.Context, ownerID string, circles []domain.Circle) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.owner(ownerID)
	seen := make(map[string]bool, len(d.circles)+len(circles))
	for _, c := range d.circles {
		seen[c.ID] = true
	}
	for _, c := range circles {
		if c.ID == "" {
			return store.NewDataError("insert circles", fmt.Errorf("circle id is required"))
		}
		if seen[c.ID] {
			return store.NewDataError("insert circles", fmt.Errorf("duplicate circle id %q", c.ID))
		}
		seen[c.ID] = true
	}

	d.circles = append(d.circles, circles...)
	return nil
}

// UpsertCircles implements store.RecordStore with replace-set semantics.
func (s *Store) UpsertCircles(ctx context.Context, ownerID string, circles []domain.Circle) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(circles))
	for _, c := range circles {
		if c.ID == "" || seen[c.ID] {
			return store.NewDataError("upsert circles", fmt.Errorf("invalid or duplicate circle id %q", c.ID))
		}
		seen[c.ID] = true
	}

	s.owner(ownerID).circles = append([]domain.Circle{}, circles...)
	return nil
}

// FetchPreferences implements store.RecordStore.
func (s *Store) FetchPreferences(ctx context.Context, ownerID string) (domain.Preferences, error) {
	if err := checkOwner(ownerID); err != nil {
		return domain.Preferences{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if d, ok := s.owners[ownerID]; ok {
		return d.prefs, nil
	}
	return domain.Preferences{}, nil
}

// SavePreferences implements store.RecordStore.
func (s *Store) SavePreferences(ctx context.Context, ownerID string, prefs domain.Preferences) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.owner(ownerID).prefs = prefs
	return nil
}

// Close implements store.RecordStore.
func (s *Store) Close() error {
	return nil
}

// Ensure Store implements RecordStore interface.
var _ store.RecordStore = (*Store)(nil)

// Package bolt implements the record store on a local boltdb file.
package bolt

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/store"
)

var (
	recordsBucket = []byte("records")
	circlesKey    = []byte("circles")
	prefsKey      = []byte("preferences")
)

// Store is a single-file implementation of store.RecordStore. Each owner gets
// a top-level bucket holding a records sub-bucket keyed by record id plus the
// circle list and preferences as gob values.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("Open: opening bolt db %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func ownerBucketName(ownerID string) []byte {
	return []byte("owner:" + ownerID)
}

func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// view runs fn against the owner's bucket, or not at all if it does not exist.
func (s *Store) view(ownerID string, fn func(b *bolt.Bucket) error) error {
	if ownerID == "" {
		return store.ErrUnauthorized
	}
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(ownerBucketName(ownerID))
		if b == nil {
			return nil
		}
		return fn(b)
	})
}

// update runs fn against the owner's bucket inside a write transaction.
// Any error rolls the whole transaction back.
func (s *Store) update(ownerID string, fn func(b *bolt.Bucket) error) error {
	if ownerID == "" {
		return store.ErrUnauthorized
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(ownerBucketName(ownerID))
		if err != nil {
			return err
		}
		if _, err := b.CreateBucketIfNotExists(recordsBucket); err != nil {
			return err
		}
		return fn(b)
	})
}

// FetchRecords implements store.RecordStore.
func (s *Store) FetchRecords(ctx context.Context, ownerID string) ([]domain.Record, error) {
	records := []domain.Record{}
	err := s.view(ownerID, func(b *bolt.Bucket) error {
		rb := b.Bucket(recordsBucket)
		if rb == nil {
			return nil
		}
		c := rb.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var r domain.Record
			if err := decode(v, &r); err != nil {
				return store.NewDataError("decode record", fmt.Errorf("record %s: %w", k, err))
			}
			records = append(records, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("FetchRecords: %w", err)
	}
	return records, nil
}

// InsertRecord implements store.RecordStore.
func (s *Store) InsertRecord(ctx context.Context, ownerID string, rec domain.Record) error {
	return s.InsertRecords(ctx, ownerID, []domain.Record{rec})
}

// InsertRecords implements store.RecordStore. The batch shares one transaction.
func (s *Store) InsertRecords(ctx context.Context, ownerID string, recs []domain.Record) error {
	err := s.update(ownerID, func(b *bolt.Bucket) error {
		rb := b.Bucket(recordsBucket)
		for _, r := range recs {
			if r.ID == "" {
				return store.NewDataError("insert records", errors.New("record id is required"))
			}
			if rb.Get([]byte(r.ID)) != nil {
				return store.NewDataError("insert records", fmt.Errorf("duplicate record id %q", r.ID))
			}
			val, err := encode(r)
			if err != nil {
				return store.NewDataError("encode record", err)
			}
			if err := rb.Put([]byte(r.ID), val); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("InsertRecords: %w", err)
	}
	return nil
}

// UpdateRecord implements store.RecordStore.
func (s *Store) UpdateRecord(ctx context.Context, ownerID string, rec domain.Record) error {
	err := s.update(ownerID, func(b *bolt.Bucket) error {
		rb := b.Bucket(recordsBucket)
		if rb.Get([]byte(rec.ID)) == nil {
			return store.ErrNotFound
		}
		val, err := encode(rec)
		if err != nil {
			return store.NewDataError("encode record", err)
		}
		return rb.Put([]byte(rec.ID), val)
	})
	if err != nil {
		return fmt.Errorf("UpdateRecord %s: %w", rec.ID, err)
	}
	return nil
}

// DeleteRecord implements store.RecordStore.
func (s *Store) DeleteRecord(ctx context.Context, ownerID, recordID string) error {
	err := s.update(ownerID, func(b *bolt.Bucket) error {
		rb := b.Bucket(recordsBucket)
		if rb.Get([]byte(recordID)) == nil {
			return store.ErrNotFound
		}
		return rb.Delete([]byte(recordID))
	})
	if err != nil {
		return fmt.Errorf("DeleteRecord %s: %w", recordID, err)
	}
	return nil
}

// DeleteAllRecords implements store.RecordStore.
func (s *Store) DeleteAllRecords(ctx context.Context, ownerID string) error {
	err := s.update(ownerID, func(b *bolt.Bucket) error {
		if err := b.DeleteBucket(recordsBucket); err != nil {
			return err
		}
		_, err := b.CreateBucket(recordsBucket)
		return err
	})
	if err != nil {
		return fmt.Errorf("DeleteAllRecords: %w", err)
	}
	return nil
}

func getCircles(b *bolt.Bucket) ([]domain.Circle, error) {
	circles := []domain.Circle{}
	v := b.Get(circlesKey)
	if v == nil {
		return circles, nil
	}
	if err := decode(v, &circles); err != nil {
		return nil, store.NewDataError("decode circles", err)
	}
	return circles, nil
}

func putCircles(b *bolt.Bucket, circles []domain.Circle) error {
	val, err := encode(circles)
	if err != nil {
		return store.NewDataError("encode circles", err)
	}
	return b.Put(circlesKey, val)
}

// FetchCircles implements store.RecordStore.
func (s *Store) FetchCircles(ctx context.Context, ownerID string) ([]domain.Circle, error) {
	circles := []domain.Circle{}
	err := s.view(ownerID, func(b *bolt.Bucket) error {
		var err error
		circles, err = getCircles(b)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("FetchCircles: %w", err)
	}
	return circles, nil
}

// InsertCircles implements store.RecordStore.
func (s *Store) InsertCircles(ctx context.Context, ownerID string, circles []domain.Circle) error {
	err := s.update(ownerID, func(b *bolt.Bucket) error {
		existing, err := getCircles(b)
		if err != nil {
			return err
		}
		seen := make(map[string]bool, len(existing)+len(circles))
		for _, c := range existing {
			seen[c.ID] = true
		}
		for _, c := range circles {
			if c.ID == "" || seen[c.ID] {
				return store.NewDataError("insert circles", fmt.Errorf("invalid or duplicate circle id %q", c.ID))
			}
			seen[c.ID] = true
		}
		return putCircles(b, append(existing, circles...))
	})
	if err != nil {
		return fmt.Errorf("InsertCircles: %w", err)
	}
	return nil
}

// UpsertCircles implements store.RecordStore with replace-set semantics.
func (s *Store) UpsertCircles(ctx context.Context, ownerID string, circles []domain.Circle) error {
	err := s.update(ownerID, func(b *bolt.Bucket) error {
		seen := make(map[string]bool, len(circles))
		for _, c := range circles {
			if c.ID == "" || seen[c.ID] {
				return store.NewDataError("upsert circles", fmt.Errorf("invalid or duplicate circle id %q", c.ID))
			}
			seen[c.ID] = true
		}
		return putCircles(b, circles)
	})
	if err != nil {
		return fmt.Errorf("UpsertCircles: %w", err)
	}
	return nil
}

// FetchPreferences implements store.RecordStore.
func (s *Store) FetchPreferences(ctx context.Context, ownerID string) (domain.Preferences, error) {
	var prefs domain.Preferences
	err := s.view(ownerID, func(b *bolt.Bucket) error {
		v := b.Get(prefsKey)
		if v == nil {
			return nil
		}
		if err := decode(v, &prefs); err != nil {
			return store.NewDataError("decode preferences", err)
		}
		return nil
	})
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("FetchPreferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences implements store.RecordStore.
func (s *Store) SavePreferences(ctx context.Context, ownerID string, prefs domain.Preferences) error {
	err := s.update(ownerID, func(b *bolt.Bucket) error {
		val, err := encode(prefs)
		if err != nil {
			return store.NewDataError("encode preferences", err)
		}
		return b.Put(prefsKey, val)
	})
	if err != nil {
		return fmt.Errorf("SavePreferences: %w", err)
	}
	return nil
}

// Ensure Store implements RecordStore interface.
var _ store.RecordStore = (*Store)(nil)

package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ts := time.Date(2024, 2, 6, 21, 30, 0, 0, time.UTC)

	rec := domain.Record{ID: "r1", CircleID: "c1", Amount: -190, Date: "2024-02-06", Note: "夜场", Timestamp: ts}
	if err := s.InsertRecord(ctx, "alice", rec); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}

	got, err := s.FetchRecords(ctx, "alice")
	if err != nil {
		t.Fatalf("FetchRecords failed: %v", err)
	}
	if len(got) != 1 || got[0].Amount != -190 || got[0].Note != "夜场" || !got[0].Timestamp.Equal(ts) {
		t.Fatalf("unexpected records: %+v", got)
	}

	rec.Amount = 200
	if err := s.UpdateRecord(ctx, "alice", rec); err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}
	got, _ = s.FetchRecords(ctx, "alice")
	if got[0].Amount != 200 {
		t.Errorf("Amount = %v, want 200", got[0].Amount)
	}

	if err := s.DeleteRecord(ctx, "alice", "r1"); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if err := s.DeleteRecord(ctx, "alice", "r1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	if err := s.UpdateRecord(ctx, "alice", rec); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update of deleted record err = %v, want ErrNotFound", err)
	}
}

func TestStore_OwnerScopingAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_ = s.InsertRecords(ctx, "alice", []domain.Record{{ID: "a1"}, {ID: "a2"}})
	_ = s.InsertRecords(ctx, "bob", []domain.Record{{ID: "b1"}})

	if err := s.DeleteAllRecords(ctx, "alice"); err != nil {
		t.Fatalf("DeleteAllRecords failed: %v", err)
	}

	alice, _ := s.FetchRecords(ctx, "alice")
	bob, _ := s.FetchRecords(ctx, "bob")
	if len(alice) != 0 || len(bob) != 1 {
		t.Errorf("alice has %d records, bob has %d", len(alice), len(bob))
	}

	carol, err := s.FetchRecords(ctx, "carol")
	if err != nil || len(carol) != 0 {
		t.Errorf("unknown owner: %v, %+v", err, carol)
	}
}

func TestStore_InsertRecordsIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_ = s.InsertRecord(ctx, "alice", domain.Record{ID: "r1"})
	err := s.InsertRecords(ctx, "alice", []domain.Record{{ID: "r2"}, {ID: "r1"}})
	if !store.IsDataError(err) {
		t.Fatalf("expected DataError, got %v", err)
	}

	got, _ := s.FetchRecords(ctx, "alice")
	if len(got) != 1 {
		t.Errorf("failed batch left %d records, want 1", len(got))
	}
}

func TestStore_Circles(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	initial := []domain.Circle{{ID: "c1", Name: "好友局", IsDefault: true}, {ID: "c2", Name: "家庭局"}}
	if err := s.InsertCircles(ctx, "alice", initial); err != nil {
		t.Fatalf("InsertCircles failed: %v", err)
	}
	if err := s.InsertCircles(ctx, "alice", []domain.Circle{{ID: "c1", Name: "dup"}}); !store.IsDataError(err) {
		t.Errorf("duplicate insert err = %v, want DataError", err)
	}

	replacement := []domain.Circle{{ID: "c2", Name: "家人", IsDefault: true}, {ID: "c3", Name: "同事局"}}
	if err := s.UpsertCircles(ctx, "alice", replacement); err != nil {
		t.Fatalf("UpsertCircles failed: %v", err)
	}

	got, err := s.FetchCircles(ctx, "alice")
	if err != nil {
		t.Fatalf("FetchCircles failed: %v", err)
	}
	if len(got) != 2 || got[0] != replacement[0] || got[1] != replacement[1] {
		t.Errorf("circles = %+v, want %+v", got, replacement)
	}
}

func TestStore_Preferences(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	empty, err := s.FetchPreferences(ctx, "alice")
	if err != nil || empty.SelectedCircleID != "" {
		t.Fatalf("initial preferences: %+v, %v", empty, err)
	}

	if err := s.SavePreferences(ctx, "alice", domain.Preferences{SelectedCircleID: "c2"}); err != nil {
		t.Fatalf("SavePreferences failed: %v", err)
	}
	got, _ := s.FetchPreferences(ctx, "alice")
	if got.SelectedCircleID != "c2" {
		t.Errorf("SelectedCircleID = %q", got.SelectedCircleID)
	}
}

func TestStore_EmptyOwnerIsUnauthorized(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.FetchCircles(context.Background(), ""); !store.IsUnauthorized(err) {
		t.Errorf("FetchCircles err = %v", err)
	}
	if err := s.InsertRecord(context.Background(), "", domain.Record{ID: "r"}); !store.IsUnauthorized(err) {
		t.Errorf("InsertRecord err = %v", err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = s.InsertRecord(ctx, "alice", domain.Record{ID: "r1", Amount: 800})
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, _ := s.FetchRecords(ctx, "alice")
	if len(got) != 1 || got[0].Amount != 800 {
		t.Errorf("records after reopen = %+v", got)
	}
}

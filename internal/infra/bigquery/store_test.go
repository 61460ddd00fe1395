package bigquery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/store"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		wantUnauthorized bool
		wantData         bool
	}{
		{name: "401", err: &googleapi.Error{Code: 401, Message: "expired"}, wantUnauthorized: true},
		{name: "403", err: &googleapi.Error{Code: 403, Message: "denied"}, wantUnauthorized: true},
		{name: "400", err: &googleapi.Error{Code: 400, Message: "bad row"}, wantData: true},
		{name: "wrapped 403", err: fmt.Errorf("outer: %w", &googleapi.Error{Code: 403}), wantUnauthorized: true},
		{name: "job access denied", err: &bigquery.Error{Reason: "accessDenied"}, wantUnauthorized: true},
		{name: "job invalid query", err: &bigquery.Error{Reason: "invalidQuery"}, wantData: true},
		{name: "500", err: &googleapi.Error{Code: 500}},
		{name: "other", err: errors.New("network")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError("Op", tt.err)
			if store.IsUnauthorized(got) != tt.wantUnauthorized {
				t.Errorf("IsUnauthorized = %v, want %v (err %v)", store.IsUnauthorized(got), tt.wantUnauthorized, got)
			}
			if store.IsDataError(got) != tt.wantData {
				t.Errorf("IsDataError = %v, want %v (err %v)", store.IsDataError(got), tt.wantData, got)
			}
		})
	}

	if classifyError("Op", nil) != nil {
		t.Error("classifyError(nil) should be nil")
	}
}

func TestTableName(t *testing.T) {
	if got := tableName("proj", "mahjong", recordsTable); got != "`proj.mahjong.records`" {
		t.Errorf("tableName = %s", got)
	}
}

func TestRowConversions(t *testing.T) {
	ts := time.Date(2024, 2, 6, 12, 0, 0, 0, time.UTC)
	row := RecordRow{RecordID: "r1", OwnerID: "o", CircleID: "c1", Amount: -190, RecordDate: "2024-02-06", Note: "夜场", CreatedTS: ts}
	want := domain.Record{ID: "r1", CircleID: "c1", Amount: -190, Date: "2024-02-06", Note: "夜场", Timestamp: ts}
	if got := row.toDomain(); got != want {
		t.Errorf("toDomain = %+v", got)
	}

	p := newRecordParam(domain.Record{ID: "r2", CircleID: "c1", Amount: 5, Date: "2024-02-07"})
	if p.CreatedTS.IsZero() {
		t.Error("zero timestamp should be filled")
	}

	c := CircleRow{CircleID: "c1", OwnerID: "o", Name: "好友局", IsDefault: true}.toDomain()
	if c != (domain.Circle{ID: "c1", Name: "好友局", IsDefault: true}) {
		t.Errorf("circle toDomain = %+v", c)
	}
}

func TestCircleParamsRejectsDuplicates(t *testing.T) {
	_, err := circleParams([]domain.Circle{{ID: "a", Name: "x"}, {ID: "a", Name: "y"}})
	if err == nil {
		t.Error("expected duplicate id error")
	}
	_, err = circleParams([]domain.Circle{{Name: "x"}})
	if err == nil {
		t.Error("expected missing id error")
	}
}

func TestStoreRequiresOwner(t *testing.T) {
	s := NewStoreWithClient(nil, "proj", "mahjong")
	ctx := context.Background()

	if _, err := s.FetchRecords(ctx, ""); !store.IsUnauthorized(err) {
		t.Errorf("FetchRecords err = %v", err)
	}
	if err := s.InsertRecords(ctx, "", []domain.Record{{ID: "r"}}); !store.IsUnauthorized(err) {
		t.Errorf("InsertRecords err = %v", err)
	}
	if err := s.UpsertCircles(ctx, "", nil); !store.IsUnauthorized(err) {
		t.Errorf("UpsertCircles err = %v", err)
	}
	if _, err := s.FetchPreferences(ctx, ""); !store.IsUnauthorized(err) {
		t.Errorf("FetchPreferences err = %v", err)
	}
	if err := s.InsertRecords(ctx, "o", []domain.Record{{ID: "r"}}); !store.IsDataError(err) {
		t.Errorf("InsertRecords without circle err = %v", err)
	}
	if err := s.InsertRecords(ctx, "o", nil); err != nil {
		t.Errorf("empty batch err = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close err = %v", err)
	}
}

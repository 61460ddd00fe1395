package ledger_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/mahjong-ledger/internal/circles"
	"github.com/dvloznov/mahjong-ledger/internal/completion"
	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/ledger"
	"github.com/dvloznov/mahjong-ledger/internal/store"
	"github.com/dvloznov/mahjong-ledger/internal/store/inmemory"
)

const owner = "owner-1"

var fixedNow = time.Date(2024, 3, 15, 20, 30, 0, 0, time.UTC)

// MockExtractor is a mock implementation of pipeline.Extractor for testing.
type MockExtractor struct {
	RequestExtractionFunc func(ctx context.Context, freeText string, knownCircleNames []string) (string, error)
}

func (m *MockExtractor) RequestExtraction(ctx context.Context, freeText string, knownCircleNames []string) (string, error) {
	if m.RequestExtractionFunc != nil {
		return m.RequestExtractionFunc(ctx, freeText, knownCircleNames)
	}
	return "[]", nil
}

func newService(t *testing.T, extractor *MockExtractor) (*ledger.Service, *inmemory.Store) {
	t.Helper()
	st := inmemory.NewStore()
	var svc *ledger.Service
	if extractor == nil {
		svc = ledger.NewService(st, nil)
	} else {
		svc = ledger.NewService(st, extractor)
	}
	return svc.WithClock(func() time.Time { return fixedNow }), st
}

func strPtr(s string) *string { return &s }

func TestListCirclesMaterializesDefaults(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t, nil)

	cs, err := svc.ListCircles(ctx, owner)
	if err != nil {
		t.Fatalf("ListCircles: %v", err)
	}
	if len(cs) != 3 || cs[0].Name != "好友局" || !cs[0].IsDefault {
		t.Fatalf("unexpected defaults: %+v", cs)
	}

	stored, _ := st.FetchCircles(ctx, owner)
	if len(stored) != 3 {
		t.Errorf("defaults not persisted: %+v", stored)
	}

	again, err := svc.ListCircles(ctx, owner)
	if err != nil {
		t.Fatalf("ListCircles: %v", err)
	}
	if len(again) != 3 || again[0].ID != cs[0].ID {
		t.Errorf("second call recreated defaults: %+v", again)
	}
}

func TestCircleManagement(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	c, err := svc.CreateCircle(ctx, owner, " 雀神会 ")
	if err != nil {
		t.Fatalf("CreateCircle: %v", err)
	}
	if c.Name != "雀神会" || c.ID == "" {
		t.Fatalf("unexpected circle: %+v", c)
	}

	dup, err := svc.CreateCircle(ctx, owner, "雀神会")
	if err != nil {
		t.Fatalf("CreateCircle duplicate: %v", err)
	}
	if dup.ID != c.ID {
		t.Errorf("duplicate name created a new circle: %s != %s", dup.ID, c.ID)
	}

	if _, err := svc.CreateCircle(ctx, owner, "  "); !errors.Is(err, ledger.ErrInvalidInput) {
		t.Errorf("blank name error = %v, want ErrInvalidInput", err)
	}

	renamed, err := svc.RenameCircle(ctx, owner, c.ID, "雀圣会")
	if err != nil {
		t.Fatalf("RenameCircle: %v", err)
	}
	if renamed.Name != "雀圣会" {
		t.Errorf("renamed = %+v", renamed)
	}

	if err := svc.SetDefaultCircle(ctx, owner, c.ID); err != nil {
		t.Fatalf("SetDefaultCircle: %v", err)
	}
	cs, _ := svc.ListCircles(ctx, owner)
	defaults := 0
	for _, x := range cs {
		if x.IsDefault {
			defaults++
			if x.ID != c.ID {
				t.Errorf("wrong default circle: %+v", x)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("default count = %d, want 1", defaults)
	}

	if _, err := svc.RenameCircle(ctx, owner, "missing", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("rename missing error = %v, want ErrNotFound", err)
	}
}

func TestDeleteCircle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	cs, _ := svc.ListCircles(ctx, owner)
	used, unused := cs[0], cs[1]

	if _, err := svc.CreateRecord(ctx, owner, domain.Draft{CircleID: used.ID, Amount: 100, Date: "2024-03-14"}); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if _, err := svc.SelectCircle(ctx, owner, unused.ID); err != nil {
		t.Fatalf("SelectCircle: %v", err)
	}

	if err := svc.DeleteCircle(ctx, owner, used.ID); !errors.Is(err, circles.ErrCircleInUse) {
		t.Errorf("delete used circle error = %v, want ErrCircleInUse", err)
	}

	if err := svc.DeleteCircle(ctx, owner, unused.ID); err != nil {
		t.Fatalf("DeleteCircle: %v", err)
	}
	prefs, _ := svc.Preferences(ctx, owner)
	if prefs.SelectedCircleID != "" {
		t.Errorf("selection not cleared: %+v", prefs)
	}

	if err := svc.DeleteCircle(ctx, owner, unused.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestSelectCircle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	if _, err := svc.SelectCircle(ctx, owner, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown circle error = %v, want ErrNotFound", err)
	}

	cs, _ := svc.ListCircles(ctx, owner)
	prefs, err := svc.SelectCircle(ctx, owner, cs[2].ID)
	if err != nil {
		t.Fatalf("SelectCircle: %v", err)
	}
	if prefs.SelectedCircleID != cs[2].ID || !prefs.UpdatedAt.Equal(fixedNow) {
		t.Errorf("unexpected prefs: %+v", prefs)
	}
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("PassesCircleNames", func(t *testing.T) {
		var gotNames []string
		svc, _ := newService(t, &MockExtractor{
			RequestExtractionFunc: func(ctx context.Context, freeText string, names []string) (string, error) {
				gotNames = names
				return `[{"date":"2024-03-14","amount":500,"isWin":true,"note":"","circleName":"家庭局"}]`, nil
			},
		})

		recs, err := svc.Extract(ctx, owner, "昨天家庭局赢了500")
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if len(gotNames) != 3 {
			t.Errorf("circle names = %v", gotNames)
		}
		if len(recs) != 1 || recs[0].SignedAmount() != 500 {
			t.Errorf("unexpected records: %+v", recs)
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		svc, _ := newService(t, &MockExtractor{})
		if _, err := svc.Extract(ctx, owner, "   "); !errors.Is(err, ledger.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("NoExtractor", func(t *testing.T) {
		svc, _ := newService(t, nil)
		if _, err := svc.Extract(ctx, owner, "赢了100"); !errors.Is(err, completion.ErrMissingCredential) {
			t.Errorf("error = %v, want ErrMissingCredential", err)
		}
	})

	t.Run("ProviderError", func(t *testing.T) {
		svc, _ := newService(t, &MockExtractor{
			RequestExtractionFunc: func(ctx context.Context, freeText string, names []string) (string, error) {
				return "", completion.ErrTimeout
			},
		})
		if _, err := svc.Extract(ctx, owner, "赢了100"); !errors.Is(err, completion.ErrTimeout) {
			t.Errorf("error = %v, want ErrTimeout", err)
		}
	})
}

func TestExtractForForm(t *testing.T) {
	ctx := context.Background()

	t.Run("SingleRecordYieldsDraft", func(t *testing.T) {
		svc, st := newService(t, &MockExtractor{
			RequestExtractionFunc: func(ctx context.Context, freeText string, names []string) (string, error) {
				return `{"date":"2024-03-14","amount":190,"isWin":false,"note":"夜场","circleName":"同事"}`, nil
			},
		})

		res, err := svc.ExtractForForm(ctx, owner, "昨天和同事输了190")
		if err != nil {
			t.Fatalf("ExtractForForm: %v", err)
		}
		if res.Draft == nil {
			t.Fatalf("expected a draft, got %+v", res)
		}
		if res.Draft.Amount != -190 || res.Draft.Date != "2024-03-14" || res.Draft.Note != "夜场" {
			t.Errorf("unexpected draft: %+v", res.Draft)
		}

		cs, _ := st.FetchCircles(ctx, owner)
		c, ok := circles.FindExact(cs, "同事局")
		if !ok || res.Draft.CircleID != c.ID {
			t.Errorf("draft circle = %s, want 同事局 (%+v)", res.Draft.CircleID, cs)
		}

		recs, _ := st.FetchRecords(ctx, owner)
		if len(recs) != 0 {
			t.Errorf("autofill persisted records: %+v", recs)
		}
	})

	t.Run("MultipleRecordsNoDraft", func(t *testing.T) {
		svc, _ := newService(t, &MockExtractor{
			RequestExtractionFunc: func(ctx context.Context, freeText string, names []string) (string, error) {
				return `[{"date":"2024-03-14","amount":100,"isWin":true},{"date":"2024-03-13","amount":50,"isWin":false}]`, nil
			},
		})

		res, err := svc.ExtractForForm(ctx, owner, "昨天赢100，前天输50")
		if err != nil {
			t.Fatalf("ExtractForForm: %v", err)
		}
		if res.Draft != nil || len(res.Records) != 2 {
			t.Errorf("unexpected result: %+v", res)
		}
	})
}

func TestAutofillUsesSelectedCircle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	cs, _ := svc.ListCircles(ctx, owner)
	if _, err := svc.SelectCircle(ctx, owner, cs[1].ID); err != nil {
		t.Fatalf("SelectCircle: %v", err)
	}

	draft, err := svc.Autofill(ctx, owner, domain.ParsedRecord{Amount: 80, IsWin: true, Date: "2024-03-15"})
	if err != nil {
		t.Fatalf("Autofill: %v", err)
	}
	if draft.CircleID != cs[1].ID || draft.Amount != 80 {
		t.Errorf("unexpected draft: %+v", draft)
	}
}

func TestSaveParsed(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t, nil)

	cs, _ := svc.ListCircles(ctx, owner)

	parsed := []domain.ParsedRecord{
		{Amount: 300, IsWin: true, Date: "2024-03-14", CircleName: strPtr("雀神会")},
		{Amount: 120, IsWin: false, Date: "2024-03-13", CircleName: strPtr("雀神会")},
		{Amount: 50, IsWin: true, Date: "2024-03-12"},
	}
	saved, err := svc.SaveParsed(ctx, owner, parsed)
	if err != nil {
		t.Fatalf("SaveParsed: %v", err)
	}
	if len(saved) != 3 {
		t.Fatalf("saved %d records, want 3", len(saved))
	}
	if saved[0].CircleID != saved[1].CircleID {
		t.Errorf("repeated new name resolved to two circles: %s, %s", saved[0].CircleID, saved[1].CircleID)
	}
	if saved[2].CircleID != cs[0].ID {
		t.Errorf("unnamed record circle = %s, want default %s", saved[2].CircleID, cs[0].ID)
	}
	if saved[1].Amount != -120 || !saved[0].Timestamp.Equal(fixedNow) {
		t.Errorf("unexpected record: %+v", saved[1])
	}

	after, _ := st.FetchCircles(ctx, owner)
	if len(after) != 4 {
		t.Errorf("circle count = %d, want 4", len(after))
	}

	if _, err := svc.SaveParsed(ctx, owner, []domain.ParsedRecord{{Amount: 1, Date: "15/03/2024"}}); !errors.Is(err, ledger.ErrInvalidInput) {
		t.Errorf("bad date error = %v, want ErrInvalidInput", err)
	}
}

func TestRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	cs, _ := svc.ListCircles(ctx, owner)

	older, err := svc.CreateRecord(ctx, owner, domain.Draft{CircleID: cs[0].ID, Amount: 800, Date: "2024-02-06"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	newer, err := svc.CreateRecord(ctx, owner, domain.Draft{CircleID: cs[1].ID, Amount: -190, Date: "2024-02-07", Note: "夜场"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	recs, err := svc.ListRecords(ctx, owner, "")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != newer.ID || recs[1].ID != older.ID {
		t.Errorf("records not newest first: %+v", recs)
	}

	filtered, _ := svc.ListRecords(ctx, owner, cs[0].ID)
	if len(filtered) != 1 || filtered[0].ID != older.ID {
		t.Errorf("filtered = %+v", filtered)
	}

	tests := []struct {
		name  string
		draft domain.Draft
	}{
		{"BadDate", domain.Draft{CircleID: cs[0].ID, Amount: 1, Date: "2024-2-7"}},
		{"MissingCircle", domain.Draft{Amount: 1, Date: "2024-02-07"}},
		{"UnknownCircle", domain.Draft{CircleID: "ghost", Amount: 1, Date: "2024-02-07"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateRecord(ctx, owner, tt.draft); !errors.Is(err, ledger.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}

	svc.WithClock(func() time.Time { return fixedNow.Add(time.Hour) })
	updated, err := svc.UpdateRecord(ctx, owner, older.ID, domain.Draft{CircleID: cs[0].ID, Amount: 900, Date: "2024-02-06", Note: "改"})
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if updated.Amount != 900 || !updated.Timestamp.Equal(older.Timestamp) {
		t.Errorf("unexpected update: %+v", updated)
	}
	if _, err := svc.UpdateRecord(ctx, owner, "ghost", domain.Draft{CircleID: cs[0].ID, Date: "2024-02-06"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update missing error = %v, want ErrNotFound", err)
	}

	if err := svc.DeleteRecord(ctx, owner, newer.ID); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if err := svc.DeleteRecord(ctx, owner, newer.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}

	if err := svc.DeleteAllRecords(ctx, owner); err != nil {
		t.Fatalf("DeleteAllRecords: %v", err)
	}
	recs, _ = svc.ListRecords(ctx, owner, "")
	if len(recs) != 0 {
		t.Errorf("records left after DeleteAllRecords: %+v", recs)
	}
	if cs2, _ := svc.ListCircles(ctx, owner); len(cs2) != 3 {
		t.Errorf("DeleteAllRecords touched circles: %+v", cs2)
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	cs, _ := svc.ListCircles(ctx, owner)
	if _, err := svc.CreateRecord(ctx, owner, domain.Draft{CircleID: cs[0].ID, Amount: -190, Date: "2024-02-07", Note: "夜场"}); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	text, err := svc.Export(ctx, owner)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(text, "2024-02-07 | -190 | 好友局 | 备注:夜场") {
		t.Errorf("export missing record line:\n%s", text)
	}

	other := "owner-2"
	res, err := svc.Import(ctx, other, text)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.CirclesCreated != 3 || res.RecordsCreated != 1 {
		t.Errorf("unexpected import result: %+v", res)
	}

	res, err = svc.Import(ctx, other, text)
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if res.CirclesCreated != 0 || res.RecordsCreated != 0 || res.DuplicateRecords != 1 {
		t.Errorf("second import not idempotent: %+v", res)
	}
}

func TestRecordNotesStoredTrimmed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	cs, _ := svc.ListCircles(ctx, owner)
	rec, err := svc.CreateRecord(ctx, owner, domain.Draft{CircleID: cs[0].ID, Amount: 50, Date: "2024-02-07", Note: " 夜场 \n"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if rec.Note != "夜场" {
		t.Errorf("Note = %q, want trimmed", rec.Note)
	}

	text, err := svc.Export(ctx, owner)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	res, err := svc.Import(ctx, owner, text)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.RecordsCreated != 0 || res.DuplicateRecords != 1 {
		t.Errorf("re-import = %+v, want one duplicate", res)
	}
}

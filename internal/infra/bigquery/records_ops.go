package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/logger"
	"github.com/dvloznov/mahjong-ledger/internal/store"
)

// FetchRecords returns all of the owner's records, newest first.
func (s *Store) FetchRecords(ctx context.Context, ownerID string) ([]domain.Record, error) {
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}

	q := s.client.Query(`
		SELECT
			record_id,
			owner_id,
			circle_id,
			amount,
			record_date,
			IFNULL(note, '') AS note,
			created_ts
		FROM ` + s.table(recordsTable) + `
		WHERE owner_id = @owner_id
		ORDER BY record_date DESC, created_ts DESC
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, classifyError("FetchRecords: query read", err)
	}

	records := []domain.Record{}
	for {
		var r RecordRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyError("FetchRecords: iter next", err)
		}
		records = append(records, r.toDomain())
	}

	return records, nil
}

// InsertRecord inserts a single record.
func (s *Store) InsertRecord(ctx context.Context, ownerID string, rec domain.Record) error {
	return s.InsertRecords(ctx, ownerID, []domain.Record{rec})
}

// InsertRecords inserts the batch with one DML statement, so either every
// row lands or none does.
func (s *Store) InsertRecords(ctx context.Context, ownerID string, recs []domain.Record) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}

	rows := make([]recordParam, 0, len(recs))
	for _, rec := range recs {
		if rec.ID == "" || rec.CircleID == "" {
			return store.NewDataError("insert records", fmt.Errorf("record id and circle id are required"))
		}
		rows = append(rows, newRecordParam(rec))
	}

	_, err := s.runDML(ctx, "InsertRecords", `
		INSERT `+s.table(recordsTable)+` (
			record_id,
			owner_id,
			circle_id,
			amount,
			record_date,
			note,
			created_ts
		)
		SELECT
			r.record_id,
			@owner_id,
			r.circle_id,
			r.amount,
			r.record_date,
			r.note,
			r.created_ts
		FROM UNNEST(@rows) AS r
	`, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "rows", Value: rows},
	})
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("owner_id", ownerID).
		Int("records", len(rows)).
		Msg("Inserted records")
	return nil
}

// UpdateRecord replaces an existing record's fields.
func (s *Store) UpdateRecord(ctx context.Context, ownerID string, rec domain.Record) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}

	affected, err := s.runDML(ctx, "UpdateRecord", `
		UPDATE `+s.table(recordsTable)+`
		SET
			circle_id = @circle_id,
			amount = @amount,
			record_date = @record_date,
			note = @note
		WHERE owner_id = @owner_id
		  AND record_id = @record_id
	`, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "record_id", Value: rec.ID},
		{Name: "circle_id", Value: rec.CircleID},
		{Name: "amount", Value: rec.Amount},
		{Name: "record_date", Value: rec.Date},
		{Name: "note", Value: rec.Note},
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("UpdateRecord %s: %w", rec.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteRecord removes one record.
func (s *Store) DeleteRecord(ctx context.Context, ownerID, recordID string) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}

	affected, err := s.runDML(ctx, "DeleteRecord", `
		DELETE FROM `+s.table(recordsTable)+`
		WHERE owner_id = @owner_id
		  AND record_id = @record_id
	`, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "record_id", Value: recordID},
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("DeleteRecord %s: %w", recordID, store.ErrNotFound)
	}
	return nil
}

// DeleteAllRecords removes every record the owner has.
func (s *Store) DeleteAllRecords(ctx context.Context, ownerID string) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}

	affected, err := s.runDML(ctx, "DeleteAllRecords", `
		DELETE FROM `+s.table(recordsTable)+`
		WHERE owner_id = @owner_id
	`, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	})
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("owner_id", ownerID).
		Int64("deleted", affected).
		Msg("Deleted all records")
	return nil
}

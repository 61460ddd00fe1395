package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/store"
)

// FetchCircles returns all of the owner's circles in creation order.
func (s *Store) FetchCircles(ctx context.Context, ownerID string) ([]domain.Circle, error) {
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}

	q := s.client.Query(`
		SELECT
			circle_id,
			owner_id,
			name,
			is_default
		FROM ` + s.table(circlesTable) + `
		WHERE owner_id = @owner_id
		ORDER BY created_ts, name
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, classifyError("FetchCircles: query read", err)
	}

	circles := []domain.Circle{}
	for {
		var r CircleRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyError("FetchCircles: iter next", err)
		}
		circles = append(circles, r.toDomain())
	}

	return circles, nil
}

// InsertCircles creates new circles with one DML statement.
func (s *Store) InsertCircles(ctx context.Context, ownerID string, circles []domain.Circle) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	if len(circles) == 0 {
		return nil
	}

	rows, err := circleParams(circles)
	if err != nil {
		return store.NewDataError("insert circles", err)
	}

	_, err = s.runDML(ctx, "InsertCircles", `
		INSERT `+s.table(circlesTable)+` (
			circle_id,
			owner_id,
			name,
			is_default,
			created_ts
		)
		SELECT
			c.circle_id,
			@owner_id,
			c.name,
			c.is_default,
			CURRENT_TIMESTAMP()
		FROM UNNEST(@rows) AS c
	`, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "rows", Value: rows},
	})
	return err
}

// UpsertCircles makes the owner's circle set equal to circles inside one
// transaction: rows not in the set are deleted, the rest merged.
func (s *Store) UpsertCircles(ctx context.Context, ownerID string, circles []domain.Circle) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}

	rows, err := circleParams(circles)
	if err != nil {
		return store.NewDataError("upsert circles", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.CircleID)
	}

	table := s.table(circlesTable)
	_, err = s.runDML(ctx, "UpsertCircles", `
		BEGIN TRANSACTION;

		DELETE FROM `+table+`
		WHERE owner_id = @owner_id
		  AND circle_id NOT IN UNNEST(@circle_ids);

		MERGE `+table+` T
		USING (SELECT * FROM UNNEST(@rows)) S
		ON T.owner_id = @owner_id AND T.circle_id = S.circle_id
		WHEN MATCHED THEN
			UPDATE SET name = S.name, is_default = S.is_default
		WHEN NOT MATCHED THEN
			INSERT (circle_id, owner_id, name, is_default, created_ts)
			VALUES (S.circle_id, @owner_id, S.name, S.is_default, CURRENT_TIMESTAMP());

		COMMIT TRANSACTION;
	`, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "circle_ids", Value: ids},
		{Name: "rows", Value: rows},
	})
	return err
}

func circleParams(circles []domain.Circle) ([]circleParam, error) {
	seen := make(map[string]bool, len(circles))
	rows := make([]circleParam, 0, len(circles))
	for _, c := range circles {
		if c.ID == "" || seen[c.ID] {
			return nil, fmt.Errorf("invalid or duplicate circle id %q", c.ID)
		}
		seen[c.ID] = true
		rows = append(rows, newCircleParam(c))
	}
	return rows, nil
}

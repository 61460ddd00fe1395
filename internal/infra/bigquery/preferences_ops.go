package bigquery

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
)

// FetchPreferences returns the owner's preferences or the zero value.
func (s *Store) FetchPreferences(ctx context.Context, ownerID string) (domain.Preferences, error) {
	if err := checkOwner(ownerID); err != nil {
		return domain.Preferences{}, err
	}

	q := s.client.Query(`
		SELECT
			owner_id,
			IFNULL(selected_circle_id, '') AS selected_circle_id,
			updated_ts
		FROM ` + s.table(preferencesTable) + `
		WHERE owner_id = @owner_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return domain.Preferences{}, classifyError("FetchPreferences: query read", err)
	}

	var r PreferencesRow
	err = it.Next(&r)
	if err == iterator.Done {
		return domain.Preferences{}, nil
	}
	if err != nil {
		return domain.Preferences{}, classifyError("FetchPreferences: iter next", err)
	}

	return domain.Preferences{
		SelectedCircleID: r.SelectedCircleID,
		UpdatedAt:        r.UpdatedTS,
	}, nil
}

// SavePreferences replaces the owner's preferences.
func (s *Store) SavePreferences(ctx context.Context, ownerID string, prefs domain.Preferences) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}

	updated := prefs.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	_, err := s.runDML(ctx, "SavePreferences", `
		MERGE `+s.table(preferencesTable)+` T
		USING (SELECT @owner_id AS owner_id) S
		ON T.owner_id = S.owner_id
		WHEN MATCHED THEN
			UPDATE SET selected_circle_id = @selected_circle_id, updated_ts = @updated_ts
		WHEN NOT MATCHED THEN
			INSERT (owner_id, selected_circle_id, updated_ts)
			VALUES (@owner_id, @selected_circle_id, @updated_ts)
	`, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "selected_circle_id", Value: prefs.SelectedCircleID},
		{Name: "updated_ts", Value: updated},
	})
	return err
}

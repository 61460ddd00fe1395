package bigquery

import (
	"time"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
)

const (
	circlesTable     = "circles"
	recordsTable     = "records"
	preferencesTable = "preferences"
)

// RecordRow is one row of the records table.
type RecordRow struct {
	RecordID   string    `bigquery:"record_id"`   // REQUIRED
	OwnerID    string    `bigquery:"owner_id"`    // REQUIRED
	CircleID   string    `bigquery:"circle_id"`   // REQUIRED
	Amount     float64   `bigquery:"amount"`      // REQUIRED FLOAT64, signed
	RecordDate string    `bigquery:"record_date"` // REQUIRED STRING (YYYY-MM-DD)
	Note       string    `bigquery:"note"`        // NULLABLE in schema, written as ""
	CreatedTS  time.Time `bigquery:"created_ts"`  // REQUIRED
}

// CircleRow is one row of the circles table.
type CircleRow struct {
	CircleID  string `bigquery:"circle_id"`  // REQUIRED
	OwnerID   string `bigquery:"owner_id"`   // REQUIRED
	Name      string `bigquery:"name"`       // REQUIRED
	IsDefault bool   `bigquery:"is_default"` // REQUIRED
}

// PreferencesRow is one row of the preferences table.
type PreferencesRow struct {
	OwnerID          string    `bigquery:"owner_id"`
	SelectedCircleID string    `bigquery:"selected_circle_id"`
	UpdatedTS        time.Time `bigquery:"updated_ts"`
}

// recordParam is the STRUCT element of batch insert parameters.
type recordParam struct {
	RecordID   string    `bigquery:"record_id"`
	CircleID   string    `bigquery:"circle_id"`
	Amount     float64   `bigquery:"amount"`
	RecordDate string    `bigquery:"record_date"`
	Note       string    `bigquery:"note"`
	CreatedTS  time.Time `bigquery:"created_ts"`
}

// circleParam is the STRUCT element of circle batch parameters.
type circleParam struct {
	CircleID  string `bigquery:"circle_id"`
	Name      string `bigquery:"name"`
	IsDefault bool   `bigquery:"is_default"`
}

func (r RecordRow) toDomain() domain.Record {
	return domain.Record{
		ID:        r.RecordID,
		CircleID:  r.CircleID,
		Amount:    r.Amount,
		Date:      r.RecordDate,
		Note:      r.Note,
		Timestamp: r.CreatedTS,
	}
}

func (r CircleRow) toDomain() domain.Circle {
	return domain.Circle{
		ID:        r.CircleID,
		Name:      r.Name,
		IsDefault: r.IsDefault,
	}
}

func newRecordParam(rec domain.Record) recordParam {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return recordParam{
		RecordID:   rec.ID,
		CircleID:   rec.CircleID,
		Amount:     rec.Amount,
		RecordDate: rec.Date,
		Note:       rec.Note,
		CreatedTS:  ts,
	}
}

func newCircleParam(c domain.Circle) circleParam {
	return circleParam{CircleID: c.ID, Name: c.Name, IsDefault: c.IsDefault}
}

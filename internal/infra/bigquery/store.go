// Package bigquery implements the owner-scoped record store on BigQuery.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/mahjong-ledger/internal/store"
)

// Store is the BigQuery implementation of store.RecordStore. It holds a
// shared client; call Close when done.
type Store struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewStore creates a Store with its own BigQuery client.
func NewStore(ctx context.Context, projectID, datasetID string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating client: %w", err)
	}
	return NewStoreWithClient(client, projectID, datasetID), nil
}

// NewStoreWithClient creates a Store around an existing client.
func NewStoreWithClient(client *bigquery.Client, projectID, datasetID string) *Store {
	return &Store{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}
}

// Close closes the BigQuery client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// table returns the fully qualified, backquoted table name.
func (s *Store) table(name string) string {
	return tableName(s.projectID, s.datasetID, name)
}

func tableName(projectID, datasetID, name string) string {
	return "`" + projectID + "." + datasetID + "." + name + "`"
}

// runDML runs a statement, waits for it and returns the affected row count.
func (s *Store) runDML(ctx context.Context, op, sql string, params []bigquery.QueryParameter) (int64, error) {
	q := s.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return 0, classifyError(op+": run query", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, classifyError(op+": wait for job", err)
	}
	if err := status.Err(); err != nil {
		return 0, classifyError(op+": job error", err)
	}

	var affected int64
	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			affected = qs.NumDMLAffectedRows
		}
	}
	return affected, nil
}

func checkOwner(ownerID string) error {
	if ownerID == "" {
		return store.ErrUnauthorized
	}
	return nil
}

// Ensure Store implements RecordStore interface.
var _ store.RecordStore = (*Store)(nil)

// Package infra selects and opens the configured record store backend.
package infra

import (
	"context"
	"fmt"

	"github.com/dvloznov/mahjong-ledger/internal/config"
	infraBQ "github.com/dvloznov/mahjong-ledger/internal/infra/bigquery"
	"github.com/dvloznov/mahjong-ledger/internal/infra/bolt"
	"github.com/dvloznov/mahjong-ledger/internal/logger"
	"github.com/dvloznov/mahjong-ledger/internal/store"
	"github.com/dvloznov/mahjong-ledger/internal/store/inmemory"
)

// OpenStore opens the record store named by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.RecordStore, error) {
	log := logger.FromContext(ctx)

	switch cfg.Driver {
	case config.DriverMemory, "":
		log.Warn().Msg("Using in-memory store, data will not survive a restart")
		return inmemory.NewStore(), nil
	case config.DriverBolt:
		s, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		log.Info().Str("path", cfg.BoltPath).Msg("Opened bolt store")
		return s, nil
	case config.DriverBigQuery:
		s, err := infraBQ.NewStore(ctx, cfg.ProjectID, cfg.Dataset)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		log.Info().Str("project", cfg.ProjectID).Str("dataset", cfg.Dataset).Msg("Connected to BigQuery store")
		return s, nil
	default:
		return nil, fmt.Errorf("OpenStore: unknown store driver %q", cfg.Driver)
	}
}

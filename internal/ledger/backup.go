package ledger

import (
	"context"
	"fmt"

	"github.com/dvloznov/mahjong-ledger/internal/backup"
)

// Export renders the owner's data as backup text.
func (s *Service) Export(ctx context.Context, ownerID string) (string, error) {
	if _, err := s.ListCircles(ctx, ownerID); err != nil {
		return "", err
	}
	text, err := backup.Export(ctx, s.store, ownerID)
	if err != nil {
		return "", fmt.Errorf("Export: %w", err)
	}
	return text, nil
}

// Import merges backup text into the owner's data, creating only circles
// and records that are not already present.
func (s *Service) Import(ctx context.Context, ownerID, text string) (backup.Result, error) {
	res, err := backup.Import(ctx, s.store, ownerID, text)
	if err != nil {
		return backup.Result{}, fmt.Errorf("Import: %w", err)
	}
	return res, nil
}

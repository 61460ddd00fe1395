package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/logger"
)

// Extract turns free text into typed records. today anchors defaulted dates.
// Completion errors and ErrMalformedResponse propagate; an empty slice with a
// nil error means the text held no records.
func Extract(ctx context.Context, extractor Extractor, freeText string, circleNames []string, today time.Time) ([]domain.ParsedRecord, error) {
	log := logger.FromContext(ctx)

	state := &PipelineState{
		FreeText:    freeText,
		CircleNames: circleNames,
		Today:       today,
	}

	if err := NewExtractionPipeline(extractor).Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("Extraction failed")
		return nil, err
	}

	log.Info().
		Int("candidates", len(state.Candidates)).
		Int("records", len(state.Records)).
		Msg("Extraction completed")

	return state.Records, nil
}

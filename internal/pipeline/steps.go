package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/logger"
)

// PipelineStep represents a single step in the extraction pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	FreeText    string
	CircleNames []string
	Today       time.Time
	RawOutput   string
	Candidates  []Candidate
	Records     []domain.ParsedRecord
}

// Step 1: RequestExtractionStep sends the free text to the completion service.
type RequestExtractionStep struct {
	Extractor Extractor
}

func (s *RequestExtractionStep) Execute(ctx context.Context, state *PipelineState) error {
	raw, err := s.Extractor.RequestExtraction(ctx, state.FreeText, state.CircleNames)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	log.Debug().
		Str("raw_output", raw).
		Msg("Completion output")
	state.RawOutput = raw
	return nil
}

// Step 2: NormalizeResponseStep recovers candidate structure from the raw output.
type NormalizeResponseStep struct{}

func (s *NormalizeResponseStep) Execute(ctx context.Context, state *PipelineState) error {
	candidates, err := Normalize(state.RawOutput)
	if err != nil {
		return err
	}
	state.Candidates = candidates
	return nil
}

// Step 3: CoerceRecordsStep types the candidates and drops unsupported zero amounts.
type CoerceRecordsStep struct{}

func (s *CoerceRecordsStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Records = Coerce(state.Candidates, state.FreeText, state.Today)
	if dropped := len(state.Candidates) - len(state.Records); dropped > 0 {
		log := logger.FromContext(ctx)
		log.Debug().
			Int("dropped", dropped).
			Msg("Dropped zero-amount candidates without a zero cue")
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewExtractionPipeline creates the standard request, normalize, coerce pipeline.
func NewExtractionPipeline(extractor Extractor) *Pipeline {
	return NewPipeline(
		&RequestExtractionStep{Extractor: extractor},
		&NormalizeResponseStep{},
		&CoerceRecordsStep{},
	)
}

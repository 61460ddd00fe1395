package pipeline

import "context"

// Extractor requests raw extraction output for free text.
// *completion.Client satisfies it.
type Extractor interface {
	RequestExtraction(ctx context.Context, freeText string, knownCircleNames []string) (string, error)
}

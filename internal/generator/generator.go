// Package generator wraps the external text generation service behind a
// narrow interface so the orchestrator can be tested without network calls.
package generator

import (
	"context"
	"errors"
)

// ErrGeneration marks failures from the external generator. Callers use it
// to distinguish a retryable generation failure from their own errors.
var ErrGeneration = errors.New("generation_failed")

// Result is one generated proposal draft.
type Result struct {
	Content          string
	Title            string
	ExecutiveSummary string
	Model            string
	InputTokens      int64
	OutputTokens     int64
}

type Client interface {
	Generate(ctx context.Context, prompt string) (*Result, error)
}

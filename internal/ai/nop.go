package ai

import (
	"context"

	"github.com/saint-net/open-jobs-searcher/internal/extract"
)

// NopFallback is a no-op model fallback used when ai.enabled is false.
// Pages that defeat structured data and platform parsers yield nothing.
type NopFallback struct{}

// NewNopFallback returns a NopFallback.
func NewNopFallback() *NopFallback {
	return &NopFallback{}
}

// ExtractWithPagination returns an empty result with no LLM calls.
func (n *NopFallback) ExtractWithPagination(_ context.Context, _, _ string) extract.Result {
	return extract.Result{}
}

package engine

import (
	"context"

	"github.com/use-agent/sieve/models"
	"github.com/use-agent/sieve/segment"
)

// Tier is one escalation stage. Extract never fails: every problem is
// recorded in the returned result's error list with its phase.
type Tier interface {
	// Name returns the tier identifier (static, light, full, hard).
	Name() string

	// Extract runs the tier against req.URL and returns a fresh result.
	Extract(ctx context.Context, req *Request) *models.ExtractionResult
}

// Request carries the per-request options every tier needs.
type Request struct {
	URL              string
	Markdown         bool
	ExcludeSelectors []string
	// Readability fills Meta.SiteName and Meta.Author.
	Readability bool
}

// Segmenter builds the segmenter configured for this request.
func (r *Request) Segmenter() *segment.Segmenter {
	return segment.New(segment.Options{
		ExcludeSelectors: r.ExcludeSelectors,
		Markdown:         r.Markdown,
	})
}

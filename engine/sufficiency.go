package engine

import "github.com/use-agent/sieve/models"

// Policy holds the heuristics that decide whether to keep escalating.
type Policy struct {
	// MinTextLength is the summed section text length below which a tier
	// result is insufficient.
	MinTextLength int
	// BlockKeywords mark an error message as a blocking signal. Matching
	// is case-insensitive substring.
	BlockKeywords []string
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinTextLength: 300,
		BlockKeywords: []string{"403", "blocked", "access denied"},
	}
}

// Sufficient reports whether r has at least one section and enough text.
func (p Policy) Sufficient(r *models.ExtractionResult) bool {
	if r == nil || len(r.Sections) == 0 {
		return false
	}
	return r.TextLength() >= p.MinTextLength
}

// Blocked reports whether any error in r carries a blocking signal.
func (p Policy) Blocked(r *models.ExtractionResult) bool {
	return r != nil && r.HasErrorContaining(p.BlockKeywords)
}

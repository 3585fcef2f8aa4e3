package models

import (
	"net/url"
	"strings"
)

// Tier names, in escalation order.
const (
	TierStatic = "static"
	TierLight  = "light"
	TierFull   = "full"
	TierHard   = "hard"
)

// ExtractRequest is the payload for POST /api/v1/extract.
type ExtractRequest struct {
	// URL is the target page. Required; must be http or https.
	URL string `json:"url" binding:"required"`

	// Timeout is the maximum duration in seconds for the whole escalation.
	// Default: 120. Max: 300.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=300"`

	// Markdown fills content.markdown for every section.
	Markdown bool `json:"markdown,omitempty"`

	// ExcludeSelectors are removed from the document before segmentation.
	ExcludeSelectors []string `json:"exclude_selectors,omitempty"`

	// MaxTier caps escalation. Allowed: static, light, full, hard (default).
	MaxTier string `json:"max_tier,omitempty" binding:"omitempty,oneof=static light full hard"`
}

// Defaults applies default values to unset fields.
func (r *ExtractRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 120
	}
	if r.MaxTier == "" {
		r.MaxTier = TierHard
	}
}

// ValidateURL rejects anything that is not an absolute http(s) URL. It is
// the only fatal check in the pipeline and runs before any tier.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return NewScrapeError(ErrCodeInvalidInput, "Invalid URL", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return NewScrapeError(ErrCodeInvalidInput, "Unsupported URL scheme", nil)
	}
	if u.Host == "" {
		return NewScrapeError(ErrCodeInvalidInput, "URL has no host", nil)
	}
	return nil
}

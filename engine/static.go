package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/use-agent/sieve/models"
)

// StaticTier fetches the page once over plain HTTP and segments the body.
type StaticTier struct {
	fetcher *HTTPEngine
}

// NewStaticTier creates the static tier on top of fetcher.
func NewStaticTier(fetcher *HTTPEngine) *StaticTier {
	return &StaticTier{fetcher: fetcher}
}

func (t *StaticTier) Name() string { return models.TierStatic }

func (t *StaticTier) Extract(ctx context.Context, req *Request) *models.ExtractionResult {
	res := models.NewResult(req.URL)

	fetched, err := t.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		slog.Info("static fetch failed", "url", req.URL, "error", err)
		res.AddError(models.PhaseFetch, models.Describe(err))
		return res
	}
	if strings.TrimSpace(fetched.Body) == "" {
		res.AddError(models.PhaseFetch, "Static fetch returned empty body")
		return res
	}

	page, err := req.Segmenter().Analyze(fetched.Body, req.URL, req.Readability)
	if err != nil {
		res.AddError(models.PhaseParse, models.Describe(err))
		return res
	}
	res.Meta = page.Meta
	res.Sections = append(res.Sections, page.Sections...)

	slog.Debug("static tier parsed",
		"url", req.URL,
		"status", fetched.StatusCode,
		"retried", fetched.Retried,
		"sections", len(page.Sections),
	)
	return res
}

package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/sieve/engine"
	"github.com/use-agent/sieve/merge"
	"github.com/use-agent/sieve/models"
	"github.com/use-agent/sieve/segment"
)

// BrowserTier renders a page in a fresh browser session and runs the
// profile's interactions before capturing it. Light, full and hard tiers
// are all BrowserTiers with different profiles.
type BrowserTier struct {
	profile  Profile
	launcher Launcher
	merger   *merge.Merger
}

var _ engine.Tier = (*BrowserTier)(nil)

// NewBrowserTier creates a tier. merger combines paginated captures and
// may be nil for the default fingerprint-only merge.
func NewBrowserTier(profile Profile, launcher Launcher, merger *merge.Merger) *BrowserTier {
	if merger == nil {
		merger = merge.New()
	}
	if profile.StepTimeout <= 0 {
		profile.StepTimeout = 5 * time.Second
	}
	if profile.MaxPages <= 0 {
		profile.MaxPages = 1
	}
	return &BrowserTier{profile: profile, launcher: launcher, merger: merger}
}

func (t *BrowserTier) Name() string { return t.profile.Name }

// Extract never returns an error: launch, navigation and capture failures
// are recorded on the result as render-phase errors.
func (t *BrowserTier) Extract(ctx context.Context, req *engine.Request) *models.ExtractionResult {
	res := models.NewResult(req.URL)
	start := time.Now()

	session, err := t.launcher.Launch(ctx, t.profile.Launch)
	if err != nil {
		slog.Warn("scraper: browser launch failed", "tier", t.Name(), "url", req.URL, "error", err)
		res.AddError(models.PhaseRender, "Browser launch failed: "+models.Describe(err))
		return res
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Debug("scraper: session close failed", "tier", t.Name(), "error", err)
		}
	}()

	page := session.Page()
	if err := t.navigate(ctx, page, req.URL); err != nil {
		slog.Warn("scraper: navigation failed", "tier", t.Name(), "url", req.URL, "error", err)
		res.AddError(models.PhaseRender, models.Describe(err))
		return res
	}

	r := &run{page: page, prof: t.profile, res: res}
	seg := req.Segmenter()
	visited := map[string]bool{req.URL: true}
	current := req.URL

	for n := 0; ; n++ {
		r.interact(ctx)
		t.capture(ctx, r, seg, current, n == 0 && req.Readability)

		if n+1 >= t.profile.MaxPages || ctx.Err() != nil {
			break
		}
		next := r.nextPage(ctx, visited, func(ctx context.Context, u string) error {
			return t.navigate(ctx, page, u)
		})
		if next == "" {
			break
		}
		visited[next] = true
		current = next
		res.Interactions.Pages = append(res.Interactions.Pages, next)
	}

	slog.Info("scraper: tier finished",
		"tier", t.Name(),
		"url", req.URL,
		"sections", len(res.Sections),
		"pages", len(res.Interactions.Pages),
		"clicks", len(res.Interactions.Clicks),
		"scrolls", res.Interactions.Scrolls,
		"duration", time.Since(start),
	)
	return res
}

// navigate tries the profile's idle wait first and falls back once to the
// load event.
func (t *BrowserTier) navigate(ctx context.Context, page Page, url string) error {
	err := t.attempt(ctx, page, url, WaitIdle)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return categorizeError(err, "Navigation aborted")
	}
	slog.Debug("scraper: idle wait failed, retrying with load", "tier", t.Name(), "url", url, "error", err)
	if err := t.attempt(ctx, page, url, WaitLoad); err != nil {
		return categorizeError(err, "Navigation failed")
	}
	return nil
}

func (t *BrowserTier) attempt(ctx context.Context, page Page, url string, wait WaitCondition) error {
	nctx := ctx
	if t.profile.NavTimeout > 0 {
		var cancel context.CancelFunc
		nctx, cancel = context.WithTimeout(ctx, t.profile.NavTimeout)
		defer cancel()
	}
	return page.Navigate(nctx, url, wait)
}

// capture segments the current DOM and merges it into the run's result.
func (t *BrowserTier) capture(ctx context.Context, r *run, seg *segment.Segmenter, sourceURL string, readability bool) {
	sctx, cancel := r.step(ctx)
	markup, err := r.page.HTML(sctx)
	cancel()
	if err != nil {
		r.res.AddError(models.PhaseRender, "Capturing page content failed: "+models.Describe(err))
		return
	}

	page, err := seg.Analyze(markup, sourceURL, readability)
	if err != nil {
		r.res.AddError(models.PhaseParse, "Parsing rendered page failed: "+models.Describe(err))
		return
	}

	captured := &models.ExtractionResult{URL: sourceURL, Meta: page.Meta, Sections: page.Sections}
	if kind, blocked := DetectChallenge(markup, sectionText(page.Sections)); blocked {
		slog.Info("scraper: challenge page detected", "tier", t.Name(), "url", sourceURL, "kind", kind)
		captured.Errors = append(captured.Errors, models.ErrorEntry{
			Message: fmt.Sprintf("Page blocked by %s challenge", kind),
			Phase:   models.PhaseRender,
		})
	}
	if err := t.merger.Into(r.res, captured); err != nil {
		slog.Warn("scraper: merging page capture failed", "tier", t.Name(), "url", sourceURL, "error", err)
	}
}

func sectionText(sections []models.Section) string {
	var b strings.Builder
	for _, s := range sections {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.Content.Text)
	}
	return b.String()
}

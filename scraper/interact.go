package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/sieve/models"
)

// run holds the state of one tier execution on one session.
type run struct {
	page Page
	prof Profile
	res  *models.ExtractionResult
}

func (r *run) step(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.prof.StepTimeout)
}

// eval runs js with a step timeout and reports success.
func (r *run) eval(ctx context.Context, js string) bool {
	sctx, cancel := r.step(ctx)
	defer cancel()
	if _, err := r.page.Eval(sctx, js); err != nil {
		slog.Debug("scraper: evaluate failed", "tier", r.prof.Name, "error", err)
		return false
	}
	return true
}

func (r *run) evalInt(ctx context.Context, js string) (int, bool) {
	sctx, cancel := r.step(ctx)
	defer cancel()
	v, err := r.page.Eval(sctx, js)
	if err != nil {
		return 0, false
	}
	return v.Int(), true
}

// interact performs the profile's page interactions in order: overlay
// dismissal, scrolling, clicking.
func (r *run) interact(ctx context.Context) {
	if r.prof.DismissOverlays {
		r.click(ctx, OverlayPolicy(), 0)
		r.eval(ctx, removeOverlaysJS)
	}
	switch r.prof.ScrollMode {
	case ScrollByViewport:
		r.scrollByViewport(ctx)
	default:
		r.scrollToBottom(ctx)
	}
	if r.prof.Clicks != nil {
		r.click(ctx, r.prof.Clicks, r.prof.ClickPause)
	}
}

// scrollToBottom stops early when two consecutive scrolls leave the
// document height unchanged.
func (r *run) scrollToBottom(ctx context.Context) {
	last := -1
	for i := 0; i < r.prof.Scrolls && ctx.Err() == nil; i++ {
		if !r.eval(ctx, scrollBottomJS) {
			return
		}
		if !sleep(ctx, r.prof.ScrollPause) {
			return
		}
		r.res.Interactions.Scrolls++

		height, ok := r.evalInt(ctx, pageHeightJS)
		if !ok || height == last {
			return
		}
		last = height
	}
}

func (r *run) scrollByViewport(ctx context.Context) {
	for i := 0; i < r.prof.Scrolls && ctx.Err() == nil; i++ {
		if !r.eval(ctx, scrollStepJS) {
			return
		}
		r.res.Interactions.Scrolls++
		if !sleep(ctx, r.prof.ScrollPause+time.Duration(i%3)*r.prof.ScrollJitter) {
			return
		}
	}
}

// click tries each candidate of policy until its cap is reached. Hidden
// elements and failed clicks are skipped.
func (r *run) click(ctx context.Context, policy ClickPolicy, pause time.Duration) {
	qctx, cancel := r.step(ctx)
	candidates := policy.Candidates(qctx, r.page)
	cancel()

	clicked := 0
	for _, c := range candidates {
		if limit := policy.MaxClicks(); limit > 0 && clicked >= limit {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if !r.clickOne(ctx, c) {
			continue
		}
		clicked++
		if !sleep(ctx, pause) {
			return
		}
	}
}

func (r *run) clickOne(ctx context.Context, c Candidate) bool {
	sctx, cancel := r.step(ctx)
	defer cancel()

	if !c.Element.Visible(sctx) {
		return false
	}
	label := c.Element.Text(sctx)
	if label == "" {
		label = c.Element.Attr(sctx, "href")
	}
	if label == "" {
		label = c.Selector
	}
	if err := c.Element.Click(sctx); err != nil {
		slog.Debug("scraper: click failed", "tier", r.prof.Name, "selector", c.Selector, "error", err)
		return false
	}
	r.res.Interactions.Clicks = append(r.res.Interactions.Clicks, label)
	return true
}

// nextPage finds a next-page control and follows it, preferring its href
// over a click. It returns the new page URL, or "" when there is no next
// page or it was already visited.
func (r *run) nextPage(ctx context.Context, visited map[string]bool, navigate func(context.Context, string) error) string {
	for _, sel := range paginationSelectors {
		sctx, cancel := r.step(ctx)
		el, err := r.page.Element(sctx, sel)
		if err != nil || el == nil {
			cancel()
			continue
		}
		href := strings.TrimSpace(el.Attr(sctx, "href"))
		current := r.page.URL(sctx)
		cancel()
		if current == "" {
			current = r.res.URL
		}

		if followable(href) {
			next := resolve(current, href)
			if visited[next] {
				return ""
			}
			if err := navigate(ctx, next); err != nil {
				slog.Debug("scraper: pagination navigation failed", "url", next, "error", err)
				continue
			}
			return next
		}

		after, ok := r.clickThrough(ctx, el, current)
		if !ok {
			continue
		}
		if visited[after] {
			return ""
		}
		return after
	}
	return ""
}

// clickThrough clicks el and reports the new URL if the click navigated.
func (r *run) clickThrough(ctx context.Context, el Element, before string) (string, bool) {
	sctx, cancel := r.step(ctx)
	defer cancel()

	if err := el.Click(sctx); err != nil {
		return "", false
	}
	if err := r.page.WaitIdle(sctx); err != nil {
		slog.Debug("scraper: wait after pagination click failed", "error", err)
	}
	after := r.page.URL(sctx)
	if after == "" || after == before {
		return "", false
	}
	return after, true
}

func followable(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(href), "javascript:")
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u, err := b.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

// sleep waits for d or until ctx is done, reporting whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

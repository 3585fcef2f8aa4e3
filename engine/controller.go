package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/sieve/merge"
	"github.com/use-agent/sieve/models"
)

// tierOrder is the fixed escalation order.
var tierOrder = []string{models.TierStatic, models.TierLight, models.TierFull, models.TierHard}

// Controller runs the escalation state machine for one request at a time.
// It holds no per-request state and is safe for concurrent use.
type Controller struct {
	tiers  map[string]Tier
	policy Policy
	merger *merge.Merger
}

// Outcome is the merged result plus a record of each tier that ran.
type Outcome struct {
	Result *models.ExtractionResult
	Trace  []models.TierOutcome
	Timing models.TimingInfo
}

// NewController creates a Controller. Tiers are matched to states by
// Name(); a state without a tier is skipped.
func NewController(policy Policy, merger *merge.Merger, tiers ...Tier) *Controller {
	c := &Controller{
		tiers:  make(map[string]Tier, len(tiers)),
		policy: policy,
		merger: merger,
	}
	for _, t := range tiers {
		if t != nil {
			c.tiers[t.Name()] = t
		}
	}
	return c
}

// Run escalates static -> light -> full -> hard, stopping as soon as a
// tier is sufficient, after maxTier, or after hard. Each tier runs at
// most once. The returned result always has at least one section.
func (c *Controller) Run(ctx context.Context, req *Request, maxTier string) *Outcome {
	start := time.Now()
	out := &Outcome{Result: models.NewResult(req.URL)}

	for _, name := range tierOrder {
		tier, ok := c.tiers[name]
		if !ok {
			slog.Debug("tier not configured, skipping", "url", req.URL, "tier", name)
			if name == maxTier {
				break
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			out.Result.AddError(models.PhaseRender, "Extraction deadline reached before "+name+" tier")
			break
		}

		tierStart := time.Now()
		res := tier.Extract(ctx, req)
		elapsed := time.Since(tierStart)

		sufficient := c.policy.Sufficient(res)
		blocked := c.policy.Blocked(res)
		out.Trace = append(out.Trace, models.TierOutcome{
			Tier:       name,
			Sufficient: sufficient,
			Blocked:    blocked,
			TextLength: res.TextLength(),
			Sections:   len(res.Sections),
			Errors:     len(res.Errors),
			DurationMs: elapsed.Milliseconds(),
		})
		if name == models.TierStatic {
			out.Timing.StaticMs += elapsed.Milliseconds()
		} else {
			out.Timing.BrowserMs += elapsed.Milliseconds()
		}

		if err := c.merger.Into(out.Result, res); err != nil {
			slog.Warn("engine: merging tier result failed", "tier", name, "url", req.URL, "error", err)
		}

		escalate := c.shouldEscalate(name, res, sufficient, blocked)
		slog.Info("tier finished",
			"url", req.URL,
			"tier", name,
			"sections", len(res.Sections),
			"text_length", res.TextLength(),
			"errors", len(res.Errors),
			"escalate", escalate,
			"duration_ms", elapsed.Milliseconds(),
		)
		if !escalate || name == maxTier {
			break
		}
	}

	ensureContent(out.Result)
	out.Timing.TotalMs = time.Since(start).Milliseconds()
	return out
}

// shouldEscalate applies the transition guard for the tier that just ran.
func (c *Controller) shouldEscalate(tier string, res *models.ExtractionResult, sufficient, blocked bool) bool {
	switch tier {
	case models.TierStatic:
		return !sufficient
	case models.TierLight:
		return !sufficient || blocked
	case models.TierFull:
		return !sufficient || len(res.Errors) > 0
	default:
		return false
	}
}

// ensureContent adds the placeholder section when nothing was extracted.
func ensureContent(r *models.ExtractionResult) {
	if len(r.Sections) > 0 {
		return
	}
	r.Sections = append(r.Sections, models.Section{
		ID:        "page-0",
		Type:      models.SectionUnknown,
		Label:     "Page content",
		SourceURL: r.URL,
		Content: models.SectionContent{
			Headings: []string{},
			Links:    []models.Link{},
			Images:   []models.Image{},
			Lists:    [][]string{},
			Tables:   []models.Table{},
		},
		Truncated: true,
	})
	r.AddError(models.PhaseFallback, "No readable content found in static or browser mode")
}

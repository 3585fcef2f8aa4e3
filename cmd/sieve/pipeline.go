package main

import (
	"log/slog"

	"github.com/use-agent/sieve/config"
	"github.com/use-agent/sieve/engine"
	"github.com/use-agent/sieve/merge"
	"github.com/use-agent/sieve/scraper"
)

// pipeline is the escalation controller plus the launcher backing its
// browser tiers. launcher is nil when browsers are disabled.
type pipeline struct {
	controller *engine.Controller
	launcher   *scraper.RodLauncher
}

func newPipeline(cfg *config.Config) *pipeline {
	var mergeOpts []merge.Option
	if cfg.Escalation.TextDedup {
		mergeOpts = append(mergeOpts, merge.WithTextDedup(cfg.Escalation.TextDedupThreshold))
	}
	merger := merge.New(mergeOpts...)

	policy := engine.Policy{
		MinTextLength: cfg.Escalation.MinTextLength,
		BlockKeywords: cfg.Escalation.BlockKeywords,
	}

	tiers := []engine.Tier{
		engine.NewStaticTier(engine.NewHTTPEngine(engine.HTTPConfig{
			Timeout:       cfg.Static.Timeout,
			UserAgent:     cfg.Static.UserAgent,
			RetryStatuses: cfg.Static.RetryStatuses,
		})),
	}

	p := &pipeline{}
	if cfg.Browser.Enabled {
		p.launcher = scraper.NewRodLauncher(cfg.Browser)
		tiers = append(tiers,
			scraper.NewBrowserTier(scraper.LightProfile(cfg.Browser), p.launcher, merger),
			scraper.NewBrowserTier(scraper.FullProfile(cfg.Browser), p.launcher, merger),
			scraper.NewBrowserTier(scraper.HardProfile(cfg.Browser), p.launcher, merger),
		)
	} else {
		slog.Warn("browser tiers disabled, only static extraction will run")
	}

	p.controller = engine.NewController(policy, merger, tiers...)
	return p
}

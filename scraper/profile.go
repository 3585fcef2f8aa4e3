package scraper

import (
	"time"

	"github.com/use-agent/sieve/config"
	"github.com/use-agent/sieve/models"
)

const chromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// ScrollMode selects how a tier scrolls.
type ScrollMode int

const (
	// ScrollToBottom jumps to the document end and stops once the height
	// stops changing.
	ScrollToBottom ScrollMode = iota
	// ScrollByViewport moves 0.8 viewports per step with a varying pause,
	// closer to how a person reads.
	ScrollByViewport
)

// Profile is everything that distinguishes one browser tier from another.
type Profile struct {
	Name string
	// NavTimeout bounds each navigation attempt.
	NavTimeout time.Duration
	Launch     LaunchOptions

	Scrolls      int
	ScrollMode   ScrollMode
	ScrollPause  time.Duration
	ScrollJitter time.Duration

	// Clicks is nil for tiers that do not click.
	Clicks     ClickPolicy
	ClickPause time.Duration

	DismissOverlays bool

	// MaxPages includes the first page; 1 disables pagination.
	MaxPages int

	// StepTimeout bounds each scroll, click, evaluate and capture.
	StepTimeout time.Duration
}

// LightProfile is a quick headless pass.
func LightProfile(cfg config.BrowserConfig) Profile {
	return Profile{
		Name:       models.TierLight,
		NavTimeout: 30 * time.Second,
		Launch: LaunchOptions{
			Headless:             true,
			UserAgent:            chromeUserAgent,
			Locale:               "en-US",
			Viewport:             Viewport{Width: 1366, Height: 800},
			BlockedResourceTypes: cfg.BlockedResourceTypes,
			BlockAds:             cfg.BlockAds,
		},
		Scrolls:         3,
		ScrollMode:      ScrollToBottom,
		ScrollPause:     time.Second,
		Clicks:          LightClickPolicy(),
		ClickPause:      300 * time.Millisecond,
		DismissOverlays: true,
		MaxPages:        1,
		StepTimeout:     stepTimeout(cfg),
	}
}

// FullProfile scrolls, clicks and follows up to three pages in a visible
// browser.
func FullProfile(cfg config.BrowserConfig) Profile {
	timeout := cfg.DefaultTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return Profile{
		Name:       models.TierFull,
		NavTimeout: timeout,
		Launch: LaunchOptions{
			UserAgent: chromeUserAgent,
			Locale:    "en-US",
			Viewport:  Viewport{Width: 1366, Height: 768},
			Stealth:   true,
			BlockAds:  cfg.BlockAds,
		},
		Scrolls:         5,
		ScrollMode:      ScrollToBottom,
		ScrollPause:     time.Second,
		Clicks:          FullClickPolicy(),
		ClickPause:      1200 * time.Millisecond,
		DismissOverlays: true,
		MaxPages:        3,
		StepTimeout:     stepTimeout(cfg),
	}
}

// HardProfile reads slowly in a visible hardened browser and does not
// touch the page.
func HardProfile(cfg config.BrowserConfig) Profile {
	return Profile{
		Name:       models.TierHard,
		NavTimeout: 45 * time.Second,
		Launch: LaunchOptions{
			UserAgent: chromeUserAgent,
			Locale:    "en-US",
			Viewport:  Viewport{Width: 1366, Height: 768},
			ExtraArgs: []string{"no-sandbox", "disable-dev-shm-usage"},
			Stealth:   true,
			BlockAds:  cfg.BlockAds,
		},
		Scrolls:      8,
		ScrollMode:   ScrollByViewport,
		ScrollPause:  500 * time.Millisecond,
		ScrollJitter: 300 * time.Millisecond,
		MaxPages:     1,
		StepTimeout:  stepTimeout(cfg),
	}
}

func stepTimeout(cfg config.BrowserConfig) time.Duration {
	if cfg.StepTimeout > 0 {
		return cfg.StepTimeout
	}
	return 5 * time.Second
}

package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/sieve/engine"
	"github.com/use-agent/sieve/models"
)

const articleHTML = `<html lang="en"><head><title>Docs</title></head><body>
<header><h1>Docs</h1></header>
<main><h2>Install</h2><p>Run the installer and follow the prompts.</p></main>
</body></html>`

func TestBrowserTierCapturesPage(t *testing.T) {
	page := newFakePage()
	page.html["https://example.com/"] = articleHTML
	l := &fakeLauncher{page: page}

	tier := NewBrowserTier(quickProfile(models.TierLight), l, nil)
	res := tier.Extract(context.Background(), &engine.Request{URL: "https://example.com/"})

	assert.Equal(t, models.TierLight, tier.Name())
	assert.Empty(t, res.Errors)
	assert.Equal(t, "Docs", res.Meta.Title)
	require.Len(t, res.Sections, 2)
	assert.Equal(t, models.SectionHero, res.Sections[0].Type)
	assert.Equal(t, []string{"https://example.com/"}, res.Interactions.Pages)
	assert.Equal(t, 1, l.closed)
}

func TestBrowserTierKeepsTemplatedSections(t *testing.T) {
	open := `<section class="` + strings.Repeat("mx-auto max-w-7xl px-4 ", 10) + `">`
	page := newFakePage()
	page.html["https://example.com/"] = "<html><body>" +
		open + "<h2>Card 0</h2><p>first</p></section>" +
		open + "<h2>Card 1</h2><p>second</p></section>" +
		open + "<h2>Card 2</h2><p>third</p></section></body></html>"
	l := &fakeLauncher{page: page}

	res := NewBrowserTier(quickProfile(models.TierLight), l, nil).
		Extract(context.Background(), &engine.Request{URL: "https://example.com/"})

	require.Len(t, res.Sections, 3)
	assert.Equal(t, "Card 2", res.Sections[2].Label)
}

func TestBrowserTierNavigationFallsBackToLoad(t *testing.T) {
	page := newFakePage()
	page.html["https://example.com/"] = articleHTML
	page.navErr = func(_ string, wait WaitCondition) error {
		if wait == WaitIdle {
			return context.DeadlineExceeded
		}
		return nil
	}
	l := &fakeLauncher{page: page}

	res := NewBrowserTier(quickProfile(models.TierLight), l, nil).
		Extract(context.Background(), &engine.Request{URL: "https://example.com/"})

	assert.Equal(t, []WaitCondition{WaitIdle, WaitLoad}, page.navs)
	assert.Empty(t, res.Errors)
	assert.NotEmpty(t, res.Sections)
}

func TestBrowserTierNavigationFailure(t *testing.T) {
	page := newFakePage()
	page.navErr = func(string, WaitCondition) error { return errors.New("net::ERR_NAME_NOT_RESOLVED") }
	l := &fakeLauncher{page: page}

	res := NewBrowserTier(quickProfile(models.TierFull), l, nil).
		Extract(context.Background(), &engine.Request{URL: "https://missing.invalid/"})

	assert.Empty(t, res.Sections)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, models.PhaseRender, res.Errors[0].Phase)
	assert.Contains(t, res.Errors[0].Message, "Navigation failed")
	assert.Contains(t, res.Errors[0].Message, "ERR_NAME_NOT_RESOLVED")
	assert.Equal(t, 1, l.closed, "session must be closed on failure")
}

func TestBrowserTierLaunchFailure(t *testing.T) {
	l := &fakeLauncher{launchErr: models.NewScrapeError(models.ErrCodeRender, "chromium not found", nil)}

	res := NewBrowserTier(quickProfile(models.TierHard), l, nil).
		Extract(context.Background(), &engine.Request{URL: "https://example.com/"})

	require.Len(t, res.Errors, 1)
	assert.Equal(t, models.PhaseRender, res.Errors[0].Phase)
	assert.Contains(t, res.Errors[0].Message, "chromium not found")
	assert.Zero(t, l.closed)
}

func TestBrowserTierCaptureFailure(t *testing.T) {
	page := newFakePage()
	l := &fakeLauncher{page: page}

	res := NewBrowserTier(quickProfile(models.TierLight), l, nil).
		Extract(context.Background(), &engine.Request{URL: "https://example.com/"})

	assert.Empty(t, res.Sections)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "Capturing page content failed")
}

func TestBrowserTierPagination(t *testing.T) {
	const p1, p2 = "https://example.com/list?page=1", "https://example.com/list?page=2"
	page := newFakePage()
	page.html[p1] = `<main><p>Item one and item two.</p></main><a rel="next" href="?page=2">Next</a>`
	page.html[p2] = `<main><p>Item three and item four.</p></main><a rel="next" href="?page=1">Next</a>`
	page.add(p1, "a[rel='next']", &fakeElement{text: "Next", attrs: map[string]string{"href": "?page=2"}})
	page.add(p2, "a[rel='next']", &fakeElement{text: "Next", attrs: map[string]string{"href": "?page=1"}})
	l := &fakeLauncher{page: page}

	prof := quickProfile(models.TierFull)
	prof.MaxPages = 3
	res := NewBrowserTier(prof, l, nil).Extract(context.Background(), &engine.Request{URL: p1})

	assert.Equal(t, []string{p1, p2}, res.Interactions.Pages, "cycle back to page 1 must stop pagination")
	require.Len(t, res.Sections, 2)

	ids := map[string]bool{}
	for _, s := range res.Sections {
		assert.False(t, ids[s.ID], "duplicate section id %q", s.ID)
		ids[s.ID] = true
	}
	assert.Equal(t, p2, res.Sections[1].SourceURL)
}

func TestBrowserTierPaginationCap(t *testing.T) {
	const p1, p2 = "https://example.com/a", "https://example.com/b"
	page := newFakePage()
	page.html[p1] = `<main><p>First.</p></main>`
	page.html[p2] = `<main><p>Second.</p></main>`
	page.add(p1, "a.next", &fakeElement{attrs: map[string]string{"href": p2}})
	l := &fakeLauncher{page: page}

	res := NewBrowserTier(quickProfile(models.TierLight), l, nil).Extract(context.Background(), &engine.Request{URL: p1})

	assert.Equal(t, []string{p1}, res.Interactions.Pages)
	assert.Len(t, res.Sections, 1)
}

func TestBrowserTierChallengePage(t *testing.T) {
	page := newFakePage()
	page.html["https://example.com/"] = `<html><head><title>Just a moment...</title></head>
<body><div id="cf-chl-widget"><p>Checking your browser before accessing example.com.</p></div></body></html>`
	l := &fakeLauncher{page: page}

	res := NewBrowserTier(quickProfile(models.TierLight), l, nil).
		Extract(context.Background(), &engine.Request{URL: "https://example.com/"})

	assert.True(t, res.HasErrorContaining([]string{"blocked"}))
	assert.Contains(t, res.Errors[0].Message, string(ChallengeCloudflare))
}

func TestBrowserTierPassesLaunchOptions(t *testing.T) {
	page := newFakePage()
	page.html["https://example.com/"] = articleHTML
	l := &fakeLauncher{page: page}

	prof := quickProfile(models.TierHard)
	prof.Launch = LaunchOptions{Stealth: true, ExtraArgs: []string{"no-sandbox"}}
	NewBrowserTier(prof, l, nil).Extract(context.Background(), &engine.Request{URL: "https://example.com/"})

	require.Len(t, l.opts, 1)
	assert.True(t, l.opts[0].Stealth)
	assert.False(t, l.opts[0].Headless)
	assert.Equal(t, []string{"no-sandbox"}, l.opts[0].ExtraArgs)
}

package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/sieve/models"
)

func newRun(page *fakePage, prof Profile) *run {
	page.current = "https://example.com/"
	return &run{page: page, prof: prof, res: models.NewResult(page.current)}
}

func TestScrollToBottomStopsWhenHeightSettles(t *testing.T) {
	page := newFakePage()
	page.heights = []int{1000, 2000, 2000, 3000}
	prof := quickProfile(models.TierLight)
	prof.Scrolls = 5
	r := newRun(page, prof)

	r.scrollToBottom(context.Background())

	assert.Equal(t, 3, r.res.Interactions.Scrolls)
	assert.Equal(t, 3, page.count(scrollBottomJS))
}

func TestScrollToBottomHonorsLimit(t *testing.T) {
	page := newFakePage()
	page.heights = []int{1000, 2000, 3000, 4000}
	prof := quickProfile(models.TierLight)
	prof.Scrolls = 2
	r := newRun(page, prof)

	r.scrollToBottom(context.Background())

	assert.Equal(t, 2, r.res.Interactions.Scrolls)
}

func TestScrollByViewport(t *testing.T) {
	page := newFakePage()
	prof := quickProfile(models.TierHard)
	prof.ScrollMode = ScrollByViewport
	prof.Scrolls = 8
	r := newRun(page, prof)

	r.interact(context.Background())

	assert.Equal(t, 8, r.res.Interactions.Scrolls)
	assert.Equal(t, 8, page.count(scrollStepJS))
	assert.Zero(t, page.count(scrollBottomJS))
}

func TestScrollStopsOnCancel(t *testing.T) {
	page := newFakePage()
	prof := quickProfile(models.TierHard)
	prof.ScrollMode = ScrollByViewport
	prof.ScrollPause = 1
	prof.Scrolls = 8
	r := newRun(page, prof)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.scrollByViewport(ctx)

	assert.Zero(t, r.res.Interactions.Scrolls)
}

func TestClickRespectsCap(t *testing.T) {
	page := newFakePage()
	r := newRun(page, quickProfile(models.TierFull))
	var buttons []*fakeElement
	for i := 0; i < 7; i++ {
		el := &fakeElement{text: "Expand"}
		buttons = append(buttons, el)
		page.add(page.current, "button", el)
	}

	r.click(context.Background(), FullClickPolicy(), 0)

	assert.Len(t, r.res.Interactions.Clicks, 5)
	assert.Equal(t, 1, buttons[4].clicks)
	assert.Zero(t, buttons[5].clicks)
}

func TestClickSkipsHiddenAndFailing(t *testing.T) {
	page := newFakePage()
	r := newRun(page, quickProfile(models.TierFull))
	hidden := &fakeElement{text: "Hidden", hidden: true}
	broken := &fakeElement{text: "Broken", failing: true}
	ok := &fakeElement{text: "Show all"}
	page.add(page.current, "button", hidden)
	page.add(page.current, "button", broken)
	page.add(page.current, "button", ok)

	r.click(context.Background(), FullClickPolicy(), 0)

	assert.Zero(t, hidden.clicks)
	assert.Equal(t, []string{"Show all"}, r.res.Interactions.Clicks)
}

func TestClickLabels(t *testing.T) {
	page := newFakePage()
	r := newRun(page, quickProfile(models.TierFull))
	page.add(page.current, "[role='button']", &fakeElement{text: "Details"})
	page.add(page.current, "[onclick]", &fakeElement{attrs: map[string]string{"href": "/more"}})
	page.add(page.current, ".load-more", &fakeElement{})

	r.click(context.Background(), FullClickPolicy(), 0)

	assert.Equal(t, []string{"Details", "/more", ".load-more"}, r.res.Interactions.Clicks)
}

func TestInteractDismissesOverlays(t *testing.T) {
	page := newFakePage()
	prof := quickProfile(models.TierLight)
	prof.DismissOverlays = true
	prof.Scrolls = 0
	r := newRun(page, prof)
	closeBtn := &fakeElement{text: "Accept"}
	page.add(page.current, ".cookie-banner button", closeBtn)

	r.interact(context.Background())

	assert.Equal(t, 1, closeBtn.clicks)
	assert.Equal(t, 1, page.count(removeOverlaysJS))
}

func TestNextPageClickNavigation(t *testing.T) {
	page := newFakePage()
	r := newRun(page, quickProfile(models.TierFull))
	page.add(page.current, "button.next", &fakeElement{text: "Next", goTo: "https://example.com/2"})

	next := r.nextPage(context.Background(), map[string]bool{"https://example.com/": true}, func(context.Context, string) error {
		t.Fatal("href-less control must be clicked, not navigated")
		return nil
	})

	assert.Equal(t, "https://example.com/2", next)
}

func TestNextPageIgnoresScriptLinks(t *testing.T) {
	page := newFakePage()
	r := newRun(page, quickProfile(models.TierFull))
	page.add(page.current, "a.next", &fakeElement{attrs: map[string]string{"href": "javascript:void(0)"}})

	next := r.nextPage(context.Background(), map[string]bool{}, func(context.Context, string) error { return nil })

	assert.Empty(t, next, "a click that does not change the URL is not a new page")
}

func TestFollowable(t *testing.T) {
	assert.True(t, followable("/page/2"))
	assert.True(t, followable("https://example.com/?p=2"))
	assert.False(t, followable(""))
	assert.False(t, followable("#top"))
	assert.False(t, followable("JavaScript:next()"))
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "https://example.com/list?page=2", resolve("https://example.com/list?page=1", "?page=2"))
	assert.Equal(t, "https://example.com/b", resolve("https://example.com/a/", "/b"))
}

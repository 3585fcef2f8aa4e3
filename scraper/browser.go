package scraper

import (
	"context"

	"github.com/ysmood/gson"
)

// WaitCondition selects how long Navigate waits after the document starts
// loading.
type WaitCondition int

const (
	// WaitIdle waits for the network to go quiet (or the DOM to settle
	// when request hijacking is active).
	WaitIdle WaitCondition = iota
	// WaitLoad waits only for the load event.
	WaitLoad
)

func (w WaitCondition) String() string {
	if w == WaitLoad {
		return "load"
	}
	return "idle"
}

// Viewport is the emulated window size.
type Viewport struct {
	Width  int
	Height int
}

// LaunchOptions configure one isolated browser session.
type LaunchOptions struct {
	Headless  bool
	UserAgent string
	Locale    string
	Viewport  Viewport
	// ExtraArgs are additional Chromium switches, without leading dashes.
	ExtraArgs []string
	// Stealth adds the go-rod/stealth evasions on top of the base
	// anti-detection script.
	Stealth bool
	// BlockedResourceTypes are aborted by the request router.
	BlockedResourceTypes []string
	BlockAds             bool
}

// Launcher starts isolated browser sessions.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session is one private browser process with a single page. Close must
// release every resource and is safe to call more than once.
type Session interface {
	Page() Page
	Close() error
}

// Page is the subset of page control the tiers need. Every method takes
// its own context so each step can carry its own timeout.
type Page interface {
	Navigate(ctx context.Context, url string, wait WaitCondition) error
	// WaitIdle waits for the page to settle after an in-page action.
	WaitIdle(ctx context.Context) error
	Eval(ctx context.Context, js string) (gson.JSON, error)
	// Elements returns every element matching selector, possibly none.
	Elements(ctx context.Context, selector string) ([]Element, error)
	// Element returns the first match, or nil when there is none.
	Element(ctx context.Context, selector string) (Element, error)
	URL(ctx context.Context) string
	HTML(ctx context.Context) (string, error)
}

// Element is a handle to one DOM element.
type Element interface {
	// Visible reports whether the element has a layout box.
	Visible(ctx context.Context) bool
	Click(ctx context.Context) error
	Text(ctx context.Context) string
	// Attr returns the attribute value, or "" when absent.
	Attr(ctx context.Context, name string) string
}

package scraper

import (
	"context"
	"log/slog"
	"strings"

	"github.com/use-agent/sieve/segment"
)

// ClickRule selects click candidates: every match of Selector whose text
// contains one of TextContains (case-insensitive; empty means any), at
// most Limit per rule (0 means no per-rule cap).
type ClickRule struct {
	Selector     string
	TextContains []string
	Limit        int
}

// Candidate is an element chosen by a ClickPolicy.
type Candidate struct {
	Element  Element
	Selector string
}

// ClickPolicy decides which elements a tier clicks. Implementations must
// not click anything themselves.
type ClickPolicy interface {
	// Candidates returns elements to try, in priority order.
	Candidates(ctx context.Context, page Page) []Candidate
	// MaxClicks caps successful clicks per page. 0 means no cap.
	MaxClicks() int
}

// SelectorPolicy is a ClickPolicy driven by an ordered rule list.
type SelectorPolicy struct {
	rules []ClickRule
	max   int
}

// NewSelectorPolicy drops rules whose selector does not compile.
func NewSelectorPolicy(maxClicks int, rules ...ClickRule) *SelectorPolicy {
	valid := make([]ClickRule, 0, len(rules))
	for _, r := range rules {
		if len(segment.ValidSelectors([]string{r.Selector})) == 0 {
			slog.Warn("scraper: dropping click rule", "selector", r.Selector)
			continue
		}
		valid = append(valid, r)
	}
	return &SelectorPolicy{rules: valid, max: maxClicks}
}

func (p *SelectorPolicy) MaxClicks() int { return p.max }

func (p *SelectorPolicy) Candidates(ctx context.Context, page Page) []Candidate {
	var out []Candidate
	for _, rule := range p.rules {
		els, err := page.Elements(ctx, rule.Selector)
		if err != nil {
			slog.Debug("scraper: candidate query failed", "selector", rule.Selector, "error", err)
			continue
		}
		n := 0
		for _, el := range els {
			if rule.Limit > 0 && n >= rule.Limit {
				break
			}
			if len(rule.TextContains) > 0 && !containsAny(el.Text(ctx), rule.TextContains) {
				continue
			}
			out = append(out, Candidate{Element: el, Selector: rule.Selector})
			n++
		}
	}
	return out
}

func containsAny(text string, needles []string) bool {
	text = strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(text, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// LightClickPolicy clicks tabs and load-more style buttons, three per rule.
func LightClickPolicy() *SelectorPolicy {
	return NewSelectorPolicy(0,
		ClickRule{Selector: "[role='tab']", Limit: 3},
		ClickRule{Selector: "button", TextContains: []string{"load more", "show more"}, Limit: 3},
	)
}

// FullClickPolicy guesses interactive elements broadly and stops after five
// clicks. Plain links are left out: following one would replace the page
// being captured.
func FullClickPolicy() *SelectorPolicy {
	return NewSelectorPolicy(5,
		ClickRule{Selector: "[role='button']"},
		ClickRule{Selector: "button"},
		ClickRule{Selector: "[onclick]"},
		ClickRule{Selector: ".load-more"},
		ClickRule{Selector: ".show-more"},
		ClickRule{Selector: ".next"},
		ClickRule{Selector: ".btn"},
	)
}

// OverlayPolicy targets close buttons of cookie banners and modals.
func OverlayPolicy() *SelectorPolicy {
	return NewSelectorPolicy(0,
		ClickRule{Selector: "button[aria-label*='close']"},
		ClickRule{Selector: "button[aria-label*='Close']"},
		ClickRule{Selector: ".cookie-banner button"},
		ClickRule{Selector: ".cookie-consent button"},
		ClickRule{Selector: ".modal button.close"},
		ClickRule{Selector: ".popup-close"},
	)
}

// paginationSelectors find a next-page control, most specific first.
var paginationSelectors = []string{
	"a.morelink",
	"a[rel='next']",
	"a.next",
	"button.next",
	".pagination-next",
	".pager-next",
}

package scraper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ysmood/gson"
)

// fakeLauncher hands out one shared fakePage and records session lifecycle.
type fakeLauncher struct {
	page      *fakePage
	launchErr error

	mu       sync.Mutex
	launched int
	closed   int
	opts     []LaunchOptions
}

func (l *fakeLauncher) Launch(_ context.Context, opts LaunchOptions) (Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opts = append(l.opts, opts)
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	l.launched++
	return &fakeSession{l: l}, nil
}

type fakeSession struct{ l *fakeLauncher }

func (s *fakeSession) Page() Page { return s.l.page }

func (s *fakeSession) Close() error {
	s.l.mu.Lock()
	s.l.closed++
	s.l.mu.Unlock()
	return nil
}

// fakePage serves canned HTML per URL. Elements are keyed by URL and then
// selector.
type fakePage struct {
	html     map[string]string
	elements map[string]map[string][]*fakeElement
	// navErr decides whether a navigation attempt fails.
	navErr func(url string, wait WaitCondition) error
	// heights are returned by successive page height queries; the last one
	// repeats.
	heights []int

	current   string
	navs      []WaitCondition
	evals     []string
	heightIdx int
}

func newFakePage() *fakePage {
	return &fakePage{
		html:     map[string]string{},
		elements: map[string]map[string][]*fakeElement{},
	}
}

func (p *fakePage) add(url, selector string, el *fakeElement) {
	if p.elements[url] == nil {
		p.elements[url] = map[string][]*fakeElement{}
	}
	el.page = p
	p.elements[url][selector] = append(p.elements[url][selector], el)
}

func (p *fakePage) Navigate(_ context.Context, url string, wait WaitCondition) error {
	p.navs = append(p.navs, wait)
	if p.navErr != nil {
		if err := p.navErr(url, wait); err != nil {
			return err
		}
	}
	p.current = url
	return nil
}

func (p *fakePage) WaitIdle(context.Context) error { return nil }

func (p *fakePage) Eval(_ context.Context, js string) (gson.JSON, error) {
	p.evals = append(p.evals, js)
	if js == pageHeightJS {
		if len(p.heights) == 0 {
			return gson.New(0), nil
		}
		i := p.heightIdx
		if i >= len(p.heights) {
			i = len(p.heights) - 1
		}
		p.heightIdx++
		return gson.New(p.heights[i]), nil
	}
	return gson.New(nil), nil
}

func (p *fakePage) count(js string) int {
	n := 0
	for _, e := range p.evals {
		if e == js {
			n++
		}
	}
	return n
}

func (p *fakePage) Elements(_ context.Context, selector string) ([]Element, error) {
	var out []Element
	for _, el := range p.elements[p.current][selector] {
		out = append(out, el)
	}
	return out, nil
}

func (p *fakePage) Element(ctx context.Context, selector string) (Element, error) {
	els, _ := p.Elements(ctx, selector)
	if len(els) == 0 {
		return nil, nil
	}
	return els[0], nil
}

func (p *fakePage) URL(context.Context) string { return p.current }

func (p *fakePage) HTML(context.Context) (string, error) {
	h, ok := p.html[p.current]
	if !ok {
		return "", errors.New("no document")
	}
	return h, nil
}

type fakeElement struct {
	page    *fakePage
	hidden  bool
	text    string
	attrs   map[string]string
	failing bool
	// goTo is navigated to when the element is clicked.
	goTo   string
	clicks int
}

func (e *fakeElement) Visible(context.Context) bool { return !e.hidden }

func (e *fakeElement) Click(context.Context) error {
	if e.failing {
		return errors.New("element detached")
	}
	e.clicks++
	if e.goTo != "" {
		e.page.current = e.goTo
	}
	return nil
}

func (e *fakeElement) Text(context.Context) string { return e.text }

func (e *fakeElement) Attr(_ context.Context, name string) string { return e.attrs[name] }

// quickProfile has no pauses so tests run instantly.
func quickProfile(name string) Profile {
	return Profile{
		Name:        name,
		NavTimeout:  time.Second,
		Scrolls:     3,
		ScrollMode:  ScrollToBottom,
		StepTimeout: time.Second,
		MaxPages:    1,
	}
}

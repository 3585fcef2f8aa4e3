package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/sieve/config"
	"github.com/use-agent/sieve/models"
	"github.com/ysmood/gson"
	"golang.org/x/sync/semaphore"
)

// RodLauncher launches one Chromium process per session. Sessions never
// share a browser, so cookies and history cannot leak between requests.
// MaxSessions bounds how many processes run at once.
type RodLauncher struct {
	cfg    config.BrowserConfig
	sem    *semaphore.Weighted
	active atomic.Int32
}

// NewRodLauncher creates a launcher from the browser config.
func NewRodLauncher(cfg config.BrowserConfig) *RodLauncher {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1
	}
	return &RodLauncher{
		cfg: cfg,
		sem: semaphore.NewWeighted(int64(cfg.MaxSessions)),
	}
}

// Stats returns a snapshot of session usage.
func (l *RodLauncher) Stats() models.SessionStats {
	return models.SessionStats{
		MaxSessions:    l.cfg.MaxSessions,
		ActiveSessions: int(l.active.Load()),
		BrowserEnabled: true,
	}
}

// Launch waits for a free slot, then starts an isolated session.
func (l *RodLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, categorizeError(err, "waiting for a browser session slot")
	}
	l.active.Add(1)

	s := &rodSession{release: func() {
		l.active.Add(-1)
		l.sem.Release(1)
	}}
	if err := s.start(ctx, l.cfg, opts); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

type rodSession struct {
	lnch    *launcher.Launcher
	browser *rod.Browser
	page    *rodPage
	router  *rod.HijackRouter
	release func()
	once    sync.Once
}

// start launches Chromium and prepares the page. Steps 4-6 must happen
// before the first navigation to take effect.
func (s *rodSession) start(ctx context.Context, cfg config.BrowserConfig, opts LaunchOptions) error {
	// ── 1. Launcher flags ─────────────────────────────────────────────
	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless || cfg.ForceHeadless).
		NoSandbox(cfg.NoSandbox)
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	if opts.Locale != "" {
		l.Set(flags.Flag("lang"), opts.Locale)
	}
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", opts.Viewport.Width, opts.Viewport.Height))
	}
	for _, arg := range opts.ExtraArgs {
		l.Set(flags.Flag(strings.TrimLeft(arg, "-")))
	}
	s.lnch = l

	// ── 2. Launch and connect ─────────────────────────────────────────
	controlURL, err := l.Launch()
	if err != nil {
		return categorizeError(err, "failed to launch browser")
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return categorizeError(err, "failed to connect to browser")
	}
	s.browser = browser

	// ── 3. Isolated context + page ────────────────────────────────────
	incognito, err := browser.Incognito()
	if err != nil {
		return categorizeError(err, "failed to open incognito context")
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return categorizeError(err, "failed to open page")
	}

	// ── 4. Emulation ──────────────────────────────────────────────────
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Viewport.Width,
			Height:            opts.Viewport.Height,
			DeviceScaleFactor: 1,
		}); err != nil {
			slog.Debug("scraper: set viewport failed", "error", err)
		}
	}
	lang := acceptLanguage(opts.Locale)
	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      opts.UserAgent,
			AcceptLanguage: lang,
		}); err != nil {
			slog.Debug("scraper: set user agent failed", "error", err)
		}
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{"Accept-Language": lang}),
	}.Call(page)

	// ── 5. Anti-detection ─────────────────────────────────────────────
	if _, err := page.EvalOnNewDocument(antiDetectionJS); err != nil {
		slog.Warn("scraper: anti-detection injection failed", "error", err)
	}
	if opts.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("scraper: stealth injection failed", "error", err)
		}
	}

	// ── 6. Request router ─────────────────────────────────────────────
	s.router = installRouter(page, newRequestFilter(opts.BlockedResourceTypes, opts.BlockAds))
	s.page = &rodPage{page: page, hijacked: s.router != nil}
	return nil
}

func (s *rodSession) Page() Page { return s.page }

// Close stops the router, closes the browser and kills the process. It
// does not use the request context so teardown still runs after a
// deadline.
func (s *rodSession) Close() error {
	var err error
	s.once.Do(func() {
		if s.router != nil {
			_ = s.router.Stop()
		}
		if s.browser != nil {
			err = s.browser.Close()
		}
		if s.lnch != nil {
			s.lnch.Kill()
			s.lnch.Cleanup()
		}
		s.release()
	})
	return err
}

type rodPage struct {
	page *rod.Page
	// hijacked pages avoid WaitRequestIdle, which conflicts with the
	// Fetch domain used by the router.
	hijacked bool
}

func (r *rodPage) Navigate(ctx context.Context, url string, wait WaitCondition) error {
	p := r.page.Context(ctx)

	if wait == WaitLoad || r.hijacked {
		if err := p.Navigate(url); err != nil {
			return err
		}
		if err := p.WaitLoad(); err != nil {
			return err
		}
		if wait == WaitIdle {
			return p.WaitDOMStable(300*time.Millisecond, 0.1)
		}
		return nil
	}

	// The idle listener must exist before Navigate or early requests
	// are missed and the wait returns instantly.
	waitIdle := p.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	if err := p.Navigate(url); err != nil {
		return err
	}
	waitIdle()
	return ctx.Err()
}

func (r *rodPage) WaitIdle(ctx context.Context) error {
	p := r.page.Context(ctx)
	if err := p.WaitLoad(); err != nil {
		return err
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("scraper: DOM did not settle", "error", err)
	}
	return nil
}

func (r *rodPage) Eval(ctx context.Context, js string) (gson.JSON, error) {
	res, err := r.page.Context(ctx).Eval(js)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

func (r *rodPage) Elements(ctx context.Context, selector string) ([]Element, error) {
	els, err := r.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (r *rodPage) Element(ctx context.Context, selector string) (Element, error) {
	has, el, err := r.page.Context(ctx).Has(selector)
	if err != nil || !has {
		return nil, err
	}
	return &rodElement{el: el}, nil
}

func (r *rodPage) URL(ctx context.Context) string {
	info, err := r.page.Context(ctx).Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (r *rodPage) HTML(ctx context.Context) (string, error) {
	return r.page.Context(ctx).HTML()
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Visible(ctx context.Context) bool {
	shape, err := e.el.Context(ctx).Shape()
	if err != nil {
		return false
	}
	box := shape.Box()
	return box != nil && box.Width > 0 && box.Height > 0
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Text(ctx context.Context) string {
	t, err := e.el.Context(ctx).Text()
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(t), " ")
}

func (e *rodElement) Attr(ctx context.Context, name string) string {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// acceptLanguage builds an Accept-Language value for a locale like en-US.
func acceptLanguage(locale string) string {
	if locale == "" {
		locale = "en-US"
	}
	primary, _, _ := strings.Cut(locale, "-")
	if primary == locale {
		return locale
	}
	return fmt.Sprintf("%s,%s;q=0.9", locale, primary)
}

// categorizeError wraps browser errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeRender, msg, err)
	}
}

package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to protocol resource types.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// adDomains are ad and tracking hosts. Subdomains match too.
var adDomains = map[string]struct{}{
	"doubleclick.net":       {},
	"googlesyndication.com": {},
	"googleadservices.com":  {},
	"google-analytics.com":  {},
	"googletagmanager.com":  {},
	"googletagservices.com": {},
	"connect.facebook.net":  {},
	"adnxs.com":             {},
	"adsrvr.org":            {},
	"amazon-adsystem.com":   {},
	"criteo.com":            {},
	"criteo.net":            {},
	"outbrain.com":          {},
	"taboola.com":           {},
	"moatads.com":           {},
	"pubmatic.com":          {},
	"rubiconproject.com":    {},
	"scorecardresearch.com": {},
	"quantserve.com":        {},
	"hotjar.com":            {},
	"mixpanel.com":          {},
	"segment.io":            {},
	"chartbeat.com":         {},
	"optimizely.com":        {},
	"media.net":             {},
	"openx.net":             {},
	"casalemedia.com":       {},
	"demdex.net":            {},
	"krxd.net":              {},
	"bluekai.com":           {},
	"sharethis.com":         {},
	"addthis.com":           {},
}

// requestFilter decides which subresource requests a session aborts.
type requestFilter struct {
	types map[proto.NetworkResourceType]struct{}
	ads   bool
}

func newRequestFilter(blockedTypes []string, blockAds bool) *requestFilter {
	f := &requestFilter{
		types: make(map[proto.NetworkResourceType]struct{}, len(blockedTypes)),
		ads:   blockAds,
	}
	for _, name := range blockedTypes {
		if rt, ok := resourceTypes[name]; ok {
			f.types[rt] = struct{}{}
		}
	}
	return f
}

// empty reports whether the filter would never block anything.
func (f *requestFilter) empty() bool {
	return len(f.types) == 0 && !f.ads
}

// blocks reports whether a request of type rt to rawURL must be aborted.
// The document itself is never blocked.
func (f *requestFilter) blocks(rt proto.NetworkResourceType, rawURL string) bool {
	if rt == proto.NetworkResourceTypeDocument {
		return false
	}
	if _, ok := f.types[rt]; ok {
		return true
	}
	if f.ads {
		if u, err := url.Parse(rawURL); err == nil && isAdDomain(u.Hostname()) {
			return true
		}
	}
	return false
}

// isAdDomain checks host and each of its parent domains.
func isAdDomain(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := adDomains[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			break
		}
		host = host[idx+1:]
	}
	return false
}

// installRouter starts a request router on page that applies f. It returns
// nil when f blocks nothing; otherwise the caller must Stop the router.
func installRouter(page *rod.Page, f *requestFilter) *rod.HijackRouter {
	if f.empty() {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if f.blocks(h.Request.Type(), h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop.
	go router.Run()
	return router
}

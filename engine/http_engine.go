package engine

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/sieve/models"
)

// DefaultUserAgent identifies the first, undisguised static request.
const DefaultUserAgent = "Sieve/1.0 (+https://github.com/use-agent/sieve)"

// browserUserAgent is sent on the retry after an access-denied status.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

const defaultMaxBody = 10 << 20

// HTTPConfig configures the static fetch stage.
type HTTPConfig struct {
	// Timeout bounds each GET, including the retry. Default 12s.
	Timeout time.Duration
	// UserAgent is used for the first attempt. Default DefaultUserAgent.
	UserAgent string
	// RetryStatuses trigger one retry with browser-like headers.
	// Default [403].
	RetryStatuses []int
	// MaxBodyBytes caps the decoded body. Default 10 MiB.
	MaxBodyBytes int64
}

// FetchResult is the output of a successful static fetch.
type FetchResult struct {
	Body       string
	StatusCode int
	Header     http.Header
	FinalURL   string
	// Retried is true when the browser-header retry produced this result.
	Retried bool
}

// HTTPEngine performs the static fetch with a Chrome-like TLS fingerprint.
type HTTPEngine struct {
	client *http.Client
	cfg    HTTPConfig
}

// chromeH1Spec builds a Chrome-like TLS ClientHello with ALPN limited to
// http/1.1. Extensions carry per-handshake state, so every dial needs its
// own spec.
func chromeH1Spec() (*tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return nil, err
	}
	// http.Transport cannot speak h2 over a utls conn, so only offer h1.
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			break
		}
	}
	return &spec, nil
}

// NewHTTPEngine creates an HTTPEngine. Zero fields in cfg take defaults.
func NewHTTPEngine(cfg HTTPConfig) *HTTPEngine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RetryStatuses == nil {
		cfg.RetryStatuses = []int{http.StatusForbidden}
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBody
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			spec, err := chromeH1Spec()
			if err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_engine: build tls spec: %w", err)
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2:   false,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}
	return &HTTPEngine{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// Fetch GETs url. On a retry status it retries once with browser-like
// headers. Any final status >= 400 or transport failure is returned as a
// FETCH_FAILED ScrapeError.
func (e *HTTPEngine) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	res, err := e.get(ctx, url, e.defaultHeaders())
	if err != nil {
		return nil, fetchError(ctx, err)
	}

	if slices.Contains(e.cfg.RetryStatuses, res.StatusCode) {
		slog.Debug("http_engine: retrying with browser headers", "url", url, "status", res.StatusCode)
		retry, err := e.get(ctx, url, browserHeaders())
		if err != nil {
			return nil, fetchError(ctx, err)
		}
		retry.Retried = true
		res = retry
	}

	if res.StatusCode >= 400 {
		return nil, models.NewScrapeError(models.ErrCodeFetch,
			fmt.Sprintf("Static fetch failed: status %d %s", res.StatusCode, http.StatusText(res.StatusCode)), nil)
	}
	return res, nil
}

func (e *HTTPEngine) get(ctx context.Context, url string, headers map[string]string) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	body, err := decodeBody(raw, resp.Header.Get("Content-Encoding"), e.cfg.MaxBodyBytes)
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		Body:       string(body),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		FinalURL:   resp.Request.URL.String(),
	}, nil
}

func (e *HTTPEngine) defaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent": e.cfg.UserAgent,
		"Accept":     "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8",
	}
}

func browserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      browserUserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"Accept-Encoding": "gzip, deflate, br",
		"Referer":         "https://www.google.com/",
	}
}

// decodeBody undoes Content-Encoding. Go's transport only decodes gzip
// when it chose the Accept-Encoding header itself, so br and deflate
// land here too.
func decodeBody(body []byte, encoding string, limit int64) ([]byte, error) {
	var r io.Reader
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			// Some servers send raw deflate without the zlib wrapper.
			fr := flate.NewReader(bytes.NewReader(body))
			defer fr.Close()
			r = fr
		} else {
			defer zr.Close()
			r = zr
		}
	case "br":
		r = brotli.NewReader(bytes.NewReader(body))
	default:
		slog.Warn("http_engine: unknown content-encoding", "encoding", encoding)
		return body, nil
	}

	decoded, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", encoding, err)
	}
	return decoded, nil
}

// fetchError wraps a transport failure, distinguishing timeouts.
func fetchError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return models.NewScrapeError(models.ErrCodeTimeout, "Static fetch timed out", err)
	}
	return models.NewScrapeError(models.ErrCodeFetch, "Static fetch failed", err)
}

package engine

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	tls "github.com/refraction-networking/utls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/sieve/models"
)

func TestHTTPEngine_RetriesWithBrowserHeadersOn403(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Referer") == "" {
			assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
			w.WriteHeader(http.StatusForbidden)
			return
		}
		assert.Contains(t, r.Header.Get("User-Agent"), "Chrome/")
		assert.Equal(t, "en-US,en;q=0.9", r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><p>ok</p></body></html>"))
	}))
	defer srv.Close()

	res, err := NewHTTPEngine(HTTPConfig{}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, res.Retried)
	assert.Contains(t, res.Body, "ok")
	assert.EqualValues(t, 2, calls.Load())
}

func TestHTTPEngine_FailsOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPEngine(HTTPConfig{}).Fetch(context.Background(), srv.URL)
	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeFetch, se.Code)
	assert.Contains(t, se.Message, "404")
}

func TestHTTPEngine_StillDeniedAfterRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewHTTPEngine(HTTPConfig{}).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, models.Describe(err), "403")
	assert.EqualValues(t, 2, calls.Load())
}

func TestHTTPEngine_CustomRetryStatuses(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("<p>second</p>"))
	}))
	defer srv.Close()

	res, err := NewHTTPEngine(HTTPConfig{RetryStatuses: []int{429}}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, res.Retried)
}

func TestHTTPEngine_DecodesBrotli(t *testing.T) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	_, err := bw.Write([]byte("<main>compressed page</main>"))
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	res, err := NewHTTPEngine(HTTPConfig{}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<main>compressed page</main>", res.Body)
}

func TestHTTPEngine_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := NewHTTPEngine(HTTPConfig{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), srv.URL)
	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeTimeout, se.Code)
}

func TestDecodeBody_Unknown(t *testing.T) {
	body, err := decodeBody([]byte("plain"), "compress", 100)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(body))
}

func alpnOf(t *testing.T, spec *tls.ClientHelloSpec) *tls.ALPNExtension {
	t.Helper()
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			return alpn
		}
	}
	t.Fatal("no ALPN extension in spec")
	return nil
}

func TestChromeH1Spec_FreshPerDial(t *testing.T) {
	a, err := chromeH1Spec()
	require.NoError(t, err)
	b, err := chromeH1Spec()
	require.NoError(t, err)

	alpnA, alpnB := alpnOf(t, a), alpnOf(t, b)
	assert.Equal(t, []string{"http/1.1"}, alpnA.AlpnProtocols)
	assert.Equal(t, []string{"http/1.1"}, alpnB.AlpnProtocols)
	assert.NotSame(t, alpnA, alpnB)

	alpnA.AlpnProtocols = []string{"h2"}
	assert.Equal(t, []string{"http/1.1"}, alpnB.AlpnProtocols)
}

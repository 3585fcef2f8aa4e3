package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sieve/engine"
	"github.com/use-agent/sieve/models"
)

// Extractor runs the tier escalation for one URL.
type Extractor interface {
	Run(ctx context.Context, req *engine.Request, maxTier string) *engine.Outcome
}

// Options are the server-wide settings shared by the extraction handlers.
type Options struct {
	// Readability fills meta.siteName and meta.author.
	Readability bool
	// DefaultTimeout applies when a request sets no timeout.
	DefaultTimeout time.Duration
	// MaxTimeout caps the per-request timeout. Zero means no cap.
	MaxTimeout time.Duration
}

// Extract returns a handler for POST /api/v1/extract.
//
// Flow:
//  1. Parse request, apply defaults.
//  2. Validate the URL; this is the only check that rejects a request.
//  3. Run the escalation under the request timeout.
//  4. Respond with the merged result, the tier trace and timing.
func Extract(ex Extractor, opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), nil), 0)
			return
		}
		req.Timeout = opts.timeout(req.Timeout)
		req.Defaults()

		resp := extractOne(c.Request.Context(), ex, req, opts)
		if !resp.Success {
			c.JSON(mapErrorToStatus(resp.Error.Code), resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// extractOne validates and runs a single request. Only validation can
// make it unsuccessful; tier failures are reported inside the result.
func extractOne(ctx context.Context, ex Extractor, req models.ExtractRequest, opts Options) *models.ExtractResponse {
	start := time.Now()
	if err := models.ValidateURL(req.URL); err != nil {
		return failure(err, time.Since(start))
	}

	timeout := time.Duration(req.Timeout) * time.Second
	if opts.MaxTimeout > 0 && timeout > opts.MaxTimeout {
		timeout = opts.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := ex.Run(ctx, &engine.Request{
		URL:              req.URL,
		Markdown:         req.Markdown,
		ExcludeSelectors: req.ExcludeSelectors,
		Readability:      opts.Readability,
	}, req.MaxTier)

	return &models.ExtractResponse{
		Success: true,
		Result:  out.Result,
		Trace:   out.Trace,
		Timing:  out.Timing,
	}
}

// timeout returns seconds, or the configured default when seconds is 0.
func (o Options) timeout(seconds int) int {
	if seconds == 0 && o.DefaultTimeout >= time.Second {
		return int(o.DefaultTimeout / time.Second)
	}
	return seconds
}

func failure(err error, elapsed time.Duration) *models.ExtractResponse {
	scrapeErr, ok := err.(*models.ScrapeError)
	if !ok {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
	return &models.ExtractResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Errors:  []models.ErrorEntry{{Message: scrapeErr.Message, Phase: scrapeErr.Phase()}},
		Timing:  models.TimingInfo{TotalMs: elapsed.Milliseconds()},
	}
}

// respondError writes a structured JSON error with the status for its code.
func respondError(c *gin.Context, err error, elapsed time.Duration) {
	resp := failure(err, elapsed)
	c.JSON(mapErrorToStatus(resp.Error.Code), resp)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(code string) int {
	switch code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case models.ErrCodeFetch, models.ErrCodeRender:
		return http.StatusBadGateway
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

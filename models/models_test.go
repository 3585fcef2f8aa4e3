package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com/page", ""},
		{"http://example.com", ""},
		{"  HTTPS://Example.com  ", ""},
		{"ftp://example.com/file", "Unsupported URL scheme"},
		{"javascript:alert(1)", "Unsupported URL scheme"},
		{"example.com", "Unsupported URL scheme"},
		{"https://", "URL has no host"},
		{"http://[::1", "Invalid URL"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			err := ValidateURL(tt.raw)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var se *ScrapeError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, ErrCodeInvalidInput, se.Code)
			assert.Equal(t, tt.want, se.Message)
			assert.Equal(t, PhaseValidation, se.Phase())
		})
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult("https://example.com/")

	assert.Equal(t, []string{"https://example.com/"}, r.Interactions.Pages)
	assert.Empty(t, r.Sections)
	assert.False(t, r.ScrapedAt.IsZero())

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"sections":[]`)
	assert.Contains(t, string(b), `"errors":[]`)
	assert.Contains(t, string(b), `"clicks":[]`)
	assert.Contains(t, string(b), `"canonical":null`)
}

func TestHasErrorContaining(t *testing.T) {
	r := NewResult("https://example.com/")
	r.AddError(PhaseFetch, "Static fetch failed: status 403 Forbidden")

	assert.True(t, r.HasErrorContaining([]string{"403"}))
	assert.True(t, r.HasErrorContaining([]string{"nope", "FORBIDDEN"}))
	assert.False(t, r.HasErrorContaining([]string{"blocked"}))
	assert.False(t, r.HasErrorContaining([]string{""}))
	assert.False(t, NewResult("x").HasErrorContaining([]string{"403"}))
}

func TestTextLength(t *testing.T) {
	r := NewResult("https://example.com/")
	r.Sections = append(r.Sections,
		Section{Content: SectionContent{Text: "hello"}},
		Section{Content: SectionContent{Text: "world!"}},
	)
	assert.Equal(t, 11, r.TextLength())

	wide := NewResult("https://example.com/")
	wide.Sections = append(wide.Sections, Section{Content: SectionContent{Text: strings.Repeat("中", 100)}})
	assert.Equal(t, 100, wide.TextLength())
}

func TestDescribe(t *testing.T) {
	cause := errors.New("connection reset")

	assert.Equal(t, "Static fetch failed: connection reset",
		Describe(NewScrapeError(ErrCodeFetch, "Static fetch failed", cause)))
	assert.Equal(t, "Static fetch timed out",
		Describe(fmt.Errorf("wrapped: %w", NewScrapeError(ErrCodeTimeout, "Static fetch timed out", nil))))
	assert.Equal(t, "plain", Describe(errors.New("plain")))
}

func TestScrapeErrorPhase(t *testing.T) {
	assert.Equal(t, PhaseFetch, NewScrapeError(ErrCodeFetch, "", nil).Phase())
	assert.Equal(t, PhaseParse, NewScrapeError(ErrCodeParse, "", nil).Phase())
	assert.Equal(t, PhaseRender, NewScrapeError(ErrCodeTimeout, "", nil).Phase())
	assert.Equal(t, PhaseRender, NewScrapeError(ErrCodeMerge, "", nil).Phase())
}

func TestScrapeErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewScrapeError(ErrCodeRender, "render failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "RENDER_FAILED: render failed: boom", err.Error())
	assert.Equal(t, &ErrorDetail{Code: ErrCodeRender, Message: "render failed"}, err.ToDetail())
}

func TestBatchOptionsRequest(t *testing.T) {
	r := BatchOptions{Markdown: true}.Request("https://example.com")
	assert.Equal(t, "https://example.com", r.URL)
	assert.True(t, r.Markdown)
	assert.Equal(t, 120, r.Timeout)
	assert.Equal(t, TierHard, r.MaxTier)
}

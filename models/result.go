package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Phase identifies the pipeline stage that produced an ErrorEntry.
type Phase string

const (
	PhaseFetch      Phase = "fetch"
	PhaseParse      Phase = "parse"
	PhaseRender     Phase = "render"
	PhaseFallback   Phase = "fallback"
	PhaseValidation Phase = "validation"
)

// Section types emitted by the segmenter.
const (
	SectionHero    = "hero"
	SectionNav     = "nav"
	SectionFooter  = "footer"
	SectionSection = "section"
	SectionUnknown = "unknown"
)

// ExtractionResult is the normalized output of one extraction request.
// It is created once per request, mutated by the tier pipeline and merge
// step, and returned to the caller. It is never cached or shared.
type ExtractionResult struct {
	URL          string       `json:"url"`
	ScrapedAt    time.Time    `json:"scrapedAt"`
	Meta         Meta         `json:"meta"`
	Sections     []Section    `json:"sections"`
	Interactions Interactions `json:"interactions"`
	Errors       []ErrorEntry `json:"errors"`
}

// Meta holds page-level metadata. Every field is fill-once: the first
// non-empty value observed across tiers wins.
type Meta struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Language    string  `json:"language"`
	Canonical   *string `json:"canonical"`
	SiteName    string  `json:"siteName,omitempty"`
	Author      string  `json:"author,omitempty"`
}

// Section is one semantically coherent region of a page.
type Section struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Label     string         `json:"label"`
	SourceURL string         `json:"sourceUrl"`
	Content   SectionContent `json:"content"`
	// RawHTML is a truncated serialization used only as a dedup
	// fingerprint. It is not a faithful copy of the markup.
	RawHTML   string `json:"rawHtml"`
	Truncated bool   `json:"truncated"`
}

// SectionContent is the structured content collected from a section.
type SectionContent struct {
	Headings []string   `json:"headings"`
	Text     string     `json:"text"`
	Links    []Link     `json:"links"`
	Images   []Image    `json:"images"`
	Lists    [][]string `json:"lists"`
	Tables   []Table    `json:"tables"`
	Markdown string     `json:"markdown,omitempty"`
}

// Link represents a hyperlink with an absolute href.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Image represents an image with an absolute src.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Table is a simple header + rows rendition of an HTML table.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Interactions summarizes what the browser tiers did on the page.
type Interactions struct {
	Clicks  []string `json:"clicks"`
	Scrolls int      `json:"scrolls"`
	Pages   []string `json:"pages"`
}

// ErrorEntry is a non-fatal diagnostic recorded during extraction.
type ErrorEntry struct {
	Message string `json:"message"`
	Phase   Phase  `json:"phase"`
}

// NewResult creates an empty result for url with the current time and
// the url as the only visited page.
func NewResult(url string) *ExtractionResult {
	return &ExtractionResult{
		URL:       url,
		ScrapedAt: time.Now().UTC(),
		Sections:  []Section{},
		Interactions: Interactions{
			Clicks: []string{},
			Pages:  []string{url},
		},
		Errors: []ErrorEntry{},
	}
}

// AddError appends a diagnostic for the given phase.
func (r *ExtractionResult) AddError(phase Phase, message string) {
	r.Errors = append(r.Errors, ErrorEntry{Message: message, Phase: phase})
}

// TextLength returns the summed length of all section texts in characters.
func (r *ExtractionResult) TextLength() int {
	n := 0
	for _, s := range r.Sections {
		n += utf8.RuneCountInString(s.Content.Text)
	}
	return n
}

// HasErrorContaining reports whether any error message contains one of
// the keywords, compared case-insensitively.
func (r *ExtractionResult) HasErrorContaining(keywords []string) bool {
	for _, e := range r.Errors {
		msg := strings.ToLower(e.Message)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(msg, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

// Package segment splits a parsed HTML document into labeled sections and
// collects page-level metadata. Everything here is pure: no I/O, no
// network, and malformed markup never produces an error.
package segment

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/sieve/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Landmark tags, scanned in this order.
var landmarkTags = []string{"header", "nav", "main", "section", "article", "footer"}

const (
	defaultMaxRawHTML  = 2000
	defaultMaxHeadings = 5
	defaultLabelWords  = 6
)

// Options tunes segmentation. The zero value gives the standard behavior.
type Options struct {
	// ExcludeSelectors are removed from the document before scanning.
	ExcludeSelectors []string
	// Markdown fills Content.Markdown for every emitted section.
	Markdown bool
	// MaxRawHTML bounds the rawHtml fingerprint. Default 2000 bytes.
	MaxRawHTML int
	// MaxHeadings bounds the collected headings per section. Default 5.
	MaxHeadings int
	// LabelWords is the number of text tokens used for a heading-less
	// label. Default 6.
	LabelWords int
}

// Segmenter turns documents into sections. It is safe for concurrent use.
type Segmenter struct {
	opts Options
	conv *converter.Converter
}

// New creates a Segmenter. Invalid exclude selectors are dropped with a
// warning.
func New(opts Options) *Segmenter {
	if opts.MaxRawHTML <= 0 {
		opts.MaxRawHTML = defaultMaxRawHTML
	}
	if opts.MaxHeadings <= 0 {
		opts.MaxHeadings = defaultMaxHeadings
	}
	if opts.LabelWords <= 0 {
		opts.LabelWords = defaultLabelWords
	}
	opts.ExcludeSelectors = ValidSelectors(opts.ExcludeSelectors)

	s := &Segmenter{opts: opts}
	if opts.Markdown {
		s.conv = newMarkdownConverter()
	}
	return s
}

// Parse builds a document from markup. The underlying parser is lenient,
// so only a failing reader yields an error.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeParse, "Parsing HTML failed", err)
	}
	return doc, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(markup string) (*goquery.Document, error) {
	return Parse(strings.NewReader(markup))
}

// Sections segments doc. Exclude selectors are removed from doc in place.
//
// Landmarks are tried first; if none yield text, each h1-h3 heading's
// nearest block ancestor becomes a pseudo-section; if that also yields
// nothing, the whole body becomes one section. The result may be empty
// when the document has no text at all.
func (s *Segmenter) Sections(doc *goquery.Document, sourceURL string) []models.Section {
	for _, sel := range s.opts.ExcludeSelectors {
		doc.Find(sel).Remove()
	}

	used := make(map[string]struct{})
	sections := s.landmarkSections(doc, sourceURL, used)
	if len(sections) == 0 {
		sections = s.headingSections(doc, sourceURL, used)
	}
	if len(sections) == 0 {
		if sec, ok := s.bodySection(doc, sourceURL); ok {
			sections = append(sections, sec)
		}
	}
	return sections
}

func (s *Segmenter) landmarkSections(doc *goquery.Document, sourceURL string, used map[string]struct{}) []models.Section {
	var sections []models.Section
	idx := 0
	for _, tag := range landmarkTags {
		doc.Find(tag).Each(func(_ int, el *goquery.Selection) {
			raw, err := goquery.OuterHtml(el)
			if err != nil || raw == "" {
				return
			}
			if _, seen := used[raw]; seen {
				return
			}
			used[raw] = struct{}{}

			text := Text(el)
			if text == "" {
				return
			}
			headings := Headings(el, s.opts.MaxHeadings)
			sec := s.build(el, raw, text, headings, sourceURL)
			sec.ID = fmt.Sprintf("%s-%d", tag, idx)
			sec.Type = sectionType(tag, idx)
			sections = append(sections, sec)
			idx++
		})
	}
	return sections
}

func (s *Segmenter) headingSections(doc *goquery.Document, sourceURL string, used map[string]struct{}) []models.Section {
	var sections []models.Section
	doc.Find("h1, h2, h3").Each(func(_ int, h *goquery.Selection) {
		parent := blockAncestor(h)
		if parent == nil {
			return
		}
		raw, err := goquery.OuterHtml(parent)
		if err != nil || raw == "" {
			return
		}
		if _, seen := used[raw]; seen {
			return
		}
		used[raw] = struct{}{}

		text := Text(parent)
		if text == "" {
			return
		}
		sec := s.build(parent, raw, text, []string{Text(h)}, sourceURL)
		sec.ID = fmt.Sprintf("heading-%d", len(sections))
		sec.Type = models.SectionSection
		sections = append(sections, sec)
	})
	return sections
}

func (s *Segmenter) bodySection(doc *goquery.Document, sourceURL string) (models.Section, bool) {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}
	text := Text(body)
	if text == "" {
		return models.Section{}, false
	}
	raw, _ := goquery.OuterHtml(body)
	snip, truncated := Truncate(raw, s.opts.MaxRawHTML)
	return models.Section{
		ID:        "body-0",
		Type:      models.SectionUnknown,
		Label:     Label(text, s.opts.LabelWords),
		SourceURL: sourceURL,
		Content: models.SectionContent{
			Headings: []string{},
			Text:     text,
			Links:    []models.Link{},
			Images:   []models.Image{},
			Lists:    [][]string{},
			Tables:   []models.Table{},
		},
		RawHTML:   snip,
		Truncated: truncated,
	}, true
}

func (s *Segmenter) build(el *goquery.Selection, raw, text string, headings []string, sourceURL string) models.Section {
	label := Label(text, s.opts.LabelWords)
	for _, h := range headings {
		if strings.TrimSpace(h) != "" {
			label = h
			break
		}
	}
	snip, truncated := Truncate(raw, s.opts.MaxRawHTML)
	sec := models.Section{
		Label:     label,
		SourceURL: sourceURL,
		Content: models.SectionContent{
			Headings: headings,
			Text:     text,
			Links:    Links(el, sourceURL),
			Images:   Images(el, sourceURL),
			Lists:    Lists(el),
			Tables:   Tables(el),
		},
		RawHTML:   snip,
		Truncated: truncated,
	}
	if s.conv != nil {
		md, err := toMarkdown(s.conv, raw, sourceURL)
		if err != nil {
			slog.Debug("segment: markdown conversion failed", "url", sourceURL, "error", err)
		} else {
			sec.Content.Markdown = md
		}
	}
	return sec
}

// sectionType maps a landmark tag to a section type. A header is a hero
// only when it is the very first section emitted.
func sectionType(tag string, idx int) string {
	switch tag {
	case "nav":
		return models.SectionNav
	case "header":
		if idx == 0 {
			return models.SectionHero
		}
	case "footer":
		return models.SectionFooter
	case "main":
		return models.SectionSection
	}
	return models.SectionUnknown
}

var inlineAtoms = map[atom.Atom]bool{
	atom.A: true, atom.Span: true, atom.Strong: true, atom.Em: true,
	atom.B: true, atom.I: true, atom.U: true, atom.Small: true,
	atom.Mark: true, atom.Label: true, atom.Font: true, atom.Abbr: true,
	atom.Cite: true, atom.Code: true, atom.Time: true, atom.Sup: true,
	atom.Sub: true, atom.Hgroup: true,
}

// blockAncestor returns the nearest ancestor of h that is not an inline
// wrapper, or nil when h sits directly under the root.
func blockAncestor(h *goquery.Selection) *goquery.Selection {
	parents := h.Parents()
	for i, n := range parents.Nodes {
		if n.Type != html.ElementNode || n.DataAtom == atom.Html {
			continue
		}
		if !inlineAtoms[n.DataAtom] {
			return parents.Eq(i)
		}
	}
	return nil
}

// Truncate cuts s to at most limit bytes on a rune boundary and reports
// whether anything was dropped.
func Truncate(s string, limit int) (string, bool) {
	if len(s) <= limit {
		return s, false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}

// Label returns the first n whitespace-delimited tokens of text.
func Label(text string, n int) string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return "Section"
	}
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return strings.Join(tokens, " ")
}

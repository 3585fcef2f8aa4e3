package segment

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/sieve/models"
)

// ExtractMeta reads title, description, language and canonical URL from
// doc. Missing values are left empty; Canonical stays nil when absent.
func ExtractMeta(doc *goquery.Document, sourceURL string) models.Meta {
	var meta models.Meta

	meta.Title = metaContent(doc, `meta[property="og:title"]`)
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	meta.Description = metaContent(doc, `meta[name="description"]`)
	if meta.Description == "" {
		meta.Description = metaContent(doc, `meta[property="og:description"]`)
	}

	meta.Language = strings.TrimSpace(doc.Find("html").First().AttrOr("lang", ""))

	if href := strings.TrimSpace(doc.Find(`link[rel="canonical"]`).First().AttrOr("href", "")); href != "" {
		base, _ := url.Parse(sourceURL)
		canonical := Absolute(base, href)
		meta.Canonical = &canonical
	}

	return meta
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

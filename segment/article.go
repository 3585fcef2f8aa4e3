package segment

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// ArticleInfo runs Readability over markup and returns the site name and
// byline it finds. Failures are logged and yield empty strings; this data
// only decorates Meta and never blocks extraction.
func ArticleInfo(markup, sourceURL string) (siteName, author string) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return "", ""
	}

	article, err := readability.FromReader(strings.NewReader(markup), parsedURL)
	if err != nil {
		slog.Debug("segment: readability failed", "url", sourceURL, "error", err)
		return "", ""
	}
	return strings.TrimSpace(article.SiteName), strings.TrimSpace(article.Byline)
}

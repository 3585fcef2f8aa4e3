package segment

import "github.com/use-agent/sieve/models"

// Page is what one rendered or fetched document yields.
type Page struct {
	Meta     models.Meta
	Sections []models.Section
}

// Analyze parses markup and runs metadata extraction and segmentation on
// it. When readability is true, site name and author are filled from
// go-readability as well.
func (s *Segmenter) Analyze(markup, sourceURL string, readability bool) (Page, error) {
	doc, err := ParseString(markup)
	if err != nil {
		return Page{}, err
	}

	page := Page{Meta: ExtractMeta(doc, sourceURL)}
	if readability {
		page.Meta.SiteName, page.Meta.Author = ArticleInfo(markup, sourceURL)
	}
	page.Sections = s.Sections(doc, sourceURL)
	return page, nil
}

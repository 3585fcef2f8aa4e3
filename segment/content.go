package segment

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/sieve/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Elements whose text never counts as readable content.
var skipText = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

var styleURL = regexp.MustCompile(`url\(['"]?(.*?)['"]?\)`)

// Text returns the whitespace-normalized text of every node in sel,
// separating adjacent text nodes with a single space.
func Text(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			if skipText[n.DataAtom] {
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Headings returns up to max h1-h3 texts under sel, in document order.
func Headings(sel *goquery.Selection, max int) []string {
	headings := []string{}
	sel.Find("h1, h2, h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		headings = append(headings, Text(h))
		return len(headings) < max
	})
	return headings
}

// Links returns every a[href] under sel with an absolute href.
func Links(sel *goquery.Selection, sourceURL string) []models.Link {
	base, _ := url.Parse(sourceURL)
	links := []models.Link{}
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		links = append(links, models.Link{
			Text: Text(a),
			Href: Absolute(base, href),
		})
	})
	return links
}

// Images returns every img under sel that has a resolvable source. The
// source is taken from src, data-src, data-lazy-src, then a CSS url() in
// the inline style.
func Images(sel *goquery.Selection, sourceURL string) []models.Image {
	base, _ := url.Parse(sourceURL)
	images := []models.Image{}
	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := imageSource(img)
		if src == "" {
			return
		}
		images = append(images, models.Image{
			Src: Absolute(base, src),
			Alt: strings.TrimSpace(img.AttrOr("alt", "")),
		})
	})
	return images
}

func imageSource(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	if m := styleURL.FindStringSubmatch(img.AttrOr("style", "")); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// Lists returns the item texts of every ul/ol under sel. Lists with no
// non-empty item are skipped.
func Lists(sel *goquery.Selection) [][]string {
	lists := [][]string{}
	sel.Find("ul, ol").Each(func(_ int, list *goquery.Selection) {
		var items []string
		list.Find("li").Each(func(_ int, li *goquery.Selection) {
			if t := Text(li); t != "" {
				items = append(items, t)
			}
		})
		if len(items) > 0 {
			lists = append(lists, items)
		}
	})
	return lists
}

// Tables returns a header/rows rendition of every table under sel. A first
// row made only of th cells becomes the header.
func Tables(sel *goquery.Selection) []models.Table {
	tables := []models.Table{}
	sel.Find("table").Each(func(_ int, table *goquery.Selection) {
		t := models.Table{Headers: []string{}, Rows: [][]string{}}
		table.Find("tr").Each(func(i int, tr *goquery.Selection) {
			cells := tr.ChildrenFiltered("th, td")
			if cells.Length() == 0 {
				return
			}
			texts := make([]string, 0, cells.Length())
			cells.Each(func(_ int, c *goquery.Selection) {
				texts = append(texts, Text(c))
			})
			if i == 0 && cells.Length() == cells.Filter("th").Length() {
				t.Headers = texts
				return
			}
			t.Rows = append(t.Rows, texts)
		})
		if len(t.Headers) > 0 || len(t.Rows) > 0 {
			tables = append(tables, t)
		}
	})
	return tables
}

// Absolute resolves ref against base. Unparseable refs are returned as-is.
func Absolute(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

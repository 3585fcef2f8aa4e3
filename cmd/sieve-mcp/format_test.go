package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/sieve/models"
)

func TestFormatResult(t *testing.T) {
	r := models.NewResult("https://example.com/")
	r.Meta.Title = "Example"
	r.Sections = append(r.Sections,
		models.Section{Label: "Welcome", Type: models.SectionHero, Content: models.SectionContent{Text: "Hello there.", Markdown: "# Hello there."}},
		models.Section{Label: "Footer", Type: models.SectionFooter},
	)
	r.AddError(models.PhaseFetch, "Static fetch failed: status 403 Forbidden")

	text := formatResult(r, false)
	assert.Contains(t, text, "Title: Example\nSource: https://example.com/\n")
	assert.Contains(t, text, "## Welcome [hero]\nHello there.\n")
	assert.Contains(t, text, "## Footer [footer]\n")
	assert.Contains(t, text, "- (fetch) Static fetch failed: status 403 Forbidden")

	md := formatResult(r, true)
	assert.Contains(t, md, "# Hello there.")
}

func TestFormatResultNil(t *testing.T) {
	assert.Empty(t, formatResult(nil, false))
}

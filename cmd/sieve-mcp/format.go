package main

import (
	"fmt"
	"strings"

	"github.com/use-agent/sieve/models"
)

// formatResult renders a result as plain text for a model to read: a
// metadata header, then one block per section, then any diagnostics.
func formatResult(r *models.ExtractionResult, markdown bool) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder

	if r.Meta.Title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", r.Meta.Title)
	}
	fmt.Fprintf(&sb, "Source: %s\n", r.URL)
	if r.Meta.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", r.Meta.Description)
	}
	sb.WriteString("\n")

	for _, s := range r.Sections {
		fmt.Fprintf(&sb, "## %s [%s]\n", s.Label, s.Type)
		body := s.Content.Text
		if markdown && s.Content.Markdown != "" {
			body = s.Content.Markdown
		}
		if body != "" {
			sb.WriteString(body)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(r.Errors) > 0 {
		sb.WriteString("---\nDiagnostics:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "- (%s) %s\n", e.Phase, e.Message)
		}
	}
	return sb.String()
}

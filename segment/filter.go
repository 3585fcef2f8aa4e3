package segment

import (
	"log/slog"
	"strings"

	"github.com/andybalholm/cascadia"
)

// ValidSelectors returns the selectors that cascadia can compile, in their
// original order. Invalid entries are logged and dropped.
func ValidSelectors(selectors []string) []string {
	valid := make([]string, 0, len(selectors))
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		if _, err := cascadia.ParseGroup(sel); err != nil {
			slog.Warn("segment: dropping invalid selector", "selector", sel, "error", err)
			continue
		}
		valid = append(valid, sel)
	}
	return valid
}

// Package merge folds the result of a later extraction tier into the
// accumulated result of the earlier ones.
package merge

import (
	"fmt"
	"log/slog"

	"github.com/use-agent/sieve/models"
)

// fingerprintPrefix is the number of rawHtml bytes compared when deciding
// whether two sections are the same.
const fingerprintPrefix = 200

// Merger merges extraction results. The zero value is not usable; call New.
type Merger struct {
	textDedup bool
	threshold int
}

// Option configures a Merger.
type Option func(*Merger)

// WithTextDedup additionally drops incoming sections whose text SimHash is
// within threshold bits of a section already present.
func WithTextDedup(threshold int) Option {
	return func(m *Merger) {
		m.textDedup = true
		m.threshold = threshold
	}
}

// New creates a Merger.
func New(opts ...Option) *Merger {
	m := &Merger{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Into merges src into dst:
//   - meta fields are filled only where dst is still empty
//   - sections are appended unless their fingerprint matches a section dst
//     held before the call; sections within src are never deduplicated
//     against each other. Colliding ids get a numeric suffix
//   - clicks are concatenated, scrolls summed, pages unioned
//   - errors are concatenated
//
// A failure while merging is recorded on dst as a render-phase error and
// returned; dst keeps whatever was merged before the failure.
func (m *Merger) Into(dst, src *models.ExtractionResult) (err error) {
	if dst == nil {
		return models.NewScrapeError(models.ErrCodeMerge, "Merging into nil result", nil)
	}
	if src == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("merge: recovered from panic", "url", dst.URL, "panic", r)
			msg := fmt.Sprintf("Merging browser result failed: %v", r)
			dst.AddError(models.PhaseRender, msg)
			err = models.NewScrapeError(models.ErrCodeMerge, msg, nil)
		}
	}()

	mergeMeta(&dst.Meta, src.Meta)
	m.mergeSections(dst, src.Sections)
	mergeInteractions(&dst.Interactions, src.Interactions)
	dst.Errors = append(dst.Errors, src.Errors...)
	return nil
}

func mergeMeta(dst *models.Meta, src models.Meta) {
	fill := func(d *string, s string) {
		if *d == "" && s != "" {
			*d = s
		}
	}
	fill(&dst.Title, src.Title)
	fill(&dst.Description, src.Description)
	fill(&dst.Language, src.Language)
	fill(&dst.SiteName, src.SiteName)
	fill(&dst.Author, src.Author)
	if dst.Canonical == nil && src.Canonical != nil {
		c := *src.Canonical
		dst.Canonical = &c
	}
}

func (m *Merger) mergeSections(dst *models.ExtractionResult, incoming []models.Section) {
	seen := make(map[string]struct{}, len(dst.Sections))
	ids := make(map[string]struct{}, len(dst.Sections)+len(incoming))
	var hashes []uint64
	for _, s := range dst.Sections {
		seen[fingerprint(s)] = struct{}{}
		ids[s.ID] = struct{}{}
		if m.textDedup {
			hashes = append(hashes, Fingerprint(s.Content.Text))
		}
	}

	for _, s := range incoming {
		if _, dup := seen[fingerprint(s)]; dup {
			continue
		}
		if m.textDedup {
			h := Fingerprint(s.Content.Text)
			if nearDuplicate(h, hashes, m.threshold) {
				continue
			}
		}
		s.ID = uniqueID(s.ID, ids)
		ids[s.ID] = struct{}{}
		dst.Sections = append(dst.Sections, s)
	}
}

func mergeInteractions(dst *models.Interactions, src models.Interactions) {
	dst.Clicks = append(dst.Clicks, src.Clicks...)
	dst.Scrolls += src.Scrolls

	present := make(map[string]struct{}, len(dst.Pages))
	for _, p := range dst.Pages {
		present[p] = struct{}{}
	}
	for _, p := range src.Pages {
		if _, ok := present[p]; ok {
			continue
		}
		present[p] = struct{}{}
		dst.Pages = append(dst.Pages, p)
	}
}

func fingerprint(s models.Section) string {
	if len(s.RawHTML) > fingerprintPrefix {
		return s.RawHTML[:fingerprintPrefix]
	}
	return s.RawHTML
}

// uniqueID returns id, or id-N for the smallest N >= 1 not in taken.
func uniqueID(id string, taken map[string]struct{}) string {
	if _, ok := taken[id]; !ok {
		return id
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

func nearDuplicate(h uint64, hashes []uint64, threshold int) bool {
	if h == 0 {
		return false
	}
	for _, other := range hashes {
		if Similar(h, other, threshold) {
			return true
		}
	}
	return false
}

package scraper

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
)

func TestIsAdDomain(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"doubleclick.net", true},
		{"stats.g.doubleclick.net", true},
		{"PAGEAD2.googlesyndication.com", true},
		{"example.com", false},
		{"notdoubleclick.net", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, isAdDomain(tt.host))
		})
	}
}

func TestRequestFilter(t *testing.T) {
	f := newRequestFilter([]string{"Font", "Media", "Unknown"}, true)
	assert.False(t, f.empty())

	assert.True(t, f.blocks(proto.NetworkResourceTypeFont, "https://example.com/a.woff2"))
	assert.False(t, f.blocks(proto.NetworkResourceTypeImage, "https://example.com/a.png"))
	assert.True(t, f.blocks(proto.NetworkResourceTypeScript, "https://www.googletagmanager.com/gtm.js"))
	assert.False(t, f.blocks(proto.NetworkResourceTypeDocument, "https://doubleclick.net/"))

	assert.True(t, newRequestFilter(nil, false).empty())
}

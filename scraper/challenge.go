package scraper

import (
	"strings"
	"unicode/utf8"
)

// ChallengeKind names the kind of bot wall a page shows.
type ChallengeKind string

const (
	ChallengeCloudflare ChallengeKind = "cloudflare"
	ChallengeCaptcha    ChallengeKind = "captcha"
	ChallengeDenied     ChallengeKind = "access denial"
)

// Real content pages are longer than any challenge interstitial.
const challengeMaxText = 1000

var cloudflareMarkup = []string{
	"cf-browser-verification",
	"cf-challenge",
	"cf-chl-",
	"challenge-platform",
}

var cloudflareText = []string{
	"checking your browser",
	"just a moment",
	"attention required",
	"cloudflare ray id",
	"performance & security by cloudflare",
	"verifying you are human",
	"verify you are human",
	"please wait while we verify",
}

var captchaMarkup = []string{
	"g-recaptcha",
	"h-captcha",
	"hcaptcha.com",
	"px-captcha",
	"captcha-delivery",
}

var deniedText = []string{
	"access denied",
	"403 forbidden",
	"why have i been blocked",
	"you have been blocked",
	"request blocked",
}

// DetectChallenge reports whether a rendered page is a bot wall instead of
// content. text is the extracted page text; long pages are never treated
// as challenges even if they embed a captcha widget.
func DetectChallenge(markup, text string) (ChallengeKind, bool) {
	if utf8.RuneCountInString(text) >= challengeMaxText {
		return "", false
	}
	lowerMarkup := strings.ToLower(markup)
	lowerText := strings.ToLower(text)

	switch {
	case containsAnyOf(lowerMarkup, cloudflareMarkup), containsAnyOf(lowerText, cloudflareText):
		return ChallengeCloudflare, true
	case containsAnyOf(lowerMarkup, captchaMarkup):
		return ChallengeCaptcha, true
	case containsAnyOf(lowerText, deniedText):
		return ChallengeDenied, true
	}
	return "", false
}

func containsAnyOf(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

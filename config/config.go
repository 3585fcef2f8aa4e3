package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	Static     StaticConfig
	Escalation EscalationConfig
	Extract    ExtractConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Batch      BatchConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// RequestTimeout caps one extraction across all tiers.
	RequestTimeout time.Duration // default: 120s

	// MaxRequestTimeout is the maximum timeout a client may ask for.
	MaxRequestTimeout time.Duration // default: 300s
}

// BrowserConfig controls the browser tiers.
type BrowserConfig struct {
	// Enabled toggles the light, full and hard tiers.
	Enabled bool // default: true

	// ForceHeadless runs the full and hard tiers headless too. Needed on
	// hosts without a display.
	ForceHeadless bool // default: false

	// MaxSessions bounds concurrent browser sessions across requests.
	MaxSessions int // default: 4

	// Proxy is passed to every launched browser.
	Proxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultTimeout bounds each navigation of the full tier.
	DefaultTimeout time.Duration // default: 30s

	// StepTimeout bounds every scroll, click and evaluate.
	StepTimeout time.Duration // default: 5s

	// BlockedResourceTypes lists resource types the light tier blocks.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds blocks known ad and tracking domains on every tier.
	BlockAds bool // default: true
}

// StaticConfig controls the static fetch stage.
type StaticConfig struct {
	Timeout       time.Duration // default: 12s
	UserAgent     string
	RetryStatuses []int // default: [403]
}

// EscalationConfig holds the sufficiency heuristics.
type EscalationConfig struct {
	// MinTextLength below which a tier result is insufficient.
	MinTextLength int // default: 300

	// BlockKeywords mark an error message as a blocking signal.
	BlockKeywords []string // default: ["403", "blocked", "access denied"]

	// TextDedup enables SimHash text deduplication during merge.
	TextDedup bool // default: false

	// TextDedupThreshold is the max Hamming distance for a duplicate.
	TextDedupThreshold int // default: 3
}

// ExtractConfig controls segmentation extras.
type ExtractConfig struct {
	// Readability fills meta.siteName and meta.author.
	Readability bool // default: true
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// BatchConfig controls asynchronous batch jobs.
type BatchConfig struct {
	// Concurrency is the number of URLs extracted in parallel per job.
	Concurrency int // default: 3

	// Retention is how long finished jobs stay queryable.
	Retention time.Duration // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              envOr("SIEVE_HOST", "0.0.0.0"),
			Port:              envIntOr("SIEVE_PORT", 8080),
			Mode:              envOr("SIEVE_MODE", "release"),
			RequestTimeout:    envDurationOr("SIEVE_REQUEST_TIMEOUT", 120*time.Second),
			MaxRequestTimeout: envDurationOr("SIEVE_MAX_REQUEST_TIMEOUT", 300*time.Second),
		},
		Browser: BrowserConfig{
			Enabled:        envBoolOr("SIEVE_BROWSER_ENABLED", true),
			ForceHeadless:  envBoolOr("SIEVE_FORCE_HEADLESS", false),
			MaxSessions:    envIntOr("SIEVE_MAX_SESSIONS", 4),
			Proxy:          os.Getenv("SIEVE_PROXY"),
			NoSandbox:      envBoolOr("SIEVE_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("SIEVE_BROWSER_BIN"),
			DefaultTimeout: envDurationOr("SIEVE_BROWSER_TIMEOUT", 30*time.Second),
			StepTimeout:    envDurationOr("SIEVE_STEP_TIMEOUT", 5*time.Second),
			BlockedResourceTypes: envSliceOr("SIEVE_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
			BlockAds: envBoolOr("SIEVE_BLOCK_ADS", true),
		},
		Static: StaticConfig{
			Timeout:       envDurationOr("SIEVE_STATIC_TIMEOUT", 12*time.Second),
			UserAgent:     os.Getenv("SIEVE_USER_AGENT"),
			RetryStatuses: envIntSliceOr("SIEVE_RETRY_STATUSES", []int{403}),
		},
		Escalation: EscalationConfig{
			MinTextLength:      envIntOr("SIEVE_MIN_TEXT_LENGTH", 300),
			BlockKeywords:      envSliceOr("SIEVE_BLOCK_KEYWORDS", []string{"403", "blocked", "access denied"}),
			TextDedup:          envBoolOr("SIEVE_TEXT_DEDUP", false),
			TextDedupThreshold: envIntOr("SIEVE_TEXT_DEDUP_THRESHOLD", 3),
		},
		Extract: ExtractConfig{
			Readability: envBoolOr("SIEVE_READABILITY", true),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SIEVE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SIEVE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SIEVE_RATE_RPS", 2.0),
			Burst:             envIntOr("SIEVE_RATE_BURST", 5),
		},
		Batch: BatchConfig{
			Concurrency: envIntOr("SIEVE_BATCH_CONCURRENCY", 3),
			Retention:   envDurationOr("SIEVE_BATCH_RETENTION", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("SIEVE_LOG_LEVEL", "info"),
			Format: envOr("SIEVE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

func envIntSliceOr(key string, fallback []int) []int {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]int, 0, len(parts))
		for _, p := range parts {
			if i, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
				result = append(result, i)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

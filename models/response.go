package models

// ExtractResponse is the response for POST /api/v1/extract.
type ExtractResponse struct {
	// Success is false only for requests rejected before any tier ran.
	Success bool `json:"success"`

	// Result is the merged extraction output.
	Result *ExtractionResult `json:"result,omitempty"`

	// Trace lists each tier that ran, in order.
	Trace []TierOutcome `json:"trace,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`

	// Errors mirrors result.errors for rejected requests.
	Errors []ErrorEntry `json:"errors,omitempty"`
}

// TierOutcome records what a single tier contributed.
type TierOutcome struct {
	Tier       string `json:"tier"`
	Sufficient bool   `json:"sufficient"`
	Blocked    bool   `json:"blocked"`
	TextLength int    `json:"text_length"`
	Sections   int    `json:"sections"`
	Errors     int    `json:"errors"`
	DurationMs int64  `json:"duration_ms"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// StaticMs is the time spent in the static tier.
	StaticMs int64 `json:"static_ms"`

	// BrowserMs is the time spent across all browser tiers.
	BrowserMs int64 `json:"browser_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	SessionStats SessionStats `json:"session_stats"`
	Version      string       `json:"version"`
}

// SessionStats reports browser session usage.
type SessionStats struct {
	MaxSessions    int  `json:"max_sessions"`
	ActiveSessions int  `json:"active_sessions"`
	BrowserEnabled bool `json:"browser_enabled"`
}

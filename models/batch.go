package models

// BatchRequest is the payload for POST /api/v1/batch/extract.
type BatchRequest struct {
	// URLs is the list of target pages. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=100"`

	// Options contains shared extraction options applied to all URLs.
	Options BatchOptions `json:"options"`

	// WebhookURL receives a batch.completed event when the job finishes.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs the webhook payload (HMAC-SHA256).
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// BatchOptions are the shared settings applied to every URL in a batch.
type BatchOptions struct {
	Timeout          int      `json:"timeout,omitempty" binding:"omitempty,min=1,max=300"`
	Markdown         bool     `json:"markdown,omitempty"`
	ExcludeSelectors []string `json:"exclude_selectors,omitempty"`
	MaxTier          string   `json:"max_tier,omitempty" binding:"omitempty,oneof=static light full hard"`
}

// Request builds a single-URL request from the shared options.
func (o BatchOptions) Request(url string) ExtractRequest {
	r := ExtractRequest{
		URL:              url,
		Timeout:          o.Timeout,
		Markdown:         o.Markdown,
		ExcludeSelectors: o.ExcludeSelectors,
		MaxTier:          o.MaxTier,
	}
	r.Defaults()
	return r
}

// BatchResponse is the immediate response for POST /api/v1/batch/extract.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Results   []*ExtractResponse `json:"results,omitempty"`
}

// BatchJob tracks an in-progress batch extraction.
type BatchJob struct {
	ID        string
	Status    string // "processing", "completed", "partial"
	Total     int
	Completed int
	Results   []*ExtractResponse
	CreatedAt int64 // unix timestamp
}

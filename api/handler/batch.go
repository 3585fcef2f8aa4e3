package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/sieve/config"
	"github.com/use-agent/sieve/models"
	"github.com/use-agent/sieve/webhook"
	"golang.org/x/sync/errgroup"
)

// Batch job states.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusPartial    = "partial"
	StatusFailed     = "failed"
)

// BatchStore holds in-flight and finished batch jobs. Finished jobs are
// dropped after the configured retention.
type BatchStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.BatchJob
	cfg  config.BatchConfig

	// notify delivers the completion event; replaced in tests.
	notify func(url, secret string, event *webhook.Event)
}

// NewBatchStore creates a store and starts its expiry loop, which stops
// when ctx is done.
func NewBatchStore(ctx context.Context, cfg config.BatchConfig) *BatchStore {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = time.Hour
	}
	s := &BatchStore{
		jobs:   make(map[string]*models.BatchJob),
		cfg:    cfg,
		notify: webhook.DeliverAsync,
	}
	go s.expire(ctx)
	return s
}

func (s *BatchStore) expire(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now().Add(-s.cfg.Retention))
		}
	}
}

// sweep removes finished jobs created before cutoff.
func (s *BatchStore) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if job.Status != StatusProcessing && job.CreatedAt < cutoff.Unix() {
			delete(s.jobs, id)
		}
	}
}

// snapshot copies a job under the read lock.
func (s *BatchStore) snapshot(id string) (models.BatchStatusResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.BatchStatusResponse{}, false
	}
	return models.BatchStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Completed: job.Completed,
		Total:     job.Total,
		Results:   append([]*models.ExtractResponse(nil), job.Results...),
	}, true
}

// PostBatch returns a handler for POST /api/v1/batch/extract. It registers
// the job and extracts every URL in the background.
func PostBatch(store *BatchStore, ex Extractor, opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), nil), 0)
			return
		}

		req.Options.Timeout = opts.timeout(req.Options.Timeout)

		job := &models.BatchJob{
			ID:        "batch-" + uuid.NewString(),
			Status:    StatusProcessing,
			Total:     len(req.URLs),
			Results:   make([]*models.ExtractResponse, len(req.URLs)),
			CreatedAt: time.Now().Unix(),
		}
		store.mu.Lock()
		store.jobs[job.ID] = job
		store.mu.Unlock()

		go store.run(job, req, ex, opts)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     job.ID,
			Status: StatusProcessing,
			Total:  job.Total,
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch(store *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, ok := store.snapshot(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, models.ExtractResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// run extracts every URL of job with bounded concurrency, then fires the
// completion webhook.
func (s *BatchStore) run(job *models.BatchJob, req models.BatchRequest, ex Extractor, opts Options) {
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	failed := 0
	for i, rawURL := range req.URLs {
		g.Go(func() error {
			resp := extractOne(context.Background(), ex, req.Options.Request(rawURL), opts)

			s.mu.Lock()
			job.Results[i] = resp
			job.Completed++
			if !resp.Success {
				failed++
			}
			s.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	switch {
	case failed == job.Total:
		job.Status = StatusFailed
	case failed > 0:
		job.Status = StatusPartial
	default:
		job.Status = StatusCompleted
	}
	s.mu.Unlock()

	slog.Info("batch job finished",
		"id", job.ID,
		"status", job.Status,
		"failed", failed,
		"total", job.Total,
	)

	if req.WebhookURL != "" {
		status, _ := s.snapshot(job.ID)
		s.notify(req.WebhookURL, req.WebhookSecret, &webhook.Event{
			Type:      webhook.EventBatchCompleted,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data:      status,
		})
	}
}

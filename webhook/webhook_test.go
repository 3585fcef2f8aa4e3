package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverSignsBody(t *testing.T) {
	var (
		body []byte
		sig  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		sig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ev := &Event{Type: EventBatchCompleted, JobID: "batch-1", Timestamp: 1700000000, Data: map[string]int{"total": 2}}
	require.NoError(t, Deliver(context.Background(), srv.URL, "s3cret", ev))

	var got Event
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, EventBatchCompleted, got.Type)
	assert.Equal(t, "batch-1", got.JobID)
	assert.True(t, Verify("s3cret", body, sig))
	assert.False(t, Verify("other", body, sig))
}

func TestDeliverWithoutSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
	}))
	defer srv.Close()

	require.NoError(t, Deliver(context.Background(), srv.URL, "", &Event{Type: EventBatchCompleted}))
}

func TestDeliverErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Deliver(context.Background(), srv.URL, "", &Event{Type: EventBatchCompleted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestDeliverAsyncRetries(t *testing.T) {
	saved := retryDelays
	retryDelays = []time.Duration{0, time.Millisecond, time.Millisecond}
	defer func() { retryDelays = saved }()

	var n atomic.Int32
	calls := make(chan struct{}, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		calls <- struct{}{}
	}))
	defer srv.Close()

	DeliverAsync(srv.URL, "", &Event{Type: EventBatchCompleted})

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("attempt %d not made", i+1)
		}
	}
}

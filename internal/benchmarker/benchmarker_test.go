package benchmarker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/moamenhredeen/oasc/internal/models"
	"github.com/moamenhredeen/oasc/internal/request"
	"github.com/moamenhredeen/oasc/internal/transport"
)

type flakySender struct {
	calls atomic.Int64
	every int64
}

func (s *flakySender) Send(ctx context.Context, d *request.Descriptor) (*transport.Response, error) {
	n := s.calls.Add(1)
	if s.every > 0 && n%s.every == 0 {
		return nil, errors.New("connection reset")
	}
	return &transport.Response{StatusCode: http.StatusOK}, nil
}

func testDescriptor(t *testing.T, rawURL string) *request.Descriptor {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("Failed to parse URL: %v", err)
	}
	return &request.Descriptor{Method: models.MethodGet, URL: u}
}

func TestRunAgainstServer(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	b := NewBenchmarker(Config{Iterations: 20, Concurrency: 4, WarmupRuns: 2},
		transport.NewClient(transport.Config{Timeout: 5 * time.Second}))

	var mu sync.Mutex
	seen := map[EventType]int{}
	result := b.Run(context.Background(), "listPets", testDescriptor(t, server.URL+"/pets"), func(e BenchmarkEvent) {
		mu.Lock()
		seen[e.Type]++
		mu.Unlock()
	})

	if hits.Load() != 22 {
		t.Errorf("Expected 22 requests including warmup, got %d", hits.Load())
	}
	if result.Completed != 20 || result.SuccessCount != 20 {
		t.Errorf("Expected 20 successful requests, got %d/%d", result.SuccessCount, result.Completed)
	}
	if result.StatusCodes[http.StatusOK] != 20 {
		t.Errorf("Expected 20 status 200, got %v", result.StatusCodes)
	}
	if result.MinTime > result.P50Time || result.P50Time > result.MaxTime {
		t.Errorf("Percentiles out of order: min=%v p50=%v max=%v", result.MinTime, result.P50Time, result.MaxTime)
	}
	if result.Operation != "listPets" || result.Method != "GET" {
		t.Errorf("Unexpected identification %s %s", result.Operation, result.Method)
	}
	if seen[EventWarmupStarting] != 1 || seen[EventBenchmarkCompleted] != 1 {
		t.Errorf("Unexpected events %v", seen)
	}
	if seen[EventBenchmarkProgress] == 0 {
		t.Error("Expected progress events")
	}
}

func TestRunCountsErrors(t *testing.T) {
	sender := &flakySender{every: 4}
	b := NewBenchmarker(Config{Iterations: 40, Concurrency: 2}, sender)

	result := b.Run(context.Background(), "op", testDescriptor(t, "http://localhost/x"), nil)

	if result.ErrorCount != 10 {
		t.Errorf("Expected 10 errors, got %d", result.ErrorCount)
	}
	if result.ErrorRate != 25 {
		t.Errorf("Expected 25%% error rate, got %.2f", result.ErrorRate)
	}
	if len(result.SampleErrors) != 1 || result.SampleErrors[0] != "connection reset" {
		t.Errorf("Expected one deduplicated sample error, got %v", result.SampleErrors)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := &flakySender{}
	b := NewBenchmarker(Config{Iterations: 50, Concurrency: 2}, sender)
	result := b.Run(ctx, "op", testDescriptor(t, "http://localhost/x"), nil)

	if result.Completed != 0 {
		t.Errorf("Expected no completed requests after cancellation, got %d", result.Completed)
	}
}

func TestRunRateLimited(t *testing.T) {
	sender := &flakySender{}
	b := NewBenchmarker(Config{Iterations: 6, Concurrency: 3, RateLimit: 50}, sender)

	start := time.Now()
	result := b.Run(context.Background(), "op", testDescriptor(t, "http://localhost/x"), nil)

	if result.Completed != 6 {
		t.Errorf("Expected 6 completed requests, got %d", result.Completed)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Rate limited run took unexpectedly long")
	}
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{10, 20, 30, 40, 50}

	if got := percentile(sorted, 0); got != 10 {
		t.Errorf("p0: expected 10, got %v", got)
	}
	if got := percentile(sorted, 50); got != 30 {
		t.Errorf("p50: expected 30, got %v", got)
	}
	if got := percentile(sorted, 100); got != 50 {
		t.Errorf("p100: expected 50, got %v", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("empty: expected 0, got %v", got)
	}
}

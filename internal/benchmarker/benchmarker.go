package benchmarker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/moamenhredeen/oasc/internal/models"
	"github.com/moamenhredeen/oasc/internal/request"
	"github.com/moamenhredeen/oasc/internal/transport"
	"golang.org/x/time/rate"
)

// EventType represents the type of benchmark event
type EventType int

const (
	// EventWarmupStarting indicates warmup phase is starting
	EventWarmupStarting EventType = iota
	// EventWarmupCompleted indicates warmup phase completed
	EventWarmupCompleted
	// EventBenchmarkStarting indicates the measured phase is starting
	EventBenchmarkStarting
	// EventBenchmarkProgress indicates benchmark progress (periodic updates)
	EventBenchmarkProgress
	// EventBenchmarkCompleted indicates the benchmark completed
	EventBenchmarkCompleted
)

// BenchmarkEvent represents an event during benchmark execution
type BenchmarkEvent struct {
	Type     EventType
	Result   *models.BenchmarkResult // nil until completed
	Progress int                     // current iteration count
	MaxIter  int                     // max iterations for this phase

	// Running stats (for progress events)
	RunningAvg    time.Duration
	RunningReqSec float64
	ErrorCount    int
}

// OnBenchmarkEvent is a callback function for benchmark events
type OnBenchmarkEvent func(event BenchmarkEvent)

// Config holds benchmark configuration
type Config struct {
	Iterations  int     // Number of requests
	Concurrency int     // Number of concurrent workers
	WarmupRuns  int     // Number of warmup iterations (discarded)
	RateLimit   float64 // Max requests per second (0 = unlimited)
}

// DefaultConfig returns default benchmark configuration
func DefaultConfig() Config {
	return Config{
		Iterations:  100,
		Concurrency: 1,
		WarmupRuns:  5,
		RateLimit:   0,
	}
}

// Benchmarker replays one synthesized request and collects latency statistics
type Benchmarker struct {
	config  Config
	sender  transport.Sender
	limiter *rate.Limiter
}

// NewBenchmarker creates a new benchmarker instance
func NewBenchmarker(config Config, sender transport.Sender) *Benchmarker {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.Iterations < 0 {
		config.Iterations = 0
	}

	// Create rate limiter if configured
	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), max(1, int(config.RateLimit)))
	}

	return &Benchmarker{
		config:  config,
		sender:  sender,
		limiter: limiter,
	}
}

// requestResult holds the result of a single request
type requestResult struct {
	Done       bool
	Duration   time.Duration
	StatusCode int
	Error      string
}

// Run benchmarks the request d, reported under the operation name
func (b *Benchmarker) Run(ctx context.Context, operation string, d *request.Descriptor, onEvent OnBenchmarkEvent) models.BenchmarkResult {
	result := models.BenchmarkResult{
		Operation:   operation,
		Method:      string(d.Method),
		URL:         d.URL.String(),
		Iterations:  b.config.Iterations,
		Concurrency: b.config.Concurrency,
		WarmupRuns:  b.config.WarmupRuns,
		RateLimit:   b.config.RateLimit,
		StatusCodes: make(map[int]int),
	}

	if b.config.WarmupRuns > 0 {
		emit(onEvent, BenchmarkEvent{Type: EventWarmupStarting, MaxIter: b.config.WarmupRuns})

		// Run warmup (single-threaded, no stats collection)
		for i := 0; i < b.config.WarmupRuns; i++ {
			if ctx.Err() != nil {
				return result
			}
			b.executeRequest(ctx, d)
		}

		emit(onEvent, BenchmarkEvent{Type: EventWarmupCompleted, MaxIter: b.config.WarmupRuns})
	}

	emit(onEvent, BenchmarkEvent{Type: EventBenchmarkStarting, MaxIter: b.config.Iterations})

	startTime := time.Now()
	results := b.runConcurrentBenchmark(ctx, d, onEvent, startTime)
	result.TotalDuration = time.Since(startTime)

	result = b.processResults(result, results)

	emit(onEvent, BenchmarkEvent{Type: EventBenchmarkCompleted, Result: &result})
	return result
}

func emit(onEvent OnBenchmarkEvent, event BenchmarkEvent) {
	if onEvent != nil {
		onEvent(event)
	}
}

// runConcurrentBenchmark executes the benchmark with worker pool
func (b *Benchmarker) runConcurrentBenchmark(
	ctx context.Context,
	d *request.Descriptor,
	onEvent OnBenchmarkEvent,
	startTime time.Time,
) []requestResult {
	results := make([]requestResult, b.config.Iterations)
	jobs := make(chan int, b.config.Iterations)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var completed int
	var totalDuration time.Duration
	var errorCount int

	// Progress reporting interval
	progressInterval := max(1, b.config.Iterations/20) // ~5% intervals

	// Start workers
	for w := 0; w < b.config.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}

				// Apply rate limiting
				if b.limiter != nil {
					if err := b.limiter.Wait(ctx); err != nil {
						return
					}
				}

				res := b.executeRequest(ctx, d)
				results[i] = res

				// Update progress
				mu.Lock()
				completed++
				totalDuration += res.Duration
				if res.Error != "" {
					errorCount++
				}
				currentCompleted := completed
				currentTotalDuration := totalDuration
				currentErrorCount := errorCount
				mu.Unlock()

				// Report progress periodically
				if onEvent != nil && currentCompleted%progressInterval == 0 {
					elapsed := time.Since(startTime)
					var reqsPerSec float64
					if elapsed > 0 {
						reqsPerSec = float64(currentCompleted) / elapsed.Seconds()
					}

					onEvent(BenchmarkEvent{
						Type:          EventBenchmarkProgress,
						Progress:      currentCompleted,
						MaxIter:       b.config.Iterations,
						RunningAvg:    currentTotalDuration / time.Duration(currentCompleted),
						RunningReqSec: reqsPerSec,
						ErrorCount:    currentErrorCount,
					})
				}
			}
		}()
	}

	// Send jobs
	for i := 0; i < b.config.Iterations; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// executeRequest executes a single HTTP request and returns timing
func (b *Benchmarker) executeRequest(ctx context.Context, d *request.Descriptor) requestResult {
	result := requestResult{Done: true}

	startTime := time.Now()
	resp, err := b.sender.Send(ctx, d)
	result.Duration = time.Since(startTime)

	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.StatusCode = resp.StatusCode
	return result
}

// processResults calculates statistics from raw results
func (b *Benchmarker) processResults(result models.BenchmarkResult, rawResults []requestResult) models.BenchmarkResult {
	var durations []time.Duration
	var totalDuration time.Duration
	errorSet := make(map[string]bool)

	for _, r := range rawResults {
		if !r.Done {
			// Skipped after cancellation
			continue
		}
		result.Completed++

		if r.Error != "" {
			result.ErrorCount++
			if len(result.SampleErrors) < 5 && !errorSet[r.Error] {
				result.SampleErrors = append(result.SampleErrors, r.Error)
				errorSet[r.Error] = true
			}
		} else {
			result.SuccessCount++
			durations = append(durations, r.Duration)
			totalDuration += r.Duration
		}

		if r.StatusCode > 0 {
			result.StatusCodes[r.StatusCode]++
		}
	}

	// Calculate timing stats (only from successful requests)
	if len(durations) > 0 {
		sort.Slice(durations, func(i, j int) bool {
			return durations[i] < durations[j]
		})

		result.MinTime = durations[0]
		result.MaxTime = durations[len(durations)-1]
		result.AvgTime = totalDuration / time.Duration(len(durations))
		result.P50Time = percentile(durations, 50)
		result.P90Time = percentile(durations, 90)
		result.P99Time = percentile(durations, 99)
	}

	// Calculate throughput
	if result.TotalDuration > 0 {
		result.RequestsPerSec = float64(result.Completed) / result.TotalDuration.Seconds()
	}

	// Calculate error rate
	if result.Completed > 0 {
		result.ErrorRate = float64(result.ErrorCount) / float64(result.Completed) * 100
	}

	return result
}

// percentile calculates the p-th percentile from sorted durations
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	index := float64(len(sorted)-1) * float64(p) / 100.0
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[lower]
	}

	// Linear interpolation
	weight := index - float64(lower)
	return time.Duration(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight)
}

package models

import "time"

// BenchmarkResult represents the benchmark results for one replayed request
type BenchmarkResult struct {
	// Request details
	Operation string `json:"operation"`
	Method    string `json:"method"`
	URL       string `json:"url"`

	// Benchmark configuration
	Iterations  int     `json:"iterations"`
	Concurrency int     `json:"concurrency"`
	WarmupRuns  int     `json:"warmup_runs"`
	RateLimit   float64 `json:"rate_limit,omitempty"`

	// Timing statistics (in nanoseconds for JSON, display as milliseconds)
	MinTime time.Duration `json:"min_time_ns"`
	MaxTime time.Duration `json:"max_time_ns"`
	AvgTime time.Duration `json:"avg_time_ns"`
	P50Time time.Duration `json:"p50_time_ns"`
	P90Time time.Duration `json:"p90_time_ns"`
	P99Time time.Duration `json:"p99_time_ns"`

	// Throughput
	RequestsPerSec float64       `json:"requests_per_sec"`
	TotalDuration  time.Duration `json:"total_duration_ns"`

	// Error tracking
	Completed    int     `json:"completed"`
	SuccessCount int     `json:"success_count"`
	ErrorCount   int     `json:"error_count"`
	ErrorRate    float64 `json:"error_rate"`

	// Status code distribution
	StatusCodes map[int]int `json:"status_codes"`

	// Sample errors (first few unique errors)
	SampleErrors []string `json:"sample_errors,omitempty"`
}

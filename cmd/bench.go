/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/moamenhredeen/oasc/internal/benchmarker"
	"github.com/moamenhredeen/oasc/internal/binder"
	"github.com/moamenhredeen/oasc/internal/errs"
	"github.com/moamenhredeen/oasc/internal/logger"
	"github.com/moamenhredeen/oasc/internal/models"
	"github.com/moamenhredeen/oasc/internal/output"
	"github.com/moamenhredeen/oasc/internal/transport"
	"github.com/spf13/cobra"
)

// benchOptions holds the bench-specific flags
type benchOptions struct {
	iterations   int
	concurrency  int
	warmup       int
	rateLimit    float64
	noKeepAlive  bool
	outputFormat string
	outputFile   string
}

func newBenchCmd(a *app, ops []models.Operation) *cobra.Command {
	opts := &benchOptions{}
	defaults := benchmarker.DefaultConfig()

	benchCmd := &cobra.Command{
		Use:   "bench <operation>",
		Short: "Benchmark one operation",
		Long: `Benchmark an operation by replaying the same request many times.

The request is built once from the given parameter flags, then sent
-n times across -c workers. Latency percentiles (p50, p90, p99),
requests per second and error rates are reported.

Examples:
  # Basic benchmark with defaults (100 iterations, 1 concurrent)
  oasc bench listPets

  # High-load benchmark with concurrency
  oasc bench showPetById --petId 1 -n 1000 -c 10

  # Rate-limited benchmark
  oasc bench listPets -n 500 --rate 50

  # Export results to JSON
  oasc bench listPets -o json --output-file results.json`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return errs.New(errs.CodeUnknownOperation, "unknown operation %q", args[0])
		},
	}

	benchCmd.PersistentFlags().IntVarP(&opts.iterations, "iterations", "n", defaults.Iterations, "Number of requests")
	benchCmd.PersistentFlags().IntVarP(&opts.concurrency, "concurrency", "c", defaults.Concurrency, "Number of concurrent requests")
	benchCmd.PersistentFlags().IntVarP(&opts.warmup, "warmup", "w", defaults.WarmupRuns, "Number of warmup iterations (discarded from stats)")
	benchCmd.PersistentFlags().Float64VarP(&opts.rateLimit, "rate", "r", defaults.RateLimit, "Max requests per second (0 = unlimited)")
	benchCmd.PersistentFlags().BoolVar(&opts.noKeepAlive, "no-keepalive", false, "Disable HTTP connection reuse")
	benchCmd.PersistentFlags().StringVarP(&opts.outputFormat, "output", "o", "", "Output format: json, csv")
	benchCmd.PersistentFlags().StringVar(&opts.outputFile, "output-file", "", "Write output to file (default: stdout)")

	benchCmd.AddGroup(&cobra.Group{ID: operationsGroup, Title: "Operations:"})
	for _, op := range ops {
		benchCmd.AddCommand(newOperationCmd(op, a.benchOperation(opts)))
	}
	return benchCmd
}

// benchOperation builds the request once and hands it to the benchmarker
func (a *app) benchOperation(opts *benchOptions) operationRunner {
	return func(cmd *cobra.Command, op models.Operation, values binder.Values) error {
		var format output.Format
		if opts.outputFormat != "" {
			f, err := output.ParseFormat(opts.outputFormat)
			if err != nil {
				return err
			}
			if f == output.FormatYAML {
				return fmt.Errorf("invalid format '%s': must be 'json' or 'csv'", opts.outputFormat)
			}
			format = f
		}

		desc, err := a.driver.Prepare(op.Name, values, a.baseAddress())
		if err != nil {
			return err
		}

		config := benchmarker.Config{
			Iterations:  opts.iterations,
			Concurrency: opts.concurrency,
			WarmupRuns:  opts.warmup,
			RateLimit:   opts.rateLimit,
		}
		sender := transport.NewClient(transport.Config{
			Timeout:          a.cfg.Timeout,
			DisableKeepAlive: opts.noKeepAlive,
			MaxConnsPerHost:  opts.concurrency,
		})

		// Structured output to stdout stays machine readable
		out := cmd.OutOrStdout()
		quiet := format != "" && opts.outputFile == ""
		if quiet {
			out = io.Discard
		}

		printBenchConfig(out, op, desc.URL.String(), config, a.cfg.Timeout, !opts.noKeepAlive)

		bench := benchmarker.NewBenchmarker(config, sender)
		ctx := cmd.Context()
		result := bench.Run(ctx, op.Name, desc, benchProgress(out, op))

		if ctx.Err() != nil {
			fmt.Fprintln(out, "\nBenchmark interrupted, showing partial results...")
		}

		if format != "" {
			if opts.outputFile == "" {
				return output.WriteBenchmarkResult(cmd.OutOrStdout(), result, format)
			}
			if err := output.ExportBenchmarkResult(result, format, opts.outputFile); err != nil {
				return fmt.Errorf("failed to export results: %w", err)
			}
			fmt.Fprintf(out, "\nResults exported to: %s\n", opts.outputFile)
		}

		displayBenchmarkResult(out, result)
		return nil
	}
}

func printBenchConfig(w io.Writer, op models.Operation, url string, config benchmarker.Config, timeout time.Duration, keepAlive bool) {
	fmt.Fprintf(w, "\n%s\n", white("=== Benchmark Configuration ==="))
	fmt.Fprintf(w, "Operation:   %s (%s %s)\n", op.Name, op.Method, url)
	fmt.Fprintf(w, "Iterations:  %d\n", config.Iterations)
	fmt.Fprintf(w, "Concurrency: %d\n", config.Concurrency)
	fmt.Fprintf(w, "Warmup:      %d iterations\n", config.WarmupRuns)
	if config.RateLimit > 0 {
		fmt.Fprintf(w, "Rate Limit:  %.0f req/sec\n", config.RateLimit)
	}
	fmt.Fprintf(w, "Timeout:     %v\n", timeout)
	fmt.Fprintf(w, "Keep-Alive:  %v\n", keepAlive)
	fmt.Fprintln(w)
}

// benchProgress renders benchmark events, with a spinner on a terminal
func benchProgress(w io.Writer, op models.Operation) benchmarker.OnBenchmarkEvent {
	// Debug records on stderr would tear the spinner line
	tty := isTTY && w == io.Writer(os.Stdout) && !logger.IsVerbose()
	label := fmt.Sprintf("%s %s", op.Method, op.Path)

	var s *spinner.Spinner
	var phaseStartTime time.Time

	return func(event benchmarker.BenchmarkEvent) {
		switch event.Type {
		case benchmarker.EventWarmupStarting:
			phaseStartTime = time.Now()
			if tty {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
				s.Suffix = fmt.Sprintf(" %s - Warming up...", label)
				s.Start()
			} else {
				fmt.Fprintf(w, "%s - Warming up (%d iterations)...\n", label, event.MaxIter)
			}

		case benchmarker.EventWarmupCompleted:
			if s != nil {
				s.Stop()
			}
			elapsed := time.Since(phaseStartTime)
			fmt.Fprintf(w, "%s Warmup completed in %v\n", yellow("●"), elapsed.Round(time.Millisecond))

		case benchmarker.EventBenchmarkStarting:
			phaseStartTime = time.Now()
			if tty {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
				s.Suffix = fmt.Sprintf(" %s - Benchmarking 0/%d...", label, event.MaxIter)
				s.Start()
			} else {
				fmt.Fprintf(w, "%s - Running benchmark (%d iterations)...\n", label, event.MaxIter)
			}

		case benchmarker.EventBenchmarkProgress:
			if s != nil {
				avgMs := float64(event.RunningAvg.Microseconds()) / 1000
				s.Lock()
				s.Suffix = fmt.Sprintf(" %s - %d/%d (avg: %.1fms, %.1f req/s, %d errors)",
					label, event.Progress, event.MaxIter, avgMs, event.RunningReqSec, event.ErrorCount)
				s.Unlock()
			}

		case benchmarker.EventBenchmarkCompleted:
			if s != nil {
				s.Stop()
			}

			result := event.Result

			// Status indicator based on error rate
			var status string
			if result.ErrorRate == 0 {
				status = green("✓")
			} else if result.ErrorRate < 5 {
				status = yellow("●")
			} else {
				status = red("✗")
			}

			fmt.Fprintf(w, "%s %s completed in %v\n", status, label, time.Since(phaseStartTime).Round(time.Millisecond))
		}
	}
}

func displayBenchmarkResult(w io.Writer, result models.BenchmarkResult) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", white("=== Benchmark Summary ==="))
	fmt.Fprintf(w, "Requests:    %d/%d\n", result.Completed, result.Iterations)
	fmt.Fprintf(w, "Duration:    %v\n", result.TotalDuration.Round(time.Millisecond))
	fmt.Fprintf(w, "Throughput:  %s\n", cyan(fmt.Sprintf("%.1f req/sec", result.RequestsPerSec)))
	fmt.Fprintln(w)

	// Latency summary
	fmt.Fprintf(w, "%s\n", white("Latency:"))
	fmt.Fprintf(w, "  Min: %.2fms\n", ms(result.MinTime))
	fmt.Fprintf(w, "  Avg: %.2fms\n", ms(result.AvgTime))
	fmt.Fprintf(w, "  P50: %.2fms\n", ms(result.P50Time))
	fmt.Fprintf(w, "  P90: %.2fms\n", ms(result.P90Time))
	fmt.Fprintf(w, "  P99: %.2fms\n", ms(result.P99Time))
	fmt.Fprintf(w, "  Max: %.2fms\n", ms(result.MaxTime))
	fmt.Fprintln(w)

	if len(result.StatusCodes) > 0 {
		codes := make([]int, 0, len(result.StatusCodes))
		for code := range result.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)

		parts := make([]string, 0, len(codes))
		for _, code := range codes {
			part := fmt.Sprintf("%d:%d", code, result.StatusCodes[code])
			if code >= 400 {
				part = red(part)
			}
			parts = append(parts, part)
		}
		fmt.Fprintf(w, "Status codes: %s\n", strings.Join(parts, ", "))
	}

	// Error summary
	if result.ErrorCount > 0 {
		fmt.Fprintf(w, "%s\n", white("Errors:"))
		fmt.Fprintf(w, "  Total Errors: %s\n", red(result.ErrorCount))
		fmt.Fprintf(w, "  Error Rate:   %s\n", red(fmt.Sprintf("%.2f%%", result.ErrorRate)))
		for _, e := range result.SampleErrors {
			fmt.Fprintf(w, "    - %s\n", red(e))
		}
	} else {
		fmt.Fprintf(w, "Errors: %s\n", green("0"))
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/moamenhredeen/oasc/internal/models"
	"gopkg.in/yaml.v3"
)

// Format represents the output format type
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ExportOperations writes the operation catalog in the given format
func ExportOperations(ops []models.Operation, format Format, filePath string) error {
	w, closer, err := getWriter(filePath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	return WriteOperations(w, ops, format)
}

// WriteOperations writes the operation catalog to w
func WriteOperations(w io.Writer, ops []models.Operation, format Format) error {
	if ops == nil {
		ops = []models.Operation{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ops)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ops); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return exportOperationsCSV(w, ops)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// exportOperationsCSV writes one row per operation
func exportOperationsCSV(w io.Writer, ops []models.Operation) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"name", "method", "path", "summary", "tags", "parameters"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, op := range ops {
		params := make([]string, 0, len(op.Params))
		for _, p := range op.Params {
			entry := p.Name + ":" + p.Location.String()
			if p.Required {
				entry += "*"
			}
			params = append(params, entry)
		}

		row := []string{
			op.Name,
			string(op.Method),
			op.Path,
			op.Summary,
			strings.Join(op.Tags, ";"),
			strings.Join(params, ";"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportBenchmarkResult exports a benchmark result to the specified format
func ExportBenchmarkResult(result models.BenchmarkResult, format Format, filePath string) error {
	w, closer, err := getWriter(filePath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	return WriteBenchmarkResult(w, result, format)
}

// WriteBenchmarkResult writes a benchmark result to w
func WriteBenchmarkResult(w io.Writer, result models.BenchmarkResult, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatCSV:
		return exportBenchmarkCSV(w, result)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// getWriter returns an io.Writer for output (stdout or file)
func getWriter(filePath string) (io.Writer, io.Closer, error) {
	if filePath == "" {
		return os.Stdout, nil, nil
	}

	f, err := os.Create(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f, nil
}

// exportBenchmarkCSV exports benchmark results as CSV
func exportBenchmarkCSV(w io.Writer, r models.BenchmarkResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	// Write header
	header := []string{
		"operation", "method", "url", "iterations", "concurrency",
		"min_ms", "max_ms", "avg_ms", "p50_ms", "p90_ms", "p99_ms",
		"requests_per_sec", "success_count", "error_count", "error_rate",
		"status_codes",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := []string{
		r.Operation,
		r.Method,
		r.URL,
		strconv.Itoa(r.Iterations),
		strconv.Itoa(r.Concurrency),
		fmt.Sprintf("%.2f", float64(r.MinTime.Microseconds())/1000),
		fmt.Sprintf("%.2f", float64(r.MaxTime.Microseconds())/1000),
		fmt.Sprintf("%.2f", float64(r.AvgTime.Microseconds())/1000),
		fmt.Sprintf("%.2f", float64(r.P50Time.Microseconds())/1000),
		fmt.Sprintf("%.2f", float64(r.P90Time.Microseconds())/1000),
		fmt.Sprintf("%.2f", float64(r.P99Time.Microseconds())/1000),
		fmt.Sprintf("%.2f", r.RequestsPerSec),
		strconv.Itoa(r.SuccessCount),
		strconv.Itoa(r.ErrorCount),
		fmt.Sprintf("%.2f", r.ErrorRate),
		statusCodes(r.StatusCodes),
	}
	if err := cw.Write(row); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// statusCodes renders the distribution as "200=98;500=2", ordered by code
func statusCodes(codes map[int]int) string {
	keys := make([]int, 0, len(codes))
	for k := range codes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d=%d", k, codes[k]))
	}
	return strings.Join(parts, ";")
}

// ParseFormat parses a string into a Format, returning error if invalid
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid format '%s': must be 'json', 'csv' or 'yaml'", s)
	}
}

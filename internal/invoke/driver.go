// Package invoke drives one command invocation: it selects the operation,
// binds the supplied values, synthesizes the request, sends it and renders
// the JSON response.
package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/moamenhredeen/oasc/internal/binder"
	"github.com/moamenhredeen/oasc/internal/errs"
	"github.com/moamenhredeen/oasc/internal/logger"
	"github.com/moamenhredeen/oasc/internal/models"
	"github.com/moamenhredeen/oasc/internal/request"
	"github.com/moamenhredeen/oasc/internal/transport"
)

// FallbackServer is used when neither an override nor the document names a server
const FallbackServer = "http://localhost:3000"

// ResolveBaseAddress picks the operator override, then the first declared
// server, then the fallback
func ResolveBaseAddress(override string, declared []string) string {
	if override != "" {
		return override
	}
	for _, s := range declared {
		if s != "" {
			return s
		}
	}
	return FallbackServer
}

// Driver runs invocations against a read-only catalog. It holds no
// per-invocation state and is safe for concurrent use.
type Driver struct {
	operations []models.Operation
	builder    *request.RequestBuilder
	sender     transport.Sender
}

// NewDriver creates a driver over the given catalog
func NewDriver(operations []models.Operation, builder *request.RequestBuilder, sender transport.Sender) *Driver {
	return &Driver{
		operations: operations,
		builder:    builder,
		sender:     sender,
	}
}

// Find returns the operation with the given name
func (d *Driver) Find(name string) (models.Operation, bool) {
	for _, op := range d.operations {
		if op.Name == name {
			return op, true
		}
	}
	return models.Operation{}, false
}

// Prepare binds values and synthesizes the request for the named operation
func (d *Driver) Prepare(name string, values binder.Values, baseAddress string) (*request.Descriptor, error) {
	op, ok := d.Find(name)
	if !ok {
		return nil, errs.New(errs.CodeUnknownOperation, "unknown operation: %s", name)
	}

	bound, err := binder.Bind(op, values)
	if err != nil {
		return nil, err
	}
	logger.Debug("parameters bound", "operation", op.Name, "count", bound.Len())

	desc, err := d.builder.BuildRequest(op, bound, baseAddress)
	if err != nil {
		return nil, err
	}
	logger.Debug("request synthesized",
		"method", desc.Method,
		"url", desc.URL.String(),
		"credentials", desc.Header("Authorization") != "")
	return desc, nil
}

// Invoke runs the named operation and writes the pretty-printed JSON response to w
func (d *Driver) Invoke(ctx context.Context, name string, values binder.Values, baseAddress string, w io.Writer) error {
	desc, err := d.Prepare(name, values, baseAddress)
	if err != nil {
		return err
	}

	resp, err := d.sender.Send(ctx, desc)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		logger.Warn("server returned an error status", "operation", name, "status", resp.StatusCode)
	}

	return Render(w, resp.Body)
}

// Render re-serializes a JSON body with two-space indentation. An empty body
// renders nothing.
func Render(w io.Writer, body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return errs.Wrap(errs.CodeResponseDecode, err, "failed to decode response")
	}
	if _, err := dec.Token(); err != io.EOF {
		return errs.New(errs.CodeResponseDecode, "failed to decode response: trailing data after JSON value")
	}

	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errs.Wrap(errs.CodeResponseDecode, err, "failed to encode response")
	}

	if _, err := fmt.Fprintf(w, "%s\n", out); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

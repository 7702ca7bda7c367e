package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/moamenhredeen/oasc/internal/errs"
	"github.com/moamenhredeen/oasc/internal/logger"
	"github.com/moamenhredeen/oasc/internal/request"
)

// Response is the status and raw body of one exchange
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// Sender sends one request descriptor
type Sender interface {
	Send(ctx context.Context, d *request.Descriptor) (*Response, error)
}

// Config holds transport settings
type Config struct {
	Timeout          time.Duration // 0 means no timeout
	DisableKeepAlive bool
	MaxConnsPerHost  int
}

// Client sends request descriptors over net/http
type Client struct {
	client *http.Client
}

// NewClient creates a client with the given settings
func NewClient(config Config) *Client {
	maxIdle := config.MaxConnsPerHost
	if maxIdle <= 0 {
		maxIdle = 2
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DisableKeepAlives:   config.DisableKeepAlive,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: maxIdle,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Client{
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// Send executes d and reads the whole response body
func (c *Client) Send(ctx context.Context, d *request.Descriptor) (*Response, error) {
	req, err := d.NewHTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.CodeTransport, err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.CodeTransport, err, "failed to read response body")
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Duration:   time.Since(startTime),
	}
	logger.Debug("response received",
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", result.Duration.String())
	return result, nil
}

// String is used in diagnostics
func (r *Response) String() string {
	return fmt.Sprintf("%d (%d bytes)", r.StatusCode, len(r.Body))
}

package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/moamenhredeen/oasc/internal/binder"
	"github.com/moamenhredeen/oasc/internal/errs"
	"github.com/moamenhredeen/oasc/internal/logger"
	"github.com/moamenhredeen/oasc/internal/models"
	"golang.org/x/net/http/httpguts"
)

// Credentials are static tokens injected as an Authorization header.
// When both are set the bearer token wins.
type Credentials struct {
	Basic  string
	Bearer string
}

// Header is one header line of a Descriptor
type Header struct {
	Name  string
	Value string
}

// Descriptor is a fully resolved, send-ready request
type Descriptor struct {
	Method  models.Method
	URL     *url.URL
	Headers []Header
	Body    any
	HasBody bool
}

// Header returns the first value of the named header
func (d *Descriptor) Header(name string) string {
	for _, h := range d.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// setHeader replaces every existing value of name in place, or appends
func (d *Descriptor) setHeader(name, value string) {
	name = http.CanonicalHeaderKey(name)
	replaced := false
	kept := d.Headers[:0]
	for _, h := range d.Headers {
		if strings.EqualFold(h.Name, name) {
			if replaced {
				continue
			}
			h.Value = value
			replaced = true
		}
		kept = append(kept, h)
	}
	d.Headers = kept
	if !replaced {
		d.Headers = append(d.Headers, Header{Name: name, Value: value})
	}
}

// HTTPHeader converts the ordered headers into an http.Header
func (d *Descriptor) HTTPHeader() http.Header {
	h := make(http.Header, len(d.Headers))
	for _, hdr := range d.Headers {
		h.Add(hdr.Name, hdr.Value)
	}
	return h
}

// EncodeBody serializes the body as JSON; nil when the request carries none
func (d *Descriptor) EncodeBody() ([]byte, error) {
	if !d.HasBody {
		return nil, nil
	}
	data, err := json.Marshal(d.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return data, nil
}

// RequestBuilder synthesizes request descriptors from bound parameters
type RequestBuilder struct {
	credentials Credentials
	userAgent   string
}

// NewRequestBuilder creates a new request builder
func NewRequestBuilder(credentials Credentials, userAgent string) *RequestBuilder {
	if userAgent == "" {
		userAgent = "oasc/1.0"
	}
	return &RequestBuilder{
		credentials: credentials,
		userAgent:   userAgent,
	}
}

// BuildRequest resolves op against baseAddress using the bound values
func (rb *RequestBuilder) BuildRequest(op models.Operation, bound binder.Bound, baseAddress string) (*Descriptor, error) {
	u, err := url.Parse(baseAddress)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidBaseAddress, err, "invalid base address %q", baseAddress)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errs.New(errs.CodeInvalidBaseAddress, "invalid base address %q: must be an absolute URL", baseAddress)
	}
	logger.Debug("base url", "url", u.String())

	path := effectivePath(u, op.Path)
	logger.Debug("pre interpolation path", "path", path)

	// Decode once so placeholders are matched literally, then substitute
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidPath, err, "invalid path %q", path)
	}
	path = substitutePath(decoded, bound.Path)

	// The URL re-encodes the substituted path
	u.Path = path
	u.RawPath = ""

	if len(bound.Query) > 0 {
		q := u.Query()
		for _, b := range bound.Query {
			for _, v := range b.Values {
				q.Add(b.Param.Name, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	d := &Descriptor{URL: u}

	// Set default headers
	d.setHeader("Accept", "application/json")
	d.setHeader("User-Agent", rb.userAgent)

	// Add header parameters
	for _, b := range bound.Header {
		if err := validHeader(b.Param.Name, b.Value()); err != nil {
			return nil, err
		}
		d.setHeader(b.Param.Name, b.Value())
	}

	if bound.Body != nil {
		body, err := decodeBody(bound.Body.Value())
		if err != nil {
			return nil, err
		}
		d.Body = body
		d.HasBody = true
		d.setHeader("Content-Type", "application/json")
	}

	if err := rb.applyCredentials(d); err != nil {
		return nil, err
	}

	switch op.Method {
	case models.MethodGet, models.MethodPost, models.MethodPut, models.MethodDelete:
		d.Method = op.Method
	default:
		logger.Error("unsupported method", "method", string(op.Method))
		return nil, errs.UnsupportedMethod(string(op.Method))
	}

	logger.Debug("final url", "method", string(d.Method), "url", u.String())
	return d, nil
}

// effectivePath joins a relative operation path onto the base path; an
// absolute operation path replaces it
func effectivePath(base *url.URL, opPath string) string {
	if strings.HasPrefix(opPath, "/") {
		return opPath
	}
	return strings.TrimSuffix(base.EscapedPath(), "/") + "/" + opPath
}

// substitutePath replaces {name} tokens in a single left-to-right pass.
// Substituted text is never rescanned, so a value that itself looks like a
// placeholder, or a parameter whose name is a substring of another, cannot
// corrupt the result.
func substitutePath(path string, bindings []binder.Binding) string {
	values := make(map[string]string, len(bindings))
	for _, b := range bindings {
		values[b.Param.Name] = b.Value()
	}

	var sb strings.Builder
	sb.Grow(len(path))
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			sb.WriteString(path)
			break
		}
		end := strings.IndexByte(path[open:], '}')
		if end < 0 {
			sb.WriteString(path)
			break
		}
		end += open

		sb.WriteString(path[:open])
		name := path[open+1 : end]
		if v, ok := values[name]; ok && !strings.ContainsRune(name, '{') {
			sb.WriteString(v)
			path = path[end+1:]
			continue
		}
		// Not a bound token: keep the brace and keep scanning after it
		sb.WriteByte('{')
		path = path[open+1:]
	}
	return sb.String()
}

func validHeader(name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return errs.New(errs.CodeInvalidHeaderName, "invalid header name: %s", name).WithParam(name)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return errs.New(errs.CodeInvalidHeaderValue, "invalid header value: %s", name).WithParam(name)
	}
	return nil
}

func decodeBody(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, errs.Wrap(errs.CodeInvalidBody, err, "invalid request body").WithParam(models.BodyParameterName)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errs.New(errs.CodeInvalidBody, "invalid request body: trailing data after JSON value").
			WithParam(models.BodyParameterName)
	}
	return body, nil
}

// applyCredentials injects basic first and bearer second, so bearer wins
func (rb *RequestBuilder) applyCredentials(d *Descriptor) error {
	if rb.credentials.Basic != "" {
		v := "Basic " + rb.credentials.Basic
		if err := validHeader("Authorization", v); err != nil {
			return err
		}
		d.setHeader("Authorization", v)
	}
	if rb.credentials.Bearer != "" {
		v := "Bearer " + rb.credentials.Bearer
		if err := validHeader("Authorization", v); err != nil {
			return err
		}
		d.setHeader("Authorization", v)
	}
	return nil
}

// NewHTTPRequest builds the net/http request for d
func (d *Descriptor) NewHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if d.HasBody {
		data, err := d.EncodeBody()
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, string(d.Method), d.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = d.HTTPHeader()
	return req, nil
}

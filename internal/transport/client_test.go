package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/moamenhredeen/oasc/internal/errs"
	"github.com/moamenhredeen/oasc/internal/models"
	"github.com/moamenhredeen/oasc/internal/request"
)

func descriptor(t *testing.T, method models.Method, rawURL string) *request.Descriptor {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("Failed to parse URL: %v", err)
	}
	return &request.Descriptor{
		Method:  method,
		URL:     u,
		Headers: []request.Header{{Name: "Accept", Value: "application/json"}},
	}
}

func TestSendGET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" || r.URL.Path != "/pets" || r.URL.Query().Get("limit") != "2" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("Accept") != "application/json" {
			w.WriteHeader(http.StatusNotAcceptable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1}]`))
	}))
	defer server.Close()

	client := NewClient(Config{Timeout: 5 * time.Second})
	resp, err := client.Send(context.Background(), descriptor(t, models.MethodGet, server.URL+"/pets?limit=2"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != `[{"id":1}]` {
		t.Errorf("Unexpected body %s", resp.Body)
	}
}

func TestSendPOSTBody(t *testing.T) {
	var gotBody string
	var gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	d := descriptor(t, models.MethodPost, server.URL+"/pets")
	d.Body = map[string]any{"name": "rex"}
	d.HasBody = true
	d.Headers = append(d.Headers, request.Header{Name: "Content-Type", Value: "application/json"})

	resp, err := NewClient(Config{}).Send(context.Background(), d)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
	if gotBody != `{"name":"rex"}` {
		t.Errorf("Unexpected body on the wire: %s", gotBody)
	}
	if gotType != "application/json" {
		t.Errorf("Unexpected content type %q", gotType)
	}
}

func TestSendTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := NewClient(Config{Timeout: time.Second}).Send(context.Background(), descriptor(t, models.MethodGet, addr))
	if !errs.Is(err, errs.CodeTransport) {
		t.Errorf("Expected transport error, got %v", err)
	}
}

func TestSendTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := NewClient(Config{Timeout: 20 * time.Millisecond}).Send(context.Background(), descriptor(t, models.MethodGet, server.URL))
	if !errs.Is(err, errs.CodeTransport) {
		t.Errorf("Expected transport error on timeout, got %v", err)
	}
}

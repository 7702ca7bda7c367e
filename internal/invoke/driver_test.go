package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moamenhredeen/oasc/internal/binder"
	"github.com/moamenhredeen/oasc/internal/errs"
	"github.com/moamenhredeen/oasc/internal/logger"
	"github.com/moamenhredeen/oasc/internal/models"
	"github.com/moamenhredeen/oasc/internal/parser"
	"github.com/moamenhredeen/oasc/internal/request"
	"github.com/moamenhredeen/oasc/internal/transport"
)

// recordingSender captures the descriptor instead of sending it
type recordingSender struct {
	sent     []*request.Descriptor
	response *transport.Response
}

func (s *recordingSender) Send(ctx context.Context, d *request.Descriptor) (*transport.Response, error) {
	s.sent = append(s.sent, d)
	return s.response, nil
}

// createMockServer creates a mock HTTP server that implements the pet-store API
func createMockServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.Method {
		case "GET":
			if r.URL.Path == "/pets" {
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode([]map[string]any{
					{"id": 1, "name": "Fluffy"},
					{"id": 2, "name": "Spot"},
				})
			} else if r.URL.Path == "/pets/1" {
				json.NewEncoder(w).Encode(map[string]any{"id": 1, "name": "Fluffy", "tag": "cat"})
			} else {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
			}
		case "POST":
			data, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write(data)
		case "DELETE":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func newDriver(t *testing.T, sender transport.Sender) *Driver {
	t.Helper()
	p, err := parser.ParseFile("../../testdata/petstore.yaml")
	if err != nil {
		t.Fatalf("Failed to parse file: %v", err)
	}
	ops, err := p.GetOperations()
	if err != nil {
		t.Fatalf("Failed to get operations: %v", err)
	}
	return NewDriver(ops, request.NewRequestBuilder(request.Credentials{}, ""), sender)
}

func TestResolveBaseAddress(t *testing.T) {
	declared := []string{"http://petstore.swagger.io/v1"}

	if got := ResolveBaseAddress("http://override:8080", declared); got != "http://override:8080" {
		t.Errorf("Expected override to win, got %s", got)
	}
	if got := ResolveBaseAddress("", declared); got != "http://petstore.swagger.io/v1" {
		t.Errorf("Expected declared server, got %s", got)
	}
	if got := ResolveBaseAddress("", nil); got != FallbackServer {
		t.Errorf("Expected fallback, got %s", got)
	}
}

func TestInvokeUsesOverrideServer(t *testing.T) {
	sender := &recordingSender{response: &transport.Response{StatusCode: 200, Body: []byte(`[]`)}}
	d := newDriver(t, sender)

	base := ResolveBaseAddress("https://override.example.com/v9", []string{"http://petstore.swagger.io/v1"})
	var out bytes.Buffer
	if err := d.Invoke(context.Background(), "listPets", binder.Values{}, base, &out); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("Expected one request, got %d", len(sender.sent))
	}
	if got := sender.sent[0].URL.String(); got != "https://override.example.com/pets" {
		t.Errorf("Expected request against the override host, got %s", got)
	}
}

func TestInvokeFullFlow(t *testing.T) {
	server := createMockServer()
	defer server.Close()

	d := newDriver(t, transport.NewClient(transport.Config{}))

	// the absolute operation path /pets replaces the /v1 base path
	var out bytes.Buffer
	if err := d.Invoke(context.Background(), "listPets", binder.Values{}, server.URL+"/v1", &out); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	var pets []map[string]any
	if err := json.Unmarshal(out.Bytes(), &pets); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out.String())
	}
	if len(pets) != 2 {
		t.Errorf("Expected 2 pets, got %d", len(pets))
	}
	if !strings.HasPrefix(out.String(), "[\n  {\n    \"id\": 1,") {
		t.Errorf("Expected pretty-printed output, got %q", out.String())
	}
}

func TestInvokePathParameter(t *testing.T) {
	server := createMockServer()
	defer server.Close()

	d := newDriver(t, transport.NewClient(transport.Config{}))
	values := binder.Values{}
	values.Set("petId", "1")

	var out bytes.Buffer
	if err := d.Invoke(context.Background(), "showPetById", values, server.URL, &out); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	want := "{\n  \"id\": 1,\n  \"name\": \"Fluffy\",\n  \"tag\": \"cat\"\n}\n"
	if out.String() != want {
		t.Errorf("Expected pretty-printed pet, got %q", out.String())
	}
}

func TestInvokeErrorStatusStillRendersBody(t *testing.T) {
	server := createMockServer()
	defer server.Close()

	d := newDriver(t, transport.NewClient(transport.Config{}))
	values := binder.Values{}
	values.Set("petId", "404")

	var out bytes.Buffer
	if err := d.Invoke(context.Background(), "showPetById", values, server.URL, &out); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(out.String(), "not found") {
		t.Errorf("Expected error body to be printed, got %q", out.String())
	}
}

func TestInvokePOSTEchoesBody(t *testing.T) {
	server := createMockServer()
	defer server.Close()

	d := newDriver(t, transport.NewClient(transport.Config{}))
	values := binder.Values{}
	values.Set("body", `{"name":"Rex","age":3}`)

	var out bytes.Buffer
	if err := d.Invoke(context.Background(), "createPet", values, server.URL, &out); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	want := "{\n  \"age\": 3,\n  \"name\": \"Rex\"\n}\n"
	if out.String() != want {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestInvokeEmptyResponse(t *testing.T) {
	server := createMockServer()
	defer server.Close()

	d := newDriver(t, transport.NewClient(transport.Config{}))
	values := binder.Values{}
	values.Set("petId", "1")

	var out bytes.Buffer
	if err := d.Invoke(context.Background(), "deletePet", values, server.URL, &out); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output for an empty body, got %q", out.String())
	}
}

func TestInvokeMissingRequiredSendsNothing(t *testing.T) {
	sender := &recordingSender{response: &transport.Response{StatusCode: 200}}
	d := newDriver(t, sender)

	err := d.Invoke(context.Background(), "showPetById", binder.Values{}, "http://localhost", io.Discard)
	if !errs.Is(err, errs.CodeMissingRequiredParameter) {
		t.Fatalf("Expected missing_required_parameter, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("Expected no request to be sent")
	}
}

func TestInvokeInvalidBodySendsNothing(t *testing.T) {
	sender := &recordingSender{response: &transport.Response{StatusCode: 200}}
	d := newDriver(t, sender)

	values := binder.Values{}
	values.Set("body", "not json")

	err := d.Invoke(context.Background(), "createPet", values, "http://localhost", io.Discard)
	if !errs.Is(err, errs.CodeInvalidBody) {
		t.Fatalf("Expected invalid_body, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("Expected no request to be sent")
	}
}

func TestInvokeUnsupportedMethodSendsNothing(t *testing.T) {
	sender := &recordingSender{response: &transport.Response{StatusCode: 200}}
	d := NewDriver([]models.Operation{{Name: "patchPet", Method: models.Method("patch"), Path: "/pets"}},
		request.NewRequestBuilder(request.Credentials{}, ""), sender)

	err := d.Invoke(context.Background(), "patchPet", binder.Values{}, "http://localhost", io.Discard)
	if !errs.Is(err, errs.CodeUnsupportedMethod) {
		t.Fatalf("Expected unsupported_method, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("Expected no request to be sent")
	}
}

func TestInvokeUnknownOperation(t *testing.T) {
	d := newDriver(t, &recordingSender{})

	err := d.Invoke(context.Background(), "nope", binder.Values{}, "http://localhost", io.Discard)
	if !errs.Is(err, errs.CodeUnknownOperation) {
		t.Errorf("Expected unknown_operation, got %v", err)
	}
}

func TestRenderInvalidJSON(t *testing.T) {
	err := Render(io.Discard, []byte("<html>oops</html>"))
	if !errs.Is(err, errs.CodeResponseDecode) {
		t.Errorf("Expected response_decode, got %v", err)
	}
}

func TestRenderPreservesLargeNumbers(t *testing.T) {
	var out bytes.Buffer
	if err := Render(&out, []byte(`{"id":9007199254740993}`)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out.String() != "{\n  \"id\": 9007199254740993\n}\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestPrepareLogsSynthesizedRequest(t *testing.T) {
	var buf bytes.Buffer
	if err := logger.Init(&buf, "", true); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer logger.Close()

	p, err := parser.ParseFile("../../testdata/petstore.yaml")
	if err != nil {
		t.Fatalf("Failed to parse file: %v", err)
	}
	ops, err := p.GetOperations()
	if err != nil {
		t.Fatalf("Failed to get operations: %v", err)
	}
	d := NewDriver(ops, request.NewRequestBuilder(request.Credentials{Bearer: "secret"}, ""), &recordingSender{})

	desc, err := d.Prepare("showPetById", binder.Values{"petId": {"3"}}, "http://localhost:3000")
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if desc.Header("Authorization") != "Bearer secret" {
		t.Errorf("Expected bearer credentials, got %q", desc.Header("Authorization"))
	}

	out := buf.String()
	if !strings.Contains(out, "request synthesized") || !strings.Contains(out, "credentials=true") {
		t.Errorf("Expected debug record for the request, got %q", out)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("Credentials must not be logged, got %q", out)
	}
}

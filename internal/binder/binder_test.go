package binder

import (
	"testing"

	"github.com/moamenhredeen/oasc/internal/errs"
	"github.com/moamenhredeen/oasc/internal/models"
)

func testOperation() models.Operation {
	return models.Operation{
		Name:   "updatePet",
		Method: models.MethodPut,
		Path:   "/pets/{petId}",
		Params: []models.Parameter{
			{Name: "petId", Location: models.LocationPath, Required: true},
			{Name: "tag", Location: models.LocationQuery},
			{Name: "X-Trace", Location: models.LocationHeader},
			{Name: "body", Location: models.LocationBody, Kind: "json"},
		},
	}
}

func TestBindPartitionsByLocation(t *testing.T) {
	values := Values{}
	values.Set("petId", "42")
	values.Add("tag", "a")
	values.Add("tag", "b")
	values.Set("X-Trace", "abc")
	values.Set("body", `{"name":"rex"}`)

	bound, err := Bind(testOperation(), values)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if bound.Len() != 4 {
		t.Errorf("Expected 4 bindings, got %d", bound.Len())
	}
	if len(bound.Path) != 1 || bound.Path[0].Value() != "42" {
		t.Errorf("Unexpected path bindings: %+v", bound.Path)
	}
	if len(bound.Query) != 1 || len(bound.Query[0].Values) != 2 {
		t.Errorf("Expected both query values kept, got %+v", bound.Query)
	}
	if len(bound.Header) != 1 || bound.Header[0].Value() != "abc" {
		t.Errorf("Unexpected header bindings: %+v", bound.Header)
	}
	if bound.Body == nil || bound.Body.Value() != `{"name":"rex"}` {
		t.Errorf("Unexpected body binding: %+v", bound.Body)
	}
}

func TestBindOmitsAbsentOptional(t *testing.T) {
	values := Values{}
	values.Set("petId", "42")

	bound, err := Bind(testOperation(), values)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if bound.Len() != 1 {
		t.Errorf("Expected only the path binding, got %d", bound.Len())
	}
	if bound.Body != nil {
		t.Error("Expected no body binding")
	}
}

func TestBindMissingRequiredEveryLocation(t *testing.T) {
	for _, loc := range []models.Location{
		models.LocationPath,
		models.LocationQuery,
		models.LocationHeader,
		models.LocationBody,
	} {
		op := models.Operation{
			Name:   "op",
			Method: models.MethodPost,
			Path:   "/x",
			Params: []models.Parameter{
				{Name: "optional", Location: models.LocationQuery},
				{Name: "needed", Location: loc, Required: true},
			},
		}

		values := Values{}
		values.Set("optional", "1")

		_, err := Bind(op, values)
		if err == nil {
			t.Errorf("%s: expected missing required parameter error", loc)
			continue
		}
		if !errs.Is(err, errs.CodeMissingRequiredParameter) {
			t.Errorf("%s: expected missing_required_parameter, got %v", loc, err)
		}
		if errs.ParamOf(err) != "needed" {
			t.Errorf("%s: expected error for 'needed', got %q", loc, errs.ParamOf(err))
		}
	}
}

func TestBindEmptySliceCountsAsAbsent(t *testing.T) {
	_, err := Bind(testOperation(), Values{"petId": nil})
	if !errs.Is(err, errs.CodeMissingRequiredParameter) {
		t.Errorf("Expected missing_required_parameter, got %v", err)
	}
}

func TestBindRejectsRepeatedNonQuery(t *testing.T) {
	values := Values{}
	values.Add("petId", "1")
	values.Add("petId", "2")

	_, err := Bind(testOperation(), values)
	if !errs.Is(err, errs.CodeInvalidParameter) {
		t.Errorf("Expected invalid_parameter, got %v", err)
	}
}

func TestBindIgnoresUndeclared(t *testing.T) {
	values := Values{}
	values.Set("petId", "42")
	values.Set("unknown", "x")

	bound, err := Bind(testOperation(), values)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if bound.Len() != 1 {
		t.Errorf("Expected undeclared value to be ignored, got %d bindings", bound.Len())
	}
}

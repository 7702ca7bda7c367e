package parser

import (
	"fmt"
	"os"
	"regexp"

	"github.com/moamenhredeen/oasc/internal/errs"
	"github.com/moamenhredeen/oasc/internal/generator"
	"github.com/moamenhredeen/oasc/internal/logger"
	"github.com/moamenhredeen/oasc/internal/models"
	"github.com/pb33f/libopenapi"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

// Parser handles parsing OpenAPI specification files
type Parser struct {
	model *v3.Document
}

// ParseFile parses an OpenAPI specification file and returns a Parser instance
func ParseFile(filePath string) (*Parser, error) {
	specBytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errs.Wrap(errs.CodeDocumentParse, err, "failed to read OpenAPI file")
	}
	return Parse(specBytes)
}

// Parse parses an in-memory OpenAPI document (YAML or JSON)
func Parse(specBytes []byte) (*Parser, error) {
	document, err := libopenapi.NewDocument(specBytes)
	if err != nil {
		return nil, errs.Wrap(errs.CodeDocumentParse, err, "failed to parse OpenAPI document")
	}

	model, errList := document.BuildV3Model()
	if errList != nil {
		return nil, errs.New(errs.CodeDocumentParse, "failed to build v3 model: %v", errList)
	}
	if model == nil {
		return nil, errs.New(errs.CodeDocumentParse, "document is not an OpenAPI 3 document")
	}

	return &Parser{model: &model.Model}, nil
}

// GetServerURLs returns the server URLs declared by the document, in order
func (p *Parser) GetServerURLs() []string {
	urls := make([]string, 0, len(p.model.Servers))
	for _, server := range p.model.Servers {
		if server != nil && server.URL != "" {
			urls = append(urls, server.URL)
		}
	}
	return urls
}

// Title returns the document's info title, if any
func (p *Parser) Title() string {
	if p.model.Info == nil {
		return ""
	}
	return p.model.Info.Title
}

// GetOperations builds the operation catalog: one Operation per declared
// (path, method) pair for GET, POST, PUT and DELETE
func (p *Parser) GetOperations() ([]models.Operation, error) {
	var operations []models.Operation

	paths := p.model.Paths
	if paths == nil || paths.PathItems == nil {
		return operations, nil
	}

	names := make(map[string]string)

	// Iterate over ordered map
	for pair := paths.PathItems.First(); pair != nil; pair = pair.Next() {
		path := pair.Key()
		item := pair.Value()
		if item == nil {
			continue
		}

		for _, method := range models.SupportedMethods {
			op := operationFor(item, method)
			if op == nil {
				continue
			}

			operation, err := buildOperation(path, method, item, op)
			if err != nil {
				return nil, err
			}

			if prev, exists := names[operation.Name]; exists {
				return nil, errs.New(errs.CodeDocumentParse,
					"duplicate operation name %q (%s and %s %s)", operation.Name, prev, method, path)
			}
			names[operation.Name] = fmt.Sprintf("%s %s", method, path)

			operations = append(operations, operation)
		}
	}

	return operations, nil
}

func operationFor(item *v3.PathItem, method models.Method) *v3.Operation {
	switch method {
	case models.MethodGet:
		return item.Get
	case models.MethodPost:
		return item.Post
	case models.MethodPut:
		return item.Put
	case models.MethodDelete:
		return item.Delete
	default:
		return nil
	}
}

func buildOperation(path string, method models.Method, item *v3.PathItem, op *v3.Operation) (models.Operation, error) {
	name := op.OperationId
	if name == "" {
		name = models.OperationName(method, path)
	}

	params, err := parseParams(name, mergeParams(item.Parameters, op.Parameters))
	if err != nil {
		return models.Operation{}, err
	}

	// Handle request body if present
	var bodyExample string
	if op.RequestBody != nil {
		if _, taken := findParam(params, models.BodyParameterName); taken {
			return models.Operation{}, errs.New(errs.CodeDuplicateParameter,
				"operation %s: parameter %q collides with the request body", name, models.BodyParameterName).
				WithParam(models.BodyParameterName)
		}
		params = append(params, models.Parameter{
			Name:     models.BodyParameterName,
			Location: models.LocationBody,
			Required: boolValue(op.RequestBody.Required),
			Kind:     "json",
		})
		sample, ok := generator.NewGenerator().SampleRequestBody(op.RequestBody)
		if ok {
			bodyExample = sample
		} else {
			logger.Debug("request body has no JSON sample", "operation", name)
		}
	}

	checkPlaceholders(name, path, params)

	var tags []string
	if op.Tags != nil {
		tags = append(tags, op.Tags...)
	}

	return models.Operation{
		Name:        name,
		Method:      method,
		Path:        path,
		Summary:     op.Summary,
		Tags:        tags,
		Params:      params,
		BodyExample: bodyExample,
	}, nil
}

// mergeParams applies operation-level parameters over path-level ones; a pair
// is overridden when both name and location match
func mergeParams(pathLevel, opLevel []*v3.Parameter) []*v3.Parameter {
	merged := make([]*v3.Parameter, 0, len(pathLevel)+len(opLevel))
	for _, pp := range pathLevel {
		if pp == nil {
			continue
		}
		overridden := false
		for _, op := range opLevel {
			if op != nil && op.Name == pp.Name && op.In == pp.In {
				overridden = true
				break
			}
		}
		if !overridden {
			merged = append(merged, pp)
		}
	}
	for _, op := range opLevel {
		if op != nil {
			merged = append(merged, op)
		}
	}
	return merged
}

func parseParams(opName string, declared []*v3.Parameter) ([]models.Parameter, error) {
	params := make([]models.Parameter, 0, len(declared))
	for _, param := range declared {
		var location models.Location
		switch param.In {
		case "query":
			location = models.LocationQuery
		case "path":
			location = models.LocationPath
		case "header":
			location = models.LocationHeader
		default:
			return nil, errs.New(errs.CodeUnsupportedParameterLocation,
				"operation %s: parameter %q has unsupported location %q", opName, param.Name, param.In).
				WithParam(param.Name)
		}

		if prev, taken := findParam(params, param.Name); taken {
			return nil, errs.New(errs.CodeDuplicateParameter,
				"operation %s: parameter %q declared in both %s and %s", opName, param.Name, prev.Location, location).
				WithParam(param.Name)
		}

		params = append(params, models.Parameter{
			Name:     param.Name,
			Location: location,
			Required: boolValue(param.Required),
			Kind:     schemaKind(param),
		})
	}
	return params, nil
}

// schemaKind returns the declared type hint; values are passed through as text
func schemaKind(param *v3.Parameter) string {
	if param.Schema == nil {
		return "string"
	}
	schema := param.Schema.Schema()
	if schema == nil || len(schema.Type) == 0 {
		return "string"
	}
	return schema.Type[0]
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// checkPlaceholders warns when path parameters and {name} placeholders disagree
func checkPlaceholders(opName, path string, params []models.Parameter) {
	placeholders := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(path, -1) {
		placeholders[m[1]] = true
	}
	for _, p := range params {
		if p.Location != models.LocationPath {
			continue
		}
		if !placeholders[p.Name] {
			logger.Warn("path parameter has no placeholder", "operation", opName, "param", p.Name, "path", path)
		}
		delete(placeholders, p.Name)
	}
	for name := range placeholders {
		logger.Warn("placeholder has no path parameter", "operation", opName, "placeholder", name, "path", path)
	}
}

func findParam(params []models.Parameter, name string) (models.Parameter, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}
	return models.Parameter{}, false
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

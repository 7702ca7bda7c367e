// Package generator derives sample JSON request bodies from OpenAPI schemas.
// Samples are deterministic so help text and listings are stable.
package generator

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

// maxDepth bounds recursion through self-referencing schemas
const maxDepth = 6

// Generator builds sample values from schemas
type Generator struct {
	// RequiredOnly skips optional object properties
	RequiredOnly bool
}

// NewGenerator creates a new generator instance
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateValue builds a sample value for schema
func (g *Generator) GenerateValue(schema *base.Schema) any {
	return g.value(schema, 0)
}

func (g *Generator) value(schema *base.Schema, depth int) any {
	if schema == nil || depth > maxDepth {
		return nil
	}

	// Check for example value first
	if v, ok := decodeNode(schema.Example); ok {
		return v
	}
	for _, ex := range schema.Examples {
		if v, ok := decodeNode(ex); ok {
			return v
		}
	}

	// Check for default value
	if v, ok := decodeNode(schema.Default); ok {
		return v
	}

	// Check enum
	for _, e := range schema.Enum {
		if v, ok := decodeNode(e); ok {
			return v
		}
	}

	// Composition: the first alternative is representative
	if len(schema.AllOf) > 0 {
		return g.mergeAllOf(schema.AllOf, depth)
	}
	if len(schema.OneOf) > 0 {
		return g.value(resolve(schema.OneOf[0]), depth+1)
	}
	if len(schema.AnyOf) > 0 {
		return g.value(resolve(schema.AnyOf[0]), depth+1)
	}

	switch schemaType(schema) {
	case "string":
		return g.generateString(schema)
	case "integer":
		return g.generateInteger(schema)
	case "number":
		return g.generateNumber(schema)
	case "boolean":
		return true
	case "array":
		return g.generateArray(schema, depth)
	case "object":
		return g.generateObject(schema, depth)
	}

	// If no type specified, try to infer from the shape
	if schema.Properties != nil && schema.Properties.Len() > 0 {
		return g.generateObject(schema, depth)
	}
	if schema.Format != "" {
		return generateFromFormat(schema.Format)
	}
	return "string"
}

// schemaType returns the first non-null declared type
func schemaType(schema *base.Schema) string {
	for _, t := range schema.Type {
		if t != "null" {
			return t
		}
	}
	return ""
}

func (g *Generator) generateString(schema *base.Schema) string {
	if schema.Format != "" {
		if s, ok := generateFromFormat(schema.Format).(string); ok {
			return s
		}
	}

	if schema.MinLength != nil && *schema.MinLength > int64(len("string")) {
		return strings.Repeat("a", int(*schema.MinLength))
	}
	return "string"
}

func (g *Generator) generateInteger(schema *base.Schema) int64 {
	if schema.Minimum != nil {
		return int64(*schema.Minimum)
	}
	if schema.Maximum != nil && *schema.Maximum < 0 {
		return int64(*schema.Maximum)
	}
	return 0
}

func (g *Generator) generateNumber(schema *base.Schema) float64 {
	if schema.Minimum != nil {
		return *schema.Minimum
	}
	if schema.Maximum != nil && *schema.Maximum < 0 {
		return *schema.Maximum
	}
	return 0
}

func (g *Generator) generateArray(schema *base.Schema, depth int) []any {
	count := 1
	if schema.MinItems != nil && *schema.MinItems > 1 {
		count = int(*schema.MinItems)
	}

	var item *base.Schema
	if schema.Items != nil && schema.Items.IsA() {
		item = resolve(schema.Items.A)
	}

	result := make([]any, count)
	for i := range result {
		if item != nil {
			result[i] = g.value(item, depth+1)
		} else {
			result[i] = "string"
		}
	}
	return result
}

func (g *Generator) generateObject(schema *base.Schema, depth int) map[string]any {
	result := make(map[string]any)
	if schema.Properties == nil {
		return result
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	for pair := schema.Properties.First(); pair != nil; pair = pair.Next() {
		name := pair.Key()
		if g.RequiredOnly && !required[name] {
			continue
		}
		prop := resolve(pair.Value())
		if prop == nil {
			continue
		}
		result[name] = g.value(prop, depth+1)
	}
	return result
}

// mergeAllOf combines the object samples of every allOf member
func (g *Generator) mergeAllOf(members []*base.SchemaProxy, depth int) any {
	merged := make(map[string]any)
	var last any
	for _, member := range members {
		v := g.value(resolve(member), depth+1)
		obj, ok := v.(map[string]any)
		if !ok {
			last = v
			continue
		}
		for k, val := range obj {
			merged[k] = val
		}
	}
	if len(merged) == 0 && last != nil {
		return last
	}
	return merged
}

// generateFromFormat generates a value based on format
func generateFromFormat(format string) any {
	switch format {
	case "date":
		return "2024-01-01"
	case "date-time":
		return "2024-01-01T00:00:00Z"
	case "time":
		return "00:00:00"
	case "email":
		return "user@example.com"
	case "uri", "url":
		return "https://example.com"
	case "hostname":
		return "example.com"
	case "ipv4":
		return "192.0.2.1"
	case "ipv6":
		return "2001:db8::1"
	case "uuid":
		return "123e4567-e89b-12d3-a456-426614174000"
	case "byte":
		return "U3dhZ2dlcg=="
	case "int32", "int64":
		return 0
	case "float", "double":
		return 0.0
	default:
		return "string"
	}
}

// SampleRequestBody renders a compact JSON sample for the JSON content of rb.
// It returns false when the body declares no JSON schema.
func (g *Generator) SampleRequestBody(rb *v3.RequestBody) (string, bool) {
	if rb == nil || rb.Content == nil {
		return "", false
	}

	var schema *base.Schema
	for pair := rb.Content.First(); pair != nil; pair = pair.Next() {
		if !strings.Contains(pair.Key(), "json") || pair.Value() == nil {
			continue
		}
		if v, ok := decodeNode(pair.Value().Example); ok {
			return marshal(v)
		}
		schema = resolve(pair.Value().Schema)
		break
	}
	if schema == nil {
		return "", false
	}

	return marshal(g.GenerateValue(schema))
}

func marshal(v any) (string, bool) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// resolve returns the schema behind proxy; libopenapi resolves $ref lazily
func resolve(proxy *base.SchemaProxy) *base.Schema {
	if proxy == nil {
		return nil
	}
	return proxy.Schema()
}

// decodeNode converts a YAML example into a JSON-compatible value
func decodeNode(node interface{ Decode(any) error }) (any, bool) {
	if node == nil || reflect.ValueOf(node).IsNil() {
		return nil, false
	}
	var v any
	if err := node.Decode(&v); err != nil || v == nil {
		return nil, false
	}
	return normalize(v), true
}

// normalize turns YAML map[any]any nests into JSON-encodable map[string]any
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[toString(k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}

func toString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	out, _ := json.Marshal(k)
	return string(out)
}

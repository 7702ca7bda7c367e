package models

import (
	"fmt"
	"strings"
)

// Method is the HTTP verb of an operation
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// SupportedMethods lists the verbs an operation can be derived for, in catalog order
var SupportedMethods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete}

// ParseMethod maps a case-insensitive verb onto a supported Method
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToUpper(s))
	for _, supported := range SupportedMethods {
		if m == supported {
			return m, true
		}
	}
	return Method(s), false
}

// Location is where a parameter value is placed on the wire
type Location int

const (
	LocationQuery Location = iota
	LocationPath
	LocationHeader
	LocationBody
)

// String returns the OpenAPI "in" spelling of the location
func (l Location) String() string {
	switch l {
	case LocationQuery:
		return "query"
	case LocationPath:
		return "path"
	case LocationHeader:
		return "header"
	case LocationBody:
		return "body"
	default:
		return fmt.Sprintf("location(%d)", int(l))
	}
}

// MarshalText lets exports render the location by name
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// BodyParameterName is the name of the synthesized request body parameter
const BodyParameterName = "body"

// Parameter is one declared input of an operation
type Parameter struct {
	Name     string   `json:"name" yaml:"name"`
	Location Location `json:"location" yaml:"location"`
	Required bool     `json:"required" yaml:"required"`
	Kind     string   `json:"kind" yaml:"kind"`
}

// Operation is one documented (method, path) pair with its parameter contract
type Operation struct {
	Name    string      `json:"name" yaml:"name"`
	Method  Method      `json:"method" yaml:"method"`
	Path    string      `json:"path" yaml:"path"`
	Summary string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Tags    []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
	Params  []Parameter `json:"params" yaml:"params"`

	// BodyExample is a sample JSON body derived from the request schema
	BodyExample string `json:"body_example,omitempty" yaml:"body_example,omitempty"`
}

// Param returns the declared parameter with the given name
func (o Operation) Param(name string) (Parameter, bool) {
	for _, p := range o.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// OperationName synthesizes a command name from method and path when the
// document does not carry an operationId
func OperationName(method Method, path string) string {
	return strings.ToLower(string(method)) + "_" + strings.ReplaceAll(path, "/", "_")
}

// Package binder matches caller-supplied values against an operation's
// declared parameters.
package binder

import (
	"github.com/moamenhredeen/oasc/internal/errs"
	"github.com/moamenhredeen/oasc/internal/models"
)

// Values maps a parameter name to the values supplied for it. Only query
// parameters may carry more than one value.
type Values map[string][]string

// Set replaces the values for name with a single value
func (v Values) Set(name, value string) {
	v[name] = []string{value}
}

// Add appends a value for name
func (v Values) Add(name, value string) {
	v[name] = append(v[name], value)
}

// Binding is one supplied parameter together with its value(s)
type Binding struct {
	Param  models.Parameter
	Values []string
}

// Value returns the single value of a non-query binding
func (b Binding) Value() string {
	if len(b.Values) == 0 {
		return ""
	}
	return b.Values[0]
}

// Bound is the result of binding: supplied parameters partitioned by location,
// each partition in declaration order
type Bound struct {
	Path   []Binding
	Query  []Binding
	Header []Binding
	Body   *Binding
}

// Len returns the number of bound parameters
func (b Bound) Len() int {
	n := len(b.Path) + len(b.Query) + len(b.Header)
	if b.Body != nil {
		n++
	}
	return n
}

// Bind looks up a value for every declared parameter of op. A required
// parameter without a value fails immediately; optional parameters without a
// value are omitted.
func Bind(op models.Operation, supplied Values) (Bound, error) {
	var bound Bound

	for _, param := range op.Params {
		values, ok := supplied[param.Name]
		if !ok || len(values) == 0 {
			if param.Required {
				return Bound{}, errs.MissingRequiredParameter(param.Name)
			}
			continue
		}

		if param.Location != models.LocationQuery && len(values) > 1 {
			return Bound{}, errs.New(errs.CodeInvalidParameter,
				"parameter '%s' accepts a single value, got %d", param.Name, len(values)).WithParam(param.Name)
		}

		b := Binding{Param: param, Values: append([]string(nil), values...)}
		switch param.Location {
		case models.LocationPath:
			bound.Path = append(bound.Path, b)
		case models.LocationQuery:
			bound.Query = append(bound.Query, b)
		case models.LocationHeader:
			bound.Header = append(bound.Header, b)
		case models.LocationBody:
			bound.Body = &b
		default:
			return Bound{}, errs.New(errs.CodeUnsupportedParameterLocation,
				"parameter '%s' has unsupported location %s", param.Name, param.Location).WithParam(param.Name)
		}
	}

	return bound, nil
}

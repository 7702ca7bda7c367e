// Package errs defines the error taxonomy shared by the catalog, binder,
// synthesizer and driver.
package errs

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error kind.
type Code string

const (
	CodeDocumentParse                Code = "document_parse"
	CodeMissingRequiredParameter     Code = "missing_required_parameter"
	CodeInvalidParameter             Code = "invalid_parameter"
	CodeDuplicateParameter           Code = "duplicate_parameter"
	CodeUnsupportedParameterLocation Code = "unsupported_parameter_location"
	CodeUnsupportedMethod            Code = "unsupported_method"
	CodeInvalidBaseAddress           Code = "invalid_base_address"
	CodeInvalidPath                  Code = "invalid_path"
	CodeInvalidHeaderName            Code = "invalid_header_name"
	CodeInvalidHeaderValue           Code = "invalid_header_value"
	CodeInvalidBody                  Code = "invalid_body"
	CodeTransport                    Code = "transport"
	CodeResponseDecode               Code = "response_decode"
	CodeUnknownOperation             Code = "unknown_operation"
	CodeInvalidConfig                Code = "invalid_config"
	CodePermissionDenied             Code = "permission_denied"
)

// Error carries a code, the offending parameter (if any) and the cause.
type Error struct {
	Code    Code
	Param   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code, so callers can
// write errors.Is(err, errs.New(errs.CodeInvalidBody, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates an error with the given code.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error with the given code around a cause.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithParam returns a copy of e attributed to the named parameter.
func (e *Error) WithParam(name string) *Error {
	c := *e
	c.Param = name
	return &c
}

// CodeOf extracts the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// ParamOf extracts the parameter name of the first *Error in err's chain.
func ParamOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Param
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// MissingRequiredParameter reports a required parameter without a value.
func MissingRequiredParameter(name string) *Error {
	return New(CodeMissingRequiredParameter, "missing required parameter: '%s'", name).WithParam(name)
}

// UnsupportedMethod reports a method outside GET, POST, PUT and DELETE.
func UnsupportedMethod(method string) *Error {
	return New(CodeUnsupportedMethod, "unsupported http method: '%s'", method)
}

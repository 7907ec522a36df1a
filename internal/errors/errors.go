// Package errors defines the error vocabulary shared by the handlers,
// services, and repositories. Every failure that crosses a package
// boundary is expressed as an *Error carrying a stable code, so HTTP
// status mapping and caller-vs-system classification happen in exactly
// one place.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a failure class. Codes are part of the API response
// contract and must stay stable once clients depend on them.
type Code string

const (
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeSignatureInvalid Code = "SIGNATURE_INVALID"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeMissingField     Code = "MISSING_FIELD"
	CodeInvalidFormat    Code = "INVALID_FORMAT"
	CodePayloadMalformed Code = "PAYLOAD_MALFORMED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeConflict         Code = "CONFLICT"
	CodeDatabase         Code = "DATABASE_ERROR"
	CodeConfig           Code = "CONFIG_ERROR"
	CodeInternal         Code = "INTERNAL_ERROR"
)

// Kind separates errors the caller can fix from errors only an operator
// can fix.
type Kind int

const (
	KindUnknown Kind = iota
	KindUser
	KindSystem
)

// codeTable is the single registry a code's classification and HTTP
// status come from. Codes missing from the table fall back to an
// internal server error.
var codeTable = map[Code]struct {
	kind   Kind
	status int
}{
	CodeUnauthorized:     {KindUser, http.StatusUnauthorized},
	CodeSignatureInvalid: {KindUser, http.StatusUnauthorized},
	CodeValidation:       {KindUser, http.StatusBadRequest},
	CodeMissingField:     {KindUser, http.StatusBadRequest},
	CodeInvalidFormat:    {KindUser, http.StatusBadRequest},
	CodePayloadMalformed: {KindUser, http.StatusBadRequest},
	CodeNotFound:         {KindUser, http.StatusNotFound},
	CodeConflict:         {KindUser, http.StatusConflict},
	CodeDatabase:         {KindSystem, http.StatusInternalServerError},
	CodeConfig:           {KindSystem, http.StatusInternalServerError},
	CodeInternal:         {KindSystem, http.StatusInternalServerError},
}

// Error is the application error type. Code and Message are exposed to
// API clients; Kind, Op, and Err stay server-side.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Kind    Kind   `json:"-"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two application errors by code, so errors.Is against a
// sentinel works regardless of message or wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// HTTPStatus returns the response status for this error's code.
func (e *Error) HTTPStatus() int {
	if info, ok := codeTable[e.Code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// IsUserError reports whether the caller caused this error.
func (e *Error) IsUserError() bool { return e.Kind == KindUser }

// ErrorResponse is the JSON envelope API errors are rendered with.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the client-visible part of an Error.
type ErrorDetail struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// ToResponse strips an Error to the fields safe to return to clients.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: e.Code, Message: e.Message}}
}

// New builds an Error with the kind the code registry prescribes.
func New(code Code, message string) *Error {
	kind := KindSystem
	if info, ok := codeTable[code]; ok {
		kind = info.kind
	}
	return &Error{Code: code, Message: message, Kind: kind}
}

func newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Sentinels for failures produced in one package and matched in another.
var (
	// ErrUnauthorized means the request carried no usable credentials.
	ErrUnauthorized = New(CodeUnauthorized, "authentication required")

	// ErrSignatureInvalid means webhook signature verification failed.
	ErrSignatureInvalid = New(CodeSignatureInvalid, "invalid webhook signature")
)

// NotFound reports that the named resource does not exist.
func NotFound(resource string) *Error {
	return newf(CodeNotFound, "%s not found", resource)
}

// ValidationFailed reports input that parsed but failed a business rule.
func ValidationFailed(message string) *Error {
	return New(CodeValidation, message)
}

// MissingField reports a required field that was absent.
func MissingField(field string) *Error {
	return newf(CodeMissingField, "missing required field: %s", field)
}

// InvalidFormat reports a field whose value does not match the expected shape.
func InvalidFormat(field, expected string) *Error {
	return newf(CodeInvalidFormat, "invalid format for %s: expected %s", field, expected)
}

// PayloadMalformed reports a webhook body that could not be decoded.
func PayloadMalformed(err error) *Error {
	e := New(CodePayloadMalformed, "malformed webhook payload")
	e.Err = err
	return e
}

// DatabaseError wraps a storage failure with the operation that hit it.
func DatabaseError(op string, err error) *Error {
	e := New(CodeDatabase, "database operation failed")
	e.Op = op
	e.Err = err
	return e
}

// ConfigError reports missing or contradictory server configuration.
func ConfigError(message string) *Error {
	return New(CodeConfig, message)
}

// Conflict reports a uniqueness violation on the named resource.
func Conflict(resource string, err error) *Error {
	e := newf(CodeConflict, "%s already exists", resource)
	e.Err = err
	return e
}

// InternalError wraps an unexpected failure nothing more specific fits.
func InternalError(message string, err error) *Error {
	e := New(CodeInternal, message)
	e.Err = err
	return e
}

// GetHTTPStatus maps any error to a response status. Errors outside
// this package's vocabulary become a 500.
func GetHTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err carries the not-found code.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeNotFound
}

// IsConflict reports whether err carries the conflict code.
func IsConflict(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeConflict
}

// IsUserError reports whether the caller caused err.
func IsUserError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.IsUserError()
}

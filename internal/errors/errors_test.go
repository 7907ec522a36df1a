package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestError_MessageComposition(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  New(CodeValidation, "status is invalid"),
			want: "status is invalid",
		},
		{
			name: "op prefixes message",
			err:  DatabaseError("leads.Create", cause),
			want: "leads.Create: database operation failed: connection refused",
		},
		{
			name: "cause without op",
			err:  PayloadMalformed(cause),
			want: "malformed webhook payload: connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Conflict("customer", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the wrapped cause")
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("verify: %w", ErrSignatureInvalid)

	if !errors.Is(wrapped, ErrSignatureInvalid) {
		t.Error("wrapped sentinel should match by code")
	}
	if errors.Is(wrapped, ErrUnauthorized) {
		t.Error("different codes must not match")
	}
	if errors.Is(wrapped, errors.New("invalid webhook signature")) {
		t.Error("plain errors must not match an application error")
	}
}

func TestHTTPStatusByCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeSignatureInvalid, http.StatusUnauthorized},
		{CodeValidation, http.StatusBadRequest},
		{CodeMissingField, http.StatusBadRequest},
		{CodeInvalidFormat, http.StatusBadRequest},
		{CodePayloadMalformed, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeDatabase, http.StatusInternalServerError},
		{CodeConfig, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code, "x").HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNew_UnknownCodeIsSystemKind(t *testing.T) {
	err := New(Code("SOMETHING_NEW"), "x")
	if err.Kind != KindSystem {
		t.Errorf("Kind = %v, want KindSystem", err.Kind)
	}
	if err.IsUserError() {
		t.Error("unknown codes must not be treated as caller mistakes")
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      *Error
		wantCode Code
		wantKind Kind
		wantMsg  string
	}{
		{"NotFound", NotFound("lead"), CodeNotFound, KindUser, "lead not found"},
		{"ValidationFailed", ValidationFailed("bad status"), CodeValidation, KindUser, "bad status"},
		{"MissingField", MissingField("call_id"), CodeMissingField, KindUser, "missing required field: call_id"},
		{"InvalidFormat", InvalidFormat("phone", "E.164"), CodeInvalidFormat, KindUser, "invalid format for phone: expected E.164"},
		{"PayloadMalformed", PayloadMalformed(cause), CodePayloadMalformed, KindUser, "malformed webhook payload"},
		{"DatabaseError", DatabaseError("tickets.Get", cause), CodeDatabase, KindSystem, "database operation failed"},
		{"ConfigError", ConfigError("DATABASE_URL is required"), CodeConfig, KindSystem, "DATABASE_URL is required"},
		{"Conflict", Conflict("agent", cause), CodeConflict, KindUser, "agent already exists"},
		{"InternalError", InternalError("unexpected state", cause), CodeInternal, KindSystem, "unexpected state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.wantKind)
			}
			if tt.err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.wantMsg)
			}
		})
	}
}

func TestToResponse_OmitsServerDetail(t *testing.T) {
	err := DatabaseError("leads.List", errors.New("pq: relation does not exist"))
	resp := err.ToResponse()

	if resp.Error.Code != CodeDatabase {
		t.Errorf("Code = %s, want %s", resp.Error.Code, CodeDatabase)
	}
	if strings.Contains(resp.Error.Message, "pq:") {
		t.Errorf("response leaked the underlying cause: %q", resp.Error.Message)
	}
	if strings.Contains(resp.Error.Message, "leads.List") {
		t.Errorf("response leaked the operation name: %q", resp.Error.Message)
	}
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"application error", NotFound("ticket"), http.StatusNotFound},
		{"wrapped application error", fmt.Errorf("get: %w", NotFound("ticket")), http.StatusNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"nil", nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetHTTPStatus(tt.err); got != tt.want {
				t.Errorf("GetHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		pred func(error) bool
		yes  error
		no   error
	}{
		{"IsNotFound", IsNotFound, NotFound("lead"), Conflict("lead", nil)},
		{"IsConflict", IsConflict, Conflict("customer", nil), NotFound("customer")},
		{"IsUserError", IsUserError, ValidationFailed("bad"), DatabaseError("op", errors.New("x"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.pred(tt.yes) {
				t.Errorf("%s(%v) = false, want true", tt.name, tt.yes)
			}
			if !tt.pred(fmt.Errorf("wrap: %w", tt.yes)) {
				t.Errorf("%s should see through wrapping", tt.name)
			}
			if tt.pred(tt.no) {
				t.Errorf("%s(%v) = true, want false", tt.name, tt.no)
			}
			if tt.pred(errors.New("plain")) {
				t.Errorf("%s should reject plain errors", tt.name)
			}
		})
	}
}

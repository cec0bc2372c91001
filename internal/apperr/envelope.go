package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Envelope is the JSON body of every failed backend response.
type Envelope struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Field   string            `json:"field,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ToEnvelope returns the status and body the backend answers err with.
// Unclassified errors become a 500 without leaking their text.
func ToEnvelope(err error) (int, Envelope) {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindUnknown {
		return http.StatusInternalServerError, Envelope{
			Error:   KindServer.String(),
			Message: "internal server error",
			Code:    CodeInternal,
		}
	}
	status := e.Status
	if status == 0 {
		status = StatusOf(e.Kind)
	}
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(http.StatusText(status))
	}
	code := e.Code
	if code == "" && e.Kind == KindServer {
		code = CodeInternal
	}
	return status, Envelope{Error: e.Kind.String(), Message: msg, Code: code, Field: e.Field}
}

// FromEnvelope rebuilds a classified error from a failed response. A body
// that did not decode still yields a kind from the status alone.
func FromEnvelope(op string, status int, env Envelope) *Error {
	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{
		Kind:    FromStatus(status, env.Code),
		Op:      op,
		Status:  status,
		Code:    env.Code,
		Message: msg,
		Field:   env.Field,
	}
}

// Package apperr classifies failures so every layer of the console can
// decide how to recover without matching on error strings.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the recovery class of an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindTwoFactorRequired
	KindForbidden
	KindNetwork
	KindValidation
	KindNotFound
	KindConflict
	KindMissingContext
	KindServer
	KindCanceled
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindAuthentication:    "authentication",
	KindTwoFactorRequired: "two_factor_required",
	KindForbidden:         "forbidden",
	KindNetwork:           "network",
	KindValidation:        "validation",
	KindNotFound:          "not_found",
	KindConflict:          "conflict",
	KindMissingContext:    "missing_context",
	KindServer:            "server",
	KindCanceled:          "canceled",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Backend error codes the console reacts to.
const (
	CodeTwoFactorRequired  = "TWO_FACTOR_REQUIRED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeForbidden          = "INSUFFICIENT_PERMISSIONS"
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicate          = "DUPLICATE"
	CodeNotFound           = "RESOURCE_NOT_FOUND"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeInternal           = "INTERNAL_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
)

// Error is a classified failure. Op names the operation that failed
// (e.g. "appointments.cancel"), Field the offending form field if any.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Code    string
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error without an HTTP status.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// MissingContext reports that an upstream identifier such as a hospital or
// region id is not available on the session.
func MissingContext(op, what string) *Error {
	return &Error{
		Kind:    KindMissingContext,
		Op:      op,
		Code:    "MISSING_CONTEXT",
		Message: fmt.Sprintf("no %s is associated with this account", what),
	}
}

// FromStatus maps an HTTP status and backend code to a Kind.
func FromStatus(status int, code string) Kind {
	switch {
	case status == http.StatusUnauthorized && code == CodeTwoFactorRequired:
		return KindTwoFactorRequired
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusTooManyRequests, status >= 500:
		return KindServer
	}
	return KindUnknown
}

// KindOf returns the classification of err. Context cancellation is
// reported as KindCanceled even when it was never wrapped.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FieldOf returns the form field a validation error refers to.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// CodeOf returns the backend error code, if any.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage renders err for display. Each kind gets a distinct message so a
// rejected credential never reads like a dropped connection.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	hasDetail := errors.As(err, &e) && e.Message != ""
	switch KindOf(err) {
	case KindTwoFactorRequired:
		return "Two-factor authentication required. Enter the code from your authenticator app."
	case KindAuthentication:
		return "Your session is not valid (incorrect credentials or expired login). Please sign in again."
	case KindForbidden:
		return "Access denied: your role does not permit this action."
	case KindNetwork:
		return "The server is unreachable. Check your connection and retry."
	case KindMissingContext:
		return e.Message
	case KindValidation, KindConflict, KindNotFound:
		if hasDetail {
			return e.Message
		}
		return "The request was rejected by the server."
	case KindServer:
		if e != nil && e.Code == CodeRateLimited {
			return "Too many requests. Wait a moment and retry."
		}
		return "The server encountered an error. Please retry later."
	case KindCanceled:
		return "The request was cancelled."
	}
	return err.Error()
}

// Validation reports a rejected field value.
func Validation(op, field, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Code: CodeValidation, Field: field, Message: message}
}

// NotFound reports a missing record.
func NotFound(op, what string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Code: CodeNotFound, Message: what + " not found"}
}

// Conflict reports a request that contradicts the current record state.
func Conflict(op, code, message string) *Error {
	return &Error{Kind: KindConflict, Op: op, Code: code, Message: message}
}

// StatusOf is the inverse of FromStatus, used by the sandbox backend to
// answer with the status the console expects for each kind.
func StatusOf(kind Kind) int {
	switch kind {
	case KindAuthentication, KindTwoFactorRequired:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation, KindMissingContext:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

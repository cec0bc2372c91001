package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   Kind
	}{
		{http.StatusUnauthorized, CodeTwoFactorRequired, KindTwoFactorRequired},
		{http.StatusUnauthorized, CodeInvalidCredentials, KindAuthentication},
		{http.StatusForbidden, "", KindForbidden},
		{http.StatusNotFound, "", KindNotFound},
		{http.StatusConflict, CodeInvalidTransition, KindConflict},
		{http.StatusBadRequest, CodeValidation, KindValidation},
		{http.StatusUnprocessableEntity, "", KindValidation},
		{http.StatusBadGateway, "", KindServer},
		{http.StatusTooManyRequests, CodeRateLimited, KindServer},
		{http.StatusTeapot, "", KindUnknown},
	}
	for _, tt := range tests {
		if got := FromStatus(tt.status, tt.code); got != tt.want {
			t.Errorf("FromStatus(%d, %q) = %s, want %s", tt.status, tt.code, got, tt.want)
		}
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := &Error{Kind: KindForbidden, Op: "patients.list", Message: "required role: receptionist"}
	err := fmt.Errorf("loading patients: %w", base)
	if KindOf(err) != KindForbidden {
		t.Errorf("expected forbidden, got %s", KindOf(err))
	}
	if !Is(err, KindForbidden) {
		t.Error("expected Is to match forbidden")
	}
}

func TestKindOf_ContextCanceled(t *testing.T) {
	if got := KindOf(fmt.Errorf("get: %w", context.Canceled)); got != KindCanceled {
		t.Errorf("expected canceled, got %s", got)
	}
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Errorf("expected unknown, got %s", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Errorf("expected unknown for nil, got %s", got)
	}
}

func TestError_Message(t *testing.T) {
	e := &Error{Kind: KindNetwork, Op: "auth.login", Err: errors.New("dial tcp: refused")}
	if e.Error() != "auth.login: dial tcp: refused" {
		t.Errorf("unexpected message %q", e.Error())
	}
	if !errors.Is(e, e.Err) {
		t.Error("expected Unwrap to expose the cause")
	}
	bare := &Error{Kind: KindServer}
	if bare.Error() != "server" {
		t.Errorf("expected kind name, got %q", bare.Error())
	}
}

func TestFieldOf(t *testing.T) {
	err := &Error{Kind: KindValidation, Field: "first_name", Message: "patient already exists"}
	if FieldOf(fmt.Errorf("create: %w", err)) != "first_name" {
		t.Errorf("expected first_name, got %q", FieldOf(err))
	}
	if FieldOf(errors.New("x")) != "" {
		t.Error("expected empty field for unclassified error")
	}
	if CodeOf(&Error{Code: CodeDuplicate}) != CodeDuplicate {
		t.Error("expected code to be returned")
	}
}

func TestUserMessage_DistinctPerKind(t *testing.T) {
	auth := UserMessage(&Error{Kind: KindAuthentication, Status: 401})
	network := UserMessage(&Error{Kind: KindNetwork})
	if auth == network {
		t.Fatalf("expected distinct messages, both %q", auth)
	}
	twoFA := UserMessage(&Error{Kind: KindTwoFactorRequired})
	if twoFA == auth {
		t.Error("expected two-factor message to differ from credential message")
	}
	if got := UserMessage(MissingContext("analytics.regional", "region")); got != "no region is associated with this account" {
		t.Errorf("unexpected missing context message %q", got)
	}
	if got := UserMessage(&Error{Kind: KindValidation, Message: "phone is invalid"}); got != "phone is invalid" {
		t.Errorf("expected backend message, got %q", got)
	}
	if UserMessage(nil) != "" {
		t.Error("expected empty message for nil")
	}
}

func TestStatusOf_RoundTrip(t *testing.T) {
	for _, kind := range []Kind{KindAuthentication, KindForbidden, KindValidation, KindNotFound, KindConflict, KindServer} {
		if got := FromStatus(StatusOf(kind), ""); got != kind {
			t.Errorf("FromStatus(StatusOf(%s)) = %s", kind, got)
		}
	}
	if FromStatus(StatusOf(KindTwoFactorRequired), CodeTwoFactorRequired) != KindTwoFactorRequired {
		t.Error("expected two-factor kind to survive the round trip with its code")
	}
}

func TestConstructors(t *testing.T) {
	v := Validation("patients.create", "email", "email is invalid")
	if v.Kind != KindValidation || v.Field != "email" || v.Code != CodeValidation {
		t.Errorf("unexpected validation error %+v", v)
	}
	n := NotFound("patients.get", "patient")
	if n.Message != "patient not found" || StatusOf(n.Kind) != http.StatusNotFound {
		t.Errorf("unexpected not found error %+v", n)
	}
	c := Conflict("appointments.cancel", CodeInvalidTransition, "cannot cancel a completed appointment")
	if c.Kind != KindConflict || c.Code != CodeInvalidTransition {
		t.Errorf("unexpected conflict error %+v", c)
	}
}

func TestUserMessage_RateLimited(t *testing.T) {
	err := FromEnvelope("patients.list", http.StatusTooManyRequests, Envelope{Error: "server", Message: "rate limit exceeded", Code: CodeRateLimited})
	if err.Kind != KindServer {
		t.Fatalf("expected a retryable server error, got %s", err.Kind)
	}
	got := UserMessage(err)
	if got != "Too many requests. Wait a moment and retry." {
		t.Errorf("unexpected message %q", got)
	}
	if got == UserMessage(&Error{Kind: KindServer}) {
		t.Error("rate limiting should read differently from a server failure")
	}
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/hms/internal/apperr"
)

func TestMiddleware_ValidToken(t *testing.T) {
	issuer := NewTokenIssuer([]byte("k"), time.Hour)
	tok, _, _ := issuer.Issue(testSubject())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUser string
	h := Middleware(issuer, nil)(func(c echo.Context) error {
		gotUser = UserIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != testSubject().UserID {
		t.Errorf("expected user id on context, got %q", gotUser)
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	issuer := NewTokenIssuer([]byte("k"), time.Hour)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := Middleware(issuer, nil)(func(c echo.Context) error { return nil })(c)
	if apperr.KindOf(err) != apperr.KindAuthentication {
		t.Errorf("expected authentication error, got %v", err)
	}
}

func TestMiddleware_QueryToken(t *testing.T) {
	issuer := NewTokenIssuer([]byte("k"), time.Hour)
	tok, _, _ := issuer.Issue(testSubject())
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?access_token="+tok, nil)
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	err := Middleware(issuer, nil)(func(c echo.Context) error { called = true; return nil })(c)
	if err != nil || !called {
		t.Errorf("expected query token to authenticate, err=%v", err)
	}
}

func TestMiddleware_BadFormat(t *testing.T) {
	issuer := NewTokenIssuer([]byte("k"), time.Hour)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	c := e.NewContext(req, httptest.NewRecorder())

	err := Middleware(issuer, nil)(func(c echo.Context) error { return nil })(c)
	if apperr.CodeOf(err) != apperr.CodeInvalidToken {
		t.Errorf("expected invalid token code, got %v", err)
	}
}

func TestMiddleware_Skipper(t *testing.T) {
	issuer := NewTokenIssuer([]byte("k"), time.Hour)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/v1/auth/login")

	called := false
	err := Middleware(issuer, AuthSkipper)(func(c echo.Context) error { called = true; return nil })(c)
	if err != nil || !called {
		t.Errorf("expected login path to skip auth, err=%v", err)
	}
}

func TestAuthSkipper(t *testing.T) {
	tests := []struct {
		method, path string
		skip         bool
	}{
		{http.MethodGet, "/health", true},
		{http.MethodPost, "/api/v1/auth/login/", true},
		{http.MethodOptions, "/api/v1/patients", true},
		{http.MethodGet, "/api/v1/patients", false},
		{http.MethodGet, "/", false},
	}
	e := echo.New()
	for _, tt := range tests {
		c := e.NewContext(httptest.NewRequest(tt.method, tt.path, nil), httptest.NewRecorder())
		if got := AuthSkipper(c); got != tt.skip {
			t.Errorf("%s %s: expected skip=%v, got %v", tt.method, tt.path, tt.skip, got)
		}
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role    string
		allowed bool
	}{
		{RoleNurse, true},
		{RoleDoctor, true},
		{RoleSuperAdmin, true},
		{RoleReceptionist, false},
		{"", false},
	}
	for _, tt := range tests {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithClaims(req.Context(), &Claims{Role: tt.role}))
		c := e.NewContext(req, httptest.NewRecorder())

		err := RequireRole(RoleNurse, RoleDoctor)(func(c echo.Context) error { return nil })(c)
		if tt.allowed && err != nil {
			t.Errorf("role %q: expected access, got %v", tt.role, err)
		}
		if !tt.allowed && apperr.KindOf(err) != apperr.KindForbidden {
			t.Errorf("role %q: expected forbidden, got %v", tt.role, err)
		}
	}
}

func TestScopeHospital(t *testing.T) {
	ctx := WithClaims(context.Background(), &Claims{Role: RoleNurse, HospitalID: "h-1"})
	if ScopeHospital(ctx) != "h-1" {
		t.Errorf("expected nurse scoped to h-1, got %q", ScopeHospital(ctx))
	}
	ctx = WithClaims(context.Background(), &Claims{Role: RoleRegionalAdmin, HospitalID: "h-1"})
	if ScopeHospital(ctx) != "" {
		t.Error("expected regional admin to be unscoped")
	}
	if ScopeHospital(context.Background()) != "" {
		t.Error("expected no scope without claims")
	}
}

func TestScopeHospitalID(t *testing.T) {
	hid := uuid.New()
	ctx := WithClaims(context.Background(), &Claims{Role: RoleReceptionist, HospitalID: hid.String()})
	if ScopeHospitalID(ctx) != hid {
		t.Errorf("expected %s, got %s", hid, ScopeHospitalID(ctx))
	}
	ctx = WithClaims(context.Background(), &Claims{Role: RoleSuperAdmin, HospitalID: hid.String()})
	if ScopeHospitalID(ctx) != uuid.Nil {
		t.Error("expected super admin to be unscoped")
	}
}

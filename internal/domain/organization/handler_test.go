package organization

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/auth"
	"github.com/ehr/hms/internal/platform/validation"
)

func withClaims(req *http.Request, role, hospitalID, regionID string) *http.Request {
	claims := &auth.Claims{Role: role, HospitalID: hospitalID, RegionID: regionID}
	claims.Subject = "u1"
	return req.WithContext(auth.WithClaims(context.Background(), claims))
}

func TestHandler_UpdateHospitalBranding(t *testing.T) {
	svc, _, hosp := seeded(t)
	h := NewHandler(svc)
	e := echo.New()
	e.Validator = validation.New()

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"primary_color":"#112233","tagline":"Hello"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(withClaims(req, auth.RoleManager, hosp.ID.String(), ""), rec)
	c.SetParamNames("id")
	c.SetParamValues(hosp.ID.String())
	if err := h.UpdateHospitalBranding(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"primary_color":"#112233"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_UpdateHospitalBranding_BadColor(t *testing.T) {
	svc, _, hosp := seeded(t)
	h := NewHandler(svc)
	e := echo.New()
	e.Validator = validation.New()

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"primary_color":"navy"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(withClaims(req, auth.RoleManager, hosp.ID.String(), ""), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(hosp.ID.String())
	if err := h.UpdateHospitalBranding(c); apperr.FieldOf(err) != "primary_color" {
		t.Errorf("expected primary_color error, got %v", err)
	}
}

func TestHandler_ScopeChecks(t *testing.T) {
	svc, reg, hosp := seeded(t)
	h := NewHandler(svc)
	e := echo.New()

	c := e.NewContext(withClaims(httptest.NewRequest(http.MethodGet, "/", nil), auth.RoleManager, uuid.NewString(), ""), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(hosp.ID.String())
	if err := h.GetHospitalBranding(c); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("manager of another hospital should be forbidden, got %v", err)
	}

	c = e.NewContext(withClaims(httptest.NewRequest(http.MethodGet, "/", nil), auth.RoleRegionalAdmin, "", uuid.NewString()), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(reg.ID.String())
	if err := h.GetRegion(c); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("admin of another region should be forbidden, got %v", err)
	}

	rec := httptest.NewRecorder()
	c = e.NewContext(withClaims(httptest.NewRequest(http.MethodGet, "/", nil), auth.RoleRegionalAdmin, "", reg.ID.String()), rec)
	if err := h.ListHospitals(c); err != nil {
		t.Fatalf("list hospitals: %v", err)
	}
	if !strings.Contains(rec.Body.String(), hosp.ID.String()) {
		t.Errorf("regional admin should see their hospitals: %s", rec.Body.String())
	}
}

func TestHandler_GetHospital_BadID(t *testing.T) {
	svc, _, _ := seeded(t)
	h := NewHandler(svc)
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("GEN")
	if err := h.GetHospital(c); apperr.FieldOf(err) != "id" {
		t.Errorf("expected id validation error, got %v", err)
	}
}

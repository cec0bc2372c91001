package nursing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/auth"
	"github.com/ehr/hms/pkg/pagination"
)

type Handler struct {
	svc      *Service
	patients PatientLookup
}

func NewHandler(svc *Service, patients PatientLookup) *Handler {
	return &Handler{svc: svc, patients: patients}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/vitals", h.List, auth.RequireRole(auth.RoleNurse, auth.RoleDoctor))
	api.POST("/vitals", h.Record, auth.RequireRole(auth.RoleNurse))
}

func (h *Handler) Record(c echo.Context) error {
	var req RecordRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("nursing.record", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	v, err := h.svc.Record(ctx, auth.ScopeHospitalID(ctx), auth.UserUUIDFromContext(ctx), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) List(c echo.Context) error {
	pid, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return apperr.Validation("nursing.list", "patient_id", "patient_id is required")
	}
	ctx := c.Request().Context()
	p, err := h.patients.Get(ctx, pid)
	if err != nil {
		return err
	}
	if hid := auth.ScopeHospitalID(ctx); hid != uuid.Nil && p.HospitalID != hid {
		return apperr.NotFound("nursing.list", "patient")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.History(ctx, pid, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

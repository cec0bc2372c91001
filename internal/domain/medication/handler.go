package medication

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/auth"
	"github.com/ehr/hms/internal/platform/validation"
	"github.com/ehr/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleManager))
	read.GET("/prescriptions", h.List)
	read.GET("/prescriptions/:id", h.Get)

	api.POST("/prescriptions", h.Create, auth.RequireRole(auth.RoleDoctor))
	api.PATCH("/prescriptions/:id/status", h.UpdateStatus, auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	api.POST("/prescriptions/:id/administer", h.Administer, auth.RequireRole(auth.RoleNurse))
}

func (h *Handler) scoped(c echo.Context, op string) (*Prescription, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, apperr.Validation(op, "id", "invalid id")
	}
	rx, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if hid := auth.ScopeHospitalID(c.Request().Context()); hid != uuid.Nil && rx.HospitalID != hid {
		return nil, apperr.NotFound(op, "prescription")
	}
	return rx, nil
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("medication.prescribe", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	rx, err := h.svc.Prescribe(ctx, auth.ScopeHospitalID(ctx), auth.UserUUIDFromContext(ctx), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rx)
}

func (h *Handler) Get(c echo.Context) error {
	rx, err := h.scoped(c, "medication.get")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rx)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	f := Filter{
		HospitalID: auth.ScopeHospitalID(ctx),
		Status:     c.QueryParam("status"),
	}
	var err error
	if f.PatientID, err = validation.ParseOptionalID("medication.list", "patient_id", c.QueryParam("patient_id")); err != nil {
		return err
	}
	if f.DoctorID, err = validation.ParseOptionalID("medication.list", "doctor_id", c.QueryParam("doctor_id")); err != nil {
		return err
	}
	if f.Status == "all" {
		f.Status = ""
	}
	items, total, err := h.svc.List(ctx, f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	rx, err := h.scoped(c, "medication.status")
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("medication.status", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	updated, err := h.svc.UpdateStatus(c.Request().Context(), rx.ID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Administer(c echo.Context) error {
	rx, err := h.scoped(c, "medication.administer")
	if err != nil {
		return err
	}
	var req AdministerRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("medication.administer", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	updated, err := h.svc.Administer(ctx, rx.ID, auth.UserUUIDFromContext(ctx), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

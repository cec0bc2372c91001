package diagnostics

import (
	"fmt"
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
	read := api.Group("", auth.RequireRole(auth.RoleLabTechnician, auth.RoleDoctor, auth.RoleNurse, auth.RoleManager))
	read.GET("/lab-tests", h.List)
	read.GET("/lab-tests/:id", h.Get)
	read.GET("/lab-tests/:id/result/download", h.Download)

	api.POST("/lab-tests", h.Create, auth.RequireRole(auth.RoleDoctor))
	lab := api.Group("", auth.RequireRole(auth.RoleLabTechnician))
	lab.PATCH("/lab-tests/:id/status", h.UpdateStatus)
	lab.POST("/lab-tests/:id/result", h.SubmitResult)
}

func (h *Handler) scoped(c echo.Context, op string) (*LabTest, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, apperr.Validation(op, "id", "invalid id")
	}
	lt, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if hid := auth.ScopeHospitalID(c.Request().Context()); hid != uuid.Nil && lt.HospitalID != hid {
		return nil, apperr.NotFound(op, "lab test")
	}
	return lt, nil
}

func (h *Handler) Create(c echo.Context) error {
	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("diagnostics.order", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	lt, err := h.svc.Order(ctx, auth.ScopeHospitalID(ctx), auth.UserUUIDFromContext(ctx), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lt)
}

func (h *Handler) Get(c echo.Context) error {
	lt, err := h.scoped(c, "diagnostics.get")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lt)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	f := Filter{
		HospitalID: auth.ScopeHospitalID(ctx),
		Status:     c.QueryParam("status"),
		Urgency:    c.QueryParam("urgency"),
	}
	var err error
	if f.PatientID, err = validation.ParseOptionalID("diagnostics.list", "patient_id", c.QueryParam("patient_id")); err != nil {
		return err
	}
	if f.Status == "all" {
		f.Status = ""
	}
	if f.Urgency == "all" {
		f.Urgency = ""
	}
	items, total, err := h.svc.List(ctx, f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	lt, err := h.scoped(c, "diagnostics.status")
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("diagnostics.status", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	updated, err := h.svc.UpdateStatus(c.Request().Context(), lt.ID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) SubmitResult(c echo.Context) error {
	lt, err := h.scoped(c, "diagnostics.result")
	if err != nil {
		return err
	}
	var req ResultRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("diagnostics.result", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	updated, err := h.svc.SubmitResult(c.Request().Context(), lt.ID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Download(c echo.Context) error {
	lt, err := h.scoped(c, "diagnostics.download")
	if err != nil {
		return err
	}
	if lt.Status != StatusCompleted {
		return apperr.NotFound("diagnostics.download", "lab result")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="lab-result-%s.txt"`, lt.ID))
	return c.String(http.StatusOK, Report(lt))
}

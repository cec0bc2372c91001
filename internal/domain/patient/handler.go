package patient

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
	read := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleNurse, auth.RoleDoctor,
		auth.RoleLabTechnician, auth.RoleManager))
	read.GET("/patients", h.List)
	read.GET("/patients/:id", h.Get)

	write := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleNurse, auth.RoleManager))
	write.POST("/patients", h.Create)
	write.PUT("/patients/:id", h.Update)
}

func parseID(c echo.Context, op string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation(op, "id", "invalid id")
	}
	return id, nil
}

// hospitalFor resolves the hospital of a write: the caller's own unless
// they are an admin naming one explicitly.
func hospitalFor(c echo.Context, op, requested string) (uuid.UUID, error) {
	if scoped := auth.ScopeHospitalID(c.Request().Context()); scoped != uuid.Nil {
		return scoped, nil
	}
	return validation.ParseOptionalID(op, "hospital_id", requested)
}

func (h *Handler) Create(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("patient.create", "", "invalid request body")
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	hospitalID, err := hospitalFor(c, "patient.create", in.HospitalID)
	if err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), hospitalID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c, "patient.get")
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if scoped := auth.ScopeHospitalID(c.Request().Context()); scoped != uuid.Nil && p.HospitalID != scoped {
		return apperr.NotFound("patient.get", "patient")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	hospitalID, err := hospitalFor(c, "patient.list", c.QueryParam("hospital_id"))
	if err != nil {
		return err
	}
	f := Filter{HospitalID: hospitalID, Query: c.QueryParam("q")}
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c, "patient.update")
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("patient.update", "", "invalid request body")
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

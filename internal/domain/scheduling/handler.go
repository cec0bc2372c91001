package scheduling

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
	read := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor, auth.RoleNurse, auth.RoleManager))
	read.GET("/appointments", h.List)
	read.GET("/appointments/:id", h.Get)
	read.GET("/appointments/:id/qr", h.QR)

	write := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor, auth.RoleNurse))
	write.POST("/appointments", h.Create)
	write.PATCH("/appointments/:id/status", h.UpdateStatus)
	write.POST("/appointments/:id/cancel", h.Cancel)
	write.POST("/appointments/check-in", h.CheckIn)
}

func parseID(c echo.Context, op string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation(op, "id", "invalid id")
	}
	return id, nil
}

// scoped loads an appointment and hides those of other hospitals.
func (h *Handler) scoped(c echo.Context, op string) (*Appointment, error) {
	id, err := parseID(c, op)
	if err != nil {
		return nil, err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if hid := auth.ScopeHospitalID(c.Request().Context()); hid != uuid.Nil && a.HospitalID != hid {
		return nil, apperr.NotFound(op, "appointment")
	}
	return a, nil
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("scheduling.create", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	hospitalID := auth.ScopeHospitalID(c.Request().Context())
	if hospitalID == uuid.Nil {
		var err error
		if hospitalID, err = validation.ParseOptionalID("scheduling.create", "hospital_id", req.HospitalID); err != nil {
			return err
		}
	}
	a, err := h.svc.Create(c.Request().Context(), hospitalID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	a, err := h.scoped(c, "scheduling.get")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	f := Filter{
		HospitalID: auth.ScopeHospitalID(ctx),
		Status:     c.QueryParam("status"),
		Date:       c.QueryParam("date"),
	}
	var err error
	if f.DoctorID, err = validation.ParseOptionalID("scheduling.list", "doctor_id", c.QueryParam("doctor_id")); err != nil {
		return err
	}
	if f.PatientID, err = validation.ParseOptionalID("scheduling.list", "patient_id", c.QueryParam("patient_id")); err != nil {
		return err
	}
	if f.HospitalID == uuid.Nil {
		if f.HospitalID, err = validation.ParseOptionalID("scheduling.list", "hospital_id", c.QueryParam("hospital_id")); err != nil {
			return err
		}
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
	a, err := h.scoped(c, "scheduling.status")
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("scheduling.status", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	updated, err := h.svc.UpdateStatus(c.Request().Context(), a.ID, req.Status, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Cancel(c echo.Context) error {
	a, err := h.scoped(c, "scheduling.cancel")
	if err != nil {
		return err
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.Validation("scheduling.cancel", "", "invalid request body")
	}
	updated, err := h.svc.Cancel(c.Request().Context(), a.ID, body.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) QR(c echo.Context) error {
	a, err := h.scoped(c, "scheduling.qr")
	if err != nil {
		return err
	}
	qr, err := h.svc.IssueQR(c.Request().Context(), a.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, qr)
}

func (h *Handler) CheckIn(c echo.Context) error {
	var req CheckInRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("scheduling.checkin", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	a, err := h.svc.CheckIn(c.Request().Context(), auth.ScopeHospitalID(c.Request().Context()), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

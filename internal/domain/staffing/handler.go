package staffing

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/auth"
	"github.com/ehr/hms/internal/platform/validation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleManager, auth.RoleNurse))
	g.GET("/beds", h.ListBeds)
	g.PATCH("/beds/:id/status", h.UpdateBedStatus)
	g.GET("/shifts", h.ListShifts)
}

func hospitalOf(c echo.Context, op string) (uuid.UUID, error) {
	if scoped := auth.ScopeHospitalID(c.Request().Context()); scoped != uuid.Nil {
		return scoped, nil
	}
	return validation.ParseOptionalID(op, "hospital_id", c.QueryParam("hospital_id"))
}

func (h *Handler) ListBeds(c echo.Context) error {
	hospitalID, err := hospitalOf(c, "staffing.beds")
	if err != nil {
		return err
	}
	f := BedFilter{HospitalID: hospitalID, Ward: c.QueryParam("ward"), Status: c.QueryParam("status")}
	if f.Status == "all" {
		f.Status = ""
	}
	beds, err := h.svc.ListBeds(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": beds, "total": len(beds)})
}

func (h *Handler) UpdateBedStatus(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("staffing.bed_status", "id", "invalid id")
	}
	bed, err := h.svc.GetBed(ctx, id)
	if err != nil {
		return err
	}
	if scoped := auth.ScopeHospitalID(ctx); scoped != uuid.Nil && bed.HospitalID != scoped {
		return apperr.NotFound("staffing.bed_status", "bed")
	}
	var req BedStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("staffing.bed_status", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	updated, err := h.svc.SetBedStatus(ctx, bed.ID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// ListShifts returns the shifts of a day, today by default.
func (h *Handler) ListShifts(c echo.Context) error {
	at := time.Now()
	if d := c.QueryParam("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return apperr.Validation("staffing.shifts", "date", "date must be YYYY-MM-DD")
		}
		at = parsed
	}
	hospitalID, err := hospitalOf(c, "staffing.shifts")
	if err != nil {
		return err
	}
	shifts, err := h.svc.Shifts(c.Request().Context(), hospitalID, at)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": shifts, "total": len(shifts)})
}

package analytics

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/analytics/hospitals/:id", h.Hospital, auth.RequireRole(auth.RoleManager, auth.RoleRegionalAdmin))
	api.GET("/analytics/regions/:id", h.Region, auth.RequireRole(auth.RoleRegionalAdmin))
}

// Hospital confines managers to their own hospital and regional admins to
// hospitals of their region.
func (h *Handler) Hospital(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c, "analytics.hospital")
	if err != nil {
		return err
	}
	if scoped := auth.ScopeHospitalID(ctx); scoped != uuid.Nil && scoped != id {
		return forbidden("hospital")
	}
	if claims := auth.ClaimsFromContext(ctx); claims != nil && claims.Role == auth.RoleRegionalAdmin {
		hosp, err := h.svc.src.Organization.GetHospital(ctx, id)
		if err != nil {
			return err
		}
		if hosp.RegionID.String() != claims.RegionID {
			return forbidden("hospital")
		}
	}
	out, err := h.svc.Hospital(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Region(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c, "analytics.region")
	if err != nil {
		return err
	}
	if claims := auth.ClaimsFromContext(ctx); claims != nil && claims.Role == auth.RoleRegionalAdmin && claims.RegionID != id.String() {
		return forbidden("region")
	}
	out, err := h.svc.Region(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func parseID(c echo.Context, op string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation(op, "id", "invalid id")
	}
	return id, nil
}

func forbidden(what string) error {
	return &apperr.Error{
		Kind:    apperr.KindForbidden,
		Code:    apperr.CodeForbidden,
		Message: "no access to this " + what,
	}
}

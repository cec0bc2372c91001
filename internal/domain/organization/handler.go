package organization

import (
	"net/http"

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
	api.GET("/regions", h.ListRegions, auth.RequireRole(auth.RoleRegionalAdmin))
	api.POST("/regions", h.CreateRegion, auth.RequireRole(auth.RoleSuperAdmin))
	api.GET("/regions/:id", h.GetRegion, auth.RequireRole(auth.RoleRegionalAdmin))
	api.POST("/regions/:id/hospitals", h.CreateHospital, auth.RequireRole(auth.RoleSuperAdmin))
	api.GET("/regions/:id/branding", h.GetRegionBranding, auth.RequireRole(auth.RoleRegionalAdmin))
	api.PUT("/regions/:id/branding", h.UpdateRegionBranding, auth.RequireRole(auth.RoleRegionalAdmin))

	api.GET("/hospitals", h.ListHospitals, auth.RequireRole(auth.RoleRegionalAdmin, auth.RoleManager))
	api.GET("/hospitals/:id", h.GetHospital)
	api.GET("/hospitals/:id/branding", h.GetHospitalBranding)
	api.PUT("/hospitals/:id/branding", h.UpdateHospitalBranding, auth.RequireRole(auth.RoleManager))
}

func parseID(c echo.Context, op string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation(op, "id", "invalid id")
	}
	return id, nil
}

// canSeeRegion confines regional admins to their own region.
func canSeeRegion(c echo.Context, regionID uuid.UUID) error {
	claims := auth.ClaimsFromContext(c.Request().Context())
	if claims != nil && claims.Role == auth.RoleRegionalAdmin && claims.RegionID != regionID.String() {
		return &apperr.Error{Kind: apperr.KindForbidden, Code: apperr.CodeForbidden, Message: "region is outside your administration"}
	}
	return nil
}

// canSeeHospital confines hospital staff to their own hospital and regional
// admins to hospitals of their region.
func (h *Handler) canSeeHospital(c echo.Context, hospitalID uuid.UUID) error {
	ctx := c.Request().Context()
	if scoped := auth.ScopeHospitalID(ctx); scoped != uuid.Nil && scoped != hospitalID {
		return &apperr.Error{Kind: apperr.KindForbidden, Code: apperr.CodeForbidden, Message: "hospital is outside your assignment"}
	}
	if claims := auth.ClaimsFromContext(ctx); claims != nil && claims.Role == auth.RoleRegionalAdmin {
		hosp, err := h.svc.GetHospital(ctx, hospitalID)
		if err != nil {
			return err
		}
		return canSeeRegion(c, hosp.RegionID)
	}
	return nil
}

func (h *Handler) ListRegions(c echo.Context) error {
	regions, err := h.svc.ListRegions(c.Request().Context())
	if err != nil {
		return err
	}
	if claims := auth.ClaimsFromContext(c.Request().Context()); claims != nil && claims.Role == auth.RoleRegionalAdmin {
		own := regions[:0]
		for _, r := range regions {
			if r.ID.String() == claims.RegionID {
				own = append(own, r)
			}
		}
		regions = own
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": regions, "total": len(regions)})
}

func (h *Handler) CreateRegion(c echo.Context) error {
	var req CreateRegionRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("organization.region", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	reg, err := h.svc.CreateRegion(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, reg)
}

func (h *Handler) GetRegion(c echo.Context) error {
	id, err := parseID(c, "organization.region")
	if err != nil {
		return err
	}
	if err := canSeeRegion(c, id); err != nil {
		return err
	}
	reg, err := h.svc.GetRegion(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reg)
}

func (h *Handler) CreateHospital(c echo.Context) error {
	var req CreateHospitalRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("organization.hospital", "", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	regionID, err := parseID(c, "organization.hospital")
	if err != nil {
		return err
	}
	hosp, err := h.svc.CreateHospital(c.Request().Context(), regionID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, hosp)
}

func (h *Handler) ListHospitals(c echo.Context) error {
	ctx := c.Request().Context()
	regionID, err := validation.ParseOptionalID("organization.hospitals", "region_id", c.QueryParam("region_id"))
	if err != nil {
		return err
	}
	if claims := auth.ClaimsFromContext(ctx); claims != nil && claims.Role == auth.RoleRegionalAdmin {
		regionID, _ = uuid.Parse(claims.RegionID)
	}
	hospitals, err := h.svc.ListHospitals(ctx, regionID)
	if err != nil {
		return err
	}
	if scoped := auth.ScopeHospitalID(ctx); scoped != uuid.Nil {
		own := hospitals[:0]
		for _, hosp := range hospitals {
			if hosp.ID == scoped {
				own = append(own, hosp)
			}
		}
		hospitals = own
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": hospitals, "total": len(hospitals)})
}

func (h *Handler) GetHospital(c echo.Context) error {
	id, err := parseID(c, "organization.hospital")
	if err != nil {
		return err
	}
	if err := h.canSeeHospital(c, id); err != nil {
		return err
	}
	hosp, err := h.svc.GetHospital(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) GetHospitalBranding(c echo.Context) error {
	id, err := parseID(c, "organization.branding")
	if err != nil {
		return err
	}
	if err := h.canSeeHospital(c, id); err != nil {
		return err
	}
	b, err := h.svc.HospitalBranding(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) UpdateHospitalBranding(c echo.Context) error {
	id, err := parseID(c, "organization.branding")
	if err != nil {
		return err
	}
	if err := h.canSeeHospital(c, id); err != nil {
		return err
	}
	var b Branding
	if err := c.Bind(&b); err != nil {
		return apperr.Validation("organization.branding", "", "invalid request body")
	}
	if err := c.Validate(&b); err != nil {
		return err
	}
	saved, err := h.svc.UpdateHospitalBranding(c.Request().Context(), id, &b)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) GetRegionBranding(c echo.Context) error {
	id, err := parseID(c, "organization.branding")
	if err != nil {
		return err
	}
	if err := canSeeRegion(c, id); err != nil {
		return err
	}
	b, err := h.svc.RegionBranding(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) UpdateRegionBranding(c echo.Context) error {
	id, err := parseID(c, "organization.branding")
	if err != nil {
		return err
	}
	if err := canSeeRegion(c, id); err != nil {
		return err
	}
	var b Branding
	if err := c.Bind(&b); err != nil {
		return apperr.Validation("organization.branding", "", "invalid request body")
	}
	if err := c.Validate(&b); err != nil {
		return err
	}
	saved, err := h.svc.UpdateRegionBranding(c.Request().Context(), id, &b)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved)
}

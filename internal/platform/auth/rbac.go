package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/hms/internal/apperr"
)

// RequireRole returns middleware that admits callers holding one of roles.
// Super admins are admitted everywhere.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			if HasRole(role, roles...) {
				return next(c)
			}
			return &apperr.Error{
				Kind:    apperr.KindForbidden,
				Code:    apperr.CodeForbidden,
				Message: fmt.Sprintf("required role: %s", strings.Join(roles, " or ")),
			}
		}
	}
}

// HasRole reports whether role satisfies any of required.
func HasRole(role string, required ...string) bool {
	if role == "" {
		return false
	}
	if role == RoleSuperAdmin {
		return true
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}

// ScopeHospital returns the hospital a caller is confined to, or "" when
// the caller may see every hospital (super and regional admins).
func ScopeHospital(ctx context.Context) string {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return ""
	}
	switch claims.Role {
	case RoleSuperAdmin, RoleRegionalAdmin:
		return ""
	}
	return claims.HospitalID
}

// ScopeHospitalID is ScopeHospital as a uuid, uuid.Nil when unscoped.
// Verified claims always carry well-formed ids.
func ScopeHospitalID(ctx context.Context) uuid.UUID {
	id, _ := uuid.Parse(ScopeHospital(ctx))
	return id
}

package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/hms/internal/apperr"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	ClaimsKey contextKey = "claims"
)

// Middleware authenticates bearer tokens with the issuer and stores the
// claims on the request context. Requests for which skipper returns true
// pass through untouched.
func Middleware(issuer *TokenIssuer, skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			tokenStr, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims, err := issuer.Verify(tokenStr)
			if err != nil {
				return &apperr.Error{
					Kind:    apperr.KindAuthentication,
					Code:    apperr.CodeInvalidToken,
					Message: "invalid or expired token",
				}
			}

			ctx := WithClaims(c.Request().Context(), claims)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// bearerToken reads the Authorization header. Streaming endpoints opened by
// clients that cannot set headers may pass access_token as a query param.
func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if q := c.QueryParam("access_token"); q != "" {
			return q, nil
		}
		return "", &apperr.Error{Kind: apperr.KindAuthentication, Code: apperr.CodeInvalidToken, Message: "missing authorization header"}
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", &apperr.Error{Kind: apperr.KindAuthentication, Code: apperr.CodeInvalidToken, Message: "invalid authorization format"}
	}
	return parts[1], nil
}

// WithClaims returns ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return context.WithValue(ctx, UserIDKey, claims.Subject)
}

func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsKey).(*Claims)
	return claims
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

// UserUUIDFromContext is the caller's id as a uuid, uuid.Nil when absent.
func UserUUIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := uuid.Parse(UserIDFromContext(ctx))
	return id
}

func RoleFromContext(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.Role
	}
	return ""
}

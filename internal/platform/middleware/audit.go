package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/platform/auth"
)

// AuditEntry records who touched which patient-bearing resource.
type AuditEntry struct {
	UserID     string
	Role       string
	Resource   string
	Action     string // read, create, update
	Path       string
	Method     string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

var auditedResources = map[string]bool{
	"patients":      true,
	"appointments":  true,
	"prescriptions": true,
	"lab-tests":     true,
	"vitals":        true,
}

// Audit logs access to patient data under /api/v1. Without recorders it
// falls back to structured zerolog logging.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			req := c.Request()
			resource := resourceFromPath(req.URL.Path)
			if !auditedResources[resource] {
				return err
			}

			rid, _ := c.Get("request_id").(string)
			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(req.Context()),
				Role:       auth.RoleFromContext(req.Context()),
				Resource:   resource,
				Action:     actionFor(req.Method),
				Path:       req.URL.Path,
				Method:     req.Method,
				RequestID:  rid,
				StatusCode: c.Response().Status,
				Timestamp:  time.Now().UTC(),
			}

			if len(recorders) == 0 {
				logger.Info().
					Str("user_id", entry.UserID).
					Str("role", entry.Role).
					Str("resource", entry.Resource).
					Str("action", entry.Action).
					Str("request_id", entry.RequestID).
					Int("status", entry.StatusCode).
					Msg("phi access")
			}
			for _, r := range recorders {
				if rerr := r.RecordAccess(entry); rerr != nil {
					logger.Error().Err(rerr).Str("request_id", rid).Msg("audit record failed")
				}
			}
			return err
		}
	}
}

func resourceFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/")
	if rest == path {
		return ""
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func actionFor(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return "read"
}

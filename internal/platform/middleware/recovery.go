package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/auth"
)

// maxStack caps the stack trace attached to a panic log line.
const maxStack = 8 << 10

// Recovery turns a handler panic into a classified server error so the
// sandbox error handler answers with the usual JSON envelope.
// http.ErrAbortHandler is re-raised for net/http to handle.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if e, ok := r.(error); ok && errors.Is(e, http.ErrAbortHandler) {
					panic(r)
				}
				stack := debug.Stack()
				if len(stack) > maxStack {
					stack = stack[:maxStack]
				}
				rid, _ := c.Get("request_id").(string)
				req := c.Request()
				logger.Error().
					Str("request_id", rid).
					Str("method", req.Method).
					Str("path", req.URL.Path).
					Str("user_id", auth.UserIDFromContext(req.Context())).
					Str("panic", fmt.Sprint(r)).
					Bytes("stack", stack).
					Msg("handler panic")

				err = &apperr.Error{
					Kind:    apperr.KindServer,
					Op:      req.Method + " " + c.Path(),
					Code:    apperr.CodeInternal,
					Message: "internal server error",
					Err:     fmt.Errorf("panic: %v", r),
				}
			}()
			return next(c)
		}
	}
}

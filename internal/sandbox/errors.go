package sandbox

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apperr"
)

// ErrorHandler answers every failed request with the JSON error envelope.
// Echo's own errors (unknown route, bad method, rate limit) are classified
// by status.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			err = fromHTTPError(he)
		}

		status, env := apperr.ToEnvelope(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("request_id", requestID(c)).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
			if id := requestID(c); id != "" {
				env.Details = map[string]string{"request_id": id}
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, env)
		}
		if err != nil {
			logger.Warn().Err(err).Msg("write error response")
		}
	}
}

func fromHTTPError(he *echo.HTTPError) *apperr.Error {
	msg := fmt.Sprint(he.Message)
	if s, ok := he.Message.(string); ok {
		msg = s
	}
	kind := apperr.FromStatus(he.Code, "")
	code := ""
	switch kind {
	case apperr.KindNotFound:
		code = apperr.CodeNotFound
	case apperr.KindValidation:
		code = apperr.CodeValidation
	case apperr.KindUnknown:
		kind = apperr.KindServer
	}
	if he.Code == http.StatusTooManyRequests {
		code = apperr.CodeRateLimited
	}
	return &apperr.Error{Kind: kind, Status: he.Code, Code: code, Message: msg, Err: he.Internal}
}

func requestID(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok {
		return id
	}
	return ""
}

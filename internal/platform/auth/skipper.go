package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths are sandbox routes reachable without a bearer token.
var publicPaths = map[string]bool{
	"/health":            true,
	"/health/db":         true,
	"/api/v1/auth/login": true,
}

// AuthSkipper lets health checks, login and CORS preflight requests through
// without a token. Matching uses the route pattern, falling back to the raw
// path for requests that matched no route.
func AuthSkipper(c echo.Context) bool {
	if c.Request().Method == http.MethodOptions {
		return true
	}
	path := c.Path()
	if path == "" {
		path = c.Request().URL.Path
	}
	return publicPaths[strings.TrimSuffix(path, "/")]
}

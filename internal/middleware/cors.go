package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// CORS returns Echo's CORS middleware configured for the relay's read-only
// routes. Content-Disposition is exposed so browsers can read the suggested
// filename.
//
// Echo only emits Access-Control-Allow-Origin when the request carries an
// Origin header. With a wildcard origin the header is set unconditionally, so
// every response grants cross-origin access.
func CORS(allowOrigins []string) echo.MiddlewareFunc {
	cors := echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
		ExposeHeaders: []string{
			echo.HeaderContentDisposition,
			echo.HeaderContentLength,
			echo.HeaderXRequestID,
		},
		MaxAge: 600,
	})

	wildcard := slices.Contains(allowOrigins, "*")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		h := cors(next)
		return func(c echo.Context) error {
			if wildcard && c.Request().Header.Get(echo.HeaderOrigin) == "" {
				c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
			}
			return h(c)
		}
	}
}

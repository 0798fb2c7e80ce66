package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Recover wraps Echo's panic recovery so the stack goes to the structured
// log and only the panic message reaches the error handler.
func Recover(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered",
				"err", err,
				"path", c.Request().URL.Path,
				"stack", string(stack),
			)
			return err
		},
	})
}

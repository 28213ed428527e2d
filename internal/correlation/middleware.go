package correlation

import (
	"github.com/labstack/echo/v4"
)

// Middleware attaches a correlation ID to every request. An incoming
// X-Correlation-ID header is honored so IDs survive proxy hops; otherwise a
// fresh one is generated. The ID is echoed back in the response header.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(HeaderName)
			if id == "" {
				id = NewID()
			}

			ctx := WithID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(HeaderName, id)

			return next(c)
		}
	}
}

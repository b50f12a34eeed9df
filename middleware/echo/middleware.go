package echomw

import (
	"github.com/labstack/echo/v4"

	"github.com/reoring/dlcheck/middleware"
)

// ValidateEvent validates the request JSON as the event named by the path
// parameter param (or the record's own "event" when param is empty or "auto").
// Valid requests continue with the Result stored in the request context;
// others are answered with the report and 404/422, or 400 for bodies that
// are not JSON.
func ValidateEvent(cfg middleware.Config, param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			name := ""
			if param != "" {
				name = c.Param(param)
			}
			res := cfg.Validate(c.Request().Body, name)
			if !res.OK() {
				return c.JSON(res.Status, res.Payload())
			}
			ctx := middleware.ContextWithResult(c.Request().Context(), res)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetResult fetches the validation Result from echo.Context.
func GetResult(c echo.Context) (middleware.Result, bool) {
	return middleware.ResultFromContext(c.Request().Context())
}

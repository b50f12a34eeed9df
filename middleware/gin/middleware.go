package ginmw

import (
	"github.com/gin-gonic/gin"

	"github.com/reoring/dlcheck/middleware"
)

// ValidateEvent validates the request JSON as the event named by the path
// parameter param (or the record's own "event" when param is empty or "auto"),
// stores the Result in the request context and aborts with the report on
// failure.
func ValidateEvent(cfg middleware.Config, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := ""
		if param != "" {
			name = c.Param(param)
		}
		res := cfg.Validate(c.Request.Body, name)
		if !res.OK() {
			c.AbortWithStatusJSON(res.Status, res.Payload())
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithResult(c.Request.Context(), res))
		c.Next()
	}
}

// GetResult fetches the validation Result from gin.Context.
func GetResult(c *gin.Context) (middleware.Result, bool) {
	return middleware.ResultFromContext(c.Request.Context())
}

package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/handler"
)

// Recovery turns a panic into a 500. Browsers get the error page, everything
// else the JSON error envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				zerolog.Ctx(c.Request.Context()).Error().
					Interface("error", err).
					Str("stack", string(debug.Stack())).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("client_ip", c.ClientIP()).
					Msg("Request panic recovered")

				if strings.Contains(c.GetHeader("Accept"), "text/html") {
					c.HTML(http.StatusInternalServerError, "error.html", gin.H{
						"Title":   http.StatusText(http.StatusInternalServerError),
						"Status":  http.StatusInternalServerError,
						"Message": "Something went wrong. Please try again.",
					})
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, handler.NewErrorResponse("Internal server error"))
			}
		}()
		c.Next()
	}
}

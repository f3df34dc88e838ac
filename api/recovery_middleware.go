package api

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/notekeeper/notes/internal/slogging"
)

// CustomRecoveryMiddleware recovers from panics and answers a generic 500
// without exposing the panic value
func CustomRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}

				logger := slogging.GetContextLogger(c)
				logger.Error("PANIC recovered: %v\nStack Trace:\n%s", err, debug.Stack())

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{Error: MessageInternalError})
			}
		}()

		c.Next()
	}
}

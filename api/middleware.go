package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notekeeper/notes/internal/slogging"
)

// CORS middleware applying a permissive cross-origin policy
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Accept, Origin, Cache-Control, X-Requested-With, "+slogging.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, PUT, PATCH, POST, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", slogging.RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

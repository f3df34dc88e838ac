package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notekeeper/notes/internal/slogging"
)

// Fixed error response messages
const (
	MessageMalformattedID  = "malformatted id"
	MessageUnknownEndpoint = "unknown endpoint"
	MessageInternalError   = "internal server error"
)

// MapError maps a forwarded error to its response. handled is false for
// errors outside the known taxonomy.
func MapError(err error) (status int, body ErrorBody, handled bool) {
	var idErr *IDFormatError
	if errors.As(err, &idErr) {
		return http.StatusBadRequest, ErrorBody{Error: MessageMalformattedID}, true
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, ErrorBody{Error: validationErr.Error()}, true
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status, ErrorBody{Error: reqErr.Message}, true
	}

	return http.StatusInternalServerError, ErrorBody{Error: MessageInternalError}, false
}

// ErrorHandler answers errors forwarded by handlers through c.Error. It must
// be registered after the logger and before any route.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		logger := slogging.GetContextLogger(c)

		status, body, handled := MapError(err)
		if handled {
			logger.Warn("%s", err.Error())
		} else {
			logger.Error("Unhandled error on %s %s: %s", c.Request.Method, c.Request.URL.Path, err.Error())
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, body)
	}
}

// UnknownEndpoint answers requests that match no route
func UnknownEndpoint(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: MessageUnknownEndpoint})
}

package slogging

import (
	"bytes"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// maxLoggedBodyBytes bounds how much of a request body the request logger records
const maxLoggedBodyBytes = 1024

// LoggerMiddleware returns a Gin middleware for logging requests using slog.
// It attaches a request-scoped logger to the context and echoes the request id.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		base := Get()
		logger := base.WithContext(c)

		c.Set(contextLoggerKey, logger)
		c.Set("request_id", logger.requestID)
		c.Header(RequestIDHeader, logger.requestID)

		startAttrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		}
		if base.logBodies && base.level <= LogLevelDebug {
			startAttrs = append(startAttrs, slog.String("body", readBodyForLog(c)))
		}
		logger.DebugCtx("Request started", startAttrs...)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		statusCode := c.Writer.Status()
		logAttrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status_code", statusCode),
			slog.Duration("duration", latency),
			slog.Int64("response_size", int64(c.Writer.Size())),
		}

		switch {
		case statusCode >= 500:
			logger.ErrorCtx("Request completed with server error", logAttrs...)
		case statusCode >= 400:
			logger.WarnCtx("Request completed with client error", logAttrs...)
		default:
			logger.InfoCtx("Request completed successfully", logAttrs...)
		}
	}
}

// readBodyForLog reads at most maxLoggedBodyBytes+1 bytes for logging and
// puts them back in front of the unread remainder, so size limits applied
// by later handlers still see the whole body
func readBodyForLog(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	original := c.Request.Body
	head, err := io.ReadAll(io.LimitReader(original, maxLoggedBodyBytes+1))
	c.Request.Body = &replayBody{
		Reader: io.MultiReader(bytes.NewReader(head), original),
		Closer: original,
	}
	if err != nil {
		return ""
	}

	logged := head
	truncated := false
	if len(logged) > maxLoggedBodyBytes {
		logged = logged[:maxLoggedBodyBytes]
		truncated = true
	}
	result := RedactSensitiveInfo(SanitizeLogMessage(string(logged)))
	if truncated {
		result += "...[truncated]"
	}
	return result
}

// replayBody serves the logged prefix then the rest of the original body
type replayBody struct {
	io.Reader
	io.Closer
}

// PerformanceMiddleware logs requests slower than the threshold
func PerformanceMiddleware(slowRequestThreshold time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		if slowRequestThreshold > 0 && duration > slowRequestThreshold {
			Get().WithContext(c).WarnCtx("Slow request detected",
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.Duration("duration", duration),
				slog.Duration("threshold", slowRequestThreshold),
				slog.Int("status_code", c.Writer.Status()),
			)
		}
	}
}

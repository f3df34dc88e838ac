package slogging

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request correlation id in both directions
const RequestIDHeader = "X-Request-ID"

// contextLoggerKey is the gin context key the request logger is stored under
const contextLoggerKey = "logger"

// GinContextLike defines a minimal interface for contexts that can be used with the logger
type GinContextLike interface {
	Get(key any) (any, bool)
	GetHeader(key string) string
	ClientIP() string
}

// GetContextLogger retrieves the request logger from the context, or a
// request-less logger built from the global one
func GetContextLogger(c GinContextLike) SimpleLogger {
	if loggerInterface, exists := c.Get(contextLoggerKey); exists {
		if logger, ok := loggerInterface.(SimpleLogger); ok {
			return logger
		}
	}
	return Get().WithContext(c)
}

// WithContext returns a context-aware logger that includes request information
func (l *Logger) WithContext(c GinContextLike) *ContextLogger {
	requestID := c.GetHeader(RequestIDHeader)
	if requestID == "" {
		if existing, ok := c.Get("request_id"); ok {
			requestID, _ = existing.(string)
		}
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}

	clientIP := c.ClientIP()
	ctx := context.Background()
	if gc, ok := c.(*gin.Context); ok && gc.Request != nil {
		ctx = gc.Request.Context()
	}

	return &ContextLogger{
		logger: l,
		slogger: l.slogger.With(
			slog.String("request_id", requestID),
			slog.String("client_ip", clientIP),
		),
		ctx:       ctx,
		requestID: requestID,
		clientIP:  clientIP,
	}
}

// ContextLogger adds request context to log messages
type ContextLogger struct {
	logger    *Logger
	slogger   *slog.Logger
	ctx       context.Context
	requestID string
	clientIP  string
}

// RequestID returns the correlation id attached to this logger
func (cl *ContextLogger) RequestID() string {
	return cl.requestID
}

// Debug logs a debug-level message with context
func (cl *ContextLogger) Debug(format string, args ...any) {
	if cl.logger.level > LogLevelDebug {
		return
	}
	cl.slogger.Debug(formatMessage(format, args))
}

// Info logs an info-level message with context
func (cl *ContextLogger) Info(format string, args ...any) {
	if cl.logger.level > LogLevelInfo {
		return
	}
	cl.slogger.Info(formatMessage(format, args))
}

// Warn logs a warning-level message with context
func (cl *ContextLogger) Warn(format string, args ...any) {
	if cl.logger.level > LogLevelWarn {
		return
	}
	cl.slogger.Warn(formatMessage(format, args))
}

// Error logs an error-level message with context
func (cl *ContextLogger) Error(format string, args ...any) {
	if cl.logger.level > LogLevelError {
		return
	}
	cl.slogger.Error(formatMessage(format, args))
}

// DebugCtx logs a debug message with additional structured attributes
func (cl *ContextLogger) DebugCtx(msg string, attrs ...slog.Attr) {
	cl.slogger.LogAttrs(cl.ctx, slog.LevelDebug, SanitizeLogMessage(msg), attrs...)
}

// InfoCtx logs an info message with additional structured attributes
func (cl *ContextLogger) InfoCtx(msg string, attrs ...slog.Attr) {
	cl.slogger.LogAttrs(cl.ctx, slog.LevelInfo, SanitizeLogMessage(msg), attrs...)
}

// WarnCtx logs a warning message with additional structured attributes
func (cl *ContextLogger) WarnCtx(msg string, attrs ...slog.Attr) {
	cl.slogger.LogAttrs(cl.ctx, slog.LevelWarn, SanitizeLogMessage(msg), attrs...)
}

// ErrorCtx logs an error message with additional structured attributes
func (cl *ContextLogger) ErrorCtx(msg string, attrs ...slog.Attr) {
	cl.slogger.LogAttrs(cl.ctx, slog.LevelError, SanitizeLogMessage(msg), attrs...)
}

// WithAttrs returns a new ContextLogger with additional attributes
func (cl *ContextLogger) WithAttrs(attrs ...slog.Attr) *ContextLogger {
	return &ContextLogger{
		logger:    cl.logger,
		slogger:   cl.slogger.With(attrsToAny(attrs)...),
		ctx:       cl.ctx,
		requestID: cl.requestID,
		clientIP:  cl.clientIP,
	}
}

func attrsToAny(attrs []slog.Attr) []any {
	result := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		result = append(result, attr)
	}
	return result
}

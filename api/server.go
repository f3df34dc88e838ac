package api

import (
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
	"github.com/notekeeper/notes/internal/slogging"
)

// Server bundles the note routes with their middleware
type Server struct {
	noteHandler *NoteHandler

	// telemetry handlers run after CORS, may be empty
	telemetry []gin.HandlerFunc
	// metrics serves GET /metrics when non-nil
	metrics              http.Handler
	openapi              *openapi3.T
	slowRequestThreshold time.Duration
}

// ServerOption customizes a Server
type ServerOption func(*Server)

// WithTelemetry installs tracing and metrics middleware
func WithTelemetry(handlers ...gin.HandlerFunc) ServerOption {
	return func(s *Server) {
		s.telemetry = append(s.telemetry, handlers...)
	}
}

// WithMetricsHandler exposes a scrape endpoint at /metrics
func WithMetricsHandler(handler http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = handler
	}
}

// WithOpenAPI publishes doc at /api/openapi.json
func WithOpenAPI(doc *openapi3.T) ServerOption {
	return func(s *Server) {
		s.openapi = doc
	}
}

// WithSlowRequestThreshold logs requests slower than d
func WithSlowRequestThreshold(d time.Duration) ServerOption {
	return func(s *Server) {
		s.slowRequestThreshold = d
	}
}

// NewServer creates a new API server instance
func NewServer(store NoteStore, opts ...ServerOption) *Server {
	s := &Server{noteHandler: NewNoteHandler(store)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine: logging, recovery, CORS, telemetry and the
// error handler wrap every route, and unmatched requests get a JSON 404
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = false
	r.RedirectTrailingSlash = false

	r.Use(slogging.LoggerMiddleware())
	r.Use(CustomRecoveryMiddleware())
	r.Use(slogging.PerformanceMiddleware(s.slowRequestThreshold))
	r.Use(CORS())
	r.Use(s.telemetry...)
	r.Use(ErrorHandler())

	s.RegisterHandlers(r)

	r.NoRoute(UnknownEndpoint)
	r.NoMethod(UnknownEndpoint)
	return r
}

// RegisterHandlers registers the note routes with the router
func (s *Server) RegisterHandlers(r gin.IRouter) {
	r.GET("/", s.noteHandler.Greeting)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}
	if s.openapi != nil {
		r.GET("/api/openapi.json", OpenAPIHandler(s.openapi))
	}

	notes := r.Group("/api/notes")
	notes.POST("", s.noteHandler.CreateNote)
	notes.GET("", s.noteHandler.ListNotes)
	notes.GET("/:id", s.noteHandler.GetNote)
	notes.PUT("/:id", s.noteHandler.UpdateNote)
	notes.DELETE("/:id", s.noteHandler.DeleteNote)
}

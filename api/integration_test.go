package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/gin-gonic/gin"
	"github.com/notekeeper/notes/internal/config"
	"github.com/notekeeper/notes/internal/db"
	"github.com/notekeeper/notes/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// integrationServer wires the full stack over sqlite, miniredis and a
// metrics-only telemetry service
type integrationServer struct {
	router *gin.Engine
	doc    *openapi3.T
}

func newIntegrationServer(t *testing.T) *integrationServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	svc, err := telemetry.NewService(ctx, config.TelemetryConfig{
		ServiceName:       "notes-test",
		ServiceVersion:    "0.0.1",
		Environment:       "test",
		TracingSampleRate: 1.0,
		MetricsEnabled:    true,
		MetricsInterval:   30 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	noteMetrics, err := telemetry.NewNoteMetrics(svc.Meter())
	require.NoError(t, err)
	middleware, err := svc.GinMiddleware(time.Second)
	require.NoError(t, err)

	redis, _ := db.NewTestRedis(t)
	gormStore, _ := newSQLiteStore(t, NewCacheService(redis, time.Minute, noteMetrics))
	store := NewInstrumentedNoteStore(gormStore, svc.Tracer(), noteMetrics)

	doc, err := GetSwagger()
	require.NoError(t, err)

	server := NewServer(store,
		WithTelemetry(middleware...),
		WithMetricsHandler(svc.PrometheusHandler()),
		WithOpenAPI(doc),
		WithSlowRequestThreshold(time.Second),
	)
	return &integrationServer{router: server.Router(), doc: doc}
}

// do performs a request and checks the response against the OpenAPI document
func (s *integrationServer) do(t *testing.T, method, path, routePath string, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if routePath != "" {
		s.validateResponse(t, req, routePath, w)
	}
	return w
}

func (s *integrationServer) validateResponse(t *testing.T, req *http.Request, routePath string, w *httptest.ResponseRecorder) {
	t.Helper()

	pathItem := s.doc.Paths.Value(routePath)
	require.NotNil(t, pathItem, "path %s missing from document", routePath)
	operation := pathItem.GetOperation(req.Method)
	require.NotNil(t, operation, "%s %s missing from document", req.Method, routePath)

	params := map[string]string{}
	if strings.Contains(routePath, "{id}") {
		params["id"] = req.URL.Path[strings.LastIndex(req.URL.Path, "/")+1:]
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: params,
			Route: &routers.Route{
				Spec:      s.doc,
				Path:      routePath,
				PathItem:  pathItem,
				Method:    req.Method,
				Operation: operation,
			},
		},
		Status: w.Code,
		Header: w.Header(),
		Options: &openapi3filter.Options{
			IncludeResponseStatus: true,
		},
	}
	input.SetBodyBytes(w.Body.Bytes())

	err := openapi3filter.ValidateResponse(context.Background(), input)
	assert.NoError(t, err, "%s %s -> %d %s", req.Method, req.URL.Path, w.Code, w.Body.String())
}

func TestNotesLifecycle(t *testing.T) {
	s := newIntegrationServer(t)

	w := s.do(t, http.MethodGet, "/api/notes", "/api/notes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = s.do(t, http.MethodPost, "/api/notes", "/api/notes", `{"content":"HTML is easy","important":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	var created Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "HTML is easy", created.Content)
	assert.True(t, created.Important)
	id := created.Id.String()

	w = s.do(t, http.MethodPost, "/api/notes", "/api/notes", `{"content":12.50}`)
	require.Equal(t, http.StatusOK, w.Code)
	var numeric Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &numeric))
	assert.Equal(t, "12.50", numeric.Content)
	assert.False(t, numeric.Important)

	w = s.do(t, http.MethodGet, "/api/notes", "/api/notes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var notes []Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 2)
	assert.Equal(t, created, notes[0])

	w = s.do(t, http.MethodPut, "/api/notes/"+id, "/api/notes/{id}", `{"content":"HTML is easy","important":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+id+`","content":"HTML is easy","important":false}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/notes/"+id, "/api/notes/{id}", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+id+`","content":"HTML is easy","important":false}`, w.Body.String())

	w = s.do(t, http.MethodDelete, "/api/notes/"+id, "/api/notes/{id}", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/notes/"+id, "/api/notes/{id}", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Body.String())

	// a well-formed id with no note answers null; not checked against the
	// document because the null body has no object shape
	w = s.do(t, http.MethodPut, "/api/notes/"+id, "", `{"content":"gone"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	w = s.do(t, http.MethodDelete, "/api/notes/"+id, "/api/notes/{id}", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/notes", "/api/notes", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "12.50", notes[0].Content)
}

func TestErrorResponsesMatchContract(t *testing.T) {
	s := newIntegrationServer(t)

	tests := []struct {
		name      string
		method    string
		path      string
		routePath string
		body      string
		status    int
		message   string
	}{
		{"missing content", http.MethodPost, "/api/notes", "/api/notes", `{"important":true}`, http.StatusBadRequest, "content missing"},
		{"null content", http.MethodPost, "/api/notes", "/api/notes", `{"content":null}`, http.StatusBadRequest, "Note validation failed: content: Path `content` is required."},
		{"malformed json", http.MethodPost, "/api/notes", "/api/notes", `{"content":`, http.StatusBadRequest, "malformatted json"},
		{"malformed id on get", http.MethodGet, "/api/notes/" + malformedID, "/api/notes/{id}", "", http.StatusBadRequest, "malformatted id"},
		{"malformed id on put", http.MethodPut, "/api/notes/1", "/api/notes/{id}", `{"content":"x"}`, http.StatusBadRequest, "malformatted id"},
		{"malformed id on delete", http.MethodDelete, "/api/notes/abc", "/api/notes/{id}", "", http.StatusBadRequest, "malformatted id"},
		{"unknown endpoint", http.MethodGet, "/api/unknown", "", "", http.StatusNotFound, "unknown endpoint"},
		{"trailing slash", http.MethodGet, "/api/notes/", "", "", http.StatusNotFound, "unknown endpoint"},
		{"malformed id beats bad body", http.MethodPut, "/api/notes/bad", "/api/notes/{id}", `{"important":"zzz"}`, http.StatusBadRequest, "malformatted id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.routePath, tt.body)

			assert.Equal(t, tt.status, w.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Error)
		})
	}
}

func TestContentRoundTripsVerbatim(t *testing.T) {
	s := newIntegrationServer(t)

	for _, content := range []string{
		"family \U0001F468\u200d\U0001F469\u200d\U0001F467",
		"\u05e9\u05dc\u05d5\u05dd\u200f 123",
	} {
		payload, err := json.Marshal(map[string]string{"content": content})
		require.NoError(t, err)

		w := s.do(t, http.MethodPost, "/api/notes", "/api/notes", string(payload))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var created Note
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, content, created.Content)

		w = s.do(t, http.MethodGet, "/api/notes/"+created.Id.String(), "/api/notes/{id}", "")
		require.Equal(t, http.StatusOK, w.Code)
		var fetched Note
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
		assert.Equal(t, content, fetched.Content)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newIntegrationServer(t)

	s.do(t, http.MethodPost, "/api/notes", "/api/notes", `{"content":"counted"}`)
	s.do(t, http.MethodGet, "/api/notes", "/api/notes", "")

	w := s.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "note_operations")
	assert.Contains(t, w.Body.String(), "http_server_request_duration_seconds")
}

func TestOpenAPIDocument(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "Notes API", doc.Info.Title)
	for _, path := range []string{"/", "/api/notes", "/api/notes/{id}"} {
		assert.NotNil(t, doc.Paths.Value(path), path)
	}

	s := newIntegrationServer(t)
	w := s.do(t, http.MethodGet, "/api/openapi.json", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var served map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &served))
	assert.Equal(t, "3.0.3", served["openapi"])
	assert.Contains(t, served["paths"], "/api/notes/{id}")
}

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/notekeeper/notes/internal/db"
	"github.com/stretchr/testify/mock"
)

const (
	testNoteID1  = "0190a5b8-3c4d-7e8f-9a0b-1c2d3e4f5a6b"
	testNoteID2  = "0190a5b8-3c4d-7e8f-9a0b-1c2d3e4f5a6c"
	missingID    = "0190a5b8-0000-7000-8000-000000000000"
	malformedID  = "5c41c90e455d7f1c4c8b4567"
	testMaxChars = 50
)

// MockNoteStore is a mock implementation of NoteStore for testing
type MockNoteStore struct {
	mock.Mock
}

func (m *MockNoteStore) Create(ctx context.Context, input NoteInput) (*Note, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockNoteStore) List(ctx context.Context) ([]Note, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Note), args.Error(1)
}

func (m *MockNoteStore) Get(ctx context.Context, id string) (*Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockNoteStore) Update(ctx context.Context, id string, input NoteInput) (*Note, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockNoteStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestRouter(store NoteStore, opts ...ServerOption) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewServer(store, opts...).Router()
}

// newSQLiteStore returns a GORM store over a fresh in-memory database
func newSQLiteStore(t *testing.T, cache *CacheService) (*GormNoteStore, *db.TestDB) {
	t.Helper()
	tdb := db.MustCreateTestDB(t)
	return NewGormNoteStore(tdb.DB, cache, ContentRules{MaxLength: testMaxChars}), tdb
}

func performRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mustParseUUID(t *testing.T, s string) TypesUUID {
	t.Helper()
	id, err := ParseUUID(s)
	if err != nil {
		t.Fatalf("bad test uuid %s: %v", s, err)
	}
	return id
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

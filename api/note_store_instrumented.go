package api

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/notekeeper/notes/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedNoteStore wraps a NoteStore with spans and metrics
type InstrumentedNoteStore struct {
	next    NoteStore
	tracer  trace.Tracer
	metrics *telemetry.NoteMetrics
}

// NewInstrumentedNoteStore decorates next with tracing and metrics
func NewInstrumentedNoteStore(next NoteStore, tracer trace.Tracer, metrics *telemetry.NoteMetrics) *InstrumentedNoteStore {
	return &InstrumentedNoteStore{next: next, tracer: tracer, metrics: metrics}
}

func (s *InstrumentedNoteStore) start(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, "note."+operation, trace.WithAttributes(attrs...))
	return ctx, span, time.Now()
}

func (s *InstrumentedNoteStore) finish(ctx context.Context, span trace.Span, operation string, started time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	s.metrics.RecordOperation(ctx, operation, time.Since(started), err)
}

func (s *InstrumentedNoteStore) recordContent(ctx context.Context, input NoteInput) {
	if input.Content != nil {
		s.metrics.RecordContentLength(ctx, utf8.RuneCountInString(*input.Content))
	}
}

// Create implements NoteStore
func (s *InstrumentedNoteStore) Create(ctx context.Context, input NoteInput) (*Note, error) {
	ctx, span, started := s.start(ctx, "create")
	note, err := s.next.Create(ctx, input)
	if err == nil {
		span.SetAttributes(attribute.String("note.id", note.Id.String()))
		s.recordContent(ctx, input)
	}
	s.finish(ctx, span, "create", started, err)
	return note, err
}

// List implements NoteStore
func (s *InstrumentedNoteStore) List(ctx context.Context) ([]Note, error) {
	ctx, span, started := s.start(ctx, "list")
	notes, err := s.next.List(ctx)
	span.SetAttributes(attribute.Int("note.count", len(notes)))
	s.finish(ctx, span, "list", started, err)
	return notes, err
}

// Get implements NoteStore
func (s *InstrumentedNoteStore) Get(ctx context.Context, id string) (*Note, error) {
	ctx, span, started := s.start(ctx, "get", attribute.String("note.id", id))
	note, err := s.next.Get(ctx, id)
	span.SetAttributes(attribute.Bool("note.found", note != nil))
	s.finish(ctx, span, "get", started, err)
	return note, err
}

// Update implements NoteStore
func (s *InstrumentedNoteStore) Update(ctx context.Context, id string, input NoteInput) (*Note, error) {
	ctx, span, started := s.start(ctx, "update", attribute.String("note.id", id))
	note, err := s.next.Update(ctx, id, input)
	if err == nil {
		span.SetAttributes(attribute.Bool("note.found", note != nil))
		s.recordContent(ctx, input)
	}
	s.finish(ctx, span, "update", started, err)
	return note, err
}

// Delete implements NoteStore
func (s *InstrumentedNoteStore) Delete(ctx context.Context, id string) error {
	ctx, span, started := s.start(ctx, "delete", attribute.String("note.id", id))
	err := s.next.Delete(ctx, id)
	s.finish(ctx, span, "delete", started, err)
	return err
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/notekeeper/notes/internal/db"
	"github.com/notekeeper/notes/internal/slogging"
	"github.com/notekeeper/notes/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

// DefaultNoteCacheTTL bounds how long a cached note or list may be served
const DefaultNoteCacheTTL = 5 * time.Minute

// CacheService provides Redis read-through caching for notes. Every write
// bumps a version key; a read only fills the cache if the version it
// watched is unchanged, so a stale row never overwrites a newer write.
type CacheService struct {
	redis   *db.RedisDB
	builder *db.RedisKeyBuilder
	ttl     time.Duration
	metrics *telemetry.NoteMetrics
}

// NewCacheService creates a new cache service instance
func NewCacheService(rdb *db.RedisDB, ttl time.Duration, metrics *telemetry.NoteMetrics) *CacheService {
	if ttl <= 0 {
		ttl = DefaultNoteCacheTTL
	}
	return &CacheService{
		redis:   rdb,
		builder: db.NewRedisKeyBuilder(),
		ttl:     ttl,
		metrics: metrics,
	}
}

// GetCachedNote retrieves a cached note, returning nil on a cache miss
func (cs *CacheService) GetCachedNote(ctx context.Context, noteID string) (*Note, error) {
	var note Note
	hit, err := cs.getJSON(ctx, cs.builder.CacheNoteKey(noteID), &note)
	if err != nil || !hit {
		return nil, err
	}
	return &note, nil
}

// GetCachedNoteList retrieves the cached note list, returning nil on a miss
func (cs *CacheService) GetCachedNoteList(ctx context.Context) ([]Note, error) {
	var notes []Note
	hit, err := cs.getJSON(ctx, cs.builder.CacheNoteListKey(), &notes)
	if err != nil || !hit {
		return nil, err
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

// LoadNote serves a note from the cache or calls load and caches its
// result. The fill is dropped when a write to the note lands while load runs.
func (cs *CacheService) LoadNote(ctx context.Context, noteID string, load func(context.Context) (*Note, error)) (*Note, error) {
	logger := slogging.Get()

	note, err := cs.GetCachedNote(ctx, noteID)
	if err != nil {
		logger.Error("Cache error when getting note %s: %v", noteID, err)
	} else if note != nil {
		logger.Debug("Cache hit for note: %s", noteID)
		return note, nil
	}

	var loaded *Note
	err = cs.fill(ctx, cs.builder.CacheNoteVersionKey(noteID), cs.builder.CacheNoteKey(noteID),
		func(ctx context.Context) (any, error) {
			var loadErr error
			loaded, loadErr = load(ctx)
			if loadErr != nil || loaded == nil {
				return nil, loadErr
			}
			return loaded, nil
		})
	return loaded, err
}

// LoadNoteList serves the note list from the cache or calls load and caches
// its result. The fill is dropped when any note write lands while load runs.
func (cs *CacheService) LoadNoteList(ctx context.Context, load func(context.Context) ([]Note, error)) ([]Note, error) {
	logger := slogging.Get()

	notes, err := cs.GetCachedNoteList(ctx)
	if err != nil {
		logger.Error("Cache error when listing notes: %v", err)
	} else if notes != nil {
		logger.Debug("Cache hit for note list")
		return notes, nil
	}

	var loaded []Note
	err = cs.fill(ctx, cs.builder.CacheNoteListVersionKey(), cs.builder.CacheNoteListKey(),
		func(ctx context.Context) (any, error) {
			var loadErr error
			loaded, loadErr = load(ctx)
			if loadErr != nil {
				return nil, loadErr
			}
			return loaded, nil
		})
	return loaded, err
}

// fill watches versionKey, runs load and stores its non-nil result under
// dataKey only if versionKey is unchanged. Cache failures never fail the
// read; load errors are returned as is.
func (cs *CacheService) fill(ctx context.Context, versionKey, dataKey string, load func(context.Context) (any, error)) error {
	logger := slogging.Get()

	loaded := false
	var loadErr error
	err := cs.redis.Watch(ctx, func(tx *redis.Tx) error {
		loaded = true
		var value any
		value, loadErr = load(ctx)
		if loadErr != nil || value == nil {
			return nil
		}

		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", dataKey, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, dataKey, data, cs.ttl)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case !loaded:
		logger.Error("Cache unavailable for %s, reading through: %v", dataKey, err)
		_, loadErr = load(ctx)
	case errors.Is(err, redis.TxFailedErr):
		logger.Debug("Skipped caching %s: written during read", dataKey)
	case err != nil:
		logger.Error("Failed to cache %s: %v", dataKey, err)
	default:
		if loadErr == nil {
			logger.Debug("Cached %s with TTL %v", dataKey, cs.ttl)
		}
	}
	return loadErr
}

// InvalidateNote drops a note and the list that contains it, and aborts any
// fill of either that is still in flight
func (cs *CacheService) InvalidateNote(ctx context.Context, noteID string) error {
	versions := []string{cs.builder.CacheNoteVersionKey(noteID), cs.builder.CacheNoteListVersionKey()}
	if err := cs.redis.Bump(ctx, cs.versionTTL(), versions, cs.builder.CacheNoteKey(noteID), cs.builder.CacheNoteListKey()); err != nil {
		return fmt.Errorf("failed to invalidate note %s: %w", noteID, err)
	}
	slogging.Get().Debug("Invalidated cache for note %s", noteID)
	return nil
}

// InvalidateNoteList drops the cached list only
func (cs *CacheService) InvalidateNoteList(ctx context.Context) error {
	if err := cs.redis.Bump(ctx, cs.versionTTL(), []string{cs.builder.CacheNoteListVersionKey()}, cs.builder.CacheNoteListKey()); err != nil {
		return fmt.Errorf("failed to invalidate note list: %w", err)
	}
	return nil
}

// versionTTL keeps version keys alive well past any in-flight read
func (cs *CacheService) versionTTL() time.Duration {
	return 2 * cs.ttl
}

func (cs *CacheService) getJSON(ctx context.Context, key string, target any) (bool, error) {
	data, err := cs.redis.Get(ctx, key)
	if errors.Is(err, db.ErrCacheMiss) {
		cs.recordLookup(ctx, false)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), target); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache key %s: %w", key, err)
	}
	cs.recordLookup(ctx, true)
	return true, nil
}

func (cs *CacheService) recordLookup(ctx context.Context, hit bool) {
	if cs.metrics != nil {
		cs.metrics.RecordCacheLookup(ctx, hit)
	}
}

package db

import (
	"fmt"
	"strings"
)

// RedisKeyBuilder builds the cache keys used by the note cache
type RedisKeyBuilder struct{}

// NewRedisKeyBuilder creates a new Redis key builder
func NewRedisKeyBuilder() *RedisKeyBuilder {
	return &RedisKeyBuilder{}
}

// CacheNoteKey builds a single-note cache key
func (b *RedisKeyBuilder) CacheNoteKey(noteID string) string {
	return fmt.Sprintf("cache:note:%s", noteID)
}

// CacheNoteListKey builds the key holding the full note list
func (b *RedisKeyBuilder) CacheNoteListKey() string {
	return "cache:notes:all"
}

// CacheNoteVersionKey builds the key bumped on every write to a note
func (b *RedisKeyBuilder) CacheNoteVersionKey(noteID string) string {
	return fmt.Sprintf("cache:note:%s:version", noteID)
}

// CacheNoteListVersionKey builds the key bumped on every write to any note
func (b *RedisKeyBuilder) CacheNoteListVersionKey() string {
	return "cache:notes:all:version"
}

// ParseNoteKey extracts the note id from a single-note cache key
func (b *RedisKeyBuilder) ParseNoteKey(key string) (string, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != "cache" || parts[1] != "note" || parts[2] == "" {
		return "", fmt.Errorf("invalid note cache key format: %s", key)
	}
	return parts[2], nil
}

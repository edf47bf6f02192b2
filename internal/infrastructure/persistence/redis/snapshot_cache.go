// Package redis implements Redis caching for the AcademIQ risk pipeline.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MoeApps/AcademIQ/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT CACHE
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotCache stores the latest pipeline result per student.
// It implements command.SnapshotCache. Entries are advisory: a miss
// just means the next read recomputes from the source of truth.
type SnapshotCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewSnapshotCache creates a new SnapshotCache.
// ttl <= 0 falls back to TTLSnapshot.
func NewSnapshotCache(cache *Cache, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = TTLSnapshot
	}
	return &SnapshotCache{cache: cache, ttl: ttl}
}

// SetLatest stores the latest snapshot for a student, replacing any
// previous one.
func (c *SnapshotCache) SetLatest(ctx context.Context, snapshot command.StudentSnapshot) error {
	if snapshot.StudentID == "" {
		return ErrCacheKeyEmpty
	}

	key := SnapshotKey(snapshot.StudentID)
	if err := c.cache.Set(ctx, key, snapshot, c.ttl); err != nil {
		return fmt.Errorf("failed to cache snapshot for %s: %w", snapshot.StudentID, err)
	}

	return nil
}

// GetLatest returns the latest cached snapshot for a student.
// found is false on a cache miss.
func (c *SnapshotCache) GetLatest(ctx context.Context, studentID string) (command.StudentSnapshot, bool, error) {
	if studentID == "" {
		return command.StudentSnapshot{}, false, ErrCacheKeyEmpty
	}

	var snapshot command.StudentSnapshot
	err := c.cache.Get(ctx, SnapshotKey(studentID), &snapshot)
	if errors.Is(err, ErrCacheMiss) {
		return command.StudentSnapshot{}, false, nil
	}
	if err != nil {
		return command.StudentSnapshot{}, false, fmt.Errorf("failed to read snapshot for %s: %w", studentID, err)
	}

	return snapshot, true, nil
}

// Invalidate removes a student's cached snapshot.
func (c *SnapshotCache) Invalidate(ctx context.Context, studentID string) error {
	if studentID == "" {
		return ErrCacheKeyEmpty
	}
	return c.cache.Delete(ctx, SnapshotKey(studentID))
}

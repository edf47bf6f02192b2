// Package ml implements infrastructure around the trained risk model.
package ml

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MoeApps/AcademIQ/internal/domain/features"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
)

// ══════════════════════════════════════════════════════════════════════════════
// POPULATION CACHE
// ══════════════════════════════════════════════════════════════════════════════

// PopulationSource loads the classified population from durable storage.
// Implemented by postgres.PopulationRepository.
type PopulationSource interface {
	GetAll(ctx context.Context) ([]risk.PopulationRow, error)
}

// PopulationCache holds the classified population in memory.
// The population only changes when the trainer republishes it, so the
// first read loads everything once and later reads are map lookups.
// Refresh replaces the whole cached state under a write lock; a failed
// initial load is not sticky and the next read retries.
type PopulationCache struct {
	source  PopulationSource
	maxAge  time.Duration
	nowFunc func() time.Time

	mu       sync.RWMutex
	once     *sync.Once
	rows     map[string]risk.PopulationRow
	means    features.Vector
	loadedAt time.Time
	loadErr  error
}

// NewPopulationCache creates a PopulationCache over the given source.
// maxAge <= 0 disables age-based refresh; the cache then only reloads
// via Refresh.
func NewPopulationCache(source PopulationSource, maxAge time.Duration) *PopulationCache {
	return &PopulationCache{
		source:  source,
		maxAge:  maxAge,
		nowFunc: time.Now,
		once:    new(sync.Once),
	}
}

// ensureLoaded populates the cache on first use and after expiry.
func (c *PopulationCache) ensureLoaded(ctx context.Context) error {
	c.mu.RLock()
	once := c.once
	expired := c.maxAge > 0 && !c.loadedAt.IsZero() && c.nowFunc().Sub(c.loadedAt) > c.maxAge
	c.mu.RUnlock()

	if expired {
		c.Refresh()
		c.mu.RLock()
		once = c.once
		c.mu.RUnlock()
	}

	once.Do(func() {
		rows, err := c.source.GetAll(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()

		if err != nil {
			c.loadErr = fmt.Errorf("ml: failed to load population: %w", err)
			// Allow the next caller to retry
			c.once = new(sync.Once)
			return
		}

		byStudent := make(map[string]risk.PopulationRow, len(rows))
		for _, row := range rows {
			byStudent[row.StudentID] = row
		}

		c.rows = byStudent
		c.means = risk.Means(rows)
		c.loadedAt = c.nowFunc()
		c.loadErr = nil
	})

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// Refresh drops the cached population so the next read reloads it.
// Called after the trainer republishes or after an ingest rescores
// a student.
func (c *PopulationCache) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.once = new(sync.Once)
	c.loadedAt = time.Time{}
	c.loadErr = nil
}

// Lookup returns a student's population row.
// found is false when the student has never been classified.
func (c *PopulationCache) Lookup(ctx context.Context, studentID string) (risk.PopulationRow, bool, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return risk.PopulationRow{}, false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	row, ok := c.rows[studentID]
	return row, ok, nil
}

// Means returns the per-feature population means.
func (c *PopulationCache) Means(ctx context.Context) (features.Vector, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return features.Vector{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.rows) == 0 {
		return features.Vector{}, risk.ErrEmptyPopulation
	}

	return c.means, nil
}

// Size returns the number of classified students in the cache.
func (c *PopulationCache) Size(ctx context.Context) (int, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rows), nil
}

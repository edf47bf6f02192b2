package ml

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoeApps/AcademIQ/internal/domain/features"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
)

// fakePopulationSource counts GetAll calls so tests can assert how
// often the cache hits durable storage.
type fakePopulationSource struct {
	rows     []risk.PopulationRow
	failWith error
	calls    int
}

func (f *fakePopulationSource) GetAll(_ context.Context) ([]risk.PopulationRow, error) {
	f.calls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.rows, nil
}

func populationRows() []risk.PopulationRow {
	return []risk.PopulationRow{
		{StudentID: "S001", Features: features.Vector{AvgQuizScore: 8}, Cluster: 0, Level: risk.LevelLow},
		{StudentID: "S002", Features: features.Vector{AvgQuizScore: 4}, Cluster: 2, Level: risk.LevelHigh},
	}
}

func TestPopulationCache_LoadsOnce(t *testing.T) {
	source := &fakePopulationSource{rows: populationRows()}
	cache := NewPopulationCache(source, 0)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, found, err := cache.Lookup(ctx, "S001")
		require.NoError(t, err)
		assert.True(t, found)
	}
	_, err := cache.Means(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
}

func TestPopulationCache_LookupMiss(t *testing.T) {
	cache := NewPopulationCache(&fakePopulationSource{rows: populationRows()}, 0)

	_, found, err := cache.Lookup(context.Background(), "S999")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPopulationCache_Means(t *testing.T) {
	cache := NewPopulationCache(&fakePopulationSource{rows: populationRows()}, 0)

	means, err := cache.Means(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 6.0, means.AvgQuizScore, 1e-9)
}

func TestPopulationCache_EmptyPopulationMeans(t *testing.T) {
	cache := NewPopulationCache(&fakePopulationSource{}, 0)

	_, err := cache.Means(context.Background())
	assert.ErrorIs(t, err, risk.ErrEmptyPopulation)
}

func TestPopulationCache_FailedLoadIsRetried(t *testing.T) {
	source := &fakePopulationSource{failWith: errors.New("connection refused")}
	cache := NewPopulationCache(source, 0)
	ctx := context.Background()

	_, _, err := cache.Lookup(ctx, "S001")
	require.Error(t, err)

	// A failed load is not sticky: the source recovers and the next
	// read loads the population.
	source.failWith = nil
	source.rows = populationRows()

	_, found, err := cache.Lookup(ctx, "S001")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, source.calls)
}

func TestPopulationCache_RefreshForcesReload(t *testing.T) {
	source := &fakePopulationSource{rows: populationRows()}
	cache := NewPopulationCache(source, 0)
	ctx := context.Background()

	_, _, err := cache.Lookup(ctx, "S001")
	require.NoError(t, err)

	source.rows = append(source.rows, risk.PopulationRow{StudentID: "S003", Level: risk.LevelMedium})
	cache.Refresh()

	_, found, err := cache.Lookup(ctx, "S003")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, source.calls)
}

func TestPopulationCache_MaxAgeExpiresCache(t *testing.T) {
	source := &fakePopulationSource{rows: populationRows()}
	cache := NewPopulationCache(source, time.Minute)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cache.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	_, _, err := cache.Lookup(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)

	// Within maxAge the cache is served from memory.
	now = now.Add(30 * time.Second)
	_, _, err = cache.Lookup(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)

	now = now.Add(2 * time.Minute)
	_, _, err = cache.Lookup(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestPopulationCache_Size(t *testing.T) {
	cache := NewPopulationCache(&fakePopulationSource{rows: populationRows()}, 0)

	size, err := cache.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

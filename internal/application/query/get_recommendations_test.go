package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoeApps/AcademIQ/internal/domain/recommendation"
)

type fakeRecStore struct {
	recs      []*recommendation.Recommendation
	lastLimit int
}

func (f *fakeRecStore) SaveBatch(_ context.Context, recs []*recommendation.Recommendation) error {
	f.recs = append(f.recs, recs...)
	return nil
}

func (f *fakeRecStore) GetByStudent(_ context.Context, studentID string, limit int) ([]*recommendation.Recommendation, error) {
	f.lastLimit = limit
	out := make([]*recommendation.Recommendation, 0)
	for _, r := range f.recs {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRecStore) CountByStudent(_ context.Context, studentID string) (int, error) {
	n := 0
	for _, r := range f.recs {
		if r.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func TestGetRecommendations_RequiresStudentID(t *testing.T) {
	handler := NewGetRecommendationsHandler(&fakeRecStore{})

	_, err := handler.Handle(context.Background(), GetRecommendationsQuery{})
	assert.Error(t, err)
}

func TestGetRecommendations_ReturnsStudentRows(t *testing.T) {
	store := &fakeRecStore{recs: []*recommendation.Recommendation{
		{ID: "rec-1", StudentID: "S001", Type: recommendation.TypeContentBased, CreatedAt: time.Now()},
		{ID: "rec-2", StudentID: "S002", Type: recommendation.TypeContentBased, CreatedAt: time.Now()},
	}}
	handler := NewGetRecommendationsHandler(store)

	recs, err := handler.Handle(context.Background(), GetRecommendationsQuery{StudentID: "S001"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "rec-1", recs[0].ID)
}

func TestGetRecommendations_DefaultLimit(t *testing.T) {
	store := &fakeRecStore{}
	handler := NewGetRecommendationsHandler(store)

	_, err := handler.Handle(context.Background(), GetRecommendationsQuery{StudentID: "S001"})
	require.NoError(t, err)
	assert.Equal(t, 50, store.lastLimit)
}

func TestGetRecommendations_ExplicitLimit(t *testing.T) {
	store := &fakeRecStore{}
	handler := NewGetRecommendationsHandler(store)

	_, err := handler.Handle(context.Background(), GetRecommendationsQuery{StudentID: "S001", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, store.lastLimit)
}

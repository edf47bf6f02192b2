package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCourses_ReturnsCatalog(t *testing.T) {
	handler := NewListCoursesHandler(profileJournal())

	items, err := handler.Handle(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []CourseItem{
		{CourseID: "C01", Name: "Intro to Programming"},
		{CourseID: "C02", Name: "Discrete Math"},
		{CourseID: "C03", Name: "Algorithms"},
	}, items)
}

func TestListCourses_EmptyCatalog(t *testing.T) {
	handler := NewListCoursesHandler(&fakeJournal{})

	items, err := handler.Handle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

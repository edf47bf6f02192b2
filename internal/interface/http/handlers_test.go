package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoeApps/AcademIQ/internal/application/command"
	"github.com/MoeApps/AcademIQ/internal/application/query"
	"github.com/MoeApps/AcademIQ/internal/domain/academic"
	"github.com/MoeApps/AcademIQ/internal/domain/event"
	"github.com/MoeApps/AcademIQ/internal/domain/features"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST FIXTURES
// ══════════════════════════════════════════════════════════════════════════════

type stubResultSource struct {
	snapshots map[string]command.StudentSnapshot
}

func (s *stubResultSource) GetLatest(_ context.Context, studentID string) (command.StudentSnapshot, bool, error) {
	snapshot, ok := s.snapshots[studentID]
	return snapshot, ok, nil
}

type stubCatalog struct {
	courses []academic.Course
}

func (s *stubCatalog) GetStudent(_ context.Context, _ string) (*academic.Student, error) {
	return nil, academic.ErrStudentNotFound
}

func (s *stubCatalog) GetEnrolledCourseIDs(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (s *stubCatalog) GetGrades(_ context.Context, _ string) ([]academic.Grade, error) {
	return nil, nil
}

func (s *stubCatalog) GetCourseNames(_ context.Context, _ []string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (s *stubCatalog) ListCourses(_ context.Context) ([]academic.Course, error) {
	return s.courses, nil
}

func newTestServer(t *testing.T, mutate func(*Config, *Dependencies)) *Server {
	t.Helper()

	cfg := DefaultConfig()
	cfg.EnableMetrics = false
	cfg.RateLimitPerMinute = 0

	deps := Dependencies{}
	if mutate != nil {
		mutate(&cfg, &deps)
	}

	return NewServer(cfg, deps)
}

func doRequest(s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

// ══════════════════════════════════════════════════════════════════════════════
// INGEST: TIMEZONE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// ingestActiveDays runs one ingest request against a server configured
// with the given timezone and returns the computed active_days.
func ingestActiveDays(t *testing.T, loc *time.Location) float64 {
	t.Helper()

	server := newTestServer(t, func(cfg *Config, deps *Dependencies) {
		cfg.Location = loc
		deps.IngestEventsHandler = command.NewIngestEventsHandler(nil, nil, nil, nil)
	})

	// Two sessions on March 10 UTC; the second one is already March 11
	// in UTC+5.
	start1 := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC).UnixMilli()
	start2 := time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC).UnixMilli()
	duration := int64(30 * 60 * 1000)

	payload := event.RawPayload{
		StudentID: "S001",
		Sessions: []event.RawSession{
			{Start: &start1, DurationMillis: &duration},
			{Start: &start2, DurationMillis: &duration},
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	asOf := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC).UnixMilli()
	rec := doRequest(server, http.MethodPost, fmt.Sprintf("/api/v1/events?as_of=%d", asOf), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Features features.Vector `json:"Features"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data.Features.ActiveDays
}

func TestIngestEvents_AsOfUsesConfiguredTimezone(t *testing.T) {
	// In UTC both sessions fall on the same calendar day; five hours
	// east the evening session crosses midnight.
	assert.Equal(t, 1.0, ingestActiveDays(t, time.UTC))

	almaty := time.FixedZone("ALMT", 5*3600)
	assert.Equal(t, 2.0, ingestActiveDays(t, almaty))
}

// ══════════════════════════════════════════════════════════════════════════════
// LATEST RESULT ENDPOINT
// ══════════════════════════════════════════════════════════════════════════════

func TestGetLatestResult_ReturnsCachedSnapshot(t *testing.T) {
	source := &stubResultSource{snapshots: map[string]command.StudentSnapshot{
		"S001": {
			StudentID:  "S001",
			Features:   features.Vector{AvgQuizScore: 7.5},
			ComputedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		},
	}}
	server := newTestServer(t, func(_ *Config, deps *Dependencies) {
		deps.GetLatestResultHandler = query.NewGetLatestResultHandler(source)
	})

	rec := doRequest(server, http.MethodGet, "/api/v1/students/S001/result", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			StudentID string          `json:"student_id"`
			Features  features.Vector `json:"features"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "S001", resp.Data.StudentID)
	assert.Equal(t, 7.5, resp.Data.Features.AvgQuizScore)
}

func TestGetLatestResult_MissIs404(t *testing.T) {
	server := newTestServer(t, func(_ *Config, deps *Dependencies) {
		deps.GetLatestResultHandler = query.NewGetLatestResultHandler(&stubResultSource{})
	})

	rec := doRequest(server, http.MethodGet, "/api/v1/students/S999/result", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error *APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "result_not_found", resp.Error.Code)
}

func TestGetLatestResult_NotConfiguredIs501(t *testing.T) {
	server := newTestServer(t, nil)

	rec := doRequest(server, http.MethodGet, "/api/v1/students/S001/result", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE CATALOG ENDPOINT
// ══════════════════════════════════════════════════════════════════════════════

func TestListCourses_ReturnsCatalog(t *testing.T) {
	catalog := &stubCatalog{courses: []academic.Course{
		{ID: "C01", Name: "Intro to Programming"},
		{ID: "C02", Name: "Discrete Math"},
	}}
	server := newTestServer(t, func(_ *Config, deps *Dependencies) {
		deps.ListCoursesHandler = query.NewListCoursesHandler(catalog)
	})

	rec := doRequest(server, http.MethodGet, "/api/v1/courses", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data []query.CourseItem `json:"data"`
		Meta *ResponseMeta      `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []query.CourseItem{
		{CourseID: "C01", Name: "Intro to Programming"},
		{CourseID: "C02", Name: "Discrete Math"},
	}, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.TotalCount)
}

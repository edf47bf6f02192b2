package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MoeApps/AcademIQ/internal/application/command"
	"github.com/MoeApps/AcademIQ/internal/application/query"
	"github.com/MoeApps/AcademIQ/internal/domain/academic"
	"github.com/MoeApps/AcademIQ/internal/domain/event"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
	"github.com/MoeApps/AcademIQ/pkg/logger"
	"github.com/MoeApps/AcademIQ/pkg/metrics"
	"github.com/MoeApps/AcademIQ/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "AcademIQ API",
		"version":     "v1",
		"description": "REST API for AcademIQ - Learning Analytics and Risk Prediction",
		"endpoints": map[string]string{
			"health":          "/health",
			"ingest":          "POST /api/v1/events",
			"courses":         "/api/v1/courses",
			"risk":            "/api/v1/students/{id}/risk",
			"result":          "/api/v1/students/{id}/result",
			"profile":         "/api/v1/students/{id}/profile",
			"recommendations": "/api/v1/students/{id}/recommendations",
		},
		"documentation": "https://github.com/MoeApps/AcademIQ",
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PIPELINE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleIngestEvents handles POST /api/v1/events
//
// The body is a raw LMS activity payload for one student. Query
// parameters: skip_scoring=true returns features only, as_of (unix
// milliseconds) pins the evaluation instant for lateness checks.
func (s *Server) handleIngestEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.IngestEventsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Ingest handler not configured")
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.config.MaxRequestBytes)
	defer body.Close()

	var payload event.RawPayload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body exceeds the size limit")
			return
		}
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON", err.Error())
		return
	}

	cmd := command.IngestEventsCommand{
		Payload:     payload,
		SkipScoring: getQueryParamBool(r, "skip_scoring"),
	}
	// The as-of instant is rendered in the service timezone so that
	// calendar days line up with the deployment, not with the host TZ.
	var asOf time.Time
	if millis := getQueryParamInt64(r, "as_of", 0); millis > 0 {
		asOf = timeutil.FromMillis(millis)
	}
	cmd.AsOf = timeutil.OrNow(asOf).In(s.config.location())

	start := time.Now()
	result, err := s.deps.IngestEventsHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writePipelineError(w, r, "ingest events", err)
		return
	}

	metrics.RecordEventIngested()
	metrics.RecordPipelineLatency(float64(time.Since(start).Milliseconds()))
	if result.DroppedRecords > 0 {
		metrics.RecordRecordsDropped(result.DroppedRecords)
	}
	if result.Assessment != nil {
		metrics.RecordStudentScored(string(result.Assessment.Level))
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLatestResult handles GET /api/v1/students/{id}/result
//
// Returns the latest cached pipeline snapshot for the student: the
// feature vector and, when the model was available, the assessment.
func (s *Server) handleGetLatestResult(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if studentID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Student ID is required")
		return
	}

	if s.deps.GetLatestResultHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Result handler not configured")
		return
	}

	q := query.GetLatestResultQuery{StudentID: studentID}

	result, err := s.deps.GetLatestResultHandler.Handle(r.Context(), q)
	if err != nil {
		s.writePipelineError(w, r, "get latest result", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListCourses handles GET /api/v1/courses
func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListCoursesHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Courses handler not configured")
		return
	}

	result, err := s.deps.ListCoursesHandler.Handle(r.Context())
	if err != nil {
		s.writePipelineError(w, r, "list courses", err)
		return
	}

	meta := &ResponseMeta{TotalCount: len(result)}
	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleExplainStudent handles GET /api/v1/students/{id}/risk
func (s *Server) handleExplainStudent(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if studentID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Student ID is required")
		return
	}

	if s.deps.ExplainStudentHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Risk handler not configured")
		return
	}

	q := query.ExplainStudentQuery{StudentID: studentID}

	result, err := s.deps.ExplainStudentHandler.Handle(r.Context(), q)
	if err != nil {
		s.writePipelineError(w, r, "explain student risk", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetStudentProfile handles GET /api/v1/students/{id}/profile
func (s *Server) handleGetStudentProfile(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if studentID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Student ID is required")
		return
	}

	if s.deps.GetStudentProfileHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Profile handler not configured")
		return
	}

	q := query.GetStudentProfileQuery{StudentID: studentID}

	result, err := s.deps.GetStudentProfileHandler.Handle(r.Context(), q)
	if err != nil {
		s.writePipelineError(w, r, "get student profile", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetRecommendations handles GET /api/v1/students/{id}/recommendations
func (s *Server) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if studentID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Student ID is required")
		return
	}

	if s.deps.GetRecommendationsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Recommendations handler not configured")
		return
	}

	q := query.GetRecommendationsQuery{
		StudentID: studentID,
		Limit:     getQueryParamInt(r, "limit", 50),
	}

	result, err := s.deps.GetRecommendationsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writePipelineError(w, r, "get recommendations", err)
		return
	}

	meta := &ResponseMeta{TotalCount: len(result)}
	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleSynthesizeRecommendations handles POST /api/v1/students/{id}/recommendations
func (s *Server) handleSynthesizeRecommendations(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if studentID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Student ID is required")
		return
	}

	if s.deps.SynthesizeRecommendationsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Synthesis handler not configured")
		return
	}

	cmd := command.SynthesizeRecommendationsCommand{StudentID: studentID}

	batch, err := s.deps.SynthesizeRecommendationsHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writePipelineError(w, r, "synthesize recommendations", err)
		return
	}

	for _, rec := range batch {
		metrics.RecordRecommendationGenerated(string(rec.Type))
	}

	writeJSON(w, http.StatusCreated, batch)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writePipelineError maps domain errors to HTTP status codes.
func (s *Server) writePipelineError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, academic.ErrStudentNotFound) || errors.Is(err, risk.ErrStudentNotFound):
		writeJSONError(w, http.StatusNotFound, "student_not_found", "Student not found")
	case errors.Is(err, query.ErrResultNotFound):
		writeJSONError(w, http.StatusNotFound, "result_not_found", "No pipeline result for this student")
	case errors.Is(err, risk.ErrModelUnavailable) || errors.Is(err, risk.ErrEmptyPopulation):
		metrics.RecordScoringError()
		writeJSONError(w, http.StatusServiceUnavailable, "model_unavailable", "Risk model is not available yet")
	case errors.Is(err, event.ErrInvalidStudentID) || errors.Is(err, academic.ErrInvalidStudentID):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid student ID")
	case isValidationError(err):
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_request", "Request validation failed", err.Error())
	default:
		s.logger.Error("request failed",
			logger.String("op", op),
			logger.Err(err),
			logger.String("request_id", getRequestID(r.Context())))
		metrics.RecordErrorByComponent("http", "internal")
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// isValidationError reports whether the error came from a command or
// query Validate method (they prefix the message with the operation name).
func isValidationError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{
		"ingest_events:",
		"synthesize_recommendations:",
		"explain_student:",
		"get_student_profile:",
		"get_recommendations:",
		"get_latest_result:",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

// getQueryParamInt64 extracts an int64 query parameter with a default value.
func getQueryParamInt64(r *http.Request, key string, defaultValue int64) int64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	var result int64
	if _, err := fmt.Sscanf(value, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollouts.
// Supports percentage-based rollout by student, cohort targeting,
// and per-student overrides for debugging.
//
// Philosophy alignment: interventions should help, not alarm.
// Risk-facing features default to gradual rollout so advisors can
// validate recommendations before every student sees them.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	studentOverrides map[string]map[string]bool // studentID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Students are assigned based on hash of their ID
	RolloutPercent int

	// Cohort targeting (e.g., "2026-spring", "2026-fall")
	// Empty means all cohorts
	TargetCohorts []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	StudentID string // LMS student identifier
	Cohort    string // Student cohort (e.g., "2026-spring")
	IsAdmin   bool   // Is advisor/admin user
}

// Predefined feature flag names.
const (
	// === Pipeline Features ===
	FeaturePipelineSnapshotCache = "pipeline.snapshot_cache" // Cache latest feature snapshot in Redis
	FeaturePipelineSkipScoring   = "pipeline.skip_scoring"   // Allow feature-only ingests

	// === Risk Features ===
	FeatureRiskScoring      = "risk.scoring"       // Classify students against trained model
	FeatureRiskExplanations = "risk.explanations"  // Serve per-feature risk explanations
	FeatureRiskIntervention = "risk.interventions" // Generate risk_intervention recommendations

	// === Recommendation Features ===
	FeatureRecsPrerequisite = "recs.prerequisite_review" // Prerequisite gap recommendations
	FeatureRecsContentBased = "recs.content_based"       // Weak-course review recommendations

	// === Experimental Features ===
	FeatureExperimentalProfileTopics = "experimental.profile_topics" // Strong/weak topic lists in profiles
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		studentOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Pipeline features - enabled by default
	ff.features[FeaturePipelineSnapshotCache] = &Feature{
		Name:           FeaturePipelineSnapshotCache,
		Description:    "Cache latest feature snapshot per student",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeaturePipelineSkipScoring] = &Feature{
		Name:           FeaturePipelineSkipScoring,
		Description:    "Allow ingest requests that skip classification",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Risk features - CORE to the service, enabled by default
	ff.features[FeatureRiskScoring] = &Feature{
		Name:           FeatureRiskScoring,
		Description:    "Classify students into risk levels",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureRiskExplanations] = &Feature{
		Name:           FeatureRiskExplanations,
		Description:    "Per-feature below/above-average explanations",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureRiskIntervention] = &Feature{
		Name:           FeatureRiskIntervention,
		Description:    "Intervention recommendations for high-risk students",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Recommendation features
	ff.features[FeatureRecsPrerequisite] = &Feature{
		Name:           FeatureRecsPrerequisite,
		Description:    "Prerequisite review recommendations",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureRecsContentBased] = &Feature{
		Name:           FeatureRecsContentBased,
		Description:    "Content-based weak course recommendations",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalProfileTopics] = &Feature{
		Name:           FeatureExperimentalProfileTopics,
		Description:    "Strong/weak topic breakdown in student profiles",
		Enabled:        true,
		RolloutPercent: 50, // Gradual rollout
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_RISK_SCORING=true
// Example: FEATURE_EXPERIMENTAL_PROFILE_TOPICS=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "risk.scoring" -> "FEATURE_RISK_SCORING"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check student overrides first
	if ctx != nil && ctx.StudentID != "" {
		if overrides, ok := ff.studentOverrides[ctx.StudentID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check cohort targeting
	if len(feature.TargetCohorts) > 0 && ctx != nil && ctx.Cohort != "" {
		cohortMatch := false
		for _, c := range feature.TargetCohorts {
			if c == ctx.Cohort {
				cohortMatch = true
				break
			}
		}
		if !cohortMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.StudentID != "" {
		return ff.isInRollout(ctx.StudentID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a student is in the rollout percentage.
// Uses consistent hashing so students stay in their bucket.
func (ff *FeatureFlags) isInRollout(studentID, featureName string, percent int) bool {
	// Create a consistent hash for this student+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(studentID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetStudentOverride sets a feature override for a specific student.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetStudentOverride(studentID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.studentOverrides[studentID]; !ok {
		ff.studentOverrides[studentID] = make(map[string]bool)
	}
	ff.studentOverrides[studentID][featureName] = enabled
}

// ClearStudentOverrides removes all overrides for a student.
func (ff *FeatureFlags) ClearStudentOverrides(studentID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.studentOverrides, studentID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// RecommendationsEnabled checks if any recommendation source is enabled.
func (ff *FeatureFlags) RecommendationsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureRecsPrerequisite, ctx) ||
		ff.IsEnabled(FeatureRecsContentBased, ctx) ||
		ff.IsEnabled(FeatureRiskIntervention, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}

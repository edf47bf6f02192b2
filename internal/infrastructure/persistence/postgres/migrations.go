// Package postgres implements PostgreSQL persistence layer for AcademIQ.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE ACADEMIC CATALOG
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create academic catalog tables
-- Version: 001

-- Students known to the platform. IDs come from the LMS, not generated here.
CREATE TABLE IF NOT EXISTS students (
    id VARCHAR(64) PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    cohort VARCHAR(30) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_students_cohort ON students(cohort);

-- Course catalog
CREATE TABLE IF NOT EXISTS courses (
    id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Current enrollments
CREATE TABLE IF NOT EXISTS enrollments (
    student_id VARCHAR(64) NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    course_id VARCHAR(64) NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (student_id, course_id)
);

CREATE INDEX IF NOT EXISTS idx_enrollments_student ON enrollments(student_id);
CREATE INDEX IF NOT EXISTS idx_enrollments_course ON enrollments(course_id);

-- Final grades on the institutional 0-10 scale.
-- NULL final_grade means the course is not yet graded.
CREATE TABLE IF NOT EXISTS grades (
    student_id VARCHAR(64) NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    course_id VARCHAR(64) NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    final_grade DECIMAL(4,2),
    graded_at TIMESTAMP WITH TIME ZONE,

    PRIMARY KEY (student_id, course_id),
    CONSTRAINT valid_final_grade CHECK (final_grade IS NULL OR (final_grade >= 0 AND final_grade <= 10))
);

CREATE INDEX IF NOT EXISTS idx_grades_student ON grades(student_id);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE RISK PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create risk profile population table
-- Version: 002

-- Latest classified feature vector per student. One row per student;
-- the trainer and the ingest pipeline upsert into it.
CREATE TABLE IF NOT EXISTS risk_profiles (
    student_id VARCHAR(64) PRIMARY KEY,

    -- Canonical behavioral features
    total_time_spent DOUBLE PRECISION NOT NULL DEFAULT 0,
    active_days DOUBLE PRECISION NOT NULL DEFAULT 0,
    access_frequency DOUBLE PRECISION NOT NULL DEFAULT 0,
    avg_quiz_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    quiz_score_std DOUBLE PRECISION NOT NULL DEFAULT 0,
    avg_assignment_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    late_submission_ratio DOUBLE PRECISION NOT NULL DEFAULT 0,
    avg_final_grade DOUBLE PRECISION NOT NULL DEFAULT 0,

    -- Classification result
    risk_cluster INTEGER NOT NULL DEFAULT -1,
    risk_level VARCHAR(20) NOT NULL DEFAULT 'UNKNOWN',
    generic_recommendation TEXT NOT NULL DEFAULT '',

    computed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_risk_level CHECK (risk_level IN ('LOW', 'MEDIUM', 'HIGH', 'UNKNOWN')),
    CONSTRAINT valid_late_ratio CHECK (late_submission_ratio >= 0 AND late_submission_ratio <= 1)
);

CREATE INDEX IF NOT EXISTS idx_risk_profiles_level ON risk_profiles(risk_level);
CREATE INDEX IF NOT EXISTS idx_risk_profiles_cluster ON risk_profiles(risk_cluster);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE RECOMMENDATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create recommendations table
-- Version: 003

-- Append-only recommendation history. Re-running synthesis for a student
-- adds new rows; earlier rows are never updated or deleted.
CREATE TABLE IF NOT EXISTS recommendations (
    id UUID PRIMARY KEY,
    student_id VARCHAR(64) NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    course_id VARCHAR(64),
    rec_type VARCHAR(30) NOT NULL,
    reason TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_rec_type CHECK (rec_type IN ('prerequisite_review', 'content_based', 'risk_intervention'))
);

CREATE INDEX IF NOT EXISTS idx_recommendations_student ON recommendations(student_id);
CREATE INDEX IF NOT EXISTS idx_recommendations_student_created ON recommendations(student_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_recommendations_type ON recommendations(rec_type);
`

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_academic_catalog", UpSQL: migration001Up},
		{Version: 2, Name: "create_risk_profiles", UpSQL: migration002Up},
		{Version: 3, Name: "create_recommendations", UpSQL: migration003Up},
	}
}

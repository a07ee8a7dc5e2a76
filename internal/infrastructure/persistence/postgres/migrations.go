// Package postgres implements the PostgreSQL persistence layer of the
// transfer hub.
package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_directory",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_transfer_requests",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_field_change_log",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: DIRECTORY (STUDENTS, TEACHERS, STAFF, SUBJECTS, GROUPS)
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create directory tables
-- Version: 001

CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    full_name VARCHAR(200) NOT NULL,
    email VARCHAR(200) NOT NULL UNIQUE,
    year INTEGER NOT NULL DEFAULT 1,
    sex CHAR(1) NOT NULL DEFAULT 'M',
    birthdate DATE,
    group_ids TEXT[] NOT NULL DEFAULT '{}',
    department_ids TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_sex CHECK (sex IN ('M', 'F')),
    CONSTRAINT valid_year CHECK (year >= 1)
);

CREATE INDEX IF NOT EXISTS idx_students_email ON students(email);

CREATE TABLE IF NOT EXISTS teachers (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    full_name VARCHAR(200) NOT NULL,
    email VARCHAR(200) NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS staff (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    full_name VARCHAR(200) NOT NULL,
    email VARCHAR(200) NOT NULL UNIQUE,
    password_hash VARCHAR(100) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subjects (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(200) NOT NULL,
    department_id UUID,
    faculty_id UUID,
    year INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subject_groups (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    subject_id UUID NOT NULL REFERENCES subjects(id),
    min_students INTEGER NOT NULL DEFAULT 0,
    max_students INTEGER NOT NULL DEFAULT 0,
    deadline TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_min_students CHECK (min_students >= 0),
    CONSTRAINT valid_max_students CHECK (max_students >= 0)
);

CREATE INDEX IF NOT EXISTS idx_subject_groups_subject ON subject_groups(subject_id);

CREATE TABLE IF NOT EXISTS group_students (
    group_id UUID NOT NULL REFERENCES subject_groups(id),
    student_id UUID NOT NULL REFERENCES students(id),
    enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (group_id, student_id)
);

CREATE INDEX IF NOT EXISTS idx_group_students_student ON group_students(student_id);

CREATE TABLE IF NOT EXISTS group_teachers (
    group_id UUID NOT NULL REFERENCES subject_groups(id),
    teacher_id UUID NOT NULL REFERENCES teachers(id),
    assigned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (group_id, teacher_id)
);

CREATE INDEX IF NOT EXISTS idx_group_teachers_teacher ON group_teachers(teacher_id);
`

const migration001Down = `
DROP TABLE IF EXISTS group_teachers;
DROP TABLE IF EXISTS group_students;
DROP TABLE IF EXISTS subject_groups;
DROP TABLE IF EXISTS subjects;
DROP TABLE IF EXISTS staff;
DROP TABLE IF EXISTS teachers;
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: TRANSFER REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create transfer requests
-- Version: 002

CREATE TABLE IF NOT EXISTS transfer_requests (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    code VARCHAR(20) NOT NULL UNIQUE,
    student_id UUID NOT NULL REFERENCES students(id),
    subject_id UUID NOT NULL REFERENCES subjects(id),
    from_group_id UUID REFERENCES subject_groups(id),
    to_group_id UUID NOT NULL REFERENCES subject_groups(id),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    reason TEXT NOT NULL DEFAULT '',
    comment TEXT NOT NULL DEFAULT '',
    comment_teacher TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('pending', 'waiting_teacher', 'waiting_admin', 'completed', 'rejected'))
);

-- At most one open request per (student, subject) pair.
CREATE UNIQUE INDEX IF NOT EXISTS uq_transfer_requests_open
    ON transfer_requests(student_id, subject_id)
    WHERE status NOT IN ('completed', 'rejected');

CREATE INDEX IF NOT EXISTS idx_transfer_requests_status ON transfer_requests(status);
CREATE INDEX IF NOT EXISTS idx_transfer_requests_to_group ON transfer_requests(to_group_id);
CREATE INDEX IF NOT EXISTS idx_transfer_requests_from_group ON transfer_requests(from_group_id);
CREATE INDEX IF NOT EXISTS idx_transfer_requests_student_subject
    ON transfer_requests(student_id, subject_id, created_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS transfer_requests;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: FIELD CHANGE LOG
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create append-only field change log
-- Version: 003

-- The BIGSERIAL id doubles as the ordering tiebreaker: entries written by
-- one transition share a timestamp, and the sequence keeps them in insert
-- order.
CREATE TABLE IF NOT EXISTS field_change_log (
    id BIGSERIAL PRIMARY KEY,
    request_id UUID NOT NULL REFERENCES transfer_requests(id),
    field_name VARCHAR(50) NOT NULL,
    old_value TEXT NOT NULL DEFAULT '',
    new_value TEXT NOT NULL DEFAULT '',
    actor_kind VARCHAR(20),
    actor_id UUID,
    actor_name VARCHAR(200),
    changed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_field_change_log_request
    ON field_change_log(request_id, changed_at);
`

const migration003Down = `
DROP TABLE IF EXISTS field_change_log;
`

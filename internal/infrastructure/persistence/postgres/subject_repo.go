package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubjectRepository implements subject.Repository for PostgreSQL.
type SubjectRepository struct {
	conn *Connection
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(conn *Connection) *SubjectRepository {
	return &SubjectRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Subjects
// ─────────────────────────────────────────────────────────────────────────────

// GetSubject returns a subject by ID.
func (r *SubjectRepository) GetSubject(ctx context.Context, id string) (*subject.Subject, error) {
	query := `
		SELECT id, name, COALESCE(department_id::text, ''), COALESCE(faculty_id::text, ''), year, created_at
		FROM subjects
		WHERE id = $1
	`

	var s subject.Subject
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.DepartmentID, &s.FacultyID, &s.Year, &s.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, subject.ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to scan subject: %w", err)
	}

	return &s, nil
}

// CreateSubject creates a subject.
func (r *SubjectRepository) CreateSubject(ctx context.Context, s *subject.Subject) error {
	query := `
		INSERT INTO subjects (id, name, department_id, faculty_id, year, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, NULLIF($4, '')::uuid, $5, $6, $6)
	`

	_, err := r.conn.Exec(ctx, query, s.ID, s.Name, s.DepartmentID, s.FacultyID, s.Year, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}

	return nil
}

// SubjectsOfStudent returns the subjects whose groups contain the student.
func (r *SubjectRepository) SubjectsOfStudent(ctx context.Context, studentID string) ([]*subject.Subject, error) {
	query := `
		SELECT DISTINCT s.id, s.name, COALESCE(s.department_id::text, ''), COALESCE(s.faculty_id::text, ''), s.year, s.created_at
		FROM subjects s
		JOIN subject_groups g ON g.subject_id = s.id
		JOIN group_students gs ON gs.group_id = g.id
		WHERE gs.student_id = $1
		ORDER BY s.name
	`

	rows, err := r.conn.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects of student: %w", err)
	}
	defer rows.Close()

	var subjects []*subject.Subject
	for rows.Next() {
		var s subject.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.DepartmentID, &s.FacultyID, &s.Year, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, &s)
	}

	return subjects, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Groups
// ─────────────────────────────────────────────────────────────────────────────

// GetGroup returns a group with its member and instructor lists. The header
// and the member lists are read in one read-only transaction so callers see
// a consistent snapshot of the group.
func (r *SubjectRepository) GetGroup(ctx context.Context, id string) (*subject.Group, error) {
	query := `
		SELECT id, subject_id, min_students, max_students, deadline, created_at, updated_at
		FROM subject_groups
		WHERE id = $1
	`

	var g *subject.Group
	err := r.conn.WithTx(ctx, ReadOnlyTxOptions(), func(tx pgx.Tx) error {
		var err error
		g, err = r.scanGroup(tx.QueryRow(ctx, query, id))
		if err != nil {
			return err
		}
		return r.loadMembers(ctx, tx, g)
	})
	if err != nil {
		return nil, err
	}

	return g, nil
}

// GetGroupsBySubject returns all groups of a subject.
func (r *SubjectRepository) GetGroupsBySubject(ctx context.Context, subjectID string) ([]*subject.Group, error) {
	query := `
		SELECT id, subject_id, min_students, max_students, deadline, created_at, updated_at
		FROM subject_groups
		WHERE subject_id = $1
		ORDER BY created_at
	`

	var groups []*subject.Group
	err := r.conn.WithTx(ctx, ReadOnlyTxOptions(), func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, subjectID)
		if err != nil {
			return fmt.Errorf("failed to query groups: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			g, err := r.scanGroup(rows)
			if err != nil {
				return err
			}
			groups = append(groups, g)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, g := range groups {
			if err := r.loadMembers(ctx, tx, g); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return groups, nil
}

// GroupOfStudent returns the subject group the student belongs to.
func (r *SubjectRepository) GroupOfStudent(ctx context.Context, subjectID, studentID string) (*subject.Group, error) {
	query := `
		SELECT g.id, g.subject_id, g.min_students, g.max_students, g.deadline, g.created_at, g.updated_at
		FROM subject_groups g
		JOIN group_students gs ON gs.group_id = g.id
		WHERE g.subject_id = $1 AND gs.student_id = $2
	`

	var g *subject.Group
	err := r.conn.WithTx(ctx, ReadOnlyTxOptions(), func(tx pgx.Tx) error {
		var err error
		g, err = r.scanGroup(tx.QueryRow(ctx, query, subjectID, studentID))
		if err != nil {
			return err
		}
		return r.loadMembers(ctx, tx, g)
	})
	if err != nil {
		return nil, err
	}

	return g, nil
}

// CreateGroup creates a subject group.
func (r *SubjectRepository) CreateGroup(ctx context.Context, g *subject.Group) error {
	query := `
		INSERT INTO subject_groups (id, subject_id, min_students, max_students, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		g.ID, g.SubjectID, g.MinStudents, g.MaxStudents,
		nullableTime(g.Deadline), g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	return nil
}

// UpdateGroupLimits updates capacity bounds and the submission deadline.
func (r *SubjectRepository) UpdateGroupLimits(ctx context.Context, groupID string, minStudents, maxStudents int, deadline time.Time) error {
	query := `
		UPDATE subject_groups SET
			min_students = $1,
			max_students = $2,
			deadline = $3,
			updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.conn.Exec(ctx, query, minStudents, maxStudents, nullableTime(deadline), groupID)
	if err != nil {
		return fmt.Errorf("failed to update group limits: %w", err)
	}
	if result.RowsAffected() == 0 {
		return subject.ErrGroupNotFound
	}

	return nil
}

// AddStudent enrolls a student into a group.
func (r *SubjectRepository) AddStudent(ctx context.Context, groupID, studentID string) error {
	query := `
		INSERT INTO group_students (group_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query, groupID, studentID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return subject.ErrGroupNotFound
		}
		return fmt.Errorf("failed to add student to group: %w", err)
	}

	return nil
}

// AddTeacher assigns a teacher to a group.
func (r *SubjectRepository) AddTeacher(ctx context.Context, groupID, teacherID string) error {
	query := `
		INSERT INTO group_teachers (group_id, teacher_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query, groupID, teacherID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return subject.ErrGroupNotFound
		}
		return fmt.Errorf("failed to add teacher to group: %w", err)
	}

	return nil
}

// GroupsWithPendingRequests returns ids of groups touched by at least one
// queued request. Drives the safety-net re-sweep job.
func (r *SubjectRepository) GroupsWithPendingRequests(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT g.id
		FROM subject_groups g
		JOIN transfer_requests tr
		  ON tr.to_group_id = g.id OR tr.from_group_id = g.id
		WHERE tr.status = 'pending'
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups with pending requests: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *SubjectRepository) scanGroup(row pgx.Row) (*subject.Group, error) {
	var (
		g        subject.Group
		deadline *time.Time
	)

	err := row.Scan(
		&g.ID, &g.SubjectID, &g.MinStudents, &g.MaxStudents,
		&deadline, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, subject.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan group: %w", err)
	}

	if deadline != nil {
		g.Deadline = *deadline
	}

	return &g, nil
}

// loadMembers fills the student and teacher id lists of the group using the
// transaction the group header was read in.
func (r *SubjectRepository) loadMembers(ctx context.Context, tx pgx.Tx, g *subject.Group) error {
	studentQuery := `SELECT student_id FROM group_students WHERE group_id = $1 ORDER BY enrolled_at`

	rows, err := tx.Query(ctx, studentQuery, g.ID)
	if err != nil {
		return fmt.Errorf("failed to query group students: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan group student: %w", err)
		}
		g.StudentIDs = append(g.StudentIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	teacherQuery := `SELECT teacher_id FROM group_teachers WHERE group_id = $1 ORDER BY assigned_at`

	trows, err := tx.Query(ctx, teacherQuery, g.ID)
	if err != nil {
		return fmt.Errorf("failed to query group teachers: %w", err)
	}
	defer trows.Close()

	for trows.Next() {
		var id string
		if err := trows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan group teacher: %w", err)
		}
		g.TeacherIDs = append(g.TeacherIDs, id)
	}

	return trows.Err()
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/phystech-portal/transfer-hub/internal/domain/teacher"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEACHER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TeacherRepository implements teacher.Repository for PostgreSQL.
type TeacherRepository struct {
	conn *Connection
}

// NewTeacherRepository creates a new TeacherRepository.
func NewTeacherRepository(conn *Connection) *TeacherRepository {
	return &TeacherRepository{conn: conn}
}

// Create creates a new teacher.
func (r *TeacherRepository) Create(ctx context.Context, t *teacher.Teacher) error {
	query := `
		INSERT INTO teachers (id, full_name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query, t.ID, t.FullName, t.Email, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return teacher.ErrTeacherAlreadyExists
		}
		return fmt.Errorf("failed to create teacher: %w", err)
	}

	return nil
}

// GetByID returns a teacher by internal ID.
func (r *TeacherRepository) GetByID(ctx context.Context, id string) (*teacher.Teacher, error) {
	query := `SELECT id, full_name, email, created_at, updated_at FROM teachers WHERE id = $1`
	return r.scanTeacher(r.conn.QueryRow(ctx, query, id))
}

// GetByEmail returns a teacher by email.
func (r *TeacherRepository) GetByEmail(ctx context.Context, email string) (*teacher.Teacher, error) {
	query := `SELECT id, full_name, email, created_at, updated_at FROM teachers WHERE email = $1`
	return r.scanTeacher(r.conn.QueryRow(ctx, query, email))
}

// Instructs reports whether the teacher is assigned to the group.
func (r *TeacherRepository) Instructs(ctx context.Context, teacherID, groupID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM group_teachers WHERE teacher_id = $1 AND group_id = $2
		)
	`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, teacherID, groupID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check group assignment: %w", err)
	}

	return exists, nil
}

func (r *TeacherRepository) scanTeacher(row pgx.Row) (*teacher.Teacher, error) {
	var t teacher.Teacher

	err := row.Scan(&t.ID, &t.FullName, &t.Email, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, teacher.ErrTeacherNotFound
		}
		return nil, fmt.Errorf("failed to scan teacher: %w", err)
	}

	return &t, nil
}

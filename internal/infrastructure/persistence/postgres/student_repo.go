// Package postgres implements the PostgreSQL persistence layer of the
// transfer hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/phystech-portal/transfer-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

const studentColumns = `id, full_name, email, year, sex, birthdate, group_ids, department_ids, created_at, updated_at`

// Create creates a new student.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	query := `
		INSERT INTO students (
			id, full_name, email, year, sex, birthdate, group_ids, department_ids,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.FullName,
		s.Email,
		s.Year,
		string(s.Sex),
		nullableTime(s.Birthdate),
		s.GroupIDs,
		s.DepartmentIDs,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return student.ErrStudentAlreadyExists
		}
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

// GetByID returns a student by internal ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return r.scanStudent(r.conn.QueryRow(ctx, query, id))
}

// GetByEmail returns a student by email.
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE email = $1`
	return r.scanStudent(r.conn.QueryRow(ctx, query, email))
}

// Update updates a student.
func (r *StudentRepository) Update(ctx context.Context, s *student.Student) error {
	query := `
		UPDATE students SET
			full_name = $1,
			email = $2,
			year = $3,
			sex = $4,
			birthdate = $5,
			group_ids = $6,
			department_ids = $7,
			updated_at = $8
		WHERE id = $9
	`

	result, err := r.conn.Exec(ctx, query,
		s.FullName,
		s.Email,
		s.Year,
		string(s.Sex),
		nullableTime(s.Birthdate),
		s.GroupIDs,
		s.DepartmentIDs,
		time.Now().UTC(),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	if result.RowsAffected() == 0 {
		return student.ErrStudentNotFound
	}

	return nil
}

// scanStudent scans a student from a row.
func (r *StudentRepository) scanStudent(row pgx.Row) (*student.Student, error) {
	var (
		s         student.Student
		sex       string
		birthdate *time.Time
	)

	err := row.Scan(
		&s.ID,
		&s.FullName,
		&s.Email,
		&s.Year,
		&sex,
		&birthdate,
		&s.GroupIDs,
		&s.DepartmentIDs,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, student.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	s.Sex = student.Sex(sex)
	if birthdate != nil {
		s.Birthdate = *birthdate
	}

	return &s, nil
}

// nullableTime converts a zero time to NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

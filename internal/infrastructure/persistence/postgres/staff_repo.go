package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/phystech-portal/transfer-hub/internal/domain/staff"
)

// ══════════════════════════════════════════════════════════════════════════════
// STAFF REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StaffRepository implements staff.Repository for PostgreSQL.
type StaffRepository struct {
	conn *Connection
}

// NewStaffRepository creates a new StaffRepository.
func NewStaffRepository(conn *Connection) *StaffRepository {
	return &StaffRepository{conn: conn}
}

// Create creates a new staff member.
func (r *StaffRepository) Create(ctx context.Context, m *staff.Member) error {
	query := `
		INSERT INTO staff (id, full_name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query, m.ID, m.FullName, m.Email, m.PasswordHash, m.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return staff.ErrMemberExists
		}
		return fmt.Errorf("failed to create staff member: %w", err)
	}

	return nil
}

// GetByID returns a staff member by internal ID.
func (r *StaffRepository) GetByID(ctx context.Context, id string) (*staff.Member, error) {
	query := `SELECT id, full_name, email, password_hash, created_at FROM staff WHERE id = $1`
	return r.scanMember(r.conn.QueryRow(ctx, query, id))
}

// GetByEmail returns a staff member by email.
func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*staff.Member, error) {
	query := `SELECT id, full_name, email, password_hash, created_at FROM staff WHERE email = $1`
	return r.scanMember(r.conn.QueryRow(ctx, query, email))
}

func (r *StaffRepository) scanMember(row pgx.Row) (*staff.Member, error) {
	var m staff.Member

	err := row.Scan(&m.ID, &m.FullName, &m.Email, &m.PasswordHash, &m.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, staff.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to scan staff member: %w", err)
	}

	return &m, nil
}

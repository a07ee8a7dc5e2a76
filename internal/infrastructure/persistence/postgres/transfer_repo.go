package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSFER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TransferRepository implements transfer.Repository and transfer.AuditLog
// for PostgreSQL.
//
// Every write method runs inside a single transaction covering the request
// row, the group membership mutation and the audit entries. Serialization
// conflicts surface as shared.ErrConcurrentModification so the command layer
// can retry.
type TransferRepository struct {
	conn *Connection
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(conn *Connection) *TransferRepository {
	return &TransferRepository{conn: conn}
}

const requestColumns = `
	id, code, student_id, subject_id,
	COALESCE(from_group_id::text, ''), to_group_id::text,
	status, reason, comment, comment_teacher, created_at, updated_at
`

// ─────────────────────────────────────────────────────────────────────────────
// Create with code assignment
// ─────────────────────────────────────────────────────────────────────────────

// Create assigns the daily sequential code and inserts the request together
// with its creation audit entry.
//
// The code is computed under a transaction-scoped advisory lock on the day
// prefix, so two requests submitted the same instant serialize on the
// sequence instead of colliding. The UNIQUE index on code is the backstop:
// a violation there maps to a retryable error.
func (r *TransferRepository) Create(ctx context.Context, req *transfer.Request, entry transfer.FieldChange) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		prefix := transfer.CodePrefix(req.CreatedAt)

		// Serialize code assignment within the calendar day.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "transfer_code:"+prefix); err != nil {
			return fmt.Errorf("failed to acquire code lock: %w", err)
		}

		var lastCode string
		err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(code), '')
			FROM transfer_requests
			WHERE code LIKE $1
		`, prefix+"-%").Scan(&lastCode)
		if err != nil {
			return fmt.Errorf("failed to read last code: %w", err)
		}

		code, err := transfer.NextCode(lastCode, req.CreatedAt)
		if err != nil {
			return err
		}
		req.Code = code

		_, err = tx.Exec(ctx, `
			INSERT INTO transfer_requests (
				id, code, student_id, subject_id, from_group_id, to_group_id,
				status, reason, comment, comment_teacher, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, NULLIF($5, '')::uuid, $6,
				$7, $8, $9, $10, $11, $12
			)
		`,
			req.ID, req.Code, req.StudentID, req.SubjectID,
			req.FromGroupID, req.ToGroupID,
			string(req.Status), req.Reason, req.Comment, req.CommentTeacher,
			req.CreatedAt, req.UpdatedAt,
		)
		if err != nil {
			if constraint := uniqueConstraint(err); constraint != "" {
				if constraint == "uq_transfer_requests_open" {
					return transfer.ErrDuplicateOpen
				}
				return transfer.ErrDuplicateCode
			}
			return fmt.Errorf("failed to insert transfer request: %w", err)
		}

		entry.RequestID = req.ID
		return insertChanges(ctx, tx, []transfer.FieldChange{entry})
	})

	return mapConflict(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// GetByID returns a request by internal ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*transfer.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM transfer_requests WHERE id = $1`
	return scanRequest(r.conn.QueryRow(ctx, query, id))
}

// GetByCode returns a request by its human-readable code.
func (r *TransferRepository) GetByCode(ctx context.Context, code string) (*transfer.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM transfer_requests WHERE code = $1`
	return scanRequest(r.conn.QueryRow(ctx, query, code))
}

// HasOpen reports whether a non-terminal request exists for the
// (student, subject) pair.
func (r *TransferRepository) HasOpen(ctx context.Context, studentID, subjectID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transfer_requests
			WHERE student_id = $1 AND subject_id = $2
			  AND status NOT IN ('completed', 'rejected')
		)
	`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, studentID, subjectID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check open request: %w", err)
	}

	return exists, nil
}

// ListPendingByGroups returns queued requests touching any of the groups.
func (r *TransferRepository) ListPendingByGroups(ctx context.Context, groupIDs []string) ([]*transfer.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM transfer_requests
		WHERE status = 'pending'
		  AND (to_group_id::text = ANY($1) OR from_group_id::text = ANY($1))
		ORDER BY created_at
	`

	return r.queryRequests(ctx, query, groupIDs)
}

// ListWaitingForTeacher returns requests awaiting review whose target groups
// the teacher instructs.
func (r *TransferRepository) ListWaitingForTeacher(ctx context.Context, teacherID string) ([]*transfer.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM transfer_requests tr
		JOIN group_teachers gt ON gt.group_id = tr.to_group_id
		WHERE tr.status = 'waiting_teacher' AND gt.teacher_id = $1
		ORDER BY tr.created_at
	`

	return r.queryRequests(ctx, query, teacherID)
}

// LatestForStudentSubject returns the most recently submitted request of the
// student for the subject.
func (r *TransferRepository) LatestForStudentSubject(ctx context.Context, studentID, subjectID string) (*transfer.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM transfer_requests
		WHERE student_id = $1 AND subject_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	return scanRequest(r.conn.QueryRow(ctx, query, studentID, subjectID))
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// Update saves the request and its audit entries in one transaction.
func (r *TransferRepository) Update(ctx context.Context, req *transfer.Request, changes []transfer.FieldChange) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := updateRequest(ctx, tx, req); err != nil {
			return err
		}
		return insertChanges(ctx, tx, changes)
	})

	return mapConflict(err)
}

// CompleteTransfer saves the request, atomically moving the student from the
// source group into the target group, together with the audit entries.
func (r *TransferRepository) CompleteTransfer(ctx context.Context, req *transfer.Request, changes []transfer.FieldChange) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := updateRequest(ctx, tx, req); err != nil {
			return err
		}
		if err := moveStudent(ctx, tx, req.StudentID, req.FromGroupID, req.ToGroupID); err != nil {
			return err
		}
		return insertChanges(ctx, tx, changes)
	})

	return mapConflict(err)
}

// UndoTransfer saves the request, atomically moving the student back from the
// target group into the source group, together with the audit entries.
func (r *TransferRepository) UndoTransfer(ctx context.Context, req *transfer.Request, changes []transfer.FieldChange) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := updateRequest(ctx, tx, req); err != nil {
			return err
		}
		if err := moveStudent(ctx, tx, req.StudentID, req.ToGroupID, req.FromGroupID); err != nil {
			return err
		}
		return insertChanges(ctx, tx, changes)
	})

	return mapConflict(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Audit log
// ─────────────────────────────────────────────────────────────────────────────

// ListByRequest returns the audit entries of a request in timestamp order.
// Entries written by one transition share a timestamp; the serial id keeps
// them in insert order.
func (r *TransferRepository) ListByRequest(ctx context.Context, requestID string) ([]transfer.FieldChange, error) {
	query := `
		SELECT id::text, request_id, field_name, old_value, new_value,
			   actor_kind, actor_id::text, actor_name, changed_at
		FROM field_change_log
		WHERE request_id = $1
		ORDER BY changed_at, id
	`

	rows, err := r.conn.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query field change log: %w", err)
	}
	defer rows.Close()

	var changes []transfer.FieldChange
	for rows.Next() {
		var (
			fc        transfer.FieldChange
			actorKind *string
			actorID   *string
			actorName *string
		)

		err := rows.Scan(
			&fc.ID, &fc.RequestID, &fc.Field, &fc.OldValue, &fc.NewValue,
			&actorKind, &actorID, &actorName, &fc.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan field change: %w", err)
		}

		if actorKind != nil {
			actor := &shared.Actor{Kind: shared.ActorKind(*actorKind)}
			if actorID != nil {
				actor.ID = *actorID
			}
			if actorName != nil {
				actor.Name = *actorName
			}
			fc.Actor = actor
		}

		changes = append(changes, fc)
	}

	return changes, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *TransferRepository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*transfer.Request, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfer requests: %w", err)
	}
	defer rows.Close()

	var requests []*transfer.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func scanRequest(row pgx.Row) (*transfer.Request, error) {
	var (
		req    transfer.Request
		status string
	)

	err := row.Scan(
		&req.ID, &req.Code, &req.StudentID, &req.SubjectID,
		&req.FromGroupID, &req.ToGroupID,
		&status, &req.Reason, &req.Comment, &req.CommentTeacher,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, transfer.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to scan transfer request: %w", err)
	}

	req.Status = transfer.Status(status)
	return &req, nil
}

func updateRequest(ctx context.Context, tx pgx.Tx, req *transfer.Request) error {
	result, err := tx.Exec(ctx, `
		UPDATE transfer_requests SET
			status = $1,
			comment = $2,
			comment_teacher = $3,
			updated_at = $4
		WHERE id = $5
	`, string(req.Status), req.Comment, req.CommentTeacher, req.UpdatedAt, req.ID)
	if err != nil {
		return fmt.Errorf("failed to update transfer request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return transfer.ErrRequestNotFound
	}

	return nil
}

// moveStudent moves the student between groups inside the transaction.
// An empty group id means there is no membership row on that side.
func moveStudent(ctx context.Context, tx pgx.Tx, studentID, fromGroupID, toGroupID string) error {
	if fromGroupID == toGroupID {
		return nil
	}

	if fromGroupID != "" {
		_, err := tx.Exec(ctx, `
			DELETE FROM group_students WHERE group_id = $1 AND student_id = $2
		`, fromGroupID, studentID)
		if err != nil {
			return fmt.Errorf("failed to remove student from group: %w", err)
		}
	}

	if toGroupID != "" {
		_, err := tx.Exec(ctx, `
			INSERT INTO group_students (group_id, student_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, toGroupID, studentID)
		if err != nil {
			return fmt.Errorf("failed to add student to group: %w", err)
		}
	}

	return nil
}

func insertChanges(ctx context.Context, tx pgx.Tx, changes []transfer.FieldChange) error {
	for _, fc := range changes {
		var (
			actorKind *string
			actorID   *string
			actorName *string
		)
		if fc.Actor != nil {
			kind := string(fc.Actor.Kind)
			actorKind = &kind
			if fc.Actor.ID != "" {
				actorID = &fc.Actor.ID
			}
			if fc.Actor.Name != "" {
				actorName = &fc.Actor.Name
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO field_change_log (
				request_id, field_name, old_value, new_value,
				actor_kind, actor_id, actor_name, changed_at
			) VALUES ($1, $2, $3, $4, $5, $6::uuid, $7, $8)
		`,
			fc.RequestID, fc.Field, fc.OldValue, fc.NewValue,
			actorKind, actorID, actorName, fc.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert field change: %w", err)
		}
	}

	return nil
}

// mapConflict converts serialization failures and duplicate codes into the
// retryable domain error.
func mapConflict(err error) error {
	if err == nil {
		return nil
	}
	if IsSerializationFailure(err) {
		return shared.WrapError("transfer", "Save", shared.ErrConcurrentModification, "serialization conflict", err)
	}
	return err
}

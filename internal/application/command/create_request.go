// Package command contains write operations (CQRS - Commands).
// Each command file holds the command payload, its validation, the result
// and the handler executing the lifecycle transition.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
	"github.com/phystech-portal/transfer-hub/pkg/retry"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE TRANSFER REQUEST COMMAND
// Submits a student's request to move to another group of a subject.
// Eligibility decides the initial routing: an unobstructed request goes
// straight to the target group's teacher, an obstructed one queues.
// ══════════════════════════════════════════════════════════════════════════════

// CreateRequestCommand contains the data to submit a transfer request.
type CreateRequestCommand struct {
	// StudentID is the submitting student (already authenticated upstream).
	StudentID string

	// SubjectID is the subject within which the transfer happens.
	SubjectID string

	// ToGroupID is the requested target group.
	ToGroupID string

	// Reason is the student's motivation. Mandatory, immutable afterwards.
	Reason string
}

// Validate validates the command.
func (c CreateRequestCommand) Validate() error {
	if c.StudentID == "" {
		return shared.NewDomainError("transfer", "Create", shared.ErrInvalidID, "student_id is required")
	}
	if c.SubjectID == "" {
		return shared.NewDomainError("transfer", "Create", shared.ErrInvalidID, "subject_id is required")
	}
	if c.ToGroupID == "" {
		return shared.NewDomainError("transfer", "Create", shared.ErrInvalidID, "to_group_id is required")
	}
	if strings.TrimSpace(c.Reason) == "" {
		return transfer.ErrReasonRequired
	}
	return nil
}

// CreateRequestResult contains the result of a submission.
type CreateRequestResult struct {
	// Request is the persisted request with its assigned code.
	Request *transfer.Request

	// Violations lists the eligibility violations that queued the request.
	// Empty when the request went straight to the teacher. These are
	// information for the student, not a failure.
	Violations []transfer.Violation
}

// Queued reports whether the request was queued instead of going straight
// to the teacher.
func (r *CreateRequestResult) Queued() bool {
	return len(r.Violations) > 0
}

// CreateRequestHandler handles CreateRequestCommand.
type CreateRequestHandler struct {
	transfers transfer.Repository
	subjects  subject.Repository
	publisher shared.EventPublisher
	retrier   *retry.Retrier
	now       func() time.Time
}

// NewCreateRequestHandler creates a new CreateRequestHandler.
func NewCreateRequestHandler(
	transfers transfer.Repository,
	subjects subject.Repository,
	publisher shared.EventPublisher,
) *CreateRequestHandler {
	return &CreateRequestHandler{
		transfers: transfers,
		subjects:  subjects,
		publisher: publisher,
		retrier:   retry.TransactionRetrier(),
		now:       time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (h *CreateRequestHandler) WithClock(now func() time.Time) *CreateRequestHandler {
	h.now = now
	return h
}

// Handle executes the create transfer request command.
func (h *CreateRequestHandler) Handle(ctx context.Context, cmd CreateRequestCommand) (*CreateRequestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	subj, err := h.subjects.GetSubject(ctx, cmd.SubjectID)
	if err != nil {
		return nil, err
	}

	toGroup, err := h.subjects.GetGroup(ctx, cmd.ToGroupID)
	if err != nil {
		return nil, err
	}
	if toGroup.SubjectID != subj.ID {
		return nil, subject.ErrGroupMismatch
	}

	// Resolve the group of this subject the student currently sits in.
	// Absent is a legitimate state: the student had no prior section.
	var fromGroup *subject.Group
	fromGroup, err = h.subjects.GroupOfStudent(ctx, subj.ID, cmd.StudentID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		fromGroup = nil
	}

	if fromGroup != nil && fromGroup.ID == toGroup.ID {
		return nil, transfer.ErrSameGroup
	}

	// Pre-check for an open request; the partial unique index in the store
	// backs this check against concurrent submissions.
	open, err := h.transfers.HasOpen(ctx, cmd.StudentID, cmd.SubjectID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, transfer.ErrDuplicateOpen
	}

	now := h.now()
	violations := transfer.Evaluate(fromGroup, toGroup, now)

	status := transfer.StatusWaitingTeacher
	if len(violations) > 0 {
		status = transfer.StatusPending
	}

	req := &transfer.Request{
		ID:        uuid.NewString(),
		StudentID: cmd.StudentID,
		SubjectID: subj.ID,
		ToGroupID: toGroup.ID,
		Status:    status,
		Reason:    strings.TrimSpace(cmd.Reason),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if fromGroup != nil {
		req.FromGroupID = fromGroup.ID
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	actor := shared.StudentActor(cmd.StudentID, "")
	entry := transfer.CreationEntry(req, actor, now)

	// Code assignment races with concurrent submissions on the same day;
	// the store signals the conflict and the whole insert is retried.
	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		createErr := h.transfers.Create(ctx, req, entry)
		if createErr != nil && shared.IsRetryable(createErr) {
			return retry.Retryable(createErr)
		}
		return createErr
	})
	if err != nil {
		return nil, fmt.Errorf("create transfer request: %w", err)
	}

	h.publish(req, "", status)

	return &CreateRequestResult{
		Request:    req,
		Violations: violations,
	}, nil
}

func (h *CreateRequestHandler) publish(req *transfer.Request, oldStatus, newStatus transfer.Status) {
	if h.publisher == nil {
		return
	}
	// Event delivery is observability, not part of the transaction.
	_ = h.publisher.Publish(shared.TransferStatusChangedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventTransferCreated, req.ID),
		Code:      req.Code,
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		FromGroup: req.FromGroupID,
		ToGroup:   req.ToGroupID,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
	})
}

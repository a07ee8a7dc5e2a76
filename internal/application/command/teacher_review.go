package command

import (
	"context"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/teacher"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEACHER REVIEW COMMANDS
// Approve and reject share their preconditions: the request must await
// teacher action and the acting teacher must instruct the target group.
// The calling layer has already authenticated the teacher; authority over
// the group is checked here because it is a lifecycle precondition.
// ══════════════════════════════════════════════════════════════════════════════

// TeacherReviewCommand contains the data for a teacher's decision.
type TeacherReviewCommand struct {
	// RequestID identifies the request under review.
	RequestID string

	// TeacherID is the acting teacher.
	TeacherID string

	// Comment is the teacher's annotation. Optional on approval,
	// mandatory on rejection.
	Comment string
}

// Validate validates the command.
func (c TeacherReviewCommand) Validate() error {
	if c.RequestID == "" {
		return shared.NewDomainError("transfer", "Review", shared.ErrInvalidID, "request_id is required")
	}
	if c.TeacherID == "" {
		return shared.NewDomainError("transfer", "Review", shared.ErrInvalidID, "teacher_id is required")
	}
	return nil
}

// TeacherReviewResult contains the outcome of a review.
type TeacherReviewResult struct {
	// Request is the request after the transition.
	Request *transfer.Request
}

// TeacherReviewHandler handles teacher approvals and rejections.
type TeacherReviewHandler struct {
	transfers transfer.Repository
	teachers  teacher.Repository
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewTeacherReviewHandler creates a new TeacherReviewHandler.
func NewTeacherReviewHandler(
	transfers transfer.Repository,
	teachers teacher.Repository,
	publisher shared.EventPublisher,
) *TeacherReviewHandler {
	return &TeacherReviewHandler{
		transfers: transfers,
		teachers:  teachers,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (h *TeacherReviewHandler) WithClock(now func() time.Time) *TeacherReviewHandler {
	h.now = now
	return h
}

// Approve moves a request awaiting teacher action to the administrator's
// queue. The comment, if any, is appended without erasing earlier ones.
func (h *TeacherReviewHandler) Approve(ctx context.Context, cmd TeacherReviewCommand) (*TeacherReviewResult, error) {
	req, actor, err := h.loadForReview(ctx, cmd)
	if err != nil {
		return nil, err
	}

	now := h.now()
	before := req.Snapshot()
	if err := req.TeacherApprove(cmd.Comment, now); err != nil {
		return nil, err
	}

	changes := transfer.Diff(before, req, actor, now)
	if err := h.transfers.Update(ctx, req, changes); err != nil {
		return nil, err
	}

	h.publish(shared.EventTransferTeacherApproved, req, before.Status)
	return &TeacherReviewResult{Request: req}, nil
}

// Reject rejects a request awaiting teacher action. The comment is
// mandatory and is recorded on the teacher-comment trail.
func (h *TeacherReviewHandler) Reject(ctx context.Context, cmd TeacherReviewCommand) (*TeacherReviewResult, error) {
	req, actor, err := h.loadForReview(ctx, cmd)
	if err != nil {
		return nil, err
	}

	now := h.now()
	before := req.Snapshot()
	if err := req.TeacherReject(cmd.Comment, now); err != nil {
		return nil, err
	}

	changes := transfer.Diff(before, req, actor, now)
	if err := h.transfers.Update(ctx, req, changes); err != nil {
		return nil, err
	}

	h.publish(shared.EventTransferTeacherRejected, req, before.Status)
	return &TeacherReviewResult{Request: req}, nil
}

// loadForReview loads the request and verifies the shared preconditions.
func (h *TeacherReviewHandler) loadForReview(ctx context.Context, cmd TeacherReviewCommand) (*transfer.Request, *shared.Actor, error) {
	if err := cmd.Validate(); err != nil {
		return nil, nil, err
	}

	req, err := h.transfers.GetByID(ctx, cmd.RequestID)
	if err != nil {
		return nil, nil, err
	}
	if req.Status != transfer.StatusWaitingTeacher {
		return nil, nil, transfer.ErrNotAwaiting
	}

	t, err := h.teachers.GetByID(ctx, cmd.TeacherID)
	if err != nil {
		return nil, nil, err
	}
	instructs, err := h.teachers.Instructs(ctx, t.ID, req.ToGroupID)
	if err != nil {
		return nil, nil, err
	}
	if !instructs {
		return nil, nil, transfer.ErrNotInstructing
	}

	return req, shared.TeacherActor(t.ID, t.FullName), nil
}

func (h *TeacherReviewHandler) publish(eventType shared.EventType, req *transfer.Request, oldStatus transfer.Status) {
	if h.publisher == nil {
		return
	}
	_ = h.publisher.Publish(shared.TransferStatusChangedEvent{
		BaseEvent: shared.NewBaseEvent(eventType, req.ID),
		Code:      req.Code,
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		FromGroup: req.FromGroupID,
		ToGroup:   req.ToGroupID,
		OldStatus: string(oldStatus),
		NewStatus: string(req.Status),
	})
}
